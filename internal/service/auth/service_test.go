package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/domain"
	userrepo "storefront-api/internal/repository/user"
)

// memoryRepo is a lightweight in-memory user repository for tests.
type memoryRepo struct {
	byEmail map[string]domain.User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byEmail: map[string]domain.User{}}
}

func (r *memoryRepo) Create(_ context.Context, u domain.User) (*domain.User, error) {
	key := strings.ToLower(u.Email)
	if _, ok := r.byEmail[key]; ok {
		return nil, domain.ErrAlreadyExists
	}
	u.ID = domain.ID(len(r.byEmail) + 1)
	r.byEmail[key] = u
	return &u, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id domain.ID) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) PhoneTaken(context.Context, string, domain.ID) (bool, error) {
	return false, nil
}

func (r *memoryRepo) UpsertProfile(context.Context, domain.ID, userrepo.ProfileUpdate) (*domain.Profile, error) {
	return nil, nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := New(newMemoryRepo(), "secret", time.Hour, nil)
	ctx := context.Background()

	u, err := svc.Register(ctx, Credentials{Email: " Ann@Example.com ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.NotEqual(t, "password1", u.PasswordHash)

	token, logged, err := svc.Login(ctx, Credentials{Email: "ann@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestRegister_Rejects(t *testing.T) {
	svc := New(newMemoryRepo(), "secret", time.Hour, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, Credentials{Email: "", Password: "password1"})
	assert.True(t, domain.IsValidation(err))
	_, err = svc.Register(ctx, Credentials{Email: "nope", Password: "password1"})
	assert.True(t, domain.IsValidation(err))
	_, err = svc.Register(ctx, Credentials{Email: "ann@example.com", Password: "short"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Register(ctx, Credentials{Email: "ann@example.com", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, Credentials{Email: "ANN@example.com", Password: "password1"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := New(newMemoryRepo(), "secret", time.Hour, nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, Credentials{Email: "ann@example.com", Password: "password1"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, Credentials{Email: "ann@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, Credentials{Email: "bob@example.com", Password: "password1"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestVerify_Rejects(t *testing.T) {
	svc := New(newMemoryRepo(), "secret", time.Hour, nil)
	u := domain.User{ID: 5, Email: "ann@example.com", Role: domain.RoleAdmin}

	other := newTokenManager("other-secret", time.Hour)
	forged, err := other.Issue(u)
	require.NoError(t, err)
	_, err = svc.Verify(forged)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	expired := newTokenManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(u)
	require.NoError(t, err)
	_, err = svc.Verify(old)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "5"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(none)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Verify("garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
