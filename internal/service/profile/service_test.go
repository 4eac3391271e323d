package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/domain"
	userrepo "storefront-api/internal/repository/user"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUsers) GetByID(ctx context.Context, id domain.ID) (*domain.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUsers) PhoneTaken(ctx context.Context, phone string, except domain.ID) (bool, error) {
	args := m.Called(ctx, phone, except)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) UpsertProfile(ctx context.Context, userID domain.ID, in userrepo.ProfileUpdate) (*domain.Profile, error) {
	args := m.Called(ctx, userID, in)
	p, _ := args.Get(0).(*domain.Profile)
	return p, args.Error(1)
}

func strp(s string) *string { return &s }

func TestGet_EmptyProfile(t *testing.T) {
	users := &mockUsers{}
	users.On("GetByID", mock.Anything, domain.ID(7)).Return(&domain.User{ID: 7, Email: "ann@example.com"}, nil)

	u, err := New(users, nil).Get(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, u.Profile)
	assert.Equal(t, domain.ID(7), u.Profile.UserID)
}

func TestGet_Missing(t *testing.T) {
	users := &mockUsers{}
	users.On("GetByID", mock.Anything, domain.ID(7)).Return(nil, domain.ErrNotFound)

	_, err := New(users, nil).Get(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	users := &mockUsers{}
	users.On("PhoneTaken", mock.Anything, "0800", domain.ID(7)).Return(false, nil)
	users.On("GetByID", mock.Anything, domain.ID(7)).Return(&domain.User{ID: 7}, nil)
	users.On("UpsertProfile", mock.Anything, domain.ID(7), mock.MatchedBy(func(in userrepo.ProfileUpdate) bool {
		return in.FullName != nil && *in.FullName == "Ann" && in.Phone != nil && *in.Phone == "0800" && in.Address == nil
	})).Return(&domain.Profile{UserID: 7, FullName: "Ann", Phone: "0800"}, nil)

	u, err := New(users, nil).Update(context.Background(), 7, UpdateInput{FullName: strp(" Ann "), Phone: strp("0800")})
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Profile.FullName)
	users.AssertExpectations(t)
}

func TestUpdate_Rejects(t *testing.T) {
	users := &mockUsers{}
	users.On("PhoneTaken", mock.Anything, "0800", domain.ID(7)).Return(true, nil)
	svc := New(users, nil)

	_, err := svc.Update(context.Background(), 7, UpdateInput{})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Update(context.Background(), 7, UpdateInput{Phone: strp("0800")})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	users.AssertNotCalled(t, "UpsertProfile", mock.Anything, mock.Anything, mock.Anything)
}
