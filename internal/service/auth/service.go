package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront-api/internal/domain"
	"storefront-api/internal/logging"
	userrepo "storefront-api/internal/repository/user"
)

const passwordMin = 8

// Service handles registration, login and bearer token verification.
type Service struct {
	repo     userrepo.Repository
	tokens   *tokenManager
	validate *validator.Validate
	logger   *zap.Logger
}

func New(repo userrepo.Repository, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		tokens:   newTokenManager(secret, ttl),
		validate: validator.New(),
		logger:   logging.OrNop(logger),
	}
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a user account with the default role.
func (s *Service) Register(ctx context.Context, in Credentials) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, domain.NewValidationError("email", "is required")
	}
	if s.validate.Var(email, "email") != nil {
		return nil, domain.NewValidationError("email", "must be a valid email address")
	}
	if len(in.Password) < passwordMin {
		return nil, domain.NewValidationError("password", fmt.Sprintf("must be at least %d characters", passwordMin))
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, domain.User{Email: email, PasswordHash: string(hashed), Role: domain.RoleUser})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("email %s: %w", email, domain.ErrAlreadyExists)
		}
		return nil, err
	}
	return u, nil
}

// Login checks credentials and returns a signed token with the user.
func (s *Service) Login(ctx context.Context, in Credentials) (string, *domain.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		s.logger.Info("login rejected", zap.Int64("user_id", int64(u.ID)))
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(*u)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// Verify validates a raw bearer token.
func (s *Service) Verify(token string) (Claims, error) {
	return s.tokens.Verify(token)
}
