package profile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storefront-api/internal/domain"
	"storefront-api/internal/logging"
	userrepo "storefront-api/internal/repository/user"
)

type Service struct {
	users  userrepo.Repository
	logger *zap.Logger
}

func New(users userrepo.Repository, logger *zap.Logger) *Service {
	return &Service{users: users, logger: logging.OrNop(logger)}
}

// Get returns the account with its profile. Users without a saved profile
// get an empty one.
func (s *Service) Get(ctx context.Context, userID domain.ID) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Profile == nil {
		u.Profile = &domain.Profile{UserID: u.ID}
	}
	return u, nil
}

type UpdateInput struct {
	FullName *string `json:"fullname"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

func (s *Service) Update(ctx context.Context, userID domain.ID, in UpdateInput) (*domain.User, error) {
	if in.FullName == nil && in.Phone == nil && in.Address == nil {
		return nil, domain.NewValidationError("", "no fields to update")
	}
	in.FullName = trimmed(in.FullName)
	in.Phone = trimmed(in.Phone)
	in.Address = trimmed(in.Address)

	if in.Phone != nil && *in.Phone != "" {
		taken, err := s.users.PhoneTaken(ctx, *in.Phone, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("phone %s: %w", *in.Phone, domain.ErrAlreadyExists)
		}
	}

	// Loading the user first keeps deleted accounts from getting a profile.
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.users.UpsertProfile(ctx, userID, userrepo.ProfileUpdate{
		FullName: in.FullName,
		Phone:    in.Phone,
		Address:  in.Address,
	})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.logger.Info("profile updated", zap.Int64("user_id", int64(userID)))
	u.Profile = p
	return u, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
