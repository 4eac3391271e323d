package user

import (
	"context"

	"storefront-api/internal/domain"
)

// ProfileUpdate holds the profile fields to change. Nil fields are kept.
type ProfileUpdate struct {
	FullName *string
	Phone    *string
	Address  *string
}

// Repository persists users and their profiles.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByID returns an active user with its profile attached when one exists.
	GetByID(ctx context.Context, id domain.ID) (*domain.User, error)
	PhoneTaken(ctx context.Context, phone string, exceptUserID domain.ID) (bool, error)
	UpsertProfile(ctx context.Context, userID domain.ID, in ProfileUpdate) (*domain.Profile, error)
}
