package category

import (
	"context"

	"storefront-api/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Category, error)
	// EnsureByName returns the category with name, creating it when missing.
	EnsureByName(ctx context.Context, name string) (*domain.Category, error)
}
