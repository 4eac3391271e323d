package category

import (
	"context"
	"fmt"

	"storefront-api/internal/domain"
)

type lister interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type Service struct {
	repo lister
}

func New(repo lister) *Service {
	return &Service{repo: repo}
}

// List returns every category ordered by name.
func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
