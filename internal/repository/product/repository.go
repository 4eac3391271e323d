package product

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront-api/internal/domain"
)

// ListFilter narrows catalog listings. The zero value lists every active product.
type ListFilter struct {
	Search     string
	CategoryID domain.ID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	SortBy     string
	Desc       bool
	Limit      int
	Offset     int
}

type CreateInput struct {
	Title       string
	Description string
	BasePrice   decimal.Decimal
	Stock       int
	CategoryID  *domain.ID
	SizeIDs     []domain.ID
	VariantIDs  []domain.ID
	Images      []string
}

// UpdateInput holds a partial update. Nil fields are left untouched.
// SetCategory with a nil CategoryID detaches the category.
type UpdateInput struct {
	Title       *string
	Description *string
	BasePrice   *decimal.Decimal
	Stock       *int
	SetCategory bool
	CategoryID  *domain.ID
	SizeIDs     *[]domain.ID
	VariantIDs  *[]domain.ID
}

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]domain.Product, int, error)
	GetByID(ctx context.Context, id domain.ID) (*domain.Product, error)
	GetMany(ctx context.Context, ids []domain.ID) (map[domain.ID]domain.Product, error)
	GetForCart(ctx context.Context, productID domain.ID, sizeID, variantID *domain.ID) (*domain.CartProduct, error)
	Favorites(ctx context.Context, limit int) ([]domain.Product, error)
	TitleTaken(ctx context.Context, title string, exceptID domain.ID) (bool, error)
	Create(ctx context.Context, in CreateInput) (*domain.Product, error)
	Upsert(ctx context.Context, in CreateInput) (*domain.Product, error)
	Update(ctx context.Context, id domain.ID, in UpdateInput) (*domain.Product, error)
	SoftDelete(ctx context.Context, id domain.ID) error
	// EnsureSize and EnsureVariant create the option when missing and
	// otherwise refresh its surcharge.
	EnsureSize(ctx context.Context, name string, additional decimal.Decimal) (*domain.Size, error)
	EnsureVariant(ctx context.Context, name string, additional decimal.Decimal) (*domain.Variant, error)
}
