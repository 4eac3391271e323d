package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront-api/internal/domain"
)

// UpsertInput describes a selection to add. Quantity and Subtotal are added
// onto an existing line with the same product, size and variant.
type UpsertInput struct {
	UserID      domain.ID
	ProductID   domain.ID
	SizeID      *domain.ID
	VariantID   *domain.ID
	Quantity    int
	Subtotal    decimal.Decimal
	ProductName string
}

type Repository interface {
	Upsert(ctx context.Context, in UpsertInput) (*domain.CartLine, error)
	ListByUser(ctx context.Context, userID domain.ID) ([]domain.CartLine, error)
	GetByID(ctx context.Context, userID, lineID domain.ID) (*domain.CartLine, error)
	// LockByUser reads and row-locks every line of the user. It must run inside a transaction.
	LockByUser(ctx context.Context, userID domain.ID) ([]domain.CartLine, error)
	DeleteLines(ctx context.Context, userID domain.ID, lineIDs []domain.ID) (int64, error)
}
