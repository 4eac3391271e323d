package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storefront-api/internal/domain"
)

type CreateInput struct {
	Invoice         string
	UserID          domain.ID
	Address         string
	Phone           string
	Email           string
	PaymentMethodID domain.ID
	DeliveryID      domain.ID
	Total           decimal.Decimal
}

// LineInput is a cart line copied verbatim into an order.
type LineInput struct {
	ProductID domain.ID
	SizeID    *domain.ID
	VariantID *domain.ID
	Quantity  int
	Subtotal  decimal.Decimal
	Name      string
}

// HistoryFilter selects a user's orders. Zero StatusID and nil bounds match everything.
// From is inclusive and To exclusive.
type HistoryFilter struct {
	UserID   domain.ID
	StatusID domain.ID
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (domain.ID, error)
	CreateLines(ctx context.Context, invoice string, lines []LineInput) error
	GetByInvoice(ctx context.Context, userID domain.ID, invoice string) (*domain.Order, error)
	History(ctx context.Context, f HistoryFilter) ([]domain.Order, int, error)
	EnsurePaymentMethod(ctx context.Context, name string) (*domain.PaymentMethod, error)
	EnsureDelivery(ctx context.Context, name string) (*domain.Delivery, error)
}
