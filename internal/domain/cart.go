package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one pending selection in a user's cart. ProductName is captured
// when the line is created and later copied into order lines as is.
type CartLine struct {
	ID          ID              `json:"id"`
	UserID      ID              `json:"user_id"`
	ProductID   ID              `json:"product_id"`
	SizeID      *ID             `json:"size_id"`
	VariantID   *ID             `json:"variant_id"`
	Quantity    int             `json:"qty"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ProductName string          `json:"product_name"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Product *Product `json:"product,omitempty"`
	Size    *Size    `json:"size,omitempty"`
	Variant *Variant `json:"variant,omitempty"`
}
