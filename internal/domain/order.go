package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusPending is the status every order starts in.
const StatusPending ID = 1

type PaymentMethod struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type Delivery struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type OrderStatus struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type Order struct {
	ID            ID              `json:"id"`
	Invoice       string          `json:"invoice"`
	UserID        ID              `json:"user_id"`
	Address       string          `json:"address"`
	Phone         string          `json:"phone"`
	Email         string          `json:"email"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Delivery      Delivery        `json:"delivery"`
	Status        OrderStatus     `json:"status"`
	TotalOrder    decimal.Decimal `json:"total_order"`
	CreatedAt     time.Time       `json:"created_at"`
	Lines         []OrderLine     `json:"orders_products"`
}

// OrderLine is a snapshot of a cart line at checkout. Quantity, Subtotal and
// Name never follow later catalog changes; Product/Size/Variant are display only.
type OrderLine struct {
	ID        ID              `json:"id"`
	Invoice   string          `json:"invoice"`
	ProductID ID              `json:"product_id"`
	SizeID    *ID             `json:"size_id"`
	VariantID *ID             `json:"variant_id"`
	Quantity  int             `json:"qty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Name      string          `json:"name"`

	Product *Product `json:"product,omitempty"`
	Size    *Size    `json:"size,omitempty"`
	Variant *Variant `json:"variant,omitempty"`
}
