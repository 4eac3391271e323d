package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Size and Variant carry a surcharge added on top of the product base price.
type Size struct {
	ID              ID              `json:"id"`
	Name            string          `json:"name"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
}

type Variant struct {
	ID              ID              `json:"id"`
	Name            string          `json:"name"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
}

type Image struct {
	ID    ID     `json:"id"`
	Image string `json:"image"`
}

type Product struct {
	ID          ID              `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Stock       int             `json:"stock"`
	Category    *Category       `json:"category"`
	Images      []Image         `json:"images"`
	Sizes       []Size          `json:"sizes"`
	Variants    []Variant       `json:"variants"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
}

// CartProduct is a product resolved for a cart add: only the size and variant
// the shopper selected, and only when they belong to the product.
type CartProduct struct {
	Product Product
	Size    *Size
	Variant *Variant
}
