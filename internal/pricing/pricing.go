// Package pricing computes cart line amounts with fixed-point decimals.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront-api/internal/domain"
)

// Places is the number of fractional digits money is kept at.
const Places = 2

// MaxQuantity bounds a single cart line; the carts table enforces the same
// limit on merged lines.
const MaxQuantity = 10000

// MaxAmount is the largest value a NUMERIC(12,2) money column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// UnitPrice returns base plus the optional size and variant surcharges.
func UnitPrice(base decimal.Decimal, size, variant *decimal.Decimal) decimal.Decimal {
	unit := base
	if size != nil {
		unit = unit.Add(*size)
	}
	if variant != nil {
		unit = unit.Add(*variant)
	}
	return unit
}

// Subtotal returns UnitPrice * qty rounded to Places. qty must be positive
// and at most MaxQuantity, and the result must fit in MaxAmount.
func Subtotal(base decimal.Decimal, size, variant *decimal.Decimal, qty int) (decimal.Decimal, error) {
	if qty <= 0 {
		return decimal.Zero, domain.ErrInvalidQuantity
	}
	if qty > MaxQuantity {
		return decimal.Zero, domain.NewValidationError("quantity", fmt.Sprintf("must not exceed %d", MaxQuantity))
	}
	subtotal := UnitPrice(base, size, variant).Mul(decimal.NewFromInt(int64(qty))).Round(Places)
	if subtotal.GreaterThan(MaxAmount) {
		return decimal.Zero, domain.NewValidationError("quantity", "line total is too large")
	}
	return subtotal, nil
}

// LineSubtotal prices a resolved cart product.
func LineSubtotal(p domain.CartProduct, qty int) (decimal.Decimal, error) {
	var size, variant *decimal.Decimal
	if p.Size != nil {
		size = &p.Size.AdditionalPrice
	}
	if p.Variant != nil {
		variant = &p.Variant.AdditionalPrice
	}
	return Subtotal(p.Product.BasePrice, size, variant, qty)
}

// Sum adds amounts exactly.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
