package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/domain"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestSubtotal(t *testing.T) {
	size := decimal.RequireFromString("2.50")
	variant := decimal.RequireFromString("1.25")

	cases := []struct {
		name    string
		base    string
		size    *decimal.Decimal
		variant *decimal.Decimal
		qty     int
		want    string
	}{
		{"base only", "10.00", nil, nil, 2, "20.00"},
		{"with size", "10.00", &size, nil, 3, "37.50"},
		{"with variant", "10.00", nil, &variant, 1, "11.25"},
		{"size and variant", "10.00", &size, &variant, 4, "55.00"},
		{"no float drift", "0.10", nil, nil, 3, "0.30"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Subtotal(dec(t, tc.base), tc.size, tc.variant, tc.qty)
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(t, tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestSubtotal_InvalidQuantity(t *testing.T) {
	for _, qty := range []int{0, -1} {
		_, err := Subtotal(decimal.NewFromInt(10), nil, nil, qty)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	}
}

func TestSubtotal_UpperBounds(t *testing.T) {
	_, err := Subtotal(decimal.NewFromInt(1), nil, nil, MaxQuantity)
	assert.NoError(t, err)

	_, err = Subtotal(decimal.NewFromInt(1), nil, nil, MaxQuantity+1)
	assert.True(t, domain.IsValidation(err))

	_, err = Subtotal(dec(t, "9999999999.99"), nil, nil, 2)
	assert.True(t, domain.IsValidation(err))
}

func TestSubtotal_MergeMatchesSingleAdd(t *testing.T) {
	base := dec(t, "10.00")
	size := dec(t, "2.50")

	first, err := Subtotal(base, &size, nil, 3)
	require.NoError(t, err)
	second, err := Subtotal(base, &size, nil, 1)
	require.NoError(t, err)
	whole, err := Subtotal(base, &size, nil, 4)
	require.NoError(t, err)

	assert.True(t, first.Add(second).Equal(whole))
	assert.Equal(t, "50", whole.String())
}

func TestLineSubtotal(t *testing.T) {
	p := domain.CartProduct{
		Product: domain.Product{BasePrice: dec(t, "19.99")},
		Variant: &domain.Variant{AdditionalPrice: dec(t, "5.01")},
	}
	got, err := LineSubtotal(p, 2)
	require.NoError(t, err)
	assert.Equal(t, "50", got.String())
}

func TestSum(t *testing.T) {
	got := Sum(dec(t, "37.50"), dec(t, "12.00"))
	assert.True(t, got.Equal(dec(t, "49.50")))
	assert.True(t, Sum().Equal(decimal.Zero))
}
