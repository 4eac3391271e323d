package txmanager

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/db/dbtest"
	"storefront-api/internal/domain"
	"storefront-api/internal/repository/cart"
	"storefront-api/internal/repository/order"
)

func TestWithinTx_SharesOneTransactionAndRollsBack(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()

	var userID, productID domain.ID
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO users (email, password_hash) VALUES ('ann@example.com', 'x') RETURNING id`).Scan(&userID))
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO products (title, base_price) VALUES ('Latte', 10.00) RETURNING id`).Scan(&productID))
	orders := order.NewPostgres(pool, nil)
	pm, err := orders.EnsurePaymentMethod(ctx, "Card")
	require.NoError(t, err)
	dl, err := orders.EnsureDelivery(ctx, "Courier")
	require.NoError(t, err)

	carts := cart.NewPostgres(pool, nil)
	_, err = carts.Upsert(ctx, cart.UpsertInput{UserID: userID, ProductID: productID, Quantity: 2, Subtotal: decimal.RequireFromString("20"), ProductName: "Latte"})
	require.NoError(t, err)

	injected := errors.New("injected failure")
	err = NewPostgres(pool, nil).WithinTx(ctx, func(r TxRepos) error {
		lines, err := r.Carts().LockByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, lines, 1)

		_, err = r.Orders().Create(ctx, order.CreateInput{
			Invoice: "INV-TX", UserID: userID, Address: "a", Phone: "p", Email: "ann@example.com",
			PaymentMethodID: pm.ID, DeliveryID: dl.ID, Total: decimal.RequireFromString("20"),
		})
		require.NoError(t, err)

		// The order is visible inside the transaction only.
		_, err = r.Orders().GetByInvoice(ctx, userID, "INV-TX")
		require.NoError(t, err)
		_, err = orders.GetByInvoice(ctx, userID, "INV-TX")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		n, err := r.Carts().DeleteLines(ctx, userID, []domain.ID{lines[0].ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return injected
	})
	require.ErrorIs(t, err, injected)

	_, err = orders.GetByInvoice(ctx, userID, "INV-TX")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	lines, err := carts.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestWithinTx_Commits(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()

	err := NewPostgres(pool, nil).WithinTx(ctx, func(r TxRepos) error {
		_, err := r.Orders().EnsureDelivery(ctx, "Pick Up")
		return err
	})
	require.NoError(t, err)

	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM deliveries WHERE name = 'Pick Up'`).Scan(&n))
	assert.Equal(t, 1, n)
}
