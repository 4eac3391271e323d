// Package txmanager runs a unit of work against repositories bound to one
// database transaction.
package txmanager

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"storefront-api/internal/db"
	"storefront-api/internal/logging"
	"storefront-api/internal/repository/cart"
	"storefront-api/internal/repository/order"
)

// TxRepos exposes the repositories that share the running transaction.
type TxRepos interface {
	Carts() cart.Repository
	Orders() order.Repository
}

type Manager interface {
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}

type txRepos struct {
	carts  cart.Repository
	orders order.Repository
}

func (r *txRepos) Carts() cart.Repository   { return r.carts }
func (r *txRepos) Orders() order.Repository { return r.orders }

type pgxManager struct {
	db     db.DBTX
	logger *zap.Logger
}

func NewPostgres(q db.DBTX, logger *zap.Logger) Manager {
	return &pgxManager{db: q, logger: logging.OrNop(logger)}
}

func (m *pgxManager) WithinTx(ctx context.Context, fn func(r TxRepos) error) error {
	return db.InTx(ctx, m.db, func(tx pgx.Tx) error {
		return fn(&txRepos{
			carts:  cart.NewPostgres(tx, m.logger),
			orders: order.NewPostgres(tx, m.logger),
		})
	})
}
