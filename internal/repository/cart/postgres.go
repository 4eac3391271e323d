package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-api/internal/db"
	"storefront-api/internal/domain"
	"storefront-api/internal/logging"
)

type postgresRepo struct {
	db     db.DBTX
	logger *zap.Logger
}

func NewPostgres(q db.DBTX, logger *zap.Logger) Repository {
	return &postgresRepo{db: q, logger: logging.OrNop(logger)}
}

const lineSelect = `
SELECT c.id, c.user_id, c.product_id, c.size_id, c.variant_id, c.qty, c.subtotal, c.product_name,
       c.created_at, c.updated_at, s.name, s.additional_price, v.name, v.additional_price
FROM carts c
LEFT JOIN sizes s ON s.id = c.size_id
LEFT JOIN variants v ON v.id = c.variant_id
`

// Upsert merges into the existing line in one statement so concurrent adds
// of the same selection never lose an increment.
func (r *postgresRepo) Upsert(ctx context.Context, in UpsertInput) (*domain.CartLine, error) {
	const q = `
INSERT INTO carts (user_id, product_id, size_id, variant_id, qty, subtotal, product_name)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT ON CONSTRAINT carts_line_key DO UPDATE SET
    qty = carts.qty + EXCLUDED.qty,
    subtotal = carts.subtotal + EXCLUDED.subtotal,
    updated_at = now()
RETURNING id
`
	var id domain.ID
	err := r.db.QueryRow(ctx, q, in.UserID, in.ProductID, in.SizeID, in.VariantID, in.Quantity, in.Subtotal, in.ProductName).Scan(&id)
	if err != nil {
		r.logger.Error("cart repo: upsert",
			zap.Int64("user_id", int64(in.UserID)),
			zap.Int64("product_id", int64(in.ProductID)),
			zap.Error(err),
		)
		return nil, db.MapError(err)
	}
	r.logger.Debug("cart repo: upsert", zap.Int64("user_id", int64(in.UserID)), zap.Int64("line_id", int64(id)))
	return r.GetByID(ctx, in.UserID, id)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID domain.ID) ([]domain.CartLine, error) {
	rows, err := r.db.Query(ctx, lineSelect+`WHERE c.user_id = $1 ORDER BY c.id DESC`, userID)
	if err != nil {
		r.logger.Error("cart repo: list", zap.Int64("user_id", int64(userID)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *postgresRepo) GetByID(ctx context.Context, userID, lineID domain.ID) (*domain.CartLine, error) {
	l, err := scanLine(r.db.QueryRow(ctx, lineSelect+`WHERE c.id = $1 AND c.user_id = $2`, lineID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("cart repo: get", zap.Int64("line_id", int64(lineID)), zap.Error(err))
		return nil, err
	}
	return &l, nil
}

func (r *postgresRepo) LockByUser(ctx context.Context, userID domain.ID) ([]domain.CartLine, error) {
	const q = `
SELECT id, user_id, product_id, size_id, variant_id, qty, subtotal, product_name, created_at, updated_at
FROM carts
WHERE user_id = $1
ORDER BY id
FOR UPDATE
`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		r.logger.Error("cart repo: lock", zap.Int64("user_id", int64(userID)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.SizeID, &l.VariantID, &l.Quantity, &l.Subtotal, &l.ProductName, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *postgresRepo) DeleteLines(ctx context.Context, userID domain.ID, lineIDs []domain.ID) (int64, error) {
	if len(lineIDs) == 0 {
		return 0, nil
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM carts WHERE user_id = $1 AND id = ANY($2)`, userID, domain.Int64s(lineIDs))
	if err != nil {
		r.logger.Error("cart repo: delete lines", zap.Int64("user_id", int64(userID)), zap.Error(err))
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanLine(row pgx.Row) (domain.CartLine, error) {
	var (
		l                   domain.CartLine
		sizeName, varName   *string
		sizePrice, varPrice decimal.NullDecimal
	)
	err := row.Scan(
		&l.ID, &l.UserID, &l.ProductID, &l.SizeID, &l.VariantID, &l.Quantity, &l.Subtotal, &l.ProductName,
		&l.CreatedAt, &l.UpdatedAt, &sizeName, &sizePrice, &varName, &varPrice,
	)
	if err != nil {
		return l, err
	}
	if l.SizeID != nil && sizeName != nil {
		l.Size = &domain.Size{ID: *l.SizeID, Name: *sizeName, AdditionalPrice: sizePrice.Decimal}
	}
	if l.VariantID != nil && varName != nil {
		l.Variant = &domain.Variant{ID: *l.VariantID, Name: *varName, AdditionalPrice: varPrice.Decimal}
	}
	return l, nil
}
