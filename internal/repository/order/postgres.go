package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const orderSelect = `
SELECT o.id, o.invoice, o.user_id, o.address, o.phone, o.email,
       pm.id, pm.name, d.id, d.name, st.id, st.name, o.total_order, o.created_at
FROM orders o
JOIN payment_methods pm ON pm.id = o.payment_method_id
JOIN deliveries d ON d.id = o.delivery_id
JOIN order_statuses st ON st.id = o.status_id
`

func (r *postgresRepo) Create(ctx context.Context, in CreateInput) (domain.ID, error) {
	const q = `
INSERT INTO orders (invoice, user_id, address, phone, email, payment_method_id, delivery_id, status_id, total_order)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id
`
	var id domain.ID
	err := r.db.QueryRow(ctx, q,
		in.Invoice, in.UserID, in.Address, in.Phone, in.Email,
		in.PaymentMethodID, in.DeliveryID, domain.StatusPending, in.Total,
	).Scan(&id)
	if err != nil {
		r.logger.Warn("order repo: create", zap.String("invoice", in.Invoice), zap.Error(err))
		return 0, db.MapError(err)
	}
	r.logger.Info("order repo: created",
		zap.Int64("user_id", int64(in.UserID)),
		zap.String("invoice", in.Invoice),
		zap.String("total", in.Total.StringFixed(2)),
	)
	return id, nil
}

// CreateLines inserts all lines with a single statement.
func (r *postgresRepo) CreateLines(ctx context.Context, invoice string, lines []LineInput) error {
	if len(lines) == 0 {
		return nil
	}
	var (
		productIDs = make([]int64, len(lines))
		sizeIDs    = make([]*int64, len(lines))
		variantIDs = make([]*int64, len(lines))
		qtys       = make([]int32, len(lines))
		subtotals  = make([]string, len(lines))
		names      = make([]string, len(lines))
	)
	for i, l := range lines {
		productIDs[i] = int64(l.ProductID)
		sizeIDs[i] = optionalInt64(l.SizeID)
		variantIDs[i] = optionalInt64(l.VariantID)
		qtys[i] = int32(l.Quantity)
		subtotals[i] = l.Subtotal.String()
		names[i] = l.Name
	}
	const q = `
INSERT INTO order_products (invoice, product_id, size_id, variant_id, qty, subtotal, name)
SELECT $1, l.product_id, l.size_id, l.variant_id, l.qty, l.subtotal::numeric, l.name
FROM unnest($2::bigint[], $3::bigint[], $4::bigint[], $5::int[], $6::text[], $7::text[])
    AS l(product_id, size_id, variant_id, qty, subtotal, name)
`
	if _, err := r.db.Exec(ctx, q, invoice, productIDs, sizeIDs, variantIDs, qtys, subtotals, names); err != nil {
		r.logger.Warn("order repo: create lines", zap.String("invoice", invoice), zap.Int("lines", len(lines)), zap.Error(err))
		return db.MapError(err)
	}
	return nil
}

func (r *postgresRepo) GetByInvoice(ctx context.Context, userID domain.ID, invoice string) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, orderSelect+`WHERE o.invoice = $1 AND o.user_id = $2`, invoice, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("order repo: get", zap.String("invoice", invoice), zap.Error(err))
		return nil, err
	}
	orders := []domain.Order{o}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *postgresRepo) History(ctx context.Context, f HistoryFilter) ([]domain.Order, int, error) {
	where, args := buildHistoryWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM orders o `+where, args...).Scan(&total); err != nil {
		r.logger.Error("order repo: count history", zap.Int64("user_id", int64(f.UserID)), zap.Error(err))
		return nil, 0, err
	}

	q := orderSelect + where + ` ORDER BY o.created_at DESC, o.id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		q += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("order repo: history", zap.Int64("user_id", int64(f.UserID)), zap.Error(err))
		return nil, 0, err
	}
	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *postgresRepo) EnsurePaymentMethod(ctx context.Context, name string) (*domain.PaymentMethod, error) {
	var pm domain.PaymentMethod
	err := r.db.QueryRow(ctx, `
INSERT INTO payment_methods (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name
`, name).Scan(&pm.ID, &pm.Name)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &pm, nil
}

func (r *postgresRepo) EnsureDelivery(ctx context.Context, name string) (*domain.Delivery, error) {
	var d domain.Delivery
	err := r.db.QueryRow(ctx, `
INSERT INTO deliveries (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name
`, name).Scan(&d.ID, &d.Name)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &d, nil
}

func (r *postgresRepo) attachLines(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	invoices := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		orders[i].Lines = []domain.OrderLine{}
		invoices[i] = orders[i].Invoice
		index[orders[i].Invoice] = i
	}

	const q = `
SELECT op.id, op.invoice, op.product_id, op.size_id, op.variant_id, op.qty, op.subtotal, op.name,
       s.name, s.additional_price, v.name, v.additional_price
FROM order_products op
LEFT JOIN sizes s ON s.id = op.size_id
LEFT JOIN variants v ON v.id = op.variant_id
WHERE op.invoice = ANY($1)
ORDER BY op.id
`
	rows, err := r.db.Query(ctx, q, invoices)
	if err != nil {
		r.logger.Error("order repo: lines", zap.Int("orders", len(orders)), zap.Error(err))
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l                   domain.OrderLine
			sizeName, varName   *string
			sizePrice, varPrice decimal.NullDecimal
		)
		if err := rows.Scan(&l.ID, &l.Invoice, &l.ProductID, &l.SizeID, &l.VariantID, &l.Quantity, &l.Subtotal, &l.Name,
			&sizeName, &sizePrice, &varName, &varPrice); err != nil {
			return err
		}
		if l.SizeID != nil && sizeName != nil {
			l.Size = &domain.Size{ID: *l.SizeID, Name: *sizeName, AdditionalPrice: sizePrice.Decimal}
		}
		if l.VariantID != nil && varName != nil {
			l.Variant = &domain.Variant{ID: *l.VariantID, Name: *varName, AdditionalPrice: varPrice.Decimal}
		}
		i := index[l.Invoice]
		orders[i].Lines = append(orders[i].Lines, l)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.Invoice, &o.UserID, &o.Address, &o.Phone, &o.Email,
		&o.PaymentMethod.ID, &o.PaymentMethod.Name,
		&o.Delivery.ID, &o.Delivery.Name,
		&o.Status.ID, &o.Status.Name,
		&o.TotalOrder, &o.CreatedAt,
	)
	return o, err
}

func buildHistoryWhere(f HistoryFilter) (string, []any) {
	conds := []string{"o.user_id = $1"}
	args := []any{f.UserID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.StatusID != 0 {
		add("o.status_id = $%d", f.StatusID)
	}
	if f.From != nil {
		add("o.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("o.created_at < $%d", *f.To)
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func optionalInt64(id *domain.ID) *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}
