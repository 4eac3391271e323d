package product

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

const productSelect = `
SELECT p.id, p.title, p.description, p.base_price, p.stock, p.created_at, p.updated_at, p.deleted_at, c.id, c.name
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
`

var sortColumns = map[string]string{
	"id":    "p.id",
	"title": "p.title",
	"price": "p.base_price",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Product, int, error) {
	where, args := buildListWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM products p `+where, args...).Scan(&total); err != nil {
		r.logger.Error("product repo: count", zap.Error(err))
		return nil, 0, err
	}

	q := productSelect + where + " " + orderClause(f)
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		q += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	products, err := r.queryProducts(ctx, q, args...)
	if err != nil {
		r.logger.Error("product repo: list", zap.Error(err))
		return nil, 0, err
	}
	r.logger.Debug("product repo: list", zap.Int("count", len(products)), zap.Int("total", total))
	return products, total, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id domain.ID) (*domain.Product, error) {
	products, err := r.queryProducts(ctx, productSelect+`WHERE p.id = $1 AND p.deleted_at IS NULL`, id)
	if err != nil {
		r.logger.Error("product repo: get", zap.Int64("product_id", int64(id)), zap.Error(err))
		return nil, err
	}
	if len(products) == 0 {
		return nil, domain.ErrNotFound
	}
	return &products[0], nil
}

// GetMany includes soft-deleted products so carts and orders referencing
// them can still be displayed.
func (r *postgresRepo) GetMany(ctx context.Context, ids []domain.ID) (map[domain.ID]domain.Product, error) {
	out := make(map[domain.ID]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	products, err := r.queryProducts(ctx, productSelect+`WHERE p.id = ANY($1)`, domain.Int64s(ids))
	if err != nil {
		r.logger.Error("product repo: get many", zap.Int("ids", len(ids)), zap.Error(err))
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *postgresRepo) GetForCart(ctx context.Context, productID domain.ID, sizeID, variantID *domain.ID) (*domain.CartProduct, error) {
	var out domain.CartProduct
	err := r.db.QueryRow(ctx, `
SELECT id, title, base_price, stock
FROM products
WHERE id = $1 AND deleted_at IS NULL
`, productID).Scan(&out.Product.ID, &out.Product.Title, &out.Product.BasePrice, &out.Product.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
		}
		r.logger.Error("product repo: get for cart", zap.Int64("product_id", int64(productID)), zap.Error(err))
		return nil, err
	}

	if sizeID != nil {
		var s domain.Size
		err := r.db.QueryRow(ctx, `
SELECT s.id, s.name, s.additional_price
FROM product_sizes ps
JOIN sizes s ON s.id = ps.size_id
WHERE ps.product_id = $1 AND ps.size_id = $2
`, productID, *sizeID).Scan(&s.ID, &s.Name, &s.AdditionalPrice)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("size %s for product %s: %w", *sizeID, productID, domain.ErrNotFound)
			}
			return nil, err
		}
		out.Size = &s
	}

	if variantID != nil {
		var v domain.Variant
		err := r.db.QueryRow(ctx, `
SELECT v.id, v.name, v.additional_price
FROM product_variants pv
JOIN variants v ON v.id = pv.variant_id
WHERE pv.product_id = $1 AND pv.variant_id = $2
`, productID, *variantID).Scan(&v.ID, &v.Name, &v.AdditionalPrice)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("variant %s for product %s: %w", *variantID, productID, domain.ErrNotFound)
			}
			return nil, err
		}
		out.Variant = &v
	}

	return &out, nil
}

func (r *postgresRepo) Favorites(ctx context.Context, limit int) ([]domain.Product, error) {
	const q = `
SELECT p.id, p.title, p.description, p.base_price, p.stock, p.created_at, p.updated_at, p.deleted_at, c.id, c.name
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
LEFT JOIN (
	SELECT product_id, SUM(qty) AS sold
	FROM order_products
	GROUP BY product_id
) s ON s.product_id = p.id
WHERE p.deleted_at IS NULL
ORDER BY COALESCE(s.sold, 0) DESC, p.id DESC
LIMIT $1
`
	products, err := r.queryProducts(ctx, q, limit)
	if err != nil {
		r.logger.Error("product repo: favorites", zap.Error(err))
		return nil, err
	}
	return products, nil
}

func (r *postgresRepo) TitleTaken(ctx context.Context, title string, exceptID domain.ID) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM products
	WHERE title = $1 AND deleted_at IS NULL AND id <> $2
)
`, title, exceptID).Scan(&taken)
	return taken, err
}

func (r *postgresRepo) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	var id domain.ID
	err := db.InTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
INSERT INTO products (title, description, base_price, stock, category_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`, in.Title, in.Description, in.BasePrice, in.Stock, in.CategoryID).Scan(&id); err != nil {
			return err
		}
		return writeRelations(ctx, tx, id, &in.SizeIDs, &in.VariantIDs, in.Images)
	})
	if err != nil {
		r.logger.Warn("product repo: create", zap.String("title", in.Title), zap.Error(err))
		return nil, db.MapError(err)
	}
	r.logger.Info("product repo: created", zap.Int64("product_id", int64(id)), zap.String("title", in.Title))
	return r.GetByID(ctx, id)
}

// Upsert creates a product or refreshes the active product with the same title.
func (r *postgresRepo) Upsert(ctx context.Context, in CreateInput) (*domain.Product, error) {
	var id domain.ID
	err := db.InTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
INSERT INTO products (title, description, base_price, stock, category_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (title) WHERE deleted_at IS NULL DO UPDATE SET
    description = EXCLUDED.description,
    base_price = EXCLUDED.base_price,
    stock = EXCLUDED.stock,
    category_id = EXCLUDED.category_id,
    updated_at = now()
RETURNING id
`, in.Title, in.Description, in.BasePrice, in.Stock, in.CategoryID).Scan(&id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, id); err != nil {
			return err
		}
		return writeRelations(ctx, tx, id, &in.SizeIDs, &in.VariantIDs, in.Images)
	})
	if err != nil {
		r.logger.Warn("product repo: upsert", zap.String("title", in.Title), zap.Error(err))
		return nil, db.MapError(err)
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Update(ctx context.Context, id domain.ID, in UpdateInput) (*domain.Product, error) {
	set, args := buildUpdateSet(in)
	args = append(args, id)
	q := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d AND deleted_at IS NULL`, set, len(args))

	err := db.InTx(ctx, r.db, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, q, args...)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return writeRelations(ctx, tx, id, in.SizeIDs, in.VariantIDs, nil)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn("product repo: update", zap.Int64("product_id", int64(id)), zap.Error(err))
		}
		return nil, db.MapError(err)
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) SoftDelete(ctx context.Context, id domain.ID) error {
	cmd, err := r.db.Exec(ctx, `
UPDATE products
SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
`, id)
	if err != nil {
		r.logger.Error("product repo: soft delete", zap.Int64("product_id", int64(id)), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) EnsureSize(ctx context.Context, name string, additional decimal.Decimal) (*domain.Size, error) {
	var out domain.Size
	err := r.db.QueryRow(ctx, `
INSERT INTO sizes (name, additional_price) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET additional_price = EXCLUDED.additional_price
RETURNING id, name, additional_price
`, name, additional).Scan(&out.ID, &out.Name, &out.AdditionalPrice)
	if err != nil {
		r.logger.Error("product repo: ensure size", zap.String("name", name), zap.Error(err))
		return nil, db.MapError(err)
	}
	return &out, nil
}

func (r *postgresRepo) EnsureVariant(ctx context.Context, name string, additional decimal.Decimal) (*domain.Variant, error) {
	var out domain.Variant
	err := r.db.QueryRow(ctx, `
INSERT INTO variants (name, additional_price) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET additional_price = EXCLUDED.additional_price
RETURNING id, name, additional_price
`, name, additional).Scan(&out.ID, &out.Name, &out.AdditionalPrice)
	if err != nil {
		r.logger.Error("product repo: ensure variant", zap.String("name", name), zap.Error(err))
		return nil, db.MapError(err)
	}
	return &out, nil
}

func (r *postgresRepo) queryProducts(ctx context.Context, q string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachRelations(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p       domain.Product
		catID   *domain.ID
		catName *string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.BasePrice, &p.Stock, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt, &catID, &catName); err != nil {
		return p, err
	}
	if catID != nil && catName != nil {
		p.Category = &domain.Category{ID: *catID, Name: *catName}
	}
	p.Images = []domain.Image{}
	p.Sizes = []domain.Size{}
	p.Variants = []domain.Variant{}
	return p, nil
}

// attachRelations loads images, sizes and variants for all products with one query each.
func (r *postgresRepo) attachRelations(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, len(products))
	index := make(map[domain.ID]int, len(products))
	for i, p := range products {
		ids[i] = int64(p.ID)
		index[p.ID] = i
	}

	rows, err := r.db.Query(ctx, `
SELECT product_id, id, image
FROM product_images
WHERE product_id = ANY($1)
ORDER BY id
`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			pid domain.ID
			img domain.Image
		)
		if err := rows.Scan(&pid, &img.ID, &img.Image); err != nil {
			rows.Close()
			return err
		}
		products[index[pid]].Images = append(products[index[pid]].Images, img)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(ctx, `
SELECT ps.product_id, s.id, s.name, s.additional_price
FROM product_sizes ps
JOIN sizes s ON s.id = ps.size_id
WHERE ps.product_id = ANY($1)
ORDER BY s.id
`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			pid domain.ID
			s   domain.Size
		)
		if err := rows.Scan(&pid, &s.ID, &s.Name, &s.AdditionalPrice); err != nil {
			rows.Close()
			return err
		}
		products[index[pid]].Sizes = append(products[index[pid]].Sizes, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(ctx, `
SELECT pv.product_id, v.id, v.name, v.additional_price
FROM product_variants pv
JOIN variants v ON v.id = pv.variant_id
WHERE pv.product_id = ANY($1)
ORDER BY v.id
`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			pid domain.ID
			v   domain.Variant
		)
		if err := rows.Scan(&pid, &v.ID, &v.Name, &v.AdditionalPrice); err != nil {
			return err
		}
		products[index[pid]].Variants = append(products[index[pid]].Variants, v)
	}
	return rows.Err()
}

// writeRelations replaces size and variant associations when the matching
// pointer is non-nil and appends images.
func writeRelations(ctx context.Context, tx pgx.Tx, id domain.ID, sizeIDs, variantIDs *[]domain.ID, images []string) error {
	if sizeIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM product_sizes WHERE product_id = $1`, id); err != nil {
			return err
		}
		if len(*sizeIDs) > 0 {
			if _, err := tx.Exec(ctx, `
INSERT INTO product_sizes (product_id, size_id)
SELECT $1, unnest($2::bigint[])
ON CONFLICT DO NOTHING
`, id, domain.Int64s(*sizeIDs)); err != nil {
				return err
			}
		}
	}
	if variantIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, id); err != nil {
			return err
		}
		if len(*variantIDs) > 0 {
			if _, err := tx.Exec(ctx, `
INSERT INTO product_variants (product_id, variant_id)
SELECT $1, unnest($2::bigint[])
ON CONFLICT DO NOTHING
`, id, domain.Int64s(*variantIDs)); err != nil {
				return err
			}
		}
	}
	if len(images) > 0 {
		if _, err := tx.Exec(ctx, `
INSERT INTO product_images (product_id, image)
SELECT $1, unnest($2::text[])
`, id, images); err != nil {
			return err
		}
	}
	return nil
}

func buildListWhere(f ListFilter) (string, []any) {
	conds := []string{"p.deleted_at IS NULL"}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("p.title ILIKE $%d", "%"+likeEscaper.Replace(s)+"%")
	}
	if f.CategoryID != 0 {
		add("p.category_id = $%d", f.CategoryID)
	}
	if f.MinPrice != nil {
		add("p.base_price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("p.base_price <= $%d", *f.MaxPrice)
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(f ListFilter) string {
	col, ok := sortColumns[strings.ToLower(strings.TrimSpace(f.SortBy))]
	if !ok {
		col = "p.id"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, p.id %s", col, dir, dir)
}

func buildUpdateSet(in UpdateInput) (string, []any) {
	sets := []string{"updated_at = now()"}
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if in.Title != nil {
		add("title", *in.Title)
	}
	if in.Description != nil {
		add("description", *in.Description)
	}
	if in.BasePrice != nil {
		add("base_price", *in.BasePrice)
	}
	if in.Stock != nil {
		add("stock", *in.Stock)
	}
	if in.SetCategory {
		add("category_id", in.CategoryID)
	}
	return strings.Join(sets, ", "), args
}
