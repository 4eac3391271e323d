package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-api/internal/domain"
	"storefront-api/internal/logging"
	productrepo "storefront-api/internal/repository/product"
)

type ProductWriter interface {
	Upsert(ctx context.Context, in productrepo.CreateInput) (*domain.Product, error)
	EnsureSize(ctx context.Context, name string, additional decimal.Decimal) (*domain.Size, error)
	EnsureVariant(ctx context.Context, name string, additional decimal.Decimal) (*domain.Variant, error)
}

type CategoryWriter interface {
	EnsureByName(ctx context.Context, name string) (*domain.Category, error)
}

// CSVImporter reads catalog CSV files and upserts products by title.
//
// Columns: title, description, price, stock, category, sizes, variants, images.
// List columns are separated by ";" and options may carry a surcharge as
// "Large:5000". A row with an empty title and an image continues the
// previous product.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryWriter
	logger     *zap.Logger

	categoryIDs map[string]domain.ID
	sizeIDs     map[string]domain.ID
	variantIDs  map[string]domain.ID
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		products:    products,
		categories:  categories,
		logger:      logging.OrNop(logger),
		categoryIDs: map[string]domain.ID{},
		sizeIDs:     map[string]domain.ID{},
		variantIDs:  map[string]domain.ID{},
	}
}

type option struct {
	Name  string
	Extra decimal.Decimal
}

type csvRow struct {
	Line     int
	Title    string
	Desc     string
	Price    string
	Stock    string
	Category string
	Sizes    []option
	Variants []option
	Images   []string
}

// Run parses CSV rows and upserts one product per titled row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["title"]; !ok {
		return 0, errors.New("missing title column")
	}

	var (
		current  *csvRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		row, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if row == nil {
			continue
		}
		row.Line = line

		if row.Title != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil {
			current.Images = append(current.Images, row.Images...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	i.logger.Info("catalog import finished", zap.Int("products", imported))
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	price, err := decimal.NewFromString(row.Price)
	if err != nil || price.IsNegative() {
		return fmt.Errorf("line %d: invalid price %q for %q", row.Line, row.Price, row.Title)
	}
	stock := 0
	if row.Stock != "" {
		stock, err = strconv.Atoi(row.Stock)
		if err != nil || stock < 0 {
			return fmt.Errorf("line %d: invalid stock %q for %q", row.Line, row.Stock, row.Title)
		}
	}

	in := productrepo.CreateInput{
		Title:       row.Title,
		Description: row.Desc,
		BasePrice:   price,
		Stock:       stock,
		Images:      row.Images,
	}
	if row.Category != "" {
		id, err := i.categoryID(ctx, row.Category)
		if err != nil {
			return fmt.Errorf("category %q: %w", row.Category, err)
		}
		in.CategoryID = &id
	}
	for _, o := range row.Sizes {
		id, err := i.optionID(ctx, i.sizeIDs, o, func(ctx context.Context, o option) (domain.ID, error) {
			sz, err := i.products.EnsureSize(ctx, o.Name, o.Extra)
			if err != nil {
				return 0, err
			}
			return sz.ID, nil
		})
		if err != nil {
			return fmt.Errorf("size %q: %w", o.Name, err)
		}
		in.SizeIDs = append(in.SizeIDs, id)
	}
	for _, o := range row.Variants {
		id, err := i.optionID(ctx, i.variantIDs, o, func(ctx context.Context, o option) (domain.ID, error) {
			v, err := i.products.EnsureVariant(ctx, o.Name, o.Extra)
			if err != nil {
				return 0, err
			}
			return v.ID, nil
		})
		if err != nil {
			return fmt.Errorf("variant %q: %w", o.Name, err)
		}
		in.VariantIDs = append(in.VariantIDs, id)
	}

	if _, err := i.products.Upsert(ctx, in); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Title, err)
	}
	return nil
}

func (i *CSVImporter) categoryID(ctx context.Context, name string) (domain.ID, error) {
	if id, ok := i.categoryIDs[name]; ok {
		return id, nil
	}
	c, err := i.categories.EnsureByName(ctx, name)
	if err != nil {
		return 0, err
	}
	i.categoryIDs[name] = c.ID
	return c.ID, nil
}

// optionID resolves an option once per run; the first surcharge seen wins.
func (i *CSVImporter) optionID(ctx context.Context, seen map[string]domain.ID, o option, ensure func(context.Context, option) (domain.ID, error)) (domain.ID, error) {
	if id, ok := seen[o.Name]; ok {
		return id, nil
	}
	id, err := ensure(ctx, o)
	if err != nil {
		return 0, err
	}
	seen[o.Name] = id
	return id, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*csvRow, error) {
	row := &csvRow{
		Title:    pick(record, index, "title"),
		Desc:     pick(record, index, "description"),
		Price:    pick(record, index, "price"),
		Stock:    pick(record, index, "stock"),
		Category: pick(record, index, "category"),
		Images:   splitList(pick(record, index, "images")),
	}
	if row.Title == "" && len(row.Images) == 0 {
		return nil, nil
	}

	var err error
	if row.Sizes, err = parseOptions(pick(record, index, "sizes")); err != nil {
		return nil, fmt.Errorf("sizes: %w", err)
	}
	if row.Variants, err = parseOptions(pick(record, index, "variants")); err != nil {
		return nil, fmt.Errorf("variants: %w", err)
	}
	return row, nil
}

func parseOptions(raw string) ([]option, error) {
	var out []option
	for _, item := range splitList(raw) {
		name, extra, hasExtra := strings.Cut(item, ":")
		o := option{Name: strings.TrimSpace(name), Extra: decimal.Zero}
		if hasExtra {
			d, err := decimal.NewFromString(strings.TrimSpace(extra))
			if err != nil || d.IsNegative() {
				return nil, fmt.Errorf("invalid surcharge in %q", item)
			}
			o.Extra = d
		}
		if o.Name == "" {
			return nil, fmt.Errorf("empty option name in %q", item)
		}
		out = append(out, o)
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
