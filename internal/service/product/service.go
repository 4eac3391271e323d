package product

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-api/internal/cache"
	"storefront-api/internal/domain"
	"storefront-api/internal/logging"
	productrepo "storefront-api/internal/repository/product"
)

const (
	// CacheKeyAll holds the unfiltered catalog listing.
	CacheKeyAll = "products:all"

	defaultFavorites = 6
	maxFavorites     = 50
	maxPageSize      = 100
)

var sortFields = map[string]bool{"": true, "id": true, "title": true, "price": true}

type Service struct {
	repo   productrepo.Repository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// New returns a catalog service. A nil cache disables listing caching.
func New(repo productrepo.Repository, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{repo: repo, cache: c, ttl: ttl, logger: logging.OrNop(logger)}
}

type ListQuery struct {
	Search     string
	CategoryID domain.ID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	SortBy     string
	Desc       bool
	Page       int
	Limit      int
}

func (q ListQuery) unfiltered() bool {
	return strings.TrimSpace(q.Search) == "" && q.CategoryID == 0 && q.MinPrice == nil && q.MaxPrice == nil &&
		q.SortBy == "" && !q.Desc && q.Page <= 0 && q.Limit <= 0
}

type ListPage struct {
	Products    []domain.Product `json:"products"`
	TotalCount  int              `json:"total_count"`
	TotalPages  int              `json:"total_pages"`
	CurrentPage int              `json:"current_page"`
}

// List returns active products. The unfiltered listing is served from the
// cache when possible; cache failures only cost a database read.
func (s *Service) List(ctx context.Context, q ListQuery) (*ListPage, error) {
	q.SortBy = strings.ToLower(strings.TrimSpace(q.SortBy))
	if !sortFields[q.SortBy] {
		return nil, domain.NewValidationError("sort_by", "must be one of id, title, price")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return nil, domain.NewValidationError("min_price", "must not exceed max_price")
	}

	if q.unfiltered() {
		if products, ok := s.cachedAll(ctx); ok {
			return wholePage(products), nil
		}
	}

	f := productrepo.ListFilter{
		Search:     q.Search,
		CategoryID: q.CategoryID,
		MinPrice:   q.MinPrice,
		MaxPrice:   q.MaxPrice,
		SortBy:     q.SortBy,
		Desc:       q.Desc,
	}
	page := 1
	if q.Limit > 0 || q.Page > 0 {
		limit := q.Limit
		if limit <= 0 {
			limit = 10
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
		if q.Page > 0 {
			page = q.Page
		}
		f.Limit = limit
		f.Offset = domain.PageOffset(page, limit)
	}

	products, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	if q.unfiltered() {
		s.storeAll(ctx, products)
		return wholePage(products), nil
	}

	pages := 0
	if total > 0 {
		pages = 1
		if f.Limit > 0 {
			pages = (total + f.Limit - 1) / f.Limit
		}
	}
	return &ListPage{Products: products, TotalCount: total, TotalPages: pages, CurrentPage: page}, nil
}

func wholePage(products []domain.Product) *ListPage {
	p := &ListPage{Products: products, TotalCount: len(products), CurrentPage: 1}
	if len(products) > 0 {
		p.TotalPages = 1
	}
	return p
}

func (s *Service) cachedAll(ctx context.Context) ([]domain.Product, bool) {
	raw, ok, err := s.cache.Get(ctx, CacheKeyAll)
	if err != nil {
		s.logger.Warn("product cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		s.logger.Warn("product cache entry unreadable", zap.Error(err))
		return nil, false
	}
	return products, true
}

func (s *Service) storeAll(ctx context.Context, products []domain.Product) {
	raw, err := json.Marshal(products)
	if err != nil {
		s.logger.Warn("product cache encode failed", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, CacheKeyAll, raw, s.ttl); err != nil {
		s.logger.Warn("product cache write failed", zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, CacheKeyAll); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) Get(ctx context.Context, id domain.ID) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Favorites returns the best selling active products.
func (s *Service) Favorites(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = defaultFavorites
	}
	if limit > maxFavorites {
		limit = maxFavorites
	}
	return s.repo.Favorites(ctx, limit)
}

type CreateInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	BasePrice   *decimal.Decimal `json:"base_price"`
	Stock       *int             `json:"stock"`
	CategoryID  *domain.ID       `json:"category_id"`
	SizeIDs     []domain.ID      `json:"size_ids"`
	VariantIDs  []domain.ID      `json:"variant_ids"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return nil, domain.NewValidationError("title", "is required")
	case in.BasePrice == nil:
		return nil, domain.NewValidationError("base_price", "is required")
	case in.BasePrice.IsNegative():
		return nil, domain.NewValidationError("base_price", "must not be negative")
	case in.Stock == nil:
		return nil, domain.NewValidationError("stock", "is required")
	case *in.Stock < 0:
		return nil, domain.NewValidationError("stock", "must not be negative")
	}
	if err := s.ensureTitleFree(ctx, title, 0); err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, productrepo.CreateInput{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		BasePrice:   *in.BasePrice,
		Stock:       *in.Stock,
		CategoryID:  nonZero(in.CategoryID),
		SizeIDs:     in.SizeIDs,
		VariantIDs:  in.VariantIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("product created", zap.Int64("product_id", int64(p.ID)), zap.String("title", p.Title))
	return p, nil
}

// NullableID tells an absent JSON field apart from an explicit null or 0.
type NullableID struct {
	Set bool
	ID  domain.ID
}

func (n *NullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.ID = 0
		return nil
	}
	return n.ID.UnmarshalJSON(b)
}

type UpdateInput struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	BasePrice   *decimal.Decimal `json:"base_price"`
	Stock       *int             `json:"stock"`
	Category    NullableID       `json:"category_id"`
	SizeIDs     *[]domain.ID     `json:"size_ids"`
	VariantIDs  *[]domain.ID     `json:"variant_ids"`
}

// Update applies a partial update. A category id of 0 or null detaches the
// category; size and variant lists replace the current associations.
func (s *Service) Update(ctx context.Context, id domain.ID, in UpdateInput) (*domain.Product, error) {
	if in.Title == nil && in.Description == nil && in.BasePrice == nil && in.Stock == nil &&
		!in.Category.Set && in.SizeIDs == nil && in.VariantIDs == nil {
		return nil, domain.NewValidationError("", "no fields to update")
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, domain.NewValidationError("title", "must not be empty")
		}
		if err := s.ensureTitleFree(ctx, title, id); err != nil {
			return nil, err
		}
		in.Title = &title
	}
	if in.BasePrice != nil && in.BasePrice.IsNegative() {
		return nil, domain.NewValidationError("base_price", "must not be negative")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return nil, domain.NewValidationError("stock", "must not be negative")
	}

	p, err := s.repo.Update(ctx, id, productrepo.UpdateInput{
		Title:       in.Title,
		Description: in.Description,
		BasePrice:   in.BasePrice,
		Stock:       in.Stock,
		SetCategory: in.Category.Set,
		CategoryID:  domain.IDPtr(in.Category.ID),
		SizeIDs:     in.SizeIDs,
		VariantIDs:  in.VariantIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id domain.ID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	s.invalidate(ctx)
	s.logger.Info("product deleted", zap.Int64("product_id", int64(id)))
	return nil
}

func (s *Service) ensureTitleFree(ctx context.Context, title string, exceptID domain.ID) error {
	taken, err := s.repo.TitleTaken(ctx, title, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("product title %q: %w", title, domain.ErrAlreadyExists)
	}
	return nil
}

func nonZero(id *domain.ID) *domain.ID {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
