package product

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/cache"
	"storefront-api/internal/domain"
	productrepo "storefront-api/internal/repository/product"
)

type stubRepo struct {
	products   []domain.Product
	listCalls  int
	lastFilter productrepo.ListFilter
	taken      bool
	created    productrepo.CreateInput
	updated    productrepo.UpdateInput
	favLimit   int
	deleteErr  error
}

func (s *stubRepo) List(_ context.Context, f productrepo.ListFilter) ([]domain.Product, int, error) {
	s.listCalls++
	s.lastFilter = f
	return s.products, len(s.products), nil
}

func (s *stubRepo) GetByID(_ context.Context, id domain.ID) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) GetMany(context.Context, []domain.ID) (map[domain.ID]domain.Product, error) {
	return nil, nil
}

func (s *stubRepo) GetForCart(context.Context, domain.ID, *domain.ID, *domain.ID) (*domain.CartProduct, error) {
	return nil, domain.ErrNotFound
}

func (s *stubRepo) Favorites(_ context.Context, limit int) ([]domain.Product, error) {
	s.favLimit = limit
	return s.products, nil
}

func (s *stubRepo) TitleTaken(context.Context, string, domain.ID) (bool, error) {
	return s.taken, nil
}

func (s *stubRepo) Create(_ context.Context, in productrepo.CreateInput) (*domain.Product, error) {
	s.created = in
	p := domain.Product{ID: domain.ID(len(s.products) + 1), Title: in.Title, BasePrice: in.BasePrice, Stock: in.Stock}
	s.products = append(s.products, p)
	return &p, nil
}

func (s *stubRepo) Upsert(ctx context.Context, in productrepo.CreateInput) (*domain.Product, error) {
	return s.Create(ctx, in)
}

func (s *stubRepo) Update(ctx context.Context, id domain.ID, in productrepo.UpdateInput) (*domain.Product, error) {
	s.updated = in
	return s.GetByID(ctx, id)
}

func (s *stubRepo) EnsureSize(context.Context, string, decimal.Decimal) (*domain.Size, error) {
	return nil, errors.New("not used")
}

func (s *stubRepo) EnsureVariant(context.Context, string, decimal.Decimal) (*domain.Variant, error) {
	return nil, errors.New("not used")
}

func (s *stubRepo) SoftDelete(context.Context, domain.ID) error {
	return s.deleteErr
}

func newService(t *testing.T) (*Service, *stubRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := cache.NewRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rc.Close() })

	repo := &stubRepo{products: []domain.Product{
		{ID: 1, Title: "Latte", BasePrice: decimal.RequireFromString("10.00")},
		{ID: 2, Title: "Mocha", BasePrice: decimal.RequireFromString("12.00")},
	}}
	return New(repo, rc, time.Hour, nil), repo, mr
}

func TestList_UnfilteredIsCached(t *testing.T) {
	svc, repo, mr := newService(t)
	ctx := context.Background()

	first, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, first.Products, 2)
	assert.True(t, mr.Exists(CacheKeyAll))
	assert.Equal(t, time.Hour, mr.TTL(CacheKeyAll))

	second, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
	require.Len(t, second.Products, 2)
	assert.Equal(t, domain.ID(2), second.Products[1].ID)
	assert.True(t, second.Products[0].BasePrice.Equal(decimal.RequireFromString("10")))
}

func TestList_FilteredBypassesCache(t *testing.T) {
	svc, repo, mr := newService(t)
	ctx := context.Background()

	page, err := svc.List(ctx, ListQuery{Search: "lat", Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.False(t, mr.Exists(CacheKeyAll))
	assert.Equal(t, 1, repo.lastFilter.Limit)
	assert.Equal(t, 1, repo.lastFilter.Offset)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 2, page.TotalPages)

	_, err = svc.List(ctx, ListQuery{Search: "lat"})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestList_CacheFailureFallsThrough(t *testing.T) {
	svc, repo, mr := newService(t)
	mr.Close()

	page, err := svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)
	assert.Equal(t, 1, repo.listCalls)
}

func TestList_CorruptEntryFallsThrough(t *testing.T) {
	svc, repo, mr := newService(t)
	require.NoError(t, mr.Set(CacheKeyAll, "{not json"))

	_, err := svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
}

func TestList_Validation(t *testing.T) {
	svc, _, _ := newService(t)
	lo, hi := decimal.NewFromInt(10), decimal.NewFromInt(5)

	_, err := svc.List(context.Background(), ListQuery{SortBy: "stock"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.List(context.Background(), ListQuery{MinPrice: &lo, MaxPrice: &hi})
	assert.True(t, domain.IsValidation(err))
}

func TestCreate_InvalidatesCache(t *testing.T) {
	svc, repo, mr := newService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	require.True(t, mr.Exists(CacheKeyAll))

	price := decimal.RequireFromString("8.50")
	stock := 3
	zero := domain.ID(0)
	p, err := svc.Create(ctx, CreateInput{Title: "  Flat White ", BasePrice: &price, Stock: &stock, CategoryID: &zero})
	require.NoError(t, err)
	assert.Equal(t, "Flat White", p.Title)
	assert.Nil(t, repo.created.CategoryID)
	assert.False(t, mr.Exists(CacheKeyAll))

	page, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Products, 3)
}

func TestCreate_Rejects(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()
	price := decimal.RequireFromString("1")
	negative := decimal.RequireFromString("-1")
	stock := 1
	badStock := -1

	cases := map[string]CreateInput{
		"title":          {BasePrice: &price, Stock: &stock},
		"price missing":  {Title: "x", Stock: &stock},
		"price negative": {Title: "x", BasePrice: &negative, Stock: &stock},
		"stock missing":  {Title: "x", BasePrice: &price},
		"stock negative": {Title: "x", BasePrice: &price, Stock: &badStock},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, in)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}

	repo.taken = true
	_, err := svc.Create(ctx, CreateInput{Title: "Latte", BasePrice: &price, Stock: &stock})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestUpdate_CategoryTriState(t *testing.T) {
	svc, repo, mr := newService(t)
	ctx := context.Background()

	var in UpdateInput
	require.NoError(t, json.Unmarshal([]byte(`{"category_id": null}`), &in))
	_, err := svc.Update(ctx, 1, in)
	require.NoError(t, err)
	assert.True(t, repo.updated.SetCategory)
	assert.Nil(t, repo.updated.CategoryID)

	in = UpdateInput{}
	require.NoError(t, json.Unmarshal([]byte(`{"category_id": "4", "size_ids": []}`), &in))
	_, err = svc.Update(ctx, 1, in)
	require.NoError(t, err)
	require.NotNil(t, repo.updated.CategoryID)
	assert.Equal(t, domain.ID(4), *repo.updated.CategoryID)
	require.NotNil(t, repo.updated.SizeIDs)
	assert.Empty(t, *repo.updated.SizeIDs)
	assert.Nil(t, repo.updated.VariantIDs)

	in = UpdateInput{}
	require.NoError(t, json.Unmarshal([]byte(`{"stock": 4}`), &in))
	_, err = svc.Update(ctx, 1, in)
	require.NoError(t, err)
	assert.False(t, repo.updated.SetCategory)
	assert.False(t, mr.Exists(CacheKeyAll))

	_, err = svc.Update(ctx, 1, UpdateInput{})
	assert.True(t, domain.IsValidation(err))
}

func TestDeleteAndFavorites(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, 1))
	repo.deleteErr = domain.ErrNotFound
	assert.ErrorIs(t, svc.Delete(ctx, 1), domain.ErrNotFound)

	_, err := svc.Favorites(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultFavorites, repo.favLimit)
	_, err = svc.Favorites(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, maxFavorites, repo.favLimit)
}

func TestList_FarPageKeepsOffsetNonNegative(t *testing.T) {
	svc, repo, _ := newService(t)

	_, err := svc.List(context.Background(), ListQuery{Page: math.MaxInt64 / 5, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, repo.lastFilter.Offset)
	assert.Equal(t, 10, repo.lastFilter.Limit)
}
