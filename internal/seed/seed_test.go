package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront-api/internal/domain"
	productrepo "storefront-api/internal/repository/product"
)

type memStores struct {
	next       domain.ID
	names      map[string]domain.ID
	products   map[string]productrepo.CreateInput
	payments   []string
	deliveries []string
	users      []domain.User
}

func newMemStores() *memStores {
	return &memStores{names: map[string]domain.ID{}, products: map[string]productrepo.CreateInput{}}
}

func (m *memStores) id(kind, name string) domain.ID {
	key := kind + ":" + name
	if id, ok := m.names[key]; ok {
		return id
	}
	m.next++
	m.names[key] = m.next
	return m.next
}

func (m *memStores) EnsureSize(_ context.Context, name string, extra decimal.Decimal) (*domain.Size, error) {
	return &domain.Size{ID: m.id("size", name), Name: name, AdditionalPrice: extra}, nil
}

func (m *memStores) EnsureVariant(_ context.Context, name string, extra decimal.Decimal) (*domain.Variant, error) {
	return &domain.Variant{ID: m.id("variant", name), Name: name, AdditionalPrice: extra}, nil
}

func (m *memStores) Upsert(_ context.Context, in productrepo.CreateInput) (*domain.Product, error) {
	m.products[in.Title] = in
	return &domain.Product{ID: m.id("product", in.Title), Title: in.Title}, nil
}

func (m *memStores) EnsureByName(_ context.Context, name string) (*domain.Category, error) {
	return &domain.Category{ID: m.id("category", name), Name: name}, nil
}

func (m *memStores) EnsurePaymentMethod(_ context.Context, name string) (*domain.PaymentMethod, error) {
	m.payments = append(m.payments, name)
	return &domain.PaymentMethod{ID: m.id("payment", name), Name: name}, nil
}

func (m *memStores) EnsureDelivery(_ context.Context, name string) (*domain.Delivery, error) {
	m.deliveries = append(m.deliveries, name)
	return &domain.Delivery{ID: m.id("delivery", name), Name: name}, nil
}

func (m *memStores) Create(_ context.Context, u domain.User) (*domain.User, error) {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, domain.ErrAlreadyExists
		}
	}
	u.ID = m.id("user", u.Email)
	m.users = append(m.users, u)
	return &u, nil
}

func (m *memStores) stores() Stores {
	return Stores{Products: m, Categories: m, Lookups: m, Users: m}
}

func TestApply_SeedsCatalogAndAdmin(t *testing.T) {
	m := newMemStores()
	admin := Admin{Email: "admin@example.com", Password: "supersecret"}

	require.NoError(t, Apply(context.Background(), m.stores(), admin, nil))

	assert.Len(t, m.payments, len(paymentMethods))
	assert.Len(t, m.deliveries, len(deliveries))
	require.Len(t, m.products, len(products))

	latte := m.products["Hazelnut Latte"]
	assert.Len(t, latte.SizeIDs, 3)
	assert.Len(t, latte.VariantIDs, 2)
	require.NotNil(t, latte.CategoryID)
	assert.Equal(t, m.names["category:Coffee"], *latte.CategoryID)
	assert.Equal(t, *latte.CategoryID, *m.products["Cold Brew"].CategoryID)
	assert.Empty(t, m.products["Croissant"].SizeIDs)

	require.Len(t, m.users, 1)
	assert.Equal(t, domain.RoleAdmin, m.users[0].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(m.users[0].PasswordHash), []byte("supersecret")))
}

func TestApply_IsRepeatable(t *testing.T) {
	m := newMemStores()
	admin := Admin{Email: "admin@example.com", Password: "supersecret"}

	require.NoError(t, Apply(context.Background(), m.stores(), admin, nil))
	require.NoError(t, Apply(context.Background(), m.stores(), admin, nil))
	assert.Len(t, m.users, 1)
	assert.Len(t, m.products, len(products))
}

func TestApply_SkipsAdminWithoutEmail(t *testing.T) {
	m := newMemStores()
	require.NoError(t, Apply(context.Background(), m.stores(), Admin{}, nil))
	assert.Empty(t, m.users)
}

func TestApply_RejectsShortAdminPassword(t *testing.T) {
	m := newMemStores()
	err := Apply(context.Background(), m.stores(), Admin{Email: "a@b.co", Password: "short"}, nil)
	assert.Error(t, err)
	assert.Empty(t, m.users)
}

type failingLookups struct{ *memStores }

func (failingLookups) EnsureDelivery(context.Context, string) (*domain.Delivery, error) {
	return nil, errors.New("boom")
}

func TestApply_StopsOnError(t *testing.T) {
	m := newMemStores()
	s := m.stores()
	s.Lookups = failingLookups{m}

	err := Apply(context.Background(), s, Admin{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery")
	assert.Empty(t, m.products)
}
