// Package seed loads lookup tables, a demo catalog and an admin account so a
// fresh database is usable for manual testing. Every step is idempotent.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront-api/internal/domain"
	"storefront-api/internal/logging"
	productrepo "storefront-api/internal/repository/product"
)

type CatalogWriter interface {
	EnsureSize(ctx context.Context, name string, additional decimal.Decimal) (*domain.Size, error)
	EnsureVariant(ctx context.Context, name string, additional decimal.Decimal) (*domain.Variant, error)
	Upsert(ctx context.Context, in productrepo.CreateInput) (*domain.Product, error)
}

type CategoryWriter interface {
	EnsureByName(ctx context.Context, name string) (*domain.Category, error)
}

type LookupWriter interface {
	EnsurePaymentMethod(ctx context.Context, name string) (*domain.PaymentMethod, error)
	EnsureDelivery(ctx context.Context, name string) (*domain.Delivery, error)
}

type UserWriter interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
}

type Stores struct {
	Products   CatalogWriter
	Categories CategoryWriter
	Lookups    LookupWriter
	Users      UserWriter
}

// Admin is the account created with the admin role. An empty Email skips it.
type Admin struct {
	Email    string
	Password string
}

type option struct {
	name  string
	extra string
}

type productSeed struct {
	title       string
	description string
	price       string
	stock       int
	category    string
	sizes       []string
	variants    []string
	images      []string
}

var (
	paymentMethods = []string{"Bank Transfer", "Cash on Delivery", "E-Wallet"}
	deliveries     = []string{"Dine In", "Door Delivery", "Pick Up"}

	sizes = []option{
		{"Regular", "0"},
		{"Medium", "3000"},
		{"Large", "5000"},
	}
	variants = []option{
		{"Hot", "0"},
		{"Ice", "2000"},
	}

	products = []productSeed{
		{
			title:       "Hazelnut Latte",
			description: "Espresso with steamed milk and hazelnut syrup.",
			price:       "25000",
			stock:       100,
			category:    "Coffee",
			sizes:       []string{"Regular", "Medium", "Large"},
			variants:    []string{"Hot", "Ice"},
			images:      []string{"images/hazelnut-latte.png"},
		},
		{
			title:       "Cold Brew",
			description: "Coffee steeped cold for eighteen hours.",
			price:       "30000",
			stock:       50,
			category:    "Coffee",
			sizes:       []string{"Regular", "Large"},
			variants:    []string{"Ice"},
			images:      []string{"images/cold-brew.png"},
		},
		{
			title:       "Matcha Latte",
			description: "Stone-ground matcha whisked into milk.",
			price:       "28000",
			stock:       80,
			category:    "Non Coffee",
			sizes:       []string{"Regular", "Medium"},
			variants:    []string{"Hot", "Ice"},
			images:      []string{"images/matcha-latte.png"},
		},
		{
			title:       "Croissant",
			description: "Butter croissant baked every morning.",
			price:       "18000",
			stock:       30,
			category:    "Foods",
			images:      []string{"images/croissant.png"},
		},
	}
)

// Apply writes the seed data. Rerunning it refreshes the rows in place.
func Apply(ctx context.Context, s Stores, admin Admin, logger *zap.Logger) error {
	logger = logging.OrNop(logger)

	for _, name := range paymentMethods {
		if _, err := s.Lookups.EnsurePaymentMethod(ctx, name); err != nil {
			return fmt.Errorf("payment method %q: %w", name, err)
		}
	}
	for _, name := range deliveries {
		if _, err := s.Lookups.EnsureDelivery(ctx, name); err != nil {
			return fmt.Errorf("delivery %q: %w", name, err)
		}
	}

	sizeIDs := make(map[string]domain.ID, len(sizes))
	for _, o := range sizes {
		sz, err := s.Products.EnsureSize(ctx, o.name, decimal.RequireFromString(o.extra))
		if err != nil {
			return fmt.Errorf("size %q: %w", o.name, err)
		}
		sizeIDs[o.name] = sz.ID
	}
	variantIDs := make(map[string]domain.ID, len(variants))
	for _, o := range variants {
		v, err := s.Products.EnsureVariant(ctx, o.name, decimal.RequireFromString(o.extra))
		if err != nil {
			return fmt.Errorf("variant %q: %w", o.name, err)
		}
		variantIDs[o.name] = v.ID
	}

	categoryIDs := map[string]domain.ID{}
	for _, p := range products {
		catID, ok := categoryIDs[p.category]
		if !ok {
			c, err := s.Categories.EnsureByName(ctx, p.category)
			if err != nil {
				return fmt.Errorf("category %q: %w", p.category, err)
			}
			catID = c.ID
			categoryIDs[p.category] = catID
		}

		in := productrepo.CreateInput{
			Title:       p.title,
			Description: p.description,
			BasePrice:   decimal.RequireFromString(p.price),
			Stock:       p.stock,
			CategoryID:  &catID,
			Images:      p.images,
		}
		for _, name := range p.sizes {
			in.SizeIDs = append(in.SizeIDs, sizeIDs[name])
		}
		for _, name := range p.variants {
			in.VariantIDs = append(in.VariantIDs, variantIDs[name])
		}
		if _, err := s.Products.Upsert(ctx, in); err != nil {
			return fmt.Errorf("product %q: %w", p.title, err)
		}
	}
	logger.Info("catalog seeded", zap.Int("products", len(products)), zap.Int("categories", len(categoryIDs)))

	if admin.Email == "" {
		return nil
	}
	return ensureAdmin(ctx, s.Users, admin, logger)
}

func ensureAdmin(ctx context.Context, users UserWriter, admin Admin, logger *zap.Logger) error {
	if len(admin.Password) < 8 {
		return errors.New("admin password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	_, err = users.Create(ctx, domain.User{Email: admin.Email, PasswordHash: string(hash), Role: domain.RoleAdmin})
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		logger.Info("admin already present", zap.String("email", admin.Email))
		return nil
	case err != nil:
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("admin created", zap.String("email", admin.Email))
	return nil
}
