package cart

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront-api/internal/domain"
	"storefront-api/internal/logging"
	"storefront-api/internal/pricing"
	cartrepo "storefront-api/internal/repository/cart"
)

type Service struct {
	carts    cartRepo
	products productRepo
	logger   *zap.Logger
}

type cartRepo interface {
	Upsert(ctx context.Context, in cartrepo.UpsertInput) (*domain.CartLine, error)
	ListByUser(ctx context.Context, userID domain.ID) ([]domain.CartLine, error)
	GetByID(ctx context.Context, userID, lineID domain.ID) (*domain.CartLine, error)
}

type productRepo interface {
	GetForCart(ctx context.Context, productID domain.ID, sizeID, variantID *domain.ID) (*domain.CartProduct, error)
	GetMany(ctx context.Context, ids []domain.ID) (map[domain.ID]domain.Product, error)
}

func New(carts cartRepo, products productRepo, logger *zap.Logger) *Service {
	return &Service{carts: carts, products: products, logger: logging.OrNop(logger)}
}

type AddInput struct {
	ProductID domain.ID  `json:"productId"`
	SizeID    *domain.ID `json:"sizeId"`
	VariantID *domain.ID `json:"variantId"`
	Quantity  int        `json:"quantity"`
}

// AddOrMerge adds a selection to the user's cart. A line with the same
// product, size and variant absorbs the new quantity and subtotal.
func (s *Service) AddOrMerge(ctx context.Context, userID domain.ID, in AddInput) (*domain.CartLine, error) {
	if in.ProductID == 0 {
		return nil, domain.NewValidationError("productId", "is required")
	}
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("quantity %d: %w", in.Quantity, domain.ErrInvalidQuantity)
	}
	if in.Quantity > pricing.MaxQuantity {
		return nil, domain.NewValidationError("quantity", fmt.Sprintf("must not exceed %d", pricing.MaxQuantity))
	}
	sizeID := nonZero(in.SizeID)
	variantID := nonZero(in.VariantID)

	cp, err := s.products.GetForCart(ctx, in.ProductID, sizeID, variantID)
	if err != nil {
		return nil, err
	}
	subtotal, err := pricing.LineSubtotal(*cp, in.Quantity)
	if err != nil {
		return nil, err
	}

	line, err := s.carts.Upsert(ctx, cartrepo.UpsertInput{
		UserID:      userID,
		ProductID:   cp.Product.ID,
		SizeID:      sizeID,
		VariantID:   variantID,
		Quantity:    in.Quantity,
		Subtotal:    subtotal,
		ProductName: cp.Product.Title,
	})
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	s.logger.Info("cart line saved",
		zap.Int64("user_id", int64(userID)),
		zap.Int64("line_id", int64(line.ID)),
		zap.Int("qty", line.Quantity),
	)

	lines := []domain.CartLine{*line}
	if err := s.attachProducts(ctx, lines); err != nil {
		return nil, err
	}
	return &lines[0], nil
}

// List returns the user's lines, newest first.
func (s *Service) List(ctx context.Context, userID domain.ID) ([]domain.CartLine, error) {
	lines, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.attachProducts(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// GetDetail returns one line owned by userID with the full product attached.
func (s *Service) GetDetail(ctx context.Context, userID, lineID domain.ID) (*domain.CartLine, error) {
	line, err := s.carts.GetByID(ctx, userID, lineID)
	if err != nil {
		return nil, err
	}
	lines := []domain.CartLine{*line}
	if err := s.attachProducts(ctx, lines); err != nil {
		return nil, err
	}
	return &lines[0], nil
}

func (s *Service) attachProducts(ctx context.Context, lines []domain.CartLine) error {
	if len(lines) == 0 {
		return nil
	}
	seen := make(map[domain.ID]bool, len(lines))
	ids := make([]domain.ID, 0, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("load cart products: %w", err)
	}
	for i := range lines {
		if p, ok := products[lines[i].ProductID]; ok {
			lines[i].Product = &p
		}
	}
	return nil
}

func nonZero(id *domain.ID) *domain.ID {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
