package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-api/internal/domain"
	"storefront-api/internal/logging"
	"storefront-api/internal/pricing"
	orderrepo "storefront-api/internal/repository/order"
	"storefront-api/internal/repository/txmanager"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

type Service struct {
	tx       txmanager.Manager
	orders   orderReader
	products productRepo
	invoices invoiceGenerator
	now      func() time.Time
	validate *validator.Validate
	logger   *zap.Logger
}

type orderReader interface {
	GetByInvoice(ctx context.Context, userID domain.ID, invoice string) (*domain.Order, error)
	History(ctx context.Context, f orderrepo.HistoryFilter) ([]domain.Order, int, error)
}

type productRepo interface {
	GetMany(ctx context.Context, ids []domain.ID) (map[domain.ID]domain.Product, error)
}

type invoiceGenerator interface {
	Next(userID domain.ID) string
}

func New(tx txmanager.Manager, orders orderReader, products productRepo, invoices invoiceGenerator, logger *zap.Logger) *Service {
	return &Service{
		tx:       tx,
		orders:   orders,
		products: products,
		invoices: invoices,
		now:      time.Now,
		validate: validator.New(),
		logger:   logging.OrNop(logger),
	}
}

type CheckoutInput struct {
	Address         string    `json:"address"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email"`
	PaymentMethodID domain.ID `json:"payment_method_id"`
	DeliveryID      domain.ID `json:"delivery_id"`
}

func (s *Service) validateCheckout(in *CheckoutInput) error {
	in.Address = strings.TrimSpace(in.Address)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	switch {
	case in.Address == "":
		return domain.NewValidationError("address", "is required")
	case in.Phone == "":
		return domain.NewValidationError("phone", "is required")
	case in.Email == "":
		return domain.NewValidationError("email", "is required")
	case s.validate.Var(in.Email, "email") != nil:
		return domain.NewValidationError("email", "must be a valid email address")
	case in.PaymentMethodID <= 0:
		return domain.NewValidationError("payment_method_id", "is required")
	case in.DeliveryID <= 0:
		return domain.NewValidationError("delivery_id", "is required")
	}
	return nil
}

// Checkout turns the user's cart into an order in one transaction: the cart
// lines are locked, copied into the order and deleted. On any failure
// nothing is written and the cart is left as it was.
func (s *Service) Checkout(ctx context.Context, userID domain.ID, in CheckoutInput) (*domain.Order, error) {
	if err := s.validateCheckout(&in); err != nil {
		return nil, err
	}

	var invoice string
	err := s.tx.WithinTx(ctx, func(r txmanager.TxRepos) error {
		lines, err := r.Carts().LockByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		orderLines := make([]orderrepo.LineInput, len(lines))
		amounts := make([]decimal.Decimal, len(lines))
		lineIDs := make([]domain.ID, len(lines))
		for i, l := range lines {
			amounts[i] = l.Subtotal
			lineIDs[i] = l.ID
			orderLines[i] = orderrepo.LineInput{
				ProductID: l.ProductID,
				SizeID:    l.SizeID,
				VariantID: l.VariantID,
				Quantity:  l.Quantity,
				Subtotal:  l.Subtotal,
				Name:      l.ProductName,
			}
		}

		total := pricing.Sum(amounts...)
		invoice = s.invoices.Next(userID)
		if _, err := r.Orders().Create(ctx, orderrepo.CreateInput{
			Invoice:         invoice,
			UserID:          userID,
			Address:         in.Address,
			Phone:           in.Phone,
			Email:           in.Email,
			PaymentMethodID: in.PaymentMethodID,
			DeliveryID:      in.DeliveryID,
			Total:           total,
		}); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := r.Orders().CreateLines(ctx, invoice, orderLines); err != nil {
			return fmt.Errorf("create order lines: %w", err)
		}

		deleted, err := r.Carts().DeleteLines(ctx, userID, lineIDs)
		if err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		if deleted != int64(len(lineIDs)) {
			return fmt.Errorf("clear cart: removed %d of %d lines", deleted, len(lineIDs))
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrEmptyCart) && !domain.IsValidation(err) {
			s.logger.Error("checkout failed", zap.Int64("user_id", int64(userID)), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("checkout completed", zap.Int64("user_id", int64(userID)), zap.String("invoice", invoice))
	return s.Detail(ctx, userID, invoice)
}

type HistoryFilter struct {
	Status domain.ID
	Month  int
	Page   int
	Limit  int
}

type HistoryPage struct {
	Orders      []domain.Order `json:"orders"`
	TotalCount  int            `json:"total_count"`
	TotalPages  int            `json:"total_pages"`
	CurrentPage int            `json:"current_page"`
}

// History pages through the user's orders, newest first. Month selects a
// calendar month of the current year.
func (s *Service) History(ctx context.Context, userID domain.ID, f HistoryFilter) (*HistoryPage, error) {
	page := f.Page
	if page <= 0 {
		page = defaultPage
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	rf := orderrepo.HistoryFilter{
		UserID:   userID,
		StatusID: f.Status,
		Limit:    limit,
		Offset:   domain.PageOffset(page, limit),
	}
	if f.Month != 0 {
		from, to, err := s.monthRange(f.Month)
		if err != nil {
			return nil, err
		}
		rf.From, rf.To = &from, &to
	}

	orders, total, err := s.orders.History(ctx, rf)
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	if err := s.attachProducts(ctx, orders); err != nil {
		return nil, err
	}
	return &HistoryPage{
		Orders:      orders,
		TotalCount:  total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	}, nil
}

func (s *Service) monthRange(month int) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, domain.NewValidationError("month", "must be between 1 and 12")
	}
	now := s.now()
	from := time.Date(now.Year(), time.Month(month), 1, 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 1, 0), nil
}

// Detail returns the user's order with the given invoice.
func (s *Service) Detail(ctx context.Context, userID domain.ID, invoice string) (*domain.Order, error) {
	invoice = strings.TrimSpace(invoice)
	if invoice == "" {
		return nil, domain.NewValidationError("invoice", "is required")
	}
	o, err := s.orders.GetByInvoice(ctx, userID, invoice)
	if err != nil {
		return nil, err
	}
	orders := []domain.Order{*o}
	if err := s.attachProducts(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (s *Service) attachProducts(ctx context.Context, orders []domain.Order) error {
	seen := map[domain.ID]bool{}
	var ids []domain.ID
	for _, o := range orders {
		for _, l := range o.Lines {
			if !seen[l.ProductID] {
				seen[l.ProductID] = true
				ids = append(ids, l.ProductID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("load order products: %w", err)
	}
	for i := range orders {
		for j := range orders[i].Lines {
			if p, ok := products[orders[i].Lines[j].ProductID]; ok {
				orders[i].Lines[j].Product = &p
			}
		}
	}
	return nil
}
