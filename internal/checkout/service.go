package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/posflow/internal/domain"
	"github.com/joao-fontenele/posflow/internal/telemetry"
)

type ProductSource interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
}

// OrderPlacer writes an order and decrements stock for every item as one
// unit. It fails with domain.ErrInsufficientStock or domain.ErrProductNotFound
// without writing anything when any item cannot be sold.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, order *domain.Order) error
}

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Sale is the outcome of a successful checkout.
type Sale struct {
	Order   domain.Order
	Receipt Receipt
}

type Service struct {
	products  ProductSource
	orders    OrderPlacer
	sessions  SessionStore
	publisher Publisher
	metrics   *telemetry.SalesMetrics
	format    ReceiptFormat
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *telemetry.SalesMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithReceiptFormat(f ReceiptFormat) Option {
	return func(s *Service) { s.format = f }
}

func NewService(products ProductSource, orders OrderPlacer, sessions SessionStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		products: products,
		orders:   orders,
		sessions: sessions,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.format = s.format.withDefaults()
	return s
}

func (s *Service) ReceiptFormat() ReceiptFormat {
	return s.format
}

func (s *Service) NewSession(ctx context.Context) (string, error) {
	id := uuid.New().String()
	if err := s.sessions.Save(ctx, id, &Cart{State: StateEmpty}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) Cart(ctx context.Context, sid string) (*Cart, error) {
	cart, err := s.sessions.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	cart.Release(s.now())
	return cart, nil
}

func (s *Service) Products(ctx context.Context, term string) ([]domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterProducts(products, term), nil
}

func (s *Service) AddToCart(ctx context.Context, sid, productID string) (*Cart, bool, error) {
	cart, err := s.editableCart(ctx, sid)
	if err != nil {
		return nil, false, err
	}

	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, false, err
	}

	changed := cart.AddToCart(Snapshot(*p))
	if !changed {
		return cart, false, nil
	}
	if err := s.sessions.Save(ctx, sid, cart); err != nil {
		return nil, false, err
	}
	return cart, true, nil
}

// SetLineQuantity refreshes the line from the catalog when the product still
// exists, then applies the quantity against the refreshed stock.
func (s *Service) SetLineQuantity(ctx context.Context, sid, productID string, quantity int) (*Cart, bool, error) {
	cart, err := s.editableCart(ctx, sid)
	if err != nil {
		return nil, false, err
	}
	if cart.find(productID) < 0 {
		return nil, false, ErrNotInCart
	}

	p, err := s.products.Get(ctx, productID)
	switch {
	case err == nil:
		cart.Refresh(Snapshot(*p))
	case !errors.Is(err, domain.ErrProductNotFound):
		return nil, false, err
	}

	changed := cart.SetLineQuantity(productID, quantity)
	if err := s.sessions.Save(ctx, sid, cart); err != nil {
		return nil, false, err
	}
	return cart, changed, nil
}

func (s *Service) RemoveLine(ctx context.Context, sid, productID string) (*Cart, bool, error) {
	cart, err := s.editableCart(ctx, sid)
	if err != nil {
		return nil, false, err
	}

	changed := cart.RemoveLine(productID)
	if !changed {
		return cart, false, nil
	}
	if err := s.sessions.Save(ctx, sid, cart); err != nil {
		return nil, false, err
	}
	return cart, true, nil
}

func (s *Service) editableCart(ctx context.Context, sid string) (*Cart, error) {
	cart, err := s.sessions.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	if cart.Release(s.now()) {
		s.logger.Warn("released abandoned checkout session", "session_id", sid)
	}
	if cart.State == StateSubmitting {
		return nil, ErrCheckoutInProgress
	}
	return cart, nil
}

// Checkout turns the session cart into a completed order. The order and its
// stock decrements commit together or not at all; on failure the cart goes
// back to building with every line intact.
func (s *Service) Checkout(ctx context.Context, sid string) (*Sale, error) {
	cart, err := s.sessions.BeginSubmit(ctx, sid, s.now())
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		Items:     cart.Items(),
		Total:     cart.Total(),
		Status:    domain.OrderStatusCompleted,
		CreatedAt: s.now(),
	}

	if err := s.orders.PlaceOrder(ctx, order); err != nil {
		s.fail(ctx, sid, cart, err)
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.clear(context.WithoutCancel(ctx), sid, cart, order.ID)

	s.metrics.CheckoutCompleted(ctx, order.Total.InexactFloat64())

	if s.publisher != nil {
		event := domain.OrderCompletedEvent{
			OrderID:   order.ID,
			Items:     order.Items,
			Total:     order.Total,
			Timestamp: order.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, order.ID, event); err != nil {
			s.logger.Error("failed to publish order completed event", "error", err, "order_id", order.ID)
		}
	}

	s.logger.Info("checkout completed", "order_id", order.ID, "session_id", sid, "total", order.Total.StringFixed(2))

	return &Sale{Order: *order, Receipt: NewReceipt(*order, s.format)}, nil
}

// clear empties the session after a committed sale. A session left in
// submitting would block the till until SubmitTimeout, so a failed save falls
// back to deleting the key, which loads as an empty cart.
func (s *Service) clear(ctx context.Context, sid string, cart *Cart, orderID string) {
	cart.Complete()
	err := s.sessions.Save(ctx, sid, cart)
	if err == nil {
		return
	}
	s.logger.Error("failed to clear checkout session", "error", err, "session_id", sid, "order_id", orderID)

	if err := s.sessions.Delete(ctx, sid); err != nil {
		s.logger.Error("failed to delete checkout session", "error", err, "session_id", sid, "order_id", orderID)
	}
}

func (s *Service) fail(ctx context.Context, sid string, cart *Cart, cause error) {
	cart.Fail()
	if err := s.sessions.Save(context.WithoutCancel(ctx), sid, cart); err != nil {
		s.logger.Error("failed to restore checkout session", "error", err, "session_id", sid)
	}

	reason := "error"
	switch {
	case errors.Is(cause, domain.ErrInsufficientStock):
		reason = "insufficient_stock"
	case errors.Is(cause, domain.ErrProductNotFound):
		reason = "product_not_found"
	}
	s.metrics.CheckoutFailed(ctx, reason)

	s.logger.Warn("checkout failed", "error", cause, "session_id", sid, "reason", reason)
}
