package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joao-fontenele/posflow/internal/domain"
)

type OrderSource interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error)
}

type ProductSource interface {
	List(ctx context.Context) ([]domain.Product, error)
}

type Service struct {
	orders   OrderSource
	products ProductSource
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(orders OrderSource, products ProductSource, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		orders:   orders,
		products: products,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Monthly parses the month selector and aggregates that month's orders.
func (s *Service) Monthly(ctx context.Context, selector string) (*Report, error) {
	month, err := ParseMonth(selector, s.now().In(s.loc))
	if err != nil {
		return nil, err
	}

	from, to := month.Window(s.loc)
	orders, err := s.orders.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	report := Aggregate(month, orders, products, s.loc)
	s.logger.Info("monthly report computed", "month", report.Month, "orders", report.TotalOrders)
	return &report, nil
}
