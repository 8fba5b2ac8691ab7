package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/posflow/internal/domain"
)

var errStoreDown = errors.New("store down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func product(id, name string, price int64, stock int) domain.Product {
	return domain.Product{
		ID:        id,
		Name:      name,
		Price:     decimal.NewFromInt(price),
		CostPrice: decimal.NewFromInt(price / 2),
		Stock:     stock,
	}
}

type fakeProducts struct {
	products map[string]domain.Product
	order    []string
}

func newFakeProducts(ps ...domain.Product) *fakeProducts {
	f := &fakeProducts{products: make(map[string]domain.Product)}
	for _, p := range ps {
		f.products[p.ID] = p
		f.order = append(f.order, p.ID)
	}
	return f
}

func (f *fakeProducts) Get(_ context.Context, id string) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeProducts) List(_ context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(f.order))
	for _, id := range f.order {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakePlacer decrements stock in fakeProducts the way the ledger does: all
// items or none. A non-nil gate holds every order until it is closed.
type fakePlacer struct {
	mu       sync.Mutex
	products *fakeProducts
	err      error
	gate     chan struct{}
	placed   []domain.Order
}

func (f *fakePlacer) PlaceOrder(_ context.Context, order *domain.Order) error {
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, item := range order.Items {
		p, ok := f.products.products[item.ProductID]
		if !ok {
			return domain.ErrProductNotFound
		}
		if p.Stock < item.Quantity {
			return domain.ErrInsufficientStock
		}
	}
	for _, item := range order.Items {
		p := f.products.products[item.ProductID]
		p.Stock -= item.Quantity
		f.products.products[item.ProductID] = p
	}
	order.ID = uuid.New().String()
	f.placed = append(f.placed, *order)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []any
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, _ string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

// clearFailingStore loses every Save made after a submit has started.
type clearFailingStore struct {
	*MemoryStore
	submitted bool
}

func (s *clearFailingStore) BeginSubmit(ctx context.Context, id string, now time.Time) (*Cart, error) {
	s.submitted = true
	return s.MemoryStore.BeginSubmit(ctx, id, now)
}

func (s *clearFailingStore) Save(ctx context.Context, id string, cart *Cart) error {
	if s.submitted {
		return errStoreDown
	}
	return s.MemoryStore.Save(ctx, id, cart)
}
