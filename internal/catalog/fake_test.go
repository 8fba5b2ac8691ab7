package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/posflow/internal/domain"
)

var errStoreDown = errors.New("store down")

type fakeRepository struct {
	mu       sync.Mutex
	products map[string]domain.Product
	fail     bool
}

func newFakeRepository(products ...domain.Product) *fakeRepository {
	repo := &fakeRepository{products: map[string]domain.Product{}}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (f *fakeRepository) List(ctx context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errStoreDown
	}
	out := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errStoreDown
	}
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeRepository) Create(ctx context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errStoreDown
	}
	p.ID = uuid.New().String()
	f.products[p.ID] = *p
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errStoreDown
	}
	if _, ok := f.products[p.ID]; !ok {
		return ErrProductNotFound
	}
	f.products[p.ID] = *p
	return nil
}

func (f *fakeRepository) UpdateImage(ctx context.Context, id, imageURL string, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errStoreDown
	}
	p, ok := f.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.ImageURL = imageURL
	p.UpdatedAt = updatedAt
	f.products[id] = p
	return nil
}

// sell takes quantity units of a product out of stock the way a checkout does.
func (f *fakeRepository) sell(id string, quantity int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.products[id]
	p.Stock -= quantity
	f.products[id] = p
}

func (f *fakeRepository) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errStoreDown
	}
	if _, ok := f.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sellingRepository records a sale on the first read of a product, landing it
// between whatever the caller read and what it writes next.
type sellingRepository struct {
	*fakeRepository
	quantity int
	sold     bool
}

func (r *sellingRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := r.fakeRepository.GetByID(ctx, id)
	if err != nil || p == nil || r.sold {
		return p, err
	}
	r.sold = true
	r.sell(id, r.quantity)
	return p, nil
}
