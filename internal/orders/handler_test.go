package orders

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/posflow/internal/checkout"
	"github.com/joao-fontenele/posflow/internal/domain"
)

var errStoreDown = errors.New("store down")

type fakeLedger struct {
	orders []domain.Order
	err    error
}

func (f *fakeLedger) List(_ context.Context) ([]domain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func (f *fakeLedger) GetByID(_ context.Context, id string) (*domain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, o := range f.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) ReverseOrder(_ context.Context, id string) (*Reversal, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i, o := range f.orders {
		if o.ID != id {
			continue
		}
		f.orders = append(f.orders[:i], f.orders[i+1:]...)
		r := &Reversal{OrderID: id, Restocked: []string{}, Skipped: []string{}}
		for _, item := range o.Items {
			if item.ProductID == "gone" {
				r.Skipped = append(r.Skipped, item.ProductID)
				continue
			}
			r.Restocked = append(r.Restocked, item.ProductID)
		}
		return r, nil
	}
	return nil, ErrOrderNotFound
}

type fakePublisher struct {
	events []any
}

func (f *fakePublisher) Publish(_ context.Context, _ string, event any) error {
	f.events = append(f.events, event)
	return nil
}

func testOrder() domain.Order {
	return domain.Order{
		ID: "o-1",
		Items: []domain.OrderItem{
			{ProductID: "p-1", Name: "Espresso", Price: decimal.NewFromInt(100), Quantity: 2},
			{ProductID: "gone", Name: "Old Muffin", Price: decimal.NewFromInt(50), Quantity: 1},
		},
		Total:     decimal.NewFromInt(250),
		Status:    domain.OrderStatusCompleted,
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func newTestMux(ledger Ledger, pub Publisher) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(ledger, pub, nil, checkout.ReceiptFormat{}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", handler.HandleList)
	mux.HandleFunc("GET /orders/{id}", handler.HandleGet)
	mux.HandleFunc("DELETE /orders/{id}", handler.HandleReverse)
	mux.HandleFunc("GET /orders/{id}/receipt", handler.HandleReceipt)
	return mux
}

func TestHandler_List(t *testing.T) {
	t.Run("lists orders", func(t *testing.T) {
		mux := newTestMux(&fakeLedger{orders: []domain.Order{testOrder()}}, nil)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var orders []domain.Order
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&orders))
		require.Len(t, orders, 1)
		assert.Equal(t, "o-1", orders[0].ID)
	})

	t.Run("hides store errors", func(t *testing.T) {
		mux := newTestMux(&fakeLedger{err: errStoreDown}, nil)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	})
}

func TestHandler_Get(t *testing.T) {
	mux := newTestMux(&fakeLedger{orders: []domain.Order{testOrder()}}, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/o-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Reverse(t *testing.T) {
	t.Run("reports restocked and skipped products", func(t *testing.T) {
		ledger := &fakeLedger{orders: []domain.Order{testOrder()}}
		pub := &fakePublisher{}
		mux := newTestMux(ledger, pub)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/orders/o-1", nil))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var reversal Reversal
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&reversal))
		assert.Equal(t, []string{"p-1"}, reversal.Restocked)
		assert.Equal(t, []string{"gone"}, reversal.Skipped)
		assert.Empty(t, ledger.orders)

		require.Len(t, pub.events, 1)
		event, ok := pub.events[0].(domain.OrderReversedEvent)
		require.True(t, ok)
		assert.Equal(t, "o-1", event.OrderID)
	})

	t.Run("unknown order", func(t *testing.T) {
		mux := newTestMux(&fakeLedger{}, nil)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/orders/nope", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		mux := newTestMux(&fakeLedger{err: errStoreDown}, nil)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/orders/o-1", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandler_Receipt(t *testing.T) {
	mux := newTestMux(&fakeLedger{orders: []domain.Order{testOrder()}}, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/o-1/receipt", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Rs. 250.00")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/o-1/receipt?format=text", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Old Muffin x1  Rs. 50.00")
}
