package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/joao-fontenele/posflow/internal/checkout"
	"github.com/joao-fontenele/posflow/internal/domain"
	"github.com/joao-fontenele/posflow/internal/telemetry"
)

type Ledger interface {
	List(ctx context.Context) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ReverseOrder(ctx context.Context, id string) (*Reversal, error)
}

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Handler struct {
	ledger    Ledger
	publisher Publisher
	metrics   *telemetry.SalesMetrics
	format    checkout.ReceiptFormat
	logger    *slog.Logger
}

// NewHandler builds the order ledger handler. publisher and metrics may be nil.
func NewHandler(ledger Ledger, publisher Publisher, metrics *telemetry.SalesMetrics, format checkout.ReceiptFormat, logger *slog.Logger) *Handler {
	return &Handler{
		ledger:    ledger,
		publisher: publisher,
		metrics:   metrics,
		format:    format,
		logger:    logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.ledger.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("orders listed", "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

// HandleReverse deletes an order and puts its items back into stock.
func (h *Handler) HandleReverse(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	reversal, err := h.ledger.ReverseOrder(r.Context(), id)
	if errors.Is(err, ErrOrderNotFound) {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to reverse order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	for _, productID := range reversal.Skipped {
		h.logger.Warn("product no longer exists, stock not restored", "order_id", id, "product_id", productID)
	}
	h.metrics.OrderReversed(r.Context(), len(reversal.Skipped))

	if h.publisher != nil {
		event := domain.OrderReversedEvent{
			OrderID:   reversal.OrderID,
			Restocked: reversal.Restocked,
			Skipped:   reversal.Skipped,
			Timestamp: time.Now().UTC(),
		}
		if err := h.publisher.Publish(r.Context(), reversal.OrderID, event); err != nil {
			h.logger.Error("failed to publish order reversed event", "error", err, "order_id", id)
		}
	}

	h.logger.Info("order reversed", "order_id", id, "restocked", len(reversal.Restocked), "skipped", len(reversal.Skipped))
	h.writeJSON(w, http.StatusOK, reversal)
}

// HandleReceipt re-renders the receipt of a stored order, as HTML by default
// or as plain text with ?format=text.
func (h *Handler) HandleReceipt(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	receipt := checkout.NewReceipt(*order, h.format)

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(receipt.Text()))
		return
	}

	html, err := receipt.HTML()
	if err != nil {
		h.logger.Error("failed to render receipt", "error", err, "order_id", order.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (h *Handler) loadOrder(w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	id := r.PathValue("id")

	order, err := h.ledger.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return nil, false
	}

	return order, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
