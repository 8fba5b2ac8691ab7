package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/posflow/internal/domain"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type cartResponse struct {
	SessionID string          `json:"session_id"`
	Lines     []Line          `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	State     State           `json:"state"`
	Changed   *bool           `json:"changed,omitempty"`
}

func newCartResponse(sid string, cart *Cart, changed *bool) cartResponse {
	lines := cart.Lines
	if lines == nil {
		lines = []Line{}
	}
	return cartResponse{
		SessionID: sid,
		Lines:     lines,
		Total:     cart.Total(),
		State:     cart.state(),
		Changed:   changed,
	}
}

type saleResponse struct {
	Order   domain.Order `json:"order"`
	Receipt string       `json:"receipt,omitempty"`
}

func (h *Handler) HandleNewSession(w http.ResponseWriter, r *http.Request) {
	sid, err := h.service.NewSession(r.Context())
	if err != nil {
		h.logger.Error("failed to create checkout session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("checkout session created", "session_id", sid)
	h.writeJSON(w, http.StatusCreated, newCartResponse(sid, &Cart{State: StateEmpty}, nil))
}

func (h *Handler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Products(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")

	cart, err := h.service.Cart(r.Context(), sid)
	if err != nil {
		h.handleServiceError(w, err, "failed to load cart", sid)
		return
	}

	h.writeJSON(w, http.StatusOK, newCartResponse(sid, cart, nil))
}

type addLineRequest struct {
	ProductID string `json:"product_id"`
}

func (h *Handler) HandleAddLine(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")

	var req addLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, changed, err := h.service.AddToCart(r.Context(), sid, req.ProductID)
	if err != nil {
		h.handleServiceError(w, err, "failed to add product to cart", sid)
		return
	}

	h.writeJSON(w, http.StatusOK, newCartResponse(sid, cart, &changed))
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) HandleSetQuantity(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	productID := r.PathValue("productId")

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, changed, err := h.service.SetLineQuantity(r.Context(), sid, productID, *req.Quantity)
	if err != nil {
		h.handleServiceError(w, err, "failed to set line quantity", sid)
		return
	}

	h.writeJSON(w, http.StatusOK, newCartResponse(sid, cart, &changed))
}

func (h *Handler) HandleRemoveLine(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")

	cart, changed, err := h.service.RemoveLine(r.Context(), sid, r.PathValue("productId"))
	if err != nil {
		h.handleServiceError(w, err, "failed to remove line", sid)
		return
	}

	h.writeJSON(w, http.StatusOK, newCartResponse(sid, cart, &changed))
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")

	sale, err := h.service.Checkout(r.Context(), sid)
	if err != nil {
		h.handleServiceError(w, err, "checkout failed", sid)
		return
	}

	resp := saleResponse{Order: sale.Order}
	html, err := sale.Receipt.HTML()
	if err != nil {
		h.logger.Error("failed to render receipt", "error", err, "order_id", sale.Order.ID)
	} else {
		resp.Receipt = html
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error, msg, sid string) {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		h.writeError(w, http.StatusConflict, "insufficient stock")
	case errors.Is(err, domain.ErrProductNotFound):
		h.writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, ErrNotInCart):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCheckoutInProgress):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrEmptyCart):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(msg, "error", err, "session_id", sid)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
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
