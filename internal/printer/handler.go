package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
)

// Handler accepts rendered receipts and writes them to a paper sink.
type Handler struct {
	mu     sync.Mutex
	sink   io.Writer
	logger *slog.Logger
}

func NewHandler(sink io.Writer, logger *slog.Logger) *Handler {
	return &Handler{
		sink:   sink,
		logger: logger,
	}
}

type printRequest struct {
	OrderID string `json:"order_id"`
	Content string `json:"content"`
}

type printResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandlePrint(w http.ResponseWriter, r *http.Request) {
	var req printRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" || req.Content == "" {
		h.writeError(w, http.StatusBadRequest, "order_id and content are required")
		return
	}

	h.mu.Lock()
	_, err := fmt.Fprintf(h.sink, "%s\n\f", req.Content)
	h.mu.Unlock()
	if err != nil {
		h.logger.Error("failed to print receipt", "error", err, "order_id", req.OrderID)
		h.writeError(w, http.StatusServiceUnavailable, "printer unavailable")
		return
	}

	h.logger.Info("receipt printed", "order_id", req.OrderID, "bytes", len(req.Content))

	h.writeJSON(w, http.StatusOK, printResponse{Status: "printed"})
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
