package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/posflow/internal/checkout"
	"github.com/joao-fontenele/posflow/internal/domain"
)

// ReceiptHandler turns completed orders into printed receipts.
type ReceiptHandler struct {
	printerServiceURL string
	format            checkout.ReceiptFormat
	httpClient        *http.Client
	logger            *slog.Logger
}

func NewReceiptHandler(printerServiceURL string, format checkout.ReceiptFormat, client *http.Client, logger *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		printerServiceURL: printerServiceURL,
		format:            format,
		httpClient:        client,
		logger:            logger,
	}
}

type printRequest struct {
	OrderID string `json:"order_id"`
	Content string `json:"content"`
}

func (h *ReceiptHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order completed event: %w", err)
	}

	h.logger.Info("processing order completed event", "order_id", event.OrderID, "items", len(event.Items))

	order := domain.Order{
		ID:        event.OrderID,
		Items:     event.Items,
		Total:     event.Total,
		Status:    domain.OrderStatusCompleted,
		CreatedAt: event.Timestamp,
	}
	receipt := checkout.NewReceipt(order, h.format)

	if err := h.print(ctx, printRequest{OrderID: event.OrderID, Content: receipt.Text()}); err != nil {
		h.logger.Error("failed to print receipt", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("print receipt: %w", err)
	}

	h.logger.Info("receipt printed", "order_id", event.OrderID)
	return nil
}

func (h *ReceiptHandler) print(ctx context.Context, body printRequest) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.printerServiceURL+"/print", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("printer service returned status %d", resp.StatusCode)
	}

	return nil
}
