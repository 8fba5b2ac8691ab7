package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

// OrderStatusCompleted is the only status checkout produces; there is no
// payment step between placing and completing an order.
const OrderStatusCompleted OrderStatus = "completed"

// OrderItem is a snapshot of a product at the time of sale. Later edits to
// the product never change it.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url,omitempty"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID        string          `json:"id"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}
