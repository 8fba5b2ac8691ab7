package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderCompletedEvent struct {
	OrderID   string          `json:"order_id"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
}

type OrderReversedEvent struct {
	OrderID   string    `json:"order_id"`
	Restocked []string  `json:"restocked"`
	Skipped   []string  `json:"skipped"`
	Timestamp time.Time `json:"timestamp"`
}
