package checkout

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/posflow/internal/domain"
)

func sampleOrder() domain.Order {
	return domain.Order{
		ID: "order-1",
		Items: []domain.OrderItem{
			{ProductID: "a", Name: "Espresso", Price: decimal.RequireFromString("2.5"), Quantity: 2},
			{ProductID: "b", Name: "Water <500ml>", Price: decimal.NewFromInt(1), Quantity: 1},
		},
		Total:     decimal.NewFromInt(6),
		Status:    domain.OrderStatusCompleted,
		CreatedAt: time.Date(2026, 3, 31, 20, 30, 0, 0, time.UTC),
	}
}

func TestNewReceipt(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		r := NewReceipt(sampleOrder(), ReceiptFormat{})

		assert.Equal(t, "POS System", r.StoreName)
		assert.Equal(t, "2026-03-31 20:30:00", r.IssuedAt)
		assert.Equal(t, "Rs. 6.00", r.Total)
		require.Len(t, r.Lines, 2)
		assert.Equal(t, "Rs. 5.00", r.Lines[0].Amount)
	})

	t.Run("uses store location and branding", func(t *testing.T) {
		loc := time.FixedZone("IST", 5*3600+1800)
		r := NewReceipt(sampleOrder(), ReceiptFormat{StoreName: "Corner Cafe", CurrencyPrefix: "$", Location: loc})

		assert.Equal(t, "Corner Cafe", r.StoreName)
		assert.Equal(t, "2026-04-01 02:00:00", r.IssuedAt)
		assert.Equal(t, "$ 6.00", r.Total)
	})
}

func TestReceipt_HTML(t *testing.T) {
	html, err := NewReceipt(sampleOrder(), ReceiptFormat{}).HTML()
	require.NoError(t, err)

	assert.Contains(t, html, "<h2>POS System</h2>")
	assert.Contains(t, html, "Order ID: order-1")
	assert.Contains(t, html, "Espresso x2")
	assert.Contains(t, html, "Water &lt;500ml&gt; x1")
	assert.Contains(t, html, "Rs. 6.00")
	assert.Contains(t, html, "size: 80mm auto")
}

func TestReceipt_Text(t *testing.T) {
	text := NewReceipt(sampleOrder(), ReceiptFormat{}).Text()

	assert.Contains(t, text, "POS System\nReceipt\nOrder ID: order-1\n")
	assert.Contains(t, text, "Espresso x2  Rs. 5.00\n")
	assert.Contains(t, text, "Total: Rs. 6.00\n")
}
