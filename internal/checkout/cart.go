package checkout

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/posflow/internal/domain"
)

// State is the persisted checkout session state. Completion and failure are
// transitions, not resting states: Complete lands in StateEmpty and Fail lands
// back in StateBuilding.
type State string

const (
	StateEmpty      State = "empty"
	StateBuilding   State = "building"
	StateSubmitting State = "submitting"
)

// SubmitTimeout bounds how long a cart may stay submitting. A submitting cart
// older than this was abandoned mid-checkout and goes back to building.
const SubmitTimeout = 2 * time.Minute

// ProductSnapshot is the part of a product a cart line needs. Stock is the
// stock seen when the line was last refreshed from the catalog.
type ProductSnapshot struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	ImageURL string          `json:"image_url,omitempty"`
}

func Snapshot(p domain.Product) ProductSnapshot {
	return ProductSnapshot{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		ImageURL: p.ImageURL,
	}
}

type Line struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
}

func (l Line) Total() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the in-progress sale of one checkout session. A product appears in
// at most one line. The zero value is an empty cart.
type Cart struct {
	Lines       []Line    `json:"lines"`
	State       State     `json:"state"`
	SubmittedAt time.Time `json:"submitted_at,omitzero"`
}

func (c *Cart) state() State {
	if c.State == "" {
		return StateEmpty
	}
	return c.State
}

func (c *Cart) find(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) editable() bool {
	return c.state() != StateSubmitting
}

func (c *Cart) settle() {
	if len(c.Lines) == 0 {
		c.State = StateEmpty
		return
	}
	c.State = StateBuilding
}

// AddToCart adds one unit of p. It reports false and leaves the cart alone
// when p is out of stock or one more unit would exceed its stock.
func (c *Cart) AddToCart(p ProductSnapshot) bool {
	if !c.editable() || p.Stock <= 0 {
		return false
	}

	if i := c.find(p.ID); i >= 0 {
		if c.Lines[i].Quantity+1 > p.Stock {
			return false
		}
		c.Lines[i].Product = p
		c.Lines[i].Quantity++
		c.settle()
		return true
	}

	c.Lines = append(c.Lines, Line{Product: p, Quantity: 1})
	c.settle()
	return true
}

// SetLineQuantity replaces the quantity of an existing line. Quantities below
// one or above the line's known stock are ignored.
func (c *Cart) SetLineQuantity(productID string, quantity int) bool {
	if !c.editable() {
		return false
	}
	i := c.find(productID)
	if i < 0 || quantity < 1 || quantity > c.Lines[i].Product.Stock {
		return false
	}
	if c.Lines[i].Quantity == quantity {
		return false
	}
	c.Lines[i].Quantity = quantity
	return true
}

// Refresh replaces the snapshot of an existing line with current catalog data.
func (c *Cart) Refresh(p ProductSnapshot) {
	if i := c.find(p.ID); i >= 0 {
		c.Lines[i].Product = p
	}
}

func (c *Cart) RemoveLine(productID string) bool {
	if !c.editable() {
		return false
	}
	i := c.find(productID)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	c.settle()
	return true
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Total())
	}
	return total
}

// BeginSubmit moves a building cart with at least one line to submitting.
// A cart abandoned in submitting for longer than SubmitTimeout is released
// first.
func (c *Cart) BeginSubmit(now time.Time) error {
	c.Release(now)

	switch c.state() {
	case StateSubmitting:
		return ErrCheckoutInProgress
	case StateBuilding:
		if len(c.Lines) == 0 {
			return ErrEmptyCart
		}
		c.State = StateSubmitting
		c.SubmittedAt = now
		return nil
	default:
		return ErrEmptyCart
	}
}

// Release returns a cart stuck in submitting past SubmitTimeout to building.
// It reports whether the cart changed.
func (c *Cart) Release(now time.Time) bool {
	if c.state() != StateSubmitting || now.Sub(c.SubmittedAt) <= SubmitTimeout {
		return false
	}
	c.Fail()
	return true
}

// Complete clears the cart after a successful sale.
func (c *Cart) Complete() {
	c.Lines = nil
	c.State = StateEmpty
	c.SubmittedAt = time.Time{}
}

// Fail returns a submitting cart to building with every line intact.
func (c *Cart) Fail() {
	c.SubmittedAt = time.Time{}
	c.settle()
}

// Items converts the cart lines into order item snapshots, in cart order.
func (c *Cart) Items() []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, domain.OrderItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
			ImageURL:  l.Product.ImageURL,
		})
	}
	return items
}
