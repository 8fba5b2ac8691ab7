package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/posflow/internal/domain"
)

// Reversal reports what deleting an order did to stock.
type Reversal struct {
	OrderID   string   `json:"order_id"`
	Restocked []string `json:"restocked"`
	Skipped   []string `json:"skipped"`
}

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// PlaceOrder writes the order with its items and takes every item's quantity
// out of stock in one transaction. Nothing is written when a product is
// missing or short on stock.
func (r *OrderRepository) PlaceOrder(ctx context.Context, order *domain.Order) error {
	for _, item := range order.Items {
		if _, err := uuid.Parse(item.ProductID); err != nil {
			return fmt.Errorf("product %s: %w", item.ProductID, domain.ErrProductNotFound)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.New().String()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, total, status, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, order.Total, order.Status, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product_id, name, price, quantity, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, id, i, item.ProductID, item.Name, item.Price, item.Quantity, item.ImageURL)
		if err != nil {
			return fmt.Errorf("insert order item %d: %w", i, err)
		}
	}

	for _, item := range lockOrder(order.Items) {
		if err := decrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	order.ID = id
	return nil
}

// lockOrder returns the items sorted by product id. Decrementing in this order
// makes concurrent sales lock product rows in the same sequence.
func lockOrder(items []domain.OrderItem) []domain.OrderItem {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b domain.OrderItem) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return sorted
}

func decrementStock(ctx context.Context, tx *sql.Tx, productID string, quantity int) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`, productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock for %s: %w", productID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("product %s: %w", productID, domain.ErrProductNotFound)
	}
	return fmt.Errorf("product %s: %w", productID, domain.ErrInsufficientStock)
}

// ReverseOrder puts each item's quantity back into stock and deletes the
// order, all in one transaction. Items whose product no longer exists are
// skipped and reported.
func (r *OrderRepository) ReverseOrder(ctx context.Context, id string) (*Reversal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOrderNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id, position
	`, id)
	if err != nil {
		return nil, err
	}

	type line struct {
		productID string
		quantity  int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			_ = rows.Close()
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	reversal := &Reversal{OrderID: id, Restocked: []string{}, Skipped: []string{}}
	for _, l := range lines {
		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock + $2, updated_at = NOW()
			WHERE id = $1
		`, l.productID, l.quantity)
		if err != nil {
			return nil, fmt.Errorf("restock %s: %w", l.productID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if rowsAffected == 0 {
			reversal.Skipped = append(reversal.Skipped, l.productID)
			continue
		}
		reversal.Restocked = append(reversal.Restocked, l.productID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return reversal, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	orders, err := r.query(ctx, `
		SELECT id, total, status, created_at
		FROM orders
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

// List returns every order, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	return r.query(ctx, `
		SELECT id, total, status, created_at
		FROM orders
		ORDER BY created_at DESC, id
	`)
}

// ListBetween returns orders created in [from, to), oldest first.
func (r *OrderRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	return r.query(ctx, `
		SELECT id, total, status, created_at
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at, id
	`, from, to)
}

// query loads the selected orders and then all of their items with a single
// second query.
func (r *OrderRepository) query(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.Total, &order.Status, &order.CreatedAt); err != nil {
			return nil, err
		}
		order.CreatedAt = order.CreatedAt.UTC()
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, name, price, quantity, image_url
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity, &item.ImageURL); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}
