package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/posflow/internal/domain"
)

const productColumns = `id, name, price, cost_price, stock, description, image_url, created_at, updated_at`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// GetByID returns nil, nil when the product does not exist.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	p := &domain.Product{}
	err := scanProduct(r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id), p)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	p.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.Name, p.Price, p.CostPrice, p.Stock, p.Description, p.ImageURL, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	if _, err := uuid.Parse(p.ID); err != nil {
		return ErrProductNotFound
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, price = $3, cost_price = $4, stock = $5,
		    description = $6, image_url = $7, updated_at = $8
		WHERE id = $1
	`, p.ID, p.Name, p.Price, p.CostPrice, p.Stock, p.Description, p.ImageURL, p.UpdatedAt)
	if err != nil {
		return err
	}

	return expectOneRow(result)
}

func (r *ProductRepository) UpdateImage(ctx context.Context, id, imageURL string, updatedAt time.Time) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrProductNotFound
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET image_url = $2, updated_at = $3
		WHERE id = $1
	`, id, imageURL, updatedAt)
	if err != nil {
		return err
	}

	return expectOneRow(result)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrProductNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return expectOneRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, p *domain.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Price, &p.CostPrice, &p.Stock, &p.Description, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}
