package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/posflow/internal/domain"
)

// DefaultMaxImageBytes caps uploaded product images at 1 MiB.
const DefaultMaxImageBytes int64 = 1 << 20

type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	UpdateImage(ctx context.Context, id, imageURL string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// ProductInput is the product form. Pointer fields distinguish a missing
// value from a zero one.
type ProductInput struct {
	Name        string           `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
	Stock       *int             `json:"stock"`
	Description string           `json:"description"`
	ImageURL    string           `json:"image_url"`
}

type Service struct {
	repo          Repository
	maxImageBytes int64
	logger        *slog.Logger
	now           func() time.Time
}

func NewService(repo Repository, maxImageBytes int64, logger *slog.Logger) *Service {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &Service{
		repo:          repo,
		maxImageBytes: maxImageBytes,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	now := s.now()
	p := &domain.Product{CreatedAt: now}
	apply(p, in, now)

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// Update replaces the editable fields of a product. An empty image URL keeps
// the current image.
func (s *Service) Update(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	image := p.ImageURL
	apply(p, in, s.now())
	if in.ImageURL == "" {
		p.ImageURL = image
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("product updated", "product_id", p.ID)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("product deleted", "product_id", id)
	return nil
}

// AttachImage embeds an uploaded image into the product record. Only the
// image and update time are written, so stock moved by a concurrent sale
// stays as the sale left it.
func (s *Service) AttachImage(ctx context.Context, id, contentType string, data []byte) (*domain.Product, error) {
	encoded, err := EncodeImage(contentType, data, s.maxImageBytes)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateImage(ctx, id, encoded, s.now()); err != nil {
		return nil, err
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("product image attached", "product_id", p.ID, "bytes", len(data))
	return p, nil
}

// Validate applies the entry-time rules of the product form. Stored products
// are never re-validated.
func (s *Service) Validate(in ProductInput) error {
	fields := map[string]string{}

	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "is required"
	}

	switch {
	case in.Price == nil:
		fields["price"] = "is required"
	case !in.Price.Round(2).IsPositive():
		fields["price"] = "must be greater than zero"
	}

	switch {
	case in.CostPrice == nil:
		fields["cost_price"] = "is required"
	case in.CostPrice.IsNegative():
		fields["cost_price"] = "must not be negative"
	}

	switch {
	case in.Stock == nil:
		fields["stock"] = "is required"
	case *in.Stock < 0:
		fields["stock"] = "must not be negative"
	}

	if _, ok := fields["price"]; !ok {
		if _, ok := fields["cost_price"]; !ok && in.CostPrice.Round(2).GreaterThanOrEqual(in.Price.Round(2)) {
			fields["cost_price"] = "must be less than selling price"
		}
	}

	if in.ImageURL != "" {
		if msg := s.imageProblem(in.ImageURL); msg != "" {
			fields["image_url"] = msg
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *Service) imageProblem(dataURL string) string {
	mediaType, data, err := DecodeDataURL(dataURL)
	if err != nil {
		return "must be a base64 image data url"
	}
	if _, err := checkImage(mediaType, data, s.maxImageBytes); err != nil {
		if errors.Is(err, ErrImageTooLarge) {
			return "image exceeds size limit"
		}
		return "must be an image"
	}
	return ""
}

func apply(p *domain.Product, in ProductInput, now time.Time) {
	p.Name = strings.TrimSpace(in.Name)
	p.Price = in.Price.Round(2)
	p.CostPrice = in.CostPrice.Round(2)
	p.Stock = *in.Stock
	p.Description = strings.TrimSpace(in.Description)
	p.ImageURL = in.ImageURL
	p.UpdatedAt = now
}
