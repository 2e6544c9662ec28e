package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/cache"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/catalog/internal/models"
	"github.com/Skotchmaster/storefront/services/catalog/internal/repo"
	"github.com/Skotchmaster/storefront/services/catalog/internal/transport"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

const DefaultCacheTTL = 5 * time.Minute

type CatalogService struct {
	Repo     *repo.GormRepo
	Cache    cache.Cache
	CacheTTL time.Duration
	Events   events.Publisher
}

func productKey(id uuid.UUID) string {
	return "product:" + id.String()
}

func (s *CatalogService) ttl() time.Duration {
	if s.CacheTTL > 0 {
		return s.CacheTTL
	}
	return DefaultCacheTTL
}

// GetProduct reads through the cache when one is configured. Cache failures
// are logged and fall through to the database.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.get_product")

	if s.Cache != nil {
		var cached models.Product
		hit, err := s.Cache.Get(ctx, productKey(id), &cached)
		if err != nil {
			l.Warn("cache_get_error", "product_id", id, "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, productKey(id), product, s.ttl()); err != nil {
			l.Warn("cache_set_error", "product_id", id, "error", err)
		}
	}
	return product, nil
}

func (s *CatalogService) invalidate(ctx context.Context, ids ...uuid.UUID) {
	if s.Cache == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := s.Cache.Delete(ctx, keys...); err != nil {
		logging.FromContext(ctx).Warn("cache_delete_error", "keys", keys, "error", err)
	}
}

func (s *CatalogService) ListProducts(ctx context.Context, f transport.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return 0, nil, fmt.Errorf("%w: min_price greater than max_price", ErrValidation)
	}
	switch f.Sort {
	case "", transport.SortNewest, transport.SortPriceAsc, transport.SortPriceDesc, transport.SortRating, transport.SortName:
	default:
		return 0, nil, fmt.Errorf("%w: unknown sort %q", ErrValidation, f.Sort)
	}
	return s.Repo.ListProducts(ctx, f, offset, limit)
}

func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, []models.Product{}, nil
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

func (s *CatalogService) Categories(ctx context.Context) ([]transport.CategoryCount, error) {
	cats, err := s.Repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []transport.CategoryCount{}
	}
	return cats, nil
}

func validateProduct(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if p.CompareAtPrice != nil && *p.CompareAtPrice < p.Price {
		return fmt.Errorf("%w: compare_at_price must not be lower than price", ErrValidation)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrValidation)
	}
	if p.ReviewsCount < 0 {
		return fmt.Errorf("%w: reviews_count cannot be negative", ErrValidation)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	return nil
}

// NewProduct builds a product from a create request without saving it.
func NewProduct(req transport.CreateProductRequest) *models.Product {
	images := datatypes.JSONSlice[string]{}
	if req.Images != nil {
		images = datatypes.JSONSlice[string](req.Images)
	}
	return &models.Product{
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Price:          req.Price,
		CompareAtPrice: req.CompareAtPrice,
		Category:       strings.TrimSpace(req.Category),
		Images:         images,
		Rating:         req.Rating,
		ReviewsCount:   req.ReviewsCount,
		Stock:          req.Stock,
		Featured:       req.Featured,
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	product := NewProduct(req)
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, events.ProductCreated, product)
	return product, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id uuid.UUID) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.CompareAtPrice != nil {
		product.CompareAtPrice = req.CompareAtPrice
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.Images != nil {
		product.Images = datatypes.JSONSlice[string](*req.Images)
	}
	if req.Rating != nil {
		product.Rating = *req.Rating
	}
	if req.ReviewsCount != nil {
		product.ReviewsCount = *req.ReviewsCount
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Featured != nil {
		product.Featured = *req.Featured
	}

	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveProduct(ctx, product); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, events.ProductUpdated, product)
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return err
	}

	s.invalidate(ctx, id)
	e := events.New(events.ProductDeleted)
	e.ProductID = id.String()
	events.Emit(ctx, s.Events, events.TopicProduct, e.ProductID, e)
	return nil
}

// Seed upserts products keyed by their name so repeated runs do not duplicate rows.
func (s *CatalogService) Seed(ctx context.Context, reqs []transport.CreateProductRequest) (int, error) {
	products := make([]models.Product, 0, len(reqs))
	for i, req := range reqs {
		p := NewProduct(req)
		if err := validateProduct(p); err != nil {
			return 0, fmt.Errorf("product %d (%q): %w", i, req.Name, err)
		}
		p.ID = SeedID(p.Name)
		products = append(products, *p)
	}
	if err := s.Repo.UpsertProducts(ctx, products); err != nil {
		return 0, err
	}

	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
		s.publish(ctx, events.ProductUpdated, &products[i])
	}
	s.invalidate(ctx, ids...)
	return len(products), nil
}

var seedNamespace = uuid.MustParse("6f1c2a4e-8f0b-4a53-9a57-3c1d2f0e9b10")

func SeedID(name string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(strings.ToLower(strings.TrimSpace(name))))
}

// AdjustStock applies stock changes from order events. sign is -1 when an order is
// placed and +1 when it is cancelled.
func (s *CatalogService) AdjustStock(ctx context.Context, changes []transport.StockChange, sign int) error {
	if sign != 1 && sign != -1 {
		return fmt.Errorf("%w: sign must be 1 or -1", ErrValidation)
	}
	touched, err := s.Repo.AdjustStock(ctx, changes, sign)
	if err != nil {
		return err
	}
	s.invalidate(ctx, touched...)

	products, err := s.Repo.GetProductsByIDs(ctx, touched)
	if err != nil {
		return fmt.Errorf("reload adjusted products: %w", err)
	}
	for i := range products {
		s.publish(ctx, events.ProductUpdated, &products[i])
	}
	return nil
}

func (s *CatalogService) Stats(ctx context.Context) (*transport.CatalogStats, error) {
	return s.Repo.Stats(ctx, models.LowStockThreshold)
}

func (s *CatalogService) publish(ctx context.Context, typ string, p *models.Product) {
	if s.Events == nil {
		return
	}
	e := events.New(typ)
	e.ProductID = p.ID.String()
	e, err := e.WithData(p)
	if err != nil {
		logging.FromContext(ctx).Error("event_encode_error", "type", typ, "error", err)
		return
	}
	events.Emit(ctx, s.Events, events.TopicProduct, e.ProductID, e)
}
