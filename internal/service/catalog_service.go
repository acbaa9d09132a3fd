package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Cache is the optional read-through cache over public catalog queries.
// Every failure is treated as a miss: correctness never depends on it.
type Cache interface {
	GetJSON(ctx context.Context, key string, out interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

const catalogCacheTTL = 5 * time.Minute

// CatalogService serves the public storefront reads: product listing,
// checkout bumps and themed model pages.
type CatalogService struct {
	store  *store.Store
	cache  Cache // may be nil
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(st *store.Store, cache Cache) *CatalogService {
	return &CatalogService{
		store:  st,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// ListProducts returns the active products, cached
func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if s.cacheGet(ctx, "products", &products) {
		return products, nil
	}

	products, err := s.store.GetActiveProducts(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, "products", products)
	return products, nil
}

// GetProduct returns one active product
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return product, nil
}

// ListOrderBumps returns the active bumps offered at checkout, global plus
// model-scoped when modelID is nonzero
func (s *CatalogService) ListOrderBumps(ctx context.Context, modelID int64) ([]models.OrderBump, error) {
	return s.store.GetActiveOrderBumps(ctx, modelID)
}

// ModelPage is the public payload of a themed landing page
type ModelPage struct {
	Model    *models.Model    `json:"model"`
	Products []ModelPageOffer `json:"products"`
}

// ModelPageOffer is a product as shown on a model page, with curation
// overrides applied
type ModelPageOffer struct {
	models.Product
	DisplayOrder int `json:"display_order"`
}

// GetModelPage returns an active model page with its curated products,
// cached by slug
func (s *CatalogService) GetModelPage(ctx context.Context, slug string) (*ModelPage, error) {
	key := "model:" + slug

	var page ModelPage
	if s.cacheGet(ctx, key, &page) {
		return &page, nil
	}

	model, err := s.store.GetModelBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("model %s: %w", slug, ErrNotFound)
		}
		return nil, err
	}

	curation, err := s.store.GetModelProducts(ctx, model.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(curation))
	for _, mp := range curation {
		ids = append(ids, mp.ProductID)
	}

	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	offers := make([]ModelPageOffer, 0, len(curation))
	for _, mp := range curation {
		p, ok := byID[mp.ProductID]
		if !ok || !p.IsActive {
			continue
		}
		if mp.CustomPrice.Valid {
			p.PriceInCents = mp.CustomPrice.Int64
		}
		if mp.CustomName.Valid {
			p.Name = mp.CustomName.String
		}
		if mp.CustomDescription.Valid {
			p.Description = mp.CustomDescription.String
		}
		offers = append(offers, ModelPageOffer{Product: p, DisplayOrder: mp.DisplayOrder})
	}

	page = ModelPage{Model: model, Products: offers}
	s.cacheSet(ctx, key, page)
	return &page, nil
}

// InvalidateCatalog drops the cached catalog after an admin write
func (s *CatalogService) InvalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "products"); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.Error(err))
	}
	if err := s.cache.InvalidatePrefix(ctx, "model:"); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.Error(err))
	}
}

func (s *CatalogService) cacheGet(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	if err := s.cache.GetJSON(ctx, key, out); err != nil {
		return false
	}
	return true
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, catalogCacheTTL); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
