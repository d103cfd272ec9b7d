package service

import (
	"context"
	"fmt"

	"agromarket_back_end/internal/catalog"
	"agromarket_back_end/internal/models"

	"go.uber.org/zap"
)

type FarmerLister interface {
	ListFarmers(ctx context.Context) ([]models.Farmer, error)
}

type ProductCache interface {
	Products(ctx context.Context) ([]models.Product, bool, error)
	SetProducts(ctx context.Context, products []models.Product) error
	InvalidateProducts(ctx context.Context) error
}

// Catalog serves the flattened product list, rebuilding it from the farmer
// records whenever the cached copy is missing.
type Catalog struct {
	farmers FarmerLister
	cache   ProductCache
	index   *ProductIndex
	log     *zap.Logger
}

// NewCatalog accepts a nil cache or index; both are optional.
func NewCatalog(farmers FarmerLister, cache ProductCache, index *ProductIndex, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{farmers: farmers, cache: cache, index: index, log: log}
}

func (c *Catalog) Products(ctx context.Context) ([]models.Product, error) {
	if c.cache != nil {
		products, ok, err := c.cache.Products(ctx)
		if err != nil {
			c.log.Warn("product cache read failed", zap.Error(err))
		} else if ok {
			return products, nil
		}
	}

	farmers, err := c.farmers.ListFarmers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list farmers: %w", err)
	}
	products := catalog.Normalize(farmers, c.log)

	if c.cache != nil {
		if err := c.cache.SetProducts(ctx, products); err != nil {
			c.log.Warn("product cache write failed", zap.Error(err))
		}
	}
	if c.index.Enabled() {
		if err := c.index.IndexProducts(ctx, products); err != nil {
			c.log.Warn("product indexing failed", zap.Error(err))
		}
	}
	return products, nil
}

// Product finds one listing by id.
func (c *Catalog) Product(ctx context.Context, productID string) (models.Product, bool, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return models.Product{}, false, err
	}
	for _, p := range products {
		if p.ID == productID {
			return p, true, nil
		}
	}
	return models.Product{}, false, nil
}

// Search uses the Elasticsearch index when available and falls back to the
// in-process pipeline otherwise. The pipeline query is applied on top of the
// index hits so filters behave the same either way.
func (c *Catalog) Search(ctx context.Context, q catalog.Query) ([]models.Product, error) {
	if q.Search != "" && c.index.Enabled() {
		hits, err := c.index.Search(ctx, q.Search, 200)
		if err == nil {
			q.Search = ""
			return catalog.Apply(hits, q), nil
		}
		c.log.Warn("elasticsearch search failed, using catalog pipeline", zap.Error(err))
	}

	products, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Apply(products, q), nil
}

func (c *Catalog) Invalidate(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.InvalidateProducts(ctx); err != nil {
		c.log.Warn("product cache invalidation failed", zap.Error(err))
	}
}
