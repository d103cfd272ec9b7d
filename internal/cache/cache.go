package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"agromarket_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

const ProductCacheTTL = 10 * time.Minute

// Products returns the cached flattened catalog. ok is false on a miss or
// when the cached value cannot be decoded.
func (c *Cache) Products(ctx context.Context) ([]models.Product, bool, error) {
	data, err := c.client.Get(ctx, productsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, false, nil
	}
	return products, true, nil
}

func (c *Cache) SetProducts(ctx context.Context, products []models.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productsKey, data, c.catalogTTL).Err()
}

// InvalidateProducts drops the cached catalog after a farmer write.
func (c *Cache) InvalidateProducts(ctx context.Context) error {
	return c.client.Del(ctx, productsKey).Err()
}
