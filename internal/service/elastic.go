package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"agromarket_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const ProductsIndex = "products"

var ErrSearchDisabled = errors.New("elasticsearch is not configured")

// ProductIndex mirrors the flattened catalog into Elasticsearch for free-text
// search.
type ProductIndex struct {
	client *elasticsearch.Client
	index  string
	log    *zap.Logger
}

func NewProductIndex(client *elasticsearch.Client, log *zap.Logger) *ProductIndex {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductIndex{client: client, index: ProductsIndex, log: log}
}

func (p *ProductIndex) Enabled() bool {
	return p != nil && p.client != nil
}

// IndexProducts upserts every product in one bulk request.
func (p *ProductIndex) IndexProducts(ctx context.Context, products []models.Product) error {
	if !p.Enabled() {
		return ErrSearchDisabled
	}
	if len(products) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, product := range products {
		meta := map[string]any{"index": map[string]any{"_index": p.index, "_id": product.ID}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(product); err != nil {
			return err
		}
	}

	res, err := esapi.BulkRequest{Body: &body, Refresh: "true"}.Do(ctx, p.client)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk index: %s", res.Status())
	}

	var summary struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&summary); err == nil && summary.Errors {
		p.log.Warn("some products failed to index", zap.Int("products", len(products)))
	}
	p.log.Debug("indexed products", zap.Int("count", len(products)))
	return nil
}

// Search runs a multi_match over name, category, location and farmer name.
func (p *ProductIndex) Search(ctx context.Context, query string, size int) ([]models.Product, error) {
	if !p.Enabled() {
		return nil, ErrSearchDisabled
	}
	if size <= 0 {
		size = 50
	}

	var buf bytes.Buffer
	q := map[string]any{
		"size": size,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^3", "category^2", "location", "farmerName"},
				"fuzziness": "AUTO",
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := esapi.SearchRequest{Index: []string{p.index}, Body: &buf}.Do(ctx, p.client)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	products := make([]models.Product, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		products = append(products, hit.Source)
	}
	return products, nil
}
