package handlers

import (
	"net/http"
	"sort"
	"strings"

	"agromarket_back_end/internal/catalog"
	"agromarket_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProductHandler struct {
	catalog Catalog
	log     *zap.Logger
}

func NewProductHandler(c Catalog, log *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: c, log: orNopLogger(log)}
}

// ListProducts returns the flattened catalog. Query parameters narrow and
// reorder it through the catalog pipeline; without any the full list comes
// back in catalog order.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.Products(c.Request.Context())
	if err != nil {
		serverError(c, h.log, "Server error", err)
		return
	}
	if len(c.Request.URL.Query()) > 0 {
		products = catalog.Apply(products, catalog.QueryFromValues(c.Request.URL.Query()))
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) SearchProducts(c *gin.Context) {
	q := catalog.QueryFromValues(c.Request.URL.Query())
	if strings.TrimSpace(q.Search) == "" {
		badRequest(c, "Query parameter q is required")
		return
	}

	products, err := h.catalog.Search(c.Request.Context(), q)
	if err != nil {
		serverError(c, h.log, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q.Search, "count": len(products), "products": products})
}

type filterOptions struct {
	Categories      []string           `json:"categories"`
	Locations       []string           `json:"locations"`
	PaymentOptions  []string           `json:"paymentOptions"`
	PriceRange      catalog.PriceRange `json:"priceRange"`
	SortOptions     []catalog.SortKey  `json:"sortOptions"`
	DeliveryOptions []string           `json:"deliveryOptions"`
	Defaults        catalog.Filters    `json:"defaults"`
}

// Filters describes what the sidebar can offer for the current catalog.
func (h *ProductHandler) Filters(c *gin.Context) {
	products, err := h.catalog.Products(c.Request.Context())
	if err != nil {
		serverError(c, h.log, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, buildFilterOptions(products))
}

func buildFilterOptions(products []models.Product) filterOptions {
	opts := filterOptions{
		PriceRange:      catalog.PriceRange{catalog.DefaultMinPrice, catalog.DefaultMaxPrice},
		SortOptions:     catalog.SortKeys,
		DeliveryOptions: []string{catalog.DeliveryNextDay, catalog.DeliveryTwoThree, catalog.DeliveryFourSeven},
		Defaults:        catalog.DefaultFilters(),
	}

	categories := map[string]bool{}
	locations := map[string]bool{}
	payments := map[string]bool{}
	for i, p := range products {
		if i == 0 || p.Price < opts.PriceRange[0] {
			opts.PriceRange[0] = p.Price
		}
		if i == 0 || p.Price > opts.PriceRange[1] {
			opts.PriceRange[1] = p.Price
		}
		categories[p.Category] = true
		locations[p.Location] = true
		for _, o := range p.PaymentOptions {
			payments[o] = true
		}
	}
	opts.Categories = sortedKeys(categories)
	opts.Locations = sortedKeys(locations)
	opts.PaymentOptions = sortedKeys(payments)
	return opts
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
