package catalog

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"agromarket_back_end/internal/models"
)

type SortKey string

const (
	SortPopular      SortKey = "popular"
	SortRating       SortKey = "rating"
	SortNewest       SortKey = "newest"
	SortPriceLowHigh SortKey = "price_low_high"
	SortPriceHighLow SortKey = "price_high_low"
)

// CategoryAll disables the category stage.
const CategoryAll = "all"

var SortKeys = []SortKey{SortPopular, SortRating, SortNewest, SortPriceLowHigh, SortPriceHighLow}

// Query is everything the catalog view can narrow or reorder by.
type Query struct {
	Filters  Filters
	Search   string
	Sort     SortKey
	Category string
}

type stage func(models.Product) bool

// Apply runs the category, search, location, price, rating, delivery and
// payment stages in that order, then sorts stably. The input slice is never
// modified; the result is always a fresh slice.
func Apply(products []models.Product, q Query) []models.Product {
	stages := []stage{
		categoryStage(q.Category),
		searchStage(q.Search),
		locationStage(q.Filters.Location),
		priceStage(q.Filters.PriceRange),
		ratingStage(q.Filters),
		deliveryStage(q.Filters),
		paymentStage(q.Filters.PaymentOptions),
	}

	result := make([]models.Product, 0, len(products))
	for _, p := range products {
		if keep(p, stages) {
			result = append(result, p)
		}
	}

	sortProducts(result, q.Sort)
	return result
}

func keep(p models.Product, stages []stage) bool {
	for _, s := range stages {
		if s != nil && !s(p) {
			return false
		}
	}
	return true
}

func categoryStage(category string) stage {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, CategoryAll) {
		return nil
	}
	return func(p models.Product) bool {
		return strings.EqualFold(p.Category, category)
	}
}

func searchStage(search string) stage {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return nil
	}
	return func(p models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Category), term) ||
			strings.Contains(strings.ToLower(p.Location), term) ||
			strings.Contains(strconv.FormatFloat(p.Price, 'f', -1, 64), term) ||
			strings.Contains(serialized(p), term)
	}
}

// serialized is the lower-cased JSON document of a product, so a search term
// matches any field value (farmer name, phone, delivery time, ...).
func serialized(p models.Product) string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return strings.ToLower(string(data))
}

func locationStage(location string) stage {
	if location == "" {
		return nil
	}
	return func(p models.Product) bool {
		return p.Location != "" && strings.Contains(p.Location, location)
	}
}

func priceStage(r *PriceRange) stage {
	if r == nil {
		return nil
	}
	lo, hi := r[0], r[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return func(p models.Product) bool {
		return p.Price >= lo && p.Price <= hi
	}
}

func ratingStage(f Filters) stage {
	threshold, ok := f.MinRating()
	if !ok {
		return nil
	}
	return func(p models.Product) bool {
		return p.Rating != nil && *p.Rating >= float64(threshold)
	}
}

func deliveryStage(f Filters) stage {
	if len(f.DeliveryTime) == 0 {
		return nil
	}
	return func(p models.Product) bool {
		days, known := productDeliveryDays(p)
		if !known {
			return true
		}
		return (f.hasDelivery(DeliveryNextDay) && days <= 1) ||
			(f.hasDelivery(DeliveryTwoThree) && days >= 2 && days <= 3) ||
			(f.hasDelivery(DeliveryFourSeven) && days >= 4 && days <= 7)
	}
}

// productDeliveryDays prefers the numeric estimate and falls back to the
// leading integer of the text estimate; unparsable text counts as 0 days.
func productDeliveryDays(p models.Product) (int, bool) {
	if p.EstimatedDeliveryDays != nil {
		return *p.EstimatedDeliveryDays, true
	}
	if strings.TrimSpace(p.EstimatedDeliveryTime) == "" {
		return 0, false
	}
	n, _ := leadingInt(p.EstimatedDeliveryTime)
	return n, true
}

func paymentStage(options []string) stage {
	if len(options) == 0 {
		return nil
	}
	return func(p models.Product) bool {
		for _, want := range options {
			for _, have := range p.PaymentOptions {
				if want == have {
					return true
				}
			}
		}
		return false
	}
}

func sortProducts(products []models.Product, key SortKey) {
	var less func(a, b models.Product) bool
	switch key {
	case SortRating:
		less = func(a, b models.Product) bool { return ratingOf(a) > ratingOf(b) }
	case SortNewest:
		less = newer
	case SortPriceLowHigh:
		less = func(a, b models.Product) bool { return a.Price < b.Price }
	case SortPriceHighLow:
		less = func(a, b models.Product) bool { return a.Price > b.Price }
	default:
		// popular and unknown keys keep catalog order
		return
	}
	sort.SliceStable(products, func(i, j int) bool {
		return less(products[i], products[j])
	})
}

func ratingOf(p models.Product) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// newer orders by creation time, newest first. Products without a timestamp
// are all equally oldest.
func newer(a, b models.Product) bool {
	if a.CreatedAt == nil {
		return false
	}
	if b.CreatedAt == nil {
		return true
	}
	return a.CreatedAt.After(*b.CreatedAt)
}

// IsValidSortKey reports whether key is one of SortKeys.
func IsValidSortKey(key string) bool {
	for _, k := range SortKeys {
		if string(k) == key {
			return true
		}
	}
	return false
}
