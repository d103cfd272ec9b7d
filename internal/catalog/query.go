package catalog

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// QueryFromValues reads a catalog query from URL parameters:
// category, q, sort, location, min_price, max_price and the repeatable (or
// comma separated) rating, delivery and payment.
func QueryFromValues(values url.Values) Query {
	q := Query{
		Category: values.Get("category"),
		Search:   values.Get("q"),
		Sort:     SortKey(values.Get("sort")),
		Filters: Filters{
			Location:       values.Get("location"),
			DeliveryTime:   multi(values, "delivery"),
			PaymentOptions: multi(values, "payment"),
		},
	}

	for _, raw := range multi(values, "rating") {
		if n, err := strconv.Atoi(raw); err == nil {
			q.Filters.CustomerRating = append(q.Filters.CustomerRating, n)
		}
	}

	minRaw, maxRaw := values.Get("min_price"), values.Get("max_price")
	if minRaw != "" || maxRaw != "" {
		lo := parsePrice(minRaw, 0)
		hi := parsePrice(maxRaw, math.MaxFloat64)
		q.Filters.SetPriceRange(lo, hi)
	}

	return q
}

func multi(values url.Values, key string) []string {
	var out []string
	for _, v := range values[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parsePrice(raw string, def float64) float64 {
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return def
	}
	return f
}
