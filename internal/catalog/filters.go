package catalog

const (
	DeliveryNextDay   = "next_day"
	DeliveryTwoThree  = "2-3_days"
	DeliveryFourSeven = "4-7_days"
)

const (
	DefaultMinPrice = 0
	DefaultMaxPrice = 10000
)

// PriceRange is [min, max], inclusive on both ends.
type PriceRange [2]float64

// Filters mirrors the sidebar filter state. A nil PriceRange and empty sets
// disable the corresponding stage.
type Filters struct {
	Location       string      `json:"location"`
	PriceRange     *PriceRange `json:"priceRange,omitempty"`
	CustomerRating []int       `json:"customerRating,omitempty"`
	DeliveryTime   []string    `json:"deliveryTime,omitempty"`
	PaymentOptions []string    `json:"paymentOptions,omitempty"`
}

// DefaultFilters is the reset state of the sidebar.
func DefaultFilters() Filters {
	return Filters{PriceRange: &PriceRange{DefaultMinPrice, DefaultMaxPrice}}
}

// SetPriceRange stores the range with min <= max, swapping reversed bounds.
func (f *Filters) SetPriceRange(min, max float64) {
	if min > max {
		min, max = max, min
	}
	f.PriceRange = &PriceRange{min, max}
}

// MinRating is the lowest selected rating threshold. Selecting 4 and 2 keeps
// everything rated 2 or more.
func (f Filters) MinRating() (int, bool) {
	if len(f.CustomerRating) == 0 {
		return 0, false
	}
	lowest := f.CustomerRating[0]
	for _, r := range f.CustomerRating[1:] {
		if r < lowest {
			lowest = r
		}
	}
	return lowest, true
}

func (f Filters) hasDelivery(bucket string) bool {
	for _, d := range f.DeliveryTime {
		if d == bucket {
			return true
		}
	}
	return false
}
