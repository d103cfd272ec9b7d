package catalog

import (
	"strconv"
	"strings"

	"agromarket_back_end/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultFarmerName  = "Unknown Farmer"
	defaultProductName = "Unnamed Product"
	defaultCategory    = "Other"
	defaultLocation    = "Unknown Location"
)

// cropNamespace scopes the name-based UUIDs synthesised for crops without an id.
var cropNamespace = uuid.MustParse("6f1c6d0e-8b7a-4f53-9d36-2a1f0c9e4b17")

// Normalize flattens farmers into one product per crop, farmer-then-crop order.
// Farmers without a crops array contribute nothing. log may be nil.
func Normalize(farmers []models.Farmer, log *zap.Logger) []models.Product {
	if log == nil {
		log = zap.NewNop()
	}

	products := make([]models.Product, 0)
	for _, farmer := range farmers {
		if farmer.Crops == nil {
			log.Warn("farmer has no crops array, skipping",
				zap.String("farmer_id", farmer.ID),
				zap.String("farmer_name", farmer.Name))
			continue
		}

		farmerName := farmer.Name
		if farmerName == "" {
			farmerName = defaultFarmerName
		}

		for i, crop := range farmer.Crops {
			products = append(products, models.Product{
				ID:                    CropID(farmer.ID, crop, i),
				FarmerID:              farmer.ID,
				FarmerName:            farmerName,
				PhoneNumber:           farmer.PhoneNumber,
				Name:                  orDefault(crop.CropName, defaultProductName),
				Category:              orDefault(crop.Category, defaultCategory),
				Price:                 nonNegative(crop.Price),
				Location:              orDefault(crop.Location, defaultLocation),
				Stock:                 max(crop.Stock, 0),
				EstimatedDeliveryTime: crop.EstimatedDeliveryTime,
				EstimatedDeliveryDays: deliveryDays(crop.EstimatedDeliveryTime),
				Rating:                clampRating(crop.Rating),
				Image:                 crop.Image,
				PaymentOptions:        crop.PaymentOptions,
				CreatedAt:             crop.CreatedAt,
			})
		}
	}
	return products
}

// CropID returns the crop's own id, or a name-based UUID of farmer id, crop name
// and position when the source has none. Position keeps two same-named crops of
// one farmer apart.
func CropID(farmerID string, crop models.Crop, index int) string {
	if crop.ID != "" {
		return crop.ID
	}
	key := farmerID + "|" + crop.CropName + "|" + strconv.Itoa(index)
	return uuid.NewSHA1(cropNamespace, []byte(key)).String()
}

// leadingInt parses the digits at the start of s ("2-3 days" -> 2).
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func deliveryDays(raw string) *int {
	if n, ok := leadingInt(raw); ok {
		return &n
	}
	return nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

func clampRating(r *float64) *float64 {
	if r == nil {
		return nil
	}
	v := min(max(*r, 0), 5)
	return &v
}
