package models

import "time"

// Product is the flat catalog view of a single crop listing.
type Product struct {
	ID                    string     `json:"id"`
	FarmerID              string     `json:"farmerId"`
	FarmerName            string     `json:"farmerName"`
	PhoneNumber           string     `json:"phoneNumber,omitempty"`
	Name                  string     `json:"name"`
	Category              string     `json:"category"`
	Price                 float64    `json:"price"`
	Location              string     `json:"location"`
	Stock                 int        `json:"stock"`
	EstimatedDeliveryTime string     `json:"estimatedDeliveryTime,omitempty"`
	EstimatedDeliveryDays *int       `json:"estimatedDeliveryDays"`
	Rating                *float64   `json:"rating"`
	Image                 string     `json:"image,omitempty"`
	PaymentOptions        []string   `json:"paymentOptions,omitempty"`
	CreatedAt             *time.Time `json:"createdAt"`
}
