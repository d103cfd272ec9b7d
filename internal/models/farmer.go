package models

import "time"

// Crop is one listing inside a farmer record, stored as-is in the farmer document.
type Crop struct {
	ID                    string     `json:"id,omitempty"`
	CropName              string     `json:"cropName"`
	Location              string     `json:"location,omitempty"`
	Category              string     `json:"category,omitempty"`
	Image                 string     `json:"image,omitempty"`
	Price                 float64    `json:"price"`
	Stock                 int        `json:"stock"`
	EstimatedDeliveryTime string     `json:"estimatedDeliveryTime,omitempty"`
	Rating                *float64   `json:"rating,omitempty"`
	PaymentOptions        []string   `json:"paymentOptions,omitempty"`
	CreatedAt             *time.Time `json:"createdAt,omitempty"`
}

// Farmer owns an ordered list of crops. A nil Crops slice means the record has
// no crops array at all.
type Farmer struct {
	ID          string    `json:"id"`
	Name        string    `json:"farmerName"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Crops       []Crop    `json:"crops"`
	CreatedAt   time.Time `json:"createdAt"`
}
