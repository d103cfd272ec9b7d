package models

import "time"

type AddressProduct struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type Address struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	FirstName   string           `json:"firstName" binding:"required"`
	LastName    string           `json:"lastName" binding:"required"`
	Address1    string           `json:"address1" binding:"required"`
	Address2    string           `json:"address2,omitempty"`
	State       string           `json:"state" binding:"required"`
	Zip         string           `json:"zip" binding:"required"`
	Phone       string           `json:"phone" binding:"required"`
	SaveAddress bool             `json:"saveAddress"`
	Products    []AddressProduct `json:"products,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}
