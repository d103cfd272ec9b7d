package models

import "time"

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValidOrderStatus reports whether s belongs to the order status enum.
func IsValidOrderStatus(s string) bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ProductID  string  `json:"productId" binding:"required"`
	FarmerID   string  `json:"farmerId" binding:"required"`
	Name       string  `json:"name"`
	Price      float64 `json:"price" binding:"gte=0"`
	Image      string  `json:"image,omitempty"`
	Category   string  `json:"category,omitempty"`
	FarmerName string  `json:"farmerName,omitempty"`
	Quantity   int     `json:"quantity"`
}

type ShippingDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Phone   string `json:"phone"`
	Zipcode string `json:"zipcode"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Items           []OrderItem     `json:"products"`
	ShippingDetails ShippingDetails `json:"shippingDetails"`
	TotalAmount     float64         `json:"totalAmount"`
	Status          string          `json:"status"`
	OrderDate       time.Time       `json:"orderDate"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (i OrderItem) LinePrice() float64 { return i.Price }
func (i OrderItem) LineQuantity() int   { return i.Quantity }

// OrderItemFromCart copies a cart line into an order line.
func OrderItemFromCart(c CartItem) OrderItem {
	return OrderItem{
		ProductID: c.ProductID,
		FarmerID:  c.FarmerID,
		Name:      c.Name,
		Price:     c.Price,
		Image:     c.Image,
		Quantity:  c.Quantity,
	}
}
