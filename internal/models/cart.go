package models

// CartItem is unique per ProductID within a cart.
type CartItem struct {
	ProductID string  `json:"productId"`
	FarmerID  string  `json:"farmerId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

func (i CartItem) LinePrice() float64 { return i.Price }
func (i CartItem) LineQuantity() int   { return i.Quantity }
