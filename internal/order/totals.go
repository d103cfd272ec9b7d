package order

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DefaultShippingFee is the flat fee added to every order.
var DefaultShippingFee = decimal.NewFromInt(40)

// Line is anything that contributes price * quantity to a subtotal.
type Line interface {
	LinePrice() float64
	LineQuantity() int
}

type Totals struct {
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	GrandTotal  decimal.Decimal
}

// ComputeTotals sums the lines and adds DefaultShippingFee.
func ComputeTotals[L Line](lines []L) Totals {
	return ComputeTotalsWithFee(lines, DefaultShippingFee)
}

// ComputeTotalsWithFee is ComputeTotals with an explicit shipping fee.
func ComputeTotalsWithFee[L Line](lines []L, fee decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		price := decimal.NewFromFloat(l.LinePrice())
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(l.LineQuantity()))))
	}
	subtotal = subtotal.Round(2)
	return Totals{
		Subtotal:    subtotal,
		ShippingFee: fee.Round(2),
		GrandTotal:  subtotal.Add(fee).Round(2),
	}
}

// Amount is the grand total as the float carried on models.Order.
func (t Totals) Amount() float64 {
	return t.GrandTotal.InexactFloat64()
}

func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Subtotal    float64 `json:"subtotal"`
		ShippingFee float64 `json:"shippingFee"`
		GrandTotal  float64 `json:"grandTotal"`
		Display     string  `json:"display"`
	}{
		Subtotal:    t.Subtotal.InexactFloat64(),
		ShippingFee: t.ShippingFee.InexactFloat64(),
		GrandTotal:  t.GrandTotal.InexactFloat64(),
		Display:     t.GrandTotal.StringFixed(2),
	})
}
