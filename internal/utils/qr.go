package utils

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

// UPIPaymentURI builds a upi://pay link for an order amount in rupees.
func UPIPaymentURI(vpa, payeeName, orderID string, amount float64) string {
	q := url.Values{}
	q.Set("pa", vpa)
	q.Set("pn", payeeName)
	q.Set("am", fmt.Sprintf("%.2f", amount))
	q.Set("cu", "INR")
	q.Set("tn", "Order "+orderID)
	q.Set("tr", orderID)
	return "upi://pay?" + q.Encode()
}

// QRCodePNG encodes content as a size x size PNG.
func QRCodePNG(content string, size int) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, size)
}

// QRCodeDataURI is QRCodePNG ready for an <img src>.
func QRCodeDataURI(content string, size int) (string, error) {
	png, err := QRCodePNG(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
