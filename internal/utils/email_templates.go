package utils

import (
	"bytes"
	"fmt"
	"html/template"

	"agromarket_back_end/internal/models"
)

var emailFuncs = template.FuncMap{
	"money": func(f float64) string { return fmt.Sprintf("₹%.2f", f) },
	"line":  func(i models.OrderItem) float64 { return i.Price * float64(i.Quantity) },
}

var orderConfirmationTemplate = template.Must(template.New("order").Funcs(emailFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Order confirmation</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
	<h2 style="color: #2f7d32;">Thank you for your order</h2>
	<p>Hello {{.ShippingDetails.Name}},</p>
	<p>Order <strong>{{.ID}}</strong> has been received and is <strong>{{.Status}}</strong>. Your invoice is attached.</p>
	<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
		<thead>
			<tr style="background-color: #f1f8e9;">
				<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Product</th>
				<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantity</th>
				<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Price</th>
				<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
			</tr>
		</thead>
		<tbody>
		{{range .Items}}<tr>
			<td style="padding: 10px; border: 1px solid #ddd;">{{.Name}}</td>
			<td style="padding: 10px; border: 1px solid #ddd;">{{.Quantity}}</td>
			<td style="padding: 10px; border: 1px solid #ddd;">{{money .Price}}</td>
			<td style="padding: 10px; border: 1px solid #ddd;">{{money (line .)}}</td>
		</tr>{{end}}
		</tbody>
		<tfoot>
			<tr>
				<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total (incl. shipping)</td>
				<td style="padding: 10px; font-weight: bold;">{{money .TotalAmount}}</td>
			</tr>
		</tfoot>
	</table>
	<p>Shipping to {{.ShippingDetails.Address}}, {{.ShippingDetails.City}}, {{.ShippingDetails.State}} {{.ShippingDetails.Zipcode}}.</p>
	<p style="margin-top: 30px; color: #555;">The AgroMarket team</p>
</div>
</body>
</html>`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Welcome to AgroMarket</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f5f5f5; padding: 20px;">
<div style="max-width: 600px; margin: auto; background-color: white; padding: 30px; border-radius: 12px;">
	<h1 style="color: #2f7d32;">Welcome to AgroMarket{{if .Name}}, {{.Name}}{{end}}!</h1>
	<p>You can now buy fresh produce straight from the farmers who grow it.</p>
	<p style="margin-top: 30px; color: #555;">The AgroMarket team</p>
</div>
</body>
</html>`))

// OrderConfirmationHTML renders the body of the order confirmation email.
func OrderConfirmationHTML(o models.Order) (string, error) {
	var buf bytes.Buffer
	if err := orderConfirmationTemplate.Execute(&buf, o); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func WelcomeHTML(u models.User) (string, error) {
	var buf bytes.Buffer
	if err := welcomeTemplate.Execute(&buf, u); err != nil {
		return "", err
	}
	return buf.String(), nil
}
