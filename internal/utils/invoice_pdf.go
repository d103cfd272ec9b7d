package utils

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"agromarket_back_end/internal/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(f float64) string { return fmt.Sprintf("₹%.2f", f) },
	"line":  func(i models.OrderItem) float64 { return i.Price * float64(i.Quantity) },
	"date":  func(t time.Time) string { return t.Format("02 Jan 2006") },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Invoice {{.Order.ID}}</title>
<style>
body { font-family: Arial, sans-serif; color: #222; margin: 32px; }
h1 { color: #2f7d32; margin-bottom: 4px; }
table { width: 100%; border-collapse: collapse; margin: 24px 0; }
th, td { padding: 8px; border: 1px solid #ddd; text-align: left; }
th { background: #f1f8e9; }
.right { text-align: right; }
.qr { margin-top: 24px; }
</style>
</head>
<body>
<h1>AgroMarket</h1>
<p>Invoice for order <strong>{{.Order.ID}}</strong> placed on {{date .Order.OrderDate}}</p>
<p>
{{.Order.ShippingDetails.Name}}<br>
{{.Order.ShippingDetails.Address}}<br>
{{.Order.ShippingDetails.City}}, {{.Order.ShippingDetails.State}} {{.Order.ShippingDetails.Zipcode}}<br>
{{.Order.ShippingDetails.Phone}}
</p>
<table>
<thead><tr><th>Product</th><th>Farmer</th><th>Qty</th><th>Price</th><th>Total</th></tr></thead>
<tbody>
{{range .Order.Items}}<tr><td>{{.Name}}</td><td>{{.FarmerName}}</td><td>{{.Quantity}}</td><td>{{money .Price}}</td><td>{{money (line .)}}</td></tr>
{{end}}</tbody>
<tfoot>
<tr><td colspan="4" class="right">Subtotal</td><td>{{.Subtotal}}</td></tr>
<tr><td colspan="4" class="right">Shipping</td><td>{{.Shipping}}</td></tr>
<tr><td colspan="4" class="right"><strong>Total</strong></td><td><strong>{{money .Order.TotalAmount}}</strong></td></tr>
</tfoot>
</table>
{{if .QRCode}}<div class="qr"><p>Pay with any UPI app</p><img src="{{.QRCode}}" width="180" height="180" alt="UPI QR"></div>{{end}}
</body>
</html>`))

// InvoiceData feeds the invoice template. Subtotal and Shipping are display
// strings so the caller decides the arithmetic.
type InvoiceData struct {
	Order    models.Order
	Subtotal string
	Shipping string
	QRCode   template.URL
}

// InvoiceHTML renders the invoice page.
func InvoiceHTML(data InvoiceData) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderInvoicePDF prints html to an A4 PDF with headless Chrome.
func RenderInvoicePDF(ctx context.Context, html string) ([]byte, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("no-sandbox", true),
		chromedp.DisableGPU,
	)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return pdf, nil
}
