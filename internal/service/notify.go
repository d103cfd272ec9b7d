package service

import (
	"context"
	"html/template"
	"time"

	"agromarket_back_end/internal/config"
	"agromarket_back_end/internal/models"
	"agromarket_back_end/internal/order"
	"agromarket_back_end/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const notifyTimeout = 2 * time.Minute

type Mailer interface {
	Enabled() bool
	SendOrderConfirmation(ctx context.Context, to string, o models.Order, invoicePDF []byte) error
	SendWelcome(ctx context.Context, u models.User) error
}

// Notifier sends customer emails in the background. Failures are logged and
// never reach the request that triggered them.
type Notifier struct {
	mailer    Mailer
	upi       config.UPIConfig
	log       *zap.Logger
	renderPDF func(ctx context.Context, html string) ([]byte, error)
}

func NewNotifier(mailer Mailer, upi config.UPIConfig, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{mailer: mailer, upi: upi, log: log, renderPDF: utils.RenderInvoicePDF}
}

func (n *Notifier) enabled() bool {
	return n != nil && n.mailer != nil && n.mailer.Enabled()
}

// OrderPlaced emails the confirmation with its invoice to the given address.
func (n *Notifier) OrderPlaced(o models.Order, email string) {
	if !n.enabled() || email == "" {
		return
	}
	go n.sendOrder(o, email)
}

func (n *Notifier) sendOrder(o models.Order, email string) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	log := n.log.With(zap.String("order_id", o.ID))

	pdf, err := n.Invoice(ctx, o)
	if err != nil {
		log.Warn("invoice rendering failed, sending without attachment", zap.Error(err))
	}
	if err := n.mailer.SendOrderConfirmation(ctx, email, o, pdf); err != nil {
		log.Error("order confirmation email failed", zap.Error(err))
		return
	}
	log.Info("order confirmation sent")
}

// Invoice renders the order invoice as a PDF, including a UPI QR code when a
// payee address is configured.
func (n *Notifier) Invoice(ctx context.Context, o models.Order) ([]byte, error) {
	// the stored total already carries the fee charged at checkout
	subtotal := order.ComputeTotals(o.Items).Subtotal
	shipping := decimal.NewFromFloat(o.TotalAmount).Sub(subtotal)
	data := utils.InvoiceData{
		Order:    o,
		Subtotal: subtotal.StringFixed(2),
		Shipping: shipping.StringFixed(2),
	}
	if n.upi.VPA != "" {
		uri := utils.UPIPaymentURI(n.upi.VPA, n.upi.PayeeName, o.ID, o.TotalAmount)
		if qr, err := utils.QRCodeDataURI(uri, 256); err == nil {
			data.QRCode = template.URL(qr)
		}
	}

	html, err := utils.InvoiceHTML(data)
	if err != nil {
		return nil, err
	}
	return n.renderPDF(ctx, html)
}

func (n *Notifier) Welcome(u models.User) {
	if !n.enabled() || u.Email == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := n.mailer.SendWelcome(ctx, u); err != nil {
			n.log.Error("welcome email failed", zap.String("user_id", u.ID), zap.Error(err))
		}
	}()
}
