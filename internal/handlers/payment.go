package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"agromarket_back_end/internal/config"
	"agromarket_back_end/internal/models"
	"agromarket_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.uber.org/zap"
)

const maxWebhookBody = int64(65536)

// PaymentIntents creates Stripe payment intents.
type PaymentIntents interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeIntents calls the Stripe API with the package level key.
type StripeIntents struct{}

func (StripeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return paymentintent.New(params)
}

type PaymentHandler struct {
	orders        OrderRepository
	intents       PaymentIntents
	upi           config.UPIConfig
	webhookSecret string
	log           *zap.Logger
}

// NewPaymentHandler accepts a nil intents when Stripe is not configured.
func NewPaymentHandler(orders OrderRepository, intents PaymentIntents, upi config.UPIConfig, webhookSecret string, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{orders: orders, intents: intents, upi: upi, webhookSecret: webhookSecret, log: orNopLogger(log)}
}

// toPaise converts a rupee amount to the smallest currency unit.
func toPaise(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CreatePaymentIntent starts a card payment for an existing order.
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	if h.intents == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Card payments are not available"})
		return
	}
	o, err := h.orders.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		lookupError(c, h.log, "Order not found", err)
		return
	}
	if o.Status == models.OrderStatusCancelled {
		badRequest(c, "Order is cancelled")
		return
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toPaise(o.TotalAmount)),
		Currency: stripe.String(string(stripe.CurrencyINR)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", o.ID)
	params.AddMetadata("user_id", o.UserID)

	intent, err := h.intents.New(params)
	if err != nil {
		serverError(c, h.log, "Failed to create payment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"clientSecret": intent.ClientSecret,
		"amount":       intent.Amount,
		"currency":     intent.Currency,
	})
}

// UPIQRCode returns a PNG QR code that opens any UPI app on the order total.
func (h *PaymentHandler) UPIQRCode(c *gin.Context) {
	if h.upi.VPA == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "UPI payments are not available"})
		return
	}
	o, err := h.orders.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		lookupError(c, h.log, "Order not found", err)
		return
	}

	png, err := utils.QRCodePNG(utils.UPIPaymentURI(h.upi.VPA, h.upi.PayeeName, o.ID, o.TotalAmount), 256)
	if err != nil {
		serverError(c, h.log, "Failed to generate QR code", err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// StripeWebhook moves an order to processing once its payment succeeded.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	if h.webhookSecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Webhook not configured"})
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "Unreadable body")
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.log.Warn("rejected stripe webhook", zap.Error(err))
		badRequest(c, "Invalid signature")
		return
	}

	if event.Type == stripe.EventTypePaymentIntentSucceeded {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			badRequest(c, "Invalid payment intent")
			return
		}
		orderID := pi.Metadata["order_id"]
		if orderID != "" {
			if _, err := h.orders.UpdateStatus(c.Request.Context(), orderID, models.OrderStatusProcessing); err != nil {
				h.log.Error("order not updated after payment", zap.String("order_id", orderID), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Order update failed"})
				return
			}
			h.log.Info("payment received", zap.String("order_id", orderID), zap.Int64("amount", pi.Amount))
		}
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
