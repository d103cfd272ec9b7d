package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"agromarket_back_end/internal/cart"
	"agromarket_back_end/internal/middleware"
	"agromarket_back_end/internal/models"
	"agromarket_back_end/internal/order"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders   OrderRepository
	notifier Notifier
	fee      decimal.Decimal
	log      *zap.Logger
	now      func() time.Time
}

func NewOrderHandler(orders OrderRepository, notifier Notifier, fee decimal.Decimal, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, notifier: orNop(notifier), fee: fee, log: orNopLogger(log), now: time.Now}
}

type createOrderRequest struct {
	UserID          string                  `json:"userId" binding:"required"`
	Products        []models.OrderItem      `json:"products" binding:"required,min=1,dive"`
	ShippingDetails *models.ShippingDetails `json:"shippingDetails" binding:"required"`
	TotalAmount     float64                 `json:"totalAmount"`
}

// CreateOrder stores an order posted by the client. The total is always
// recomputed server-side; a client total that disagrees is rejected.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Missing required fields: userId, products, and shippingDetails are required")
		return
	}
	if tokenUser := c.GetString(middleware.ContextUserID); tokenUser != "" && tokenUser != req.UserID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Cannot place an order for another user"})
		return
	}
	for _, item := range req.Products {
		if item.Quantity < 1 {
			badRequest(c, "Every product needs a quantity of at least 1")
			return
		}
	}

	totals := order.ComputeTotalsWithFee(req.Products, h.fee)
	if err := order.VerifyClaimedTotal(req.TotalAmount, totals); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "expected": totals})
		return
	}

	now := h.now().UTC()
	o := &models.Order{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		Items:           req.Products,
		ShippingDetails: *req.ShippingDetails,
		TotalAmount:     totals.Amount(),
		Status:          models.OrderStatusPending,
		OrderDate:       now,
		UpdatedAt:       now,
	}
	if err := h.orders.CreateOrder(c.Request.Context(), o); err != nil {
		serverError(c, h.log, "Server error", err)
		return
	}

	h.log.Info("order created", zap.String("order_id", o.ID), zap.String("user_id", o.UserID))
	h.notifier.OrderPlaced(*o, c.GetString(middleware.ContextEmail))
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"orderId": o.ID,
		"order":   o,
	})
}

// GetUserOrders lists a user's orders, newest first.
func (h *OrderHandler) GetUserOrders(c *gin.Context) {
	userID := c.Param("userId")
	if tokenUser := c.GetString(middleware.ContextUserID); tokenUser != "" && tokenUser != userID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Cannot view another user's orders"})
		return
	}
	orders, err := h.orders.ListByUser(c.Request.Context(), userID)
	if err != nil {
		serverError(c, h.log, "Server error", err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.orders.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		lookupError(c, h.log, "Order not found", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,orderstatus"`
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid status")
		return
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("orderId"), req.Status)
	if err != nil {
		lookupError(c, h.log, "Order not found", err)
		return
	}
	h.log.Info("order status updated", zap.String("order_id", o.ID), zap.String("status", o.Status))
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": o})
}

const submitFailedMessage = "Something went wrong. Please try again."

// CheckoutHandler turns the caller's stored cart into an order.
type CheckoutHandler struct {
	submitter *order.Submitter
	slot      cart.Slot
	notifier  Notifier
	log       *zap.Logger
}

func NewCheckoutHandler(submitter *order.Submitter, slot cart.Slot, notifier Notifier, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{submitter: submitter, slot: slot, notifier: orNop(notifier), log: orNopLogger(log)}
}

// Checkout submits the stored cart with the posted shipping form and clears
// the cart once the order exists.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var form models.ShippingDetails
	if err := c.ShouldBindJSON(&form); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid shipping details")
		return
	}

	ctx := c.Request.Context()
	s, err := cart.Open(ctx, c.GetString(middleware.ContextUserID), h.slot, h.log)
	if err != nil {
		serverError(c, h.log, "Failed to load cart", err)
		return
	}

	o, err := h.submitter.Submit(ctx, s.Owner(), s.Items(), form)
	var missing *order.MissingFieldsError
	switch {
	case errors.Is(err, order.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Please log in to place an order"})
		return
	case errors.Is(err, order.ErrEmptyCart):
		badRequest(c, "Your cart is empty")
		return
	case errors.As(err, &missing):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please fill in all shipping details", "fields": missing.Fields})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"message": submitFailedMessage})
		return
	}

	if err := s.Clear(ctx); err != nil {
		h.log.Warn("cart not cleared after checkout", zap.String("order_id", o.ID), zap.Error(err))
	}
	h.notifier.OrderPlaced(*o, c.GetString(middleware.ContextEmail))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"orderId": o.ID,
		"order":   o,
		"totals":  order.ComputeTotalsWithFee(o.Items, h.submitter.ShippingFee()),
	})
}
