package handlers

import (
	"errors"
	"net/http"

	"agromarket_back_end/internal/cart"
	"agromarket_back_end/internal/middleware"
	"agromarket_back_end/internal/models"
	"agromarket_back_end/internal/order"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CartHandler struct {
	slot    cart.Slot
	catalog Catalog
	fee     decimal.Decimal
	log     *zap.Logger
}

// NewCartHandler shows totals with the same shipping fee checkout charges.
func NewCartHandler(slot cart.Slot, c Catalog, fee decimal.Decimal, log *zap.Logger) *CartHandler {
	return &CartHandler{slot: slot, catalog: c, fee: fee, log: orNopLogger(log)}
}

type cartResponse struct {
	Items  []models.CartItem `json:"items"`
	Count  int               `json:"count"`
	Totals order.Totals      `json:"totals"`
}

func cartView(s *cart.Store, fee decimal.Decimal) cartResponse {
	items := s.Items()
	return cartResponse{Items: items, Count: len(items), Totals: order.ComputeTotalsWithFee(items, fee)}
}

// open restores the caller's cart, answering 500 itself on failure.
func (h *CartHandler) open(c *gin.Context) (*cart.Store, bool) {
	userID := c.GetString(middleware.ContextUserID)
	s, err := cart.Open(c.Request.Context(), userID, h.slot, h.log)
	if err != nil {
		serverError(c, h.log, "Failed to load cart", err)
		return nil, false
	}
	return s, true
}

func (h *CartHandler) GetCart(c *gin.Context) {
	s, ok := h.open(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartView(s, h.fee))
}

func (h *CartHandler) Totals(c *gin.Context) {
	s, ok := h.open(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order.ComputeTotalsWithFee(s.Items(), h.fee))
}

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// AddToCart adds a catalog product with quantity 1. Adding a product that is
// already in the cart leaves the cart unchanged.
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "productId is required")
		return
	}

	product, found, err := h.catalog.Product(c.Request.Context(), req.ProductID)
	if err != nil {
		serverError(c, h.log, "Server error", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}

	s, ok := h.open(c)
	if !ok {
		return
	}
	if err := s.Add(c.Request.Context(), product); err != nil {
		if errors.Is(err, cart.ErrAuthRequired) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Please log in to add items to your cart"})
			return
		}
		serverError(c, h.log, "Failed to save cart", err)
		return
	}
	c.JSON(http.StatusOK, cartView(s, h.fee))
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// SetQuantity changes a line's quantity. Values below 1 and unknown products
// leave the cart unchanged.
func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "quantity is required")
		return
	}
	s, ok := h.open(c)
	if !ok {
		return
	}
	if err := s.SetQuantity(c.Request.Context(), c.Param("productId"), *req.Quantity); err != nil {
		serverError(c, h.log, "Failed to save cart", err)
		return
	}
	c.JSON(http.StatusOK, cartView(s, h.fee))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	s, ok := h.open(c)
	if !ok {
		return
	}
	if err := s.Remove(c.Request.Context(), c.Param("productId")); err != nil {
		serverError(c, h.log, "Failed to save cart", err)
		return
	}
	c.JSON(http.StatusOK, cartView(s, h.fee))
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	s := cart.New(c.GetString(middleware.ContextUserID), h.slot, h.log)
	if err := s.Clear(c.Request.Context()); err != nil {
		serverError(c, h.log, "Failed to clear cart", err)
		return
	}
	c.JSON(http.StatusOK, cartView(s, h.fee))
}
