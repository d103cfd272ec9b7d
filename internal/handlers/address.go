package handlers

import (
	"net/http"
	"time"

	"agromarket_back_end/internal/middleware"
	"agromarket_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AddressHandler struct {
	addresses AddressRepository
	log       *zap.Logger
	now       func() time.Time
}

func NewAddressHandler(addresses AddressRepository, log *zap.Logger) *AddressHandler {
	return &AddressHandler{addresses: addresses, log: orNopLogger(log), now: time.Now}
}

// CreateAddress saves a delivery address for the signed-in user.
func (h *AddressHandler) CreateAddress(c *gin.Context) {
	var a models.Address
	if err := c.ShouldBindJSON(&a); err != nil {
		badRequest(c, "Missing required fields: firstName, lastName, address1, state, zip and phone are required")
		return
	}
	if userID := c.GetString(middleware.ContextUserID); userID != "" {
		a.UserID = userID
	}
	a.ID = ""
	a.CreatedAt = h.now().UTC()

	if err := h.addresses.CreateAddress(c.Request.Context(), &a); err != nil {
		serverError(c, h.log, "Failed to save address", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Address saved successfully", "address": a})
}

// ListAddresses returns the caller's saved addresses, newest first.
func (h *AddressHandler) ListAddresses(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}
	addresses, err := h.addresses.ListByUser(c.Request.Context(), userID)
	h.respond(c, addresses, err)
}

func (h *AddressHandler) ListUserAddresses(c *gin.Context) {
	userID := c.Param("userId")
	if tokenUser := c.GetString(middleware.ContextUserID); tokenUser != "" && tokenUser != userID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Cannot view another user's addresses"})
		return
	}
	addresses, err := h.addresses.ListByUser(c.Request.Context(), userID)
	h.respond(c, addresses, err)
}

func (h *AddressHandler) respond(c *gin.Context, addresses []models.Address, err error) {
	if err != nil {
		serverError(c, h.log, "Server error", err)
		return
	}
	if addresses == nil {
		addresses = []models.Address{}
	}
	c.JSON(http.StatusOK, addresses)
}
