package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"agromarket_back_end/internal/models"
	"agromarket_back_end/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxImageSize = 5 << 20

type ImageStore interface {
	Enabled() bool
	Upload(ctx context.Context, farmerID string, r io.Reader, size int64, contentType string) (string, error)
	PresignedURL(ctx context.Context, image string, ttl time.Duration) (string, error)
}

type FarmerHandler struct {
	farmers FarmerRepository
	catalog Catalog
	images  ImageStore
	log     *zap.Logger
	now     func() time.Time
}

func NewFarmerHandler(farmers FarmerRepository, c Catalog, images ImageStore, log *zap.Logger) *FarmerHandler {
	return &FarmerHandler{farmers: farmers, catalog: c, images: images, log: orNopLogger(log), now: time.Now}
}

type createFarmerRequest struct {
	FarmerName  string        `json:"farmerName" binding:"required"`
	PhoneNumber string        `json:"phoneNumber"`
	Crops       []models.Crop `json:"crops"`
}

func (h *FarmerHandler) CreateFarmer(c *gin.Context) {
	var req createFarmerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid farmer data: "+err.Error())
		return
	}

	now := h.now().UTC()
	for i := range req.Crops {
		crop := &req.Crops[i]
		if crop.Price < 0 || crop.Stock < 0 {
			badRequest(c, "Crop price and stock cannot be negative")
			return
		}
		if crop.CreatedAt == nil {
			crop.CreatedAt = &now
		}
	}

	farmer := &models.Farmer{Name: req.FarmerName, PhoneNumber: req.PhoneNumber, Crops: req.Crops, CreatedAt: now}
	if err := h.farmers.CreateFarmer(c.Request.Context(), farmer); err != nil {
		serverError(c, h.log, "Failed to create farmer", err)
		return
	}
	h.catalog.Invalidate(c.Request.Context())

	h.log.Info("farmer created", zap.String("farmer_id", farmer.ID), zap.Int("crops", len(farmer.Crops)))
	c.JSON(http.StatusCreated, gin.H{"message": "Farmer created successfully", "farmer": farmer})
}

func (h *FarmerHandler) ListFarmers(c *gin.Context) {
	farmers, err := h.farmers.ListFarmers(c.Request.Context())
	if err != nil {
		serverError(c, h.log, "Server error", err)
		return
	}
	if farmers == nil {
		farmers = []models.Farmer{}
	}
	c.JSON(http.StatusOK, farmers)
}

func (h *FarmerHandler) GetFarmer(c *gin.Context) {
	farmer, err := h.farmers.GetFarmer(c.Request.Context(), c.Param("farmerId"))
	if err != nil {
		lookupError(c, h.log, "Farmer not found", err)
		return
	}
	c.JSON(http.StatusOK, farmer)
}

// cropAt loads the farmer and validates the :index path parameter.
func (h *FarmerHandler) cropAt(c *gin.Context) (*models.Farmer, int, bool) {
	farmer, err := h.farmers.GetFarmer(c.Request.Context(), c.Param("farmerId"))
	if err != nil {
		lookupError(c, h.log, "Farmer not found", err)
		return nil, 0, false
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 || index >= len(farmer.Crops) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Crop not found"})
		return nil, 0, false
	}
	return farmer, index, true
}

// UploadCropImage stores the multipart "image" field and records its URL on
// the crop.
func (h *FarmerHandler) UploadCropImage(c *gin.Context) {
	if h.images == nil || !h.images.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Image uploads are disabled"})
		return
	}
	farmer, index, ok := h.cropAt(c)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "Image file is required")
		return
	}
	if file.Size > maxImageSize {
		badRequest(c, "Image must be 5 MB or smaller")
		return
	}
	f, err := file.Open()
	if err != nil {
		serverError(c, h.log, "Failed to read image", err)
		return
	}
	defer f.Close()

	url, err := h.images.Upload(c.Request.Context(), farmer.ID, f, file.Size, file.Header.Get("Content-Type"))
	if errors.Is(err, service.ErrNotAnImage) {
		badRequest(c, err.Error())
		return
	}
	if err != nil {
		serverError(c, h.log, "Failed to upload image", err)
		return
	}

	farmer.Crops[index].Image = url
	if err := h.farmers.UpdateCrops(c.Request.Context(), farmer.ID, farmer.Crops); err != nil {
		lookupError(c, h.log, "Farmer not found", err)
		return
	}
	h.catalog.Invalidate(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{"message": "Image uploaded", "image": url})
}

// CropImage redirects to a short-lived signed link for the crop picture.
func (h *FarmerHandler) CropImage(c *gin.Context) {
	if h.images == nil || !h.images.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Image storage is disabled"})
		return
	}
	farmer, index, ok := h.cropAt(c)
	if !ok {
		return
	}
	image := farmer.Crops[index].Image
	if image == "" {
		c.JSON(http.StatusNotFound, gin.H{"message": "Crop has no image"})
		return
	}

	link, err := h.images.PresignedURL(c.Request.Context(), image, service.DefaultPresignTTL)
	if err != nil {
		serverError(c, h.log, "Failed to sign image URL", err)
		return
	}
	c.Redirect(http.StatusFound, link)
}
