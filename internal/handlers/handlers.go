package handlers

import (
	"context"
	"errors"
	"net/http"

	"agromarket_back_end/internal/catalog"
	"agromarket_back_end/internal/models"
	"agromarket_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Catalog is the read side of the product listing.
type Catalog interface {
	Products(ctx context.Context) ([]models.Product, error)
	Product(ctx context.Context, productID string) (models.Product, bool, error)
	Search(ctx context.Context, q catalog.Query) ([]models.Product, error)
	Invalidate(ctx context.Context)
}

type FarmerRepository interface {
	CreateFarmer(ctx context.Context, f *models.Farmer) error
	ListFarmers(ctx context.Context) ([]models.Farmer, error)
	GetFarmer(ctx context.Context, farmerID string) (*models.Farmer, error)
	UpdateCrops(ctx context.Context, farmerID string, crops []models.Crop) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserIDByEmail(ctx context.Context, email string) (string, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpsertLogin(ctx context.Context, u *models.User) (*models.User, error)
}

type AddressRepository interface {
	CreateAddress(ctx context.Context, a *models.Address) error
	ListByUser(ctx context.Context, userID string) ([]models.Address, error)
}

// Notifier sends customer emails without blocking the request.
type Notifier interface {
	OrderPlaced(o models.Order, email string)
	Welcome(u models.User)
}

type nopNotifier struct{}

func (nopNotifier) OrderPlaced(models.Order, string) {}
func (nopNotifier) Welcome(models.User)              {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func orNopLogger(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}

func serverError(c *gin.Context, log *zap.Logger, message string, err error) {
	log.Error(message, zap.Error(err), zap.String("path", c.FullPath()))
	c.JSON(http.StatusInternalServerError, gin.H{"message": message, "error": err.Error()})
}

// lookupError answers 404 for store.ErrNotFound and 500 otherwise.
func lookupError(c *gin.Context, log *zap.Logger, notFoundMessage string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": notFoundMessage})
		return
	}
	serverError(c, log, "Server error", err)
}
