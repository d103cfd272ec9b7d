package routes

import (
	"net/http"
	"time"

	"agromarket_back_end/internal/handlers"
	"agromarket_back_end/internal/logger"
	"agromarket_back_end/internal/metrics"
	"agromarket_back_end/internal/middleware"
	"agromarket_back_end/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the handlers and middleware inputs built by main.
type Dependencies struct {
	Products   *handlers.ProductHandler
	Farmers    *handlers.FarmerHandler
	Cart       *handlers.CartHandler
	CartSocket *handlers.CartSocket
	Checkout   *handlers.CheckoutHandler
	Orders     *handlers.OrderHandler
	Users      *handlers.UserHandler
	Auth       *handlers.AuthHandler
	Addresses  *handlers.AddressHandler
	Payments   *handlers.PaymentHandler

	Issuer         *utils.TokenIssuer
	Revocations    middleware.Revocations
	Limiter        middleware.Counter
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	Log            *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Dependencies) {
	r.Use(logger.Recovery(d.Log), logger.GinMiddleware(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", d.Metrics.Handler())
	}
	r.Use(cors.New(corsConfig(d.AllowedOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.AuthRequired(d.Issuer, d.Revocations, d.Log)
	optionalAuth := middleware.OptionalAuth(d.Issuer)

	r.GET("/getUserId/:email", d.Users.GetUserID)

	api := r.Group("/api")
	api.Use(middleware.APIRateLimit(d.Limiter, d.Log))

	// Catalog
	api.GET("/products", d.Products.ListProducts)
	api.GET("/products/search", middleware.SearchRateLimit(d.Limiter, d.Log), d.Products.SearchProducts)
	api.GET("/products/filters", d.Products.Filters)

	// Farmers
	api.GET("/farmers", d.Farmers.ListFarmers)
	api.GET("/farmers/:farmerId", d.Farmers.GetFarmer)
	api.POST("/farmers", auth, d.Farmers.CreateFarmer)
	api.GET("/farmers/:farmerId/crops/:index/image", d.Farmers.CropImage)
	api.POST("/farmers/:farmerId/crops/:index/image", auth, d.Farmers.UploadCropImage)

	// Users and sign-in
	api.POST("/users", middleware.RegisterRateLimit(d.Limiter, d.Log), optionalAuth, d.Users.CreateUser)
	api.POST("/auth/login", d.Users.Login)
	api.POST("/auth/logout", auth, d.Auth.Logout)
	api.GET("/auth/me", auth, d.Auth.Me)
	api.GET("/auth/:provider", d.Auth.BeginAuth)
	api.GET("/auth/:provider/callback", d.Auth.CallbackAuth)

	// Cart
	cart := api.Group("/cart", auth)
	{
		cart.GET("", d.Cart.GetCart)
		cart.GET("/totals", d.Cart.Totals)
		cart.GET("/ws", d.CartSocket.Serve)
		cart.POST("/add", middleware.CartRateLimit(d.Limiter, d.Log), d.Cart.AddToCart)
		cart.PUT("/:productId", d.Cart.SetQuantity)
		cart.DELETE("/:productId", d.Cart.RemoveItem)
		cart.DELETE("", d.Cart.ClearCart)
	}
	api.POST("/checkout", auth, d.Checkout.Checkout)

	// Orders
	api.POST("/orders", optionalAuth, d.Orders.CreateOrder)
	api.GET("/orders/user/:userId", auth, d.Orders.GetUserOrders)
	api.GET("/orders/:orderId", d.Orders.GetOrder)
	api.PUT("/orders/:orderId/status", auth, d.Orders.UpdateStatus)
	api.POST("/orders/:orderId/payment-intent", optionalAuth, d.Payments.CreatePaymentIntent)
	api.GET("/orders/:orderId/upi-qr", d.Payments.UPIQRCode)
	api.POST("/payments/webhook", d.Payments.StripeWebhook)

	// Addresses
	api.POST("/addresses", auth, d.Addresses.CreateAddress)
	api.GET("/addresses", auth, d.Addresses.ListAddresses)
	api.GET("/addresses/user/:userId", auth, d.Addresses.ListUserAddresses)
}

// corsConfig allows credentials for the listed origins, or any origin
// without credentials when none is listed.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
