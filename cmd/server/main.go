package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agromarket_back_end/internal/cache"
	"agromarket_back_end/internal/cart"
	"agromarket_back_end/internal/config"
	"agromarket_back_end/internal/database"
	"agromarket_back_end/internal/handlers"
	"agromarket_back_end/internal/logger"
	"agromarket_back_end/internal/metrics"
	"agromarket_back_end/internal/order"
	"agromarket_back_end/internal/routes"
	"agromarket_back_end/internal/service"
	"agromarket_back_end/internal/store"
	"agromarket_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.ForEnvironment(cfg.Env, cfg.LogLevel, cfg.LogFormat))
	defer log.Sync()
	if !cfg.EnvFileLoaded {
		log.Info("no .env file found, using process environment")
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.ConnectDatabases(ctx, cfg, log); err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer database.CloseDatabases()

	var intents handlers.PaymentIntents
	if cfg.StripeSecretKey != "" {
		stripe.Key = cfg.StripeSecretKey
		intents = handlers.StripeIntents{}
		log.Info("Stripe payments enabled")
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, card payments are disabled")
	}
	config.InitOAuthProviders(cfg, log)

	if err := handlers.RegisterValidators(); err != nil {
		log.Fatal("validator registration failed", zap.Error(err))
	}

	m := metrics.New()
	redisCache := cache.New(database.Redis)
	cartSlot := cart.NewRedisSlot(database.Redis)
	issuer := utils.NewTokenIssuer(cfg.JWTSecret)

	farmers := store.NewFarmerStore(database.Scylla)
	orders := store.NewOrderStore(database.Scylla)
	users := store.NewUserStore(database.Scylla)
	addresses := store.NewAddressStore(database.Scylla)

	catalog := service.NewCatalog(farmers, redisCache, service.NewProductIndex(database.Elastic, log), log)
	images := service.NewImageStore(database.MinIO, cfg.MinIO.Bucket)

	mailer := utils.NewMailer(cfg.SMTP)
	if !mailer.Enabled() {
		log.Warn("SMTP_HOST not set, customer emails are disabled")
	}
	notifier := service.NewNotifier(mailer, cfg.UPI, log)

	fee := decimal.NewFromFloat(cfg.ShippingFee)
	submitter := order.NewSubmitter(orders, log, order.WithShippingFee(fee), order.WithObserver(m))

	var origins []string
	if cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
	}

	r := gin.New()
	routes.RegisterRoutes(r, routes.Dependencies{
		Products:   handlers.NewProductHandler(catalog, log),
		Farmers:    handlers.NewFarmerHandler(farmers, catalog, images, log),
		Cart:       handlers.NewCartHandler(cartSlot, catalog, fee, log),
		CartSocket: handlers.NewCartSocket(cartSlot, cartSlot, fee, origins, log),
		Checkout:   handlers.NewCheckoutHandler(submitter, cartSlot, notifier, log),
		Orders:     handlers.NewOrderHandler(orders, notifier, fee, log),
		Users:      handlers.NewUserHandler(users, redisCache, issuer, notifier, log),
		Auth:       handlers.NewAuthHandler(users, redisCache, cartSlot, issuer, log),
		Addresses:  handlers.NewAddressHandler(addresses, log),
		Payments:   handlers.NewPaymentHandler(orders, intents, cfg.UPI, cfg.StripeWebhookSecret, log),

		Issuer:         issuer,
		Revocations:    redisCache,
		Limiter:        redisCache,
		Metrics:        m,
		AllowedOrigins: origins,
		Log:            log,
	})

	// warm the catalog cache so the first visitor does not pay for it
	if products, err := catalog.Products(ctx); err != nil {
		log.Warn("catalog warmup failed", zap.Error(err))
	} else {
		log.Info("catalog ready", zap.Int("products", len(products)))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("AgroMarket API listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
