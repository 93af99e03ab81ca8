package main // Entry point package

import (
	"log" // Logging library

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/bookease/bookease/internal/config"
	"github.com/bookease/bookease/internal/database"
	"github.com/bookease/bookease/internal/handler"
	"github.com/bookease/bookease/internal/middleware"
	"github.com/bookease/bookease/internal/queue"
	"github.com/bookease/bookease/internal/repository"
	"github.com/bookease/bookease/internal/router"
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Without Redis the catalog cache and rate limiter become
	// pass-through middleware.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	cartRepo := repository.NewCartRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	checkoutRepo := repository.NewCheckoutRepo(db)
	providerRepo := repository.NewProviderRepo(db)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	cartHandler := handler.NewCartHandler(cfg, cartRepo)
	checkoutHandler := handler.NewCheckoutHandler(cartRepo, bookingRepo, paymentRepo, checkoutRepo)
	orderHandler := handler.NewOrderHandler(bookingRepo)
	catalogHandler := handler.NewCatalogHandler(providerRepo)
	pricingHandler := handler.NewPricingHandler()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterCart(e, cartHandler, checkoutHandler, cfg)
	router.RegisterOrders(e, orderHandler, cfg.JWTSecret)
	router.RegisterCatalog(e, catalogHandler, cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterPricing(e, pricingHandler)

	// Notification consumer reconnects on its own.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
