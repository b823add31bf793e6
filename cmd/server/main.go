package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shoplite/storefront-backend/config"
	"github.com/shoplite/storefront-backend/internal/app/controller"
	"github.com/shoplite/storefront-backend/internal/app/repository"
	"github.com/shoplite/storefront-backend/internal/app/service"
	"github.com/shoplite/storefront-backend/internal/db"
	"github.com/shoplite/storefront-backend/internal/middleware"
	"github.com/shoplite/storefront-backend/internal/router"
	"github.com/shoplite/storefront-backend/internal/scheduler"
	"github.com/shoplite/storefront-backend/internal/storage"
	"github.com/shoplite/storefront-backend/internal/websocket"
	"github.com/shoplite/storefront-backend/pkg/logger"
	"github.com/shoplite/storefront-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting Storefront Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize Redis (token revocation). The server still runs without it;
	// logout then degrades to client-side token disposal.
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, token revocation disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
	}

	// Catalog change events hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWT)
	productService := service.NewProductService(productRepo, hub)
	cartService := service.NewCartService(cartRepo, productRepo)

	// Initialize storage
	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService)
	uploadController := controller.NewUploadController(s3Storage)
	catalogEventsController := controller.NewCatalogEventsController(hub, cfg.CORS.AllowedOrigins)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Start the orphaned cart item sweep
	cartSweep := scheduler.NewCartSweepScheduler(cartRepo)
	if err := cartSweep.Start(); err != nil {
		logger.Fatal("Failed to start cart sweep scheduler", err)
	}
	defer cartSweep.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		cartController,
		uploadController,
		catalogEventsController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
