package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wine_shop/config"
	"wine_shop/database"
	"wine_shop/events"
	"wine_shop/handlers"
	"wine_shop/logging"
	"wine_shop/metrics"
	"wine_shop/middleware"
	"wine_shop/models"
	"wine_shop/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logger.Sync()

	db, err := database.Open(cfg.DBDriver, cfg.DBDSN, cfg.LockWaitTimeout)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic, logger)
		logger.Info("Publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaOrderTopic))
	}
	defer publisher.Close()

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	fees := services.ShippingFees{
		models.DeliveryRegular: cfg.ShippingFeeRegular,
		models.DeliveryExpress: cfg.ShippingFeeExpress,
		models.DeliverySea:     cfg.ShippingFeeSea,
	}

	catalogService := services.NewCatalogService(db)
	inventoryService := services.NewInventoryService(db, logger)
	discountService := services.NewDiscountService(db, logger, cfg.ElevatedRoles...)
	pricing := services.NewPricingCalculator(fees, logger)
	cartService := services.NewCartService(db, catalogService, logger)
	orderService := services.NewOrderService(db, logger)
	checkoutService := services.NewCheckoutService(db, cartService, catalogService, inventoryService, discountService, pricing, logger,
		services.WithPublisher(publisher),
		services.WithMetrics(checkoutMetrics))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	handlers.RegisterRoutes(router, handlers.Handlers{
		Catalog:    handlers.NewCatalogHandler(catalogService, logger),
		Cart:       handlers.NewCartHandler(cartService, discountService, logger),
		Checkout:   handlers.NewCheckoutHandler(checkoutService, logger),
		Orders:     handlers.NewOrderHandler(orderService, cfg.ElevatedRoles, logger),
		Inventory:  handlers.NewInventoryHandler(inventoryService, logger),
		Promotions: handlers.NewPromotionHandler(discountService, logger),
	}, cfg.ElevatedRoles)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port), zap.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("Server exited")
}
