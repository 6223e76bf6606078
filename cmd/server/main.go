package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	channelapp "github.com/marketbridge/backend/internal/application/channel"
	inventoryapp "github.com/marketbridge/backend/internal/application/inventory"
	offerapp "github.com/marketbridge/backend/internal/application/offer"
	orderapp "github.com/marketbridge/backend/internal/application/order"
	rulesapp "github.com/marketbridge/backend/internal/application/rules"
	synclogapp "github.com/marketbridge/backend/internal/application/synclog"
	"github.com/marketbridge/backend/internal/infrastructure/cache"
	"github.com/marketbridge/backend/internal/infrastructure/config"
	"github.com/marketbridge/backend/internal/infrastructure/logger"
	"github.com/marketbridge/backend/internal/infrastructure/marketplace"
	"github.com/marketbridge/backend/internal/infrastructure/persistence"
	"github.com/marketbridge/backend/internal/infrastructure/scheduler"
	"github.com/marketbridge/backend/internal/interfaces/http/handler"
	"github.com/marketbridge/backend/internal/interfaces/http/middleware"
	"github.com/marketbridge/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting MarketBridge Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Redis-backed remote stock snapshot
	snapshot, err := cache.NewRedisStockSnapshot(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := snapshot.Close(); err != nil {
			log.Error("Error closing redis connection", zap.Error(err))
		}
	}()
	log.Info("Redis connected successfully")

	// Initialize repositories
	channelRepo := persistence.NewGormChannelRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	shipmentRepo := persistence.NewGormShipmentRepository(db.DB)
	ruleRepo := persistence.NewGormRuleRepository(db.DB)
	triggerLogRepo := persistence.NewGormTriggerLogRepository(db.DB)
	queueRepo := persistence.NewGormInventoryQueueRepository(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)

	// Gateway registry and resolver
	factory := marketplace.NewAdapterFactory()
	registry := marketplace.NewGatewayRegistry(channelRepo, factory, log)
	if err := registry.Reload(context.Background()); err != nil {
		log.Fatal("Failed to load marketplace gateways", zap.Error(err))
	}
	resolver := marketplace.NewResolver(registry)
	retry := marketplace.NewRetryExecutor(cfg.Sync.RetryBaseDelay, cfg.Sync.RetryMaxAttempts, nil, log)

	// Initialize application services
	channelService := channelapp.NewService(channelRepo, registry, log)
	orderService := orderapp.NewSyncService(
		orderRepo, shipmentRepo, productRepo, queueRepo, syncLogRepo,
		resolver, retry, cfg.Sync.ErrorSampleSize, log,
	)
	ruleService := rulesapp.NewRuleService(ruleRepo)
	evaluationService := rulesapp.NewEvaluationService(ruleRepo, triggerLogRepo, orderRepo, productRepo, log)
	orderService.SetAutoDecider(evaluationService)
	offerService := offerapp.NewSyncService(
		productRepo, snapshot, syncLogRepo, resolver, retry, nil,
		cfg.Sync.OfferBatchSize, cfg.Sync.BatchDelay, cfg.Sync.ErrorSampleSize, log,
	)
	inventoryService := inventoryapp.NewService(
		queueRepo, productRepo, snapshot, syncLogRepo,
		resolver, retry, nil, cfg.Sync.ItemDelay, cfg.Sync.ErrorSampleSize, log,
	)
	syncLogService := synclogapp.NewService(syncLogRepo)

	// Background order poller
	poller := scheduler.NewOrderPoller(channelRepo, orderService, cfg.Sync.OrderPollInterval, log)
	if err := poller.Start(context.Background()); err != nil {
		log.Fatal("Failed to start order poller", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := poller.Stop(stopCtx); err != nil {
			log.Error("Error stopping order poller", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	orderHandler := handler.NewOrderHandler(orderService, evaluationService)
	channelHandler := handler.NewChannelHandler(channelService)
	ruleHandler := handler.NewRuleHandler(ruleService)
	offerHandler := handler.NewOfferHandler(offerService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	syncLogHandler := handler.NewSyncLogHandler(syncLogService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Register custom validation tags
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint with dependency status
	engine.GET("/health", healthHandler(db, log))

	// Register API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(channelHandler).
		Register(orderHandler).
		Register(offerHandler).
		Register(inventoryHandler).
		Register(ruleHandler).
		Register(syncLogHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
