package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	listingapp "github.com/hadleybricks/backend/internal/application/listing"
	"github.com/hadleybricks/backend/internal/infrastructure/cache"
	"github.com/hadleybricks/backend/internal/infrastructure/config"
	"github.com/hadleybricks/backend/internal/infrastructure/logger"
	"github.com/hadleybricks/backend/internal/infrastructure/persistence"
	"github.com/hadleybricks/backend/internal/infrastructure/spapi"
	"github.com/hadleybricks/backend/internal/interfaces/http/handler"
	"github.com/hadleybricks/backend/internal/interfaces/http/middleware"
	"github.com/hadleybricks/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			Hadley Bricks Sync API
//	@version		1.0
//	@description	Marketplace listing synchronization backend for the Hadley Bricks inventory

//	@contact.name	API Support
//	@contact.email	support@hadleybricks.example.com

//	@host		localhost:8080
//	@BasePath	/api/v1

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

	log.Info("Starting Hadley Bricks backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("sandbox", cfg.Marketplace.Sandbox),
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

	// Product type cache: Redis when reachable, in-memory otherwise
	cacheFactory := cache.NewProductTypeCacheFactory(cfg.Redis, cache.WithLogger(log))
	productTypeCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create product type cache", zap.Error(err))
	}

	// Selling-partner API client
	var spCfg *spapi.Config
	if cfg.Marketplace.Sandbox {
		spCfg = spapi.NewSandboxConfig(
			cfg.Marketplace.ClientID,
			cfg.Marketplace.ClientSecret,
			cfg.Marketplace.RefreshToken,
			cfg.Marketplace.SellerID,
			cfg.Marketplace.MarketplaceIDs,
		)
	} else {
		spCfg = spapi.NewConfig(
			cfg.Marketplace.ClientID,
			cfg.Marketplace.ClientSecret,
			cfg.Marketplace.RefreshToken,
			cfg.Marketplace.SellerID,
			cfg.Marketplace.MarketplaceIDs,
		)
	}
	spCfg.RequestDelay = cfg.Sync.RequestDelay
	spCfg.BatchDelay = cfg.Sync.BatchDelay
	spCfg.MaxRetries = cfg.Sync.MaxRetries
	if err := spCfg.Validate(); err != nil {
		log.Fatal("Invalid marketplace configuration", zap.Error(err))
	}

	tokenStore := persistence.NewGormTokenStore(db.DB)
	tokenManager, err := spapi.NewTokenManager(spCfg, tokenStore, log)
	if err != nil {
		log.Fatal("Failed to create token manager", zap.Error(err))
	}

	apiClient, err := spapi.NewClient(spCfg, tokenManager, productTypeCache, log)
	if err != nil {
		log.Fatal("Failed to create marketplace client", zap.Error(err))
	}

	// Initialize repositories
	queueRepo := persistence.NewGormSyncQueueRepository(db.DB)
	feedRepo := persistence.NewGormFeedRepository(db.DB)
	inventoryReader := persistence.NewGormInventoryReader(db.DB)

	// Initialize application services
	aggregatorService := listingapp.NewAggregatorService(apiClient, queueRepo, log)
	orchestratorService := listingapp.NewOrchestratorService(
		apiClient, feedRepo, queueRepo, aggregatorService, spCfg.SellerID, log,
	)
	orchestratorService.SetPollPolicies(
		listingapp.PollPolicy{
			Interval:   cfg.Sync.ProcessingInterval,
			MaxElapsed: cfg.Sync.ProcessingMaxElapsed,
		},
		listingapp.PollPolicy{
			Interval:    cfg.Sync.VerifyInterval,
			MaxAttempts: cfg.Sync.VerifyMaxAttempts,
			MaxElapsed:  cfg.Sync.VerifyMaxElapsed,
		},
	)
	reconciliationService := listingapp.NewReconciliationService(apiClient, inventoryReader, log)

	// Initialize HTTP handlers bound to the configured seller credential
	syncHandler := handler.NewSyncHandler(aggregatorService, orchestratorService, spCfg.CredentialID)
	stockHandler := handler.NewStockHandler(reconciliationService, spCfg.CredentialID)
	ordersHandler := handler.NewOrdersHandler(apiClient)
	systemHandler := handler.NewSystemHandler(db.Ping)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
	}))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes using router
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(syncHandler).
		Register(stockHandler).
		Register(ordersHandler).
		Register(systemHandler).
		Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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
func healthHandler(db *persistence.Database) gin.HandlerFunc {
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
