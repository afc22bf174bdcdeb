package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/http"
	mw "github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/websocket"
	"github.com/lorrc/cloudkitchen-backend/internal/adapters/secondary/blob"
	"github.com/lorrc/cloudkitchen-backend/internal/adapters/secondary/postgres"
	"github.com/lorrc/cloudkitchen-backend/internal/auth"
	"github.com/lorrc/cloudkitchen-backend/internal/config"
	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
	"github.com/lorrc/cloudkitchen-backend/internal/core/services"
	"github.com/lorrc/cloudkitchen-backend/internal/infrastructure/logging"
	"github.com/lorrc/cloudkitchen-backend/internal/infrastructure/metrics"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Database Pool and schema
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(cfg.Database.MigrationsPath, cfg.Database.URL); err != nil {
			logger.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connection established")

	// 4. Initialize Security & Real-time Components
	collectors := metrics.New()
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL,
		auth.WithRoleTTL(domain.RoleAdmin, cfg.JWT.AdminTokenTTL),
		auth.WithRoleTTL(domain.RoleRestaurantOwner, cfg.JWT.RestaurantTokenTTL),
		auth.WithRefreshTTL(cfg.JWT.RefreshTokenTTL),
	)

	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := websocket.NewHub(logger,
		websocket.WithQueueSize(cfg.WebSocket.QueueSize),
		websocket.WithMetrics(collectors),
	)
	hubDone := make(chan struct{})
	go func() {
		hub.Run(hubCtx)
		close(hubDone)
	}()

	// 5. Initialize Rate Limiters
	var generalRateLimiter, authRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(ctx, mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})

		authRateLimiter = mw.NewRateLimiter(ctx, mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.AuthRPS,
			BurstSize:         cfg.RateLimit.AuthBurst,
			CleanupInterval:   time.Minute,
			TTL:               5 * time.Minute,
		})
	}

	// 6. Dependency Injection (Wiring the Hexagon)

	// Error Handler
	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Repositories (Secondary Adapters)
	userRepo := postgres.NewUserRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	foodRepo := postgres.NewFoodItemRepository(pool)
	restaurantRepo := postgres.NewRestaurantRepository(pool)
	txManager := postgres.NewTransactionManager(pool)

	// Image store (optional Secondary Adapter)
	var images ports.BlobStore
	if cfg.Blob.Enabled() {
		store, err := blob.NewS3Store(ctx, blob.Config{
			Bucket:        cfg.Blob.Bucket,
			Region:        cfg.Blob.Region,
			Endpoint:      cfg.Blob.Endpoint,
			PathStyle:     cfg.Blob.UsePathStyle,
			PublicBaseURL: cfg.Blob.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to configure image store", "error", err)
			os.Exit(1)
		}
		images = store
		logger.Info("image uploads enabled", "bucket", cfg.Blob.Bucket)
	} else {
		logger.Warn("BLOB_S3_BUCKET not set, image uploads disabled")
	}

	// Services (Core)
	authService := services.NewAuthService(userRepo)
	orderService := services.NewOrderService(orderRepo, txManager, hub, logger)
	catalogService := services.NewCatalogService(categoryRepo, foodRepo, images)
	restaurantService := services.NewRestaurantService(restaurantRepo, foodRepo, categoryRepo, txManager)

	// Handlers (Primary Adapters)
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:         logger,
		TokenManager:   tokenManager,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		GeneralLimiter: generalRateLimiter,
		AuthLimiter:    authRateLimiter,
		Metrics:        metricsFor(cfg, collectors),
		MetricsPath:    cfg.Metrics.Path,
		Health:         httpAdapter.NewHealthHandler(pool, hub, cfg.App.Version),
		Auth:           httpAdapter.NewAuthHandler(authService, tokenManager, errorHandler, logger),
		Orders:         httpAdapter.NewOrderHandler(orderService, errorHandler, logger),
		Catalog:        httpAdapter.NewCatalogHandler(catalogService, errorHandler, logger),
		Restaurants:    httpAdapter.NewRestaurantHandler(restaurantService, tokenManager, errorHandler, logger),
		WebSocket:      httpAdapter.NewWebSocketHandler(hub, tokenManager, cfg, logger),
	})

	// 7. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		exitCode = 1
	}

	// Dashboards are closed after HTTP drains so in-flight writes still publish.
	stopHub()
	<-hubDone

	logger.Info("server shutdown complete")
	if exitCode != 0 {
		pool.Close()
		os.Exit(exitCode)
	}
}

func metricsFor(cfg *config.Config, collectors *metrics.Collectors) *metrics.Collectors {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return collectors
}
