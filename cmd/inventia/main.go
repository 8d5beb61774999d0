package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/inventia-erp/inventia/internal/app"
	"github.com/inventia-erp/inventia/internal/auth"
	"github.com/inventia-erp/inventia/internal/catalog"
	"github.com/inventia-erp/inventia/internal/listings"
	"github.com/inventia-erp/inventia/internal/observability"
	"github.com/inventia-erp/inventia/internal/platform/cache"
	"github.com/inventia-erp/inventia/internal/platform/db"
	"github.com/inventia-erp/inventia/internal/production"
	"github.com/inventia-erp/inventia/internal/purchasing"
	"github.com/inventia-erp/inventia/internal/reports"
	"github.com/inventia-erp/inventia/internal/sales"
	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
	"github.com/inventia-erp/inventia/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, caches disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	authRepo := auth.NewSQLRepository(dbpool)
	authService := auth.NewService(authRepo, logger, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.NewMiddleware(authService)

	stockRepo := stock.NewRepository(dbpool)
	stockService := stock.NewService(stockRepo, logger, auditLogger)
	stockHandler := stock.NewHandler(logger, stockService)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo, stockService, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	purchasingRepo := purchasing.NewSQLRepository(dbpool)
	purchasingService := purchasing.NewService(purchasingRepo, logger, auditLogger, idempotencyStore)
	purchasingHandler := purchasing.NewHandler(logger, purchasingService)

	productionRepo := production.NewSQLRepository(dbpool)
	productionService := production.NewService(productionRepo, logger, auditLogger)
	productionHandler := production.NewHandler(logger, productionService)

	salesRepo := sales.NewSQLRepository(dbpool)
	salesService := sales.NewService(salesRepo, logger, auditLogger)
	salesHandler := sales.NewHandler(logger, salesService)

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	listingsRepo := listings.NewRepository(dbpool)
	listingsService := listings.NewService(listingsRepo, redisClient, jobsClient, logger)
	listingsHandler := listings.NewHandler(logger, listingsService)

	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(reportsRepo, redisClient, logger, cfg.LowStockThreshold)
	reportsHandler := reports.NewHandler(logger, reportsService)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthHandler:       authHandler,
		AuthMiddleware:    authMiddleware,
		CatalogHandler:    catalogHandler,
		StockHandler:      stockHandler,
		PurchasingHandler: purchasingHandler,
		ProductionHandler: productionHandler,
		SalesHandler:      salesHandler,
		ListingsHandler:   listingsHandler,
		ReportsHandler:    reportsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
