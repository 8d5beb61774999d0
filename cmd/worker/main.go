package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/inventia-erp/inventia/internal/app"
	jobmetrics "github.com/inventia-erp/inventia/internal/jobs"
	"github.com/inventia-erp/inventia/internal/listings"
	"github.com/inventia-erp/inventia/internal/platform/cache"
	"github.com/inventia-erp/inventia/internal/platform/db"
	"github.com/inventia-erp/inventia/internal/reports"
	"github.com/inventia-erp/inventia/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(reportsRepo, redisClient, logger, cfg.LowStockThreshold)

	listingsRepo := listings.NewRepository(dbpool)
	// The worker executes the refresh itself, so it never self-enqueues.
	listingsService := listings.NewService(listingsRepo, redisClient, nil, logger)

	metrics := jobmetrics.NewMetrics(nil)

	lowStockTask, err := jobs.NewLowStockScanTask(jobs.LowStockScanPayload{Threshold: cfg.LowStockThreshold})
	if err != nil {
		logger.Error("build low stock task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLowStockScan, Handler: jobs.NewLowStockScanHandler(reportsService, logger, metrics)},
			{Type: jobs.TaskListingsRefresh, Handler: jobs.NewListingsRefreshHandler(listingsService, logger, metrics)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 * * * *", Task: lowStockTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/15 * * * *", Task: jobs.NewListingsRefreshTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
