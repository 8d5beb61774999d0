package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/inventia-erp/inventia/internal/jobs"
	"github.com/inventia-erp/inventia/internal/listings"
	"github.com/inventia-erp/inventia/internal/reports"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan is the task type for the periodic low-stock sweep.
	TaskLowStockScan = "stock:low_scan"
	// TaskListingsRefresh is the task type for rebuilding the listings snapshot.
	TaskListingsRefresh = "listings:refresh"
)

// LowStockScanPayload parameterises the low-stock sweep.
type LowStockScanPayload struct {
	Threshold int64 `json:"threshold"`
}

// NewLowStockScanTask constructs an Asynq task.
func NewLowStockScanTask(payload LowStockScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, data), nil
}

// NewListingsRefreshTask constructs an Asynq task.
func NewListingsRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskListingsRefresh, nil)
}

// NewLowStockScanHandler returns the handler for TaskLowStockScan. The sweep
// is read-only: it reports items under threshold, it never mutates stock.
func NewLowStockScanHandler(svc *reports.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskLowStockScan)
		var payload LowStockScanPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return tracker.End(asynq.SkipRetry)
			}
		}
		items, err := svc.LowStock(ctx, payload.Threshold)
		if err != nil {
			return tracker.End(err)
		}
		for _, item := range items {
			logger.Warn("low stock", "kind", item.Kind, "id", item.ID, "name", item.Name, "on_hand", item.OnHand)
		}
		metrics.SetLowStockItems(len(items))
		logger.Info("low stock scan done", "items", len(items))
		return tracker.End(nil)
	}
}

// NewListingsRefreshHandler returns the handler for TaskListingsRefresh.
func NewListingsRefreshHandler(svc *listings.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskListingsRefresh)
		snapshot, err := svc.Refresh(ctx)
		if err != nil {
			return tracker.End(err)
		}
		logger.Info("listings snapshot refreshed", "listings", len(snapshot))
		return tracker.End(nil)
	}
}
