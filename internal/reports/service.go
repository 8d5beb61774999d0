package reports

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	dashboardCacheKey = "reports:dashboard"
	dashboardCacheTTL = time.Minute
)

// Store is the read-only query surface the service needs.
type Store interface {
	SalesTotals(ctx context.Context) (netSales float64, orders int64, err error)
	SalesByChannel(ctx context.Context) ([]ChannelSales, error)
	CountPendingPurchaseOrders(ctx context.Context) (int64, error)
	CountActiveProductionOrders(ctx context.Context) (int64, error)
	LowStock(ctx context.Context, threshold int64) ([]LowStockItem, error)
}

// Service computes dashboard figures with a short redis cache in front.
// Concurrent cache misses collapse into one database pass.
type Service struct {
	store     Store
	cache     *redis.Client
	logger    *slog.Logger
	printer   *message.Printer
	group     singleflight.Group
	threshold int64
}

// NewService wires the reports service. The cache client may be nil.
func NewService(store Store, cache *redis.Client, logger *slog.Logger, lowStockThreshold int64) *Service {
	return &Service{
		store:     store,
		cache:     cache,
		logger:    logger,
		printer:   message.NewPrinter(language.English),
		threshold: lowStockThreshold,
	}
}

// Dashboard returns the aggregate overview.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, dashboardCacheKey).Bytes()
		if err == nil {
			var cached Dashboard
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("dashboard cache read failed", "error", err)
		}
	}

	result, err, _ := s.group.Do(dashboardCacheKey, func() (any, error) {
		return s.buildDashboard(ctx)
	})
	if err != nil {
		return Dashboard{}, err
	}
	return result.(Dashboard), nil
}

func (s *Service) buildDashboard(ctx context.Context) (Dashboard, error) {
	netSales, orders, err := s.store.SalesTotals(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	channels, err := s.SalesByChannel(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	pendingPOs, err := s.store.CountPendingPurchaseOrders(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	activeRuns, err := s.store.CountActiveProductionOrders(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	dashboard := Dashboard{
		NetSales:               netSales,
		NetSalesDisplay:        s.printer.Sprintf("%.2f", netSales),
		OrderCount:             orders,
		PendingPurchaseOrders:  pendingPOs,
		ActiveProductionOrders: activeRuns,
		Channels:               channels,
	}

	if s.cache != nil {
		if raw, err := json.Marshal(dashboard); err == nil {
			if err := s.cache.Set(ctx, dashboardCacheKey, raw, dashboardCacheTTL).Err(); err != nil {
				s.logger.Warn("dashboard cache write failed", "error", err)
			}
		}
	}
	return dashboard, nil
}

// SalesByChannel returns per-channel revenue with formatted display values.
func (s *Service) SalesByChannel(ctx context.Context) ([]ChannelSales, error) {
	channels, err := s.store.SalesByChannel(ctx)
	if err != nil {
		return nil, err
	}
	for i := range channels {
		channels[i].RevenueDisplay = s.printer.Sprintf("%.2f", channels[i].Revenue)
	}
	return channels, nil
}

// LowStock lists items at or under the threshold; zero uses the configured
// default.
func (s *Service) LowStock(ctx context.Context, threshold int64) ([]LowStockItem, error) {
	if threshold <= 0 {
		threshold = s.threshold
	}
	return s.store.LowStock(ctx, threshold)
}
