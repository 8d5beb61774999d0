package listings

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
)

const (
	snapshotCacheKey = "listings:snapshot"
	snapshotCacheTTL = 5 * time.Minute
)

// Store is the persistence surface the service needs.
type Store interface {
	Snapshot(ctx context.Context) ([]Listing, error)
	Get(ctx context.Context, ref stock.TargetRef) (Listing, error)
	SetListingID(ctx context.Context, ref stock.TargetRef, listingID *string) error
}

// RefreshEnqueuer schedules a background snapshot rebuild after a mutation.
type RefreshEnqueuer interface {
	EnqueueListingsRefresh(ctx context.Context) error
}

// Service implements the marketplace listing view and the simulated publish
// flow.
type Service struct {
	store   Store
	cache   *redis.Client
	enqueue RefreshEnqueuer
	logger  *slog.Logger
}

// NewService wires the listings service. The cache client and the enqueuer
// may be nil; without an enqueuer the snapshot is rebuilt lazily on the next
// read instead of in the background.
func NewService(store Store, cache *redis.Client, enqueue RefreshEnqueuer, logger *slog.Logger) *Service {
	return &Service{store: store, cache: cache, enqueue: enqueue, logger: logger}
}

// List returns the marketplace snapshot, cached for a few minutes.
func (s *Service) List(ctx context.Context) ([]Listing, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, snapshotCacheKey).Bytes()
		if err == nil {
			var cached []Listing
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("listings cache read failed", "error", err)
		}
	}
	return s.Refresh(ctx)
}

// Refresh rebuilds the snapshot from the database and rewrites the cache.
func (s *Service) Refresh(ctx context.Context) ([]Listing, error) {
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if raw, err := json.Marshal(snapshot); err == nil {
			if err := s.cache.Set(ctx, snapshotCacheKey, raw, snapshotCacheTTL).Err(); err != nil {
				s.logger.Warn("listings cache write failed", "error", err)
			}
		}
	}
	return snapshot, nil
}

// Publish simulates creating the item on the marketplace, stores the returned
// listing id and syncs the current stock level.
func (s *Service) Publish(ctx context.Context, key string) (Listing, error) {
	ref, err := ParseKey(key)
	if err != nil {
		return Listing{}, err
	}
	listing, err := s.store.Get(ctx, ref)
	if err != nil {
		return Listing{}, err
	}
	if listing.ListingID != nil {
		return Listing{}, fmt.Errorf("listings: %w: %s already published as %s", shared.ErrConflict, key, *listing.ListingID)
	}

	listingID := fakeMarketplaceID()
	if err := s.store.SetListingID(ctx, ref, &listingID); err != nil {
		return Listing{}, err
	}
	listing.ListingID = &listingID
	// Initial stock sync against the marketplace is part of the simulation.
	s.logger.Info("listing published", "key", key, "listing_id", listingID, "stock_synced", listing.Stock)
	s.invalidate(ctx)
	return listing, nil
}

// Sync simulates pushing price and stock for an already published item.
func (s *Service) Sync(ctx context.Context, key string) (Listing, error) {
	ref, err := ParseKey(key)
	if err != nil {
		return Listing{}, err
	}
	listing, err := s.store.Get(ctx, ref)
	if err != nil {
		return Listing{}, err
	}
	if listing.ListingID == nil {
		return Listing{}, fmt.Errorf("listings: %w: %s is not published", shared.ErrInvalidInput, key)
	}
	s.logger.Info("listing synced", "key", key, "listing_id", *listing.ListingID, "price", listing.Price, "stock", listing.Stock)
	return listing, nil
}

// Unlink detaches the marketplace listing id from the record.
func (s *Service) Unlink(ctx context.Context, key string) error {
	ref, err := ParseKey(key)
	if err != nil {
		return err
	}
	listing, err := s.store.Get(ctx, ref)
	if err != nil {
		return err
	}
	if listing.ListingID == nil {
		return fmt.Errorf("listings: %w: %s is not published", shared.ErrInvalidInput, key)
	}
	if err := s.store.SetListingID(ctx, ref, nil); err != nil {
		return err
	}
	s.logger.Info("listing unlinked", "key", key, "listing_id", *listing.ListingID)
	s.invalidate(ctx)
	return nil
}

// invalidate drops the cached snapshot and queues a background rebuild so the
// next read does not pay for it.
func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		if err := s.cache.Del(ctx, snapshotCacheKey).Err(); err != nil {
			s.logger.Warn("listings cache invalidation failed", "error", err)
		}
	}
	if s.enqueue != nil {
		if err := s.enqueue.EnqueueListingsRefresh(ctx); err != nil {
			s.logger.Warn("listings refresh enqueue failed", "error", err)
		}
	}
}

func fakeMarketplaceID() string {
	id := uuid.New()
	return "MLM-" + strings.ToUpper(hex.EncodeToString(id[:4]))
}
