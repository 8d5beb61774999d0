package listings

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
)

type memoryStore struct {
	listings      map[stock.TargetRef]Listing
	snapshotCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{listings: make(map[stock.TargetRef]Listing)}
}

func (m *memoryStore) Snapshot(context.Context) ([]Listing, error) {
	m.snapshotCalls++
	out := make([]Listing, 0, len(m.listings))
	for _, l := range m.listings {
		out = append(out, l)
	}
	return out, nil
}

func (m *memoryStore) Get(_ context.Context, ref stock.TargetRef) (Listing, error) {
	l, ok := m.listings[ref]
	if !ok {
		return Listing{}, fmt.Errorf("listings: %w: %s", shared.ErrNotFound, ref)
	}
	return l, nil
}

func (m *memoryStore) SetListingID(_ context.Context, ref stock.TargetRef, listingID *string) error {
	l, ok := m.listings[ref]
	if !ok {
		return fmt.Errorf("listings: %w: %s", shared.ErrNotFound, ref)
	}
	l.ListingID = listingID
	m.listings[ref] = l
	return nil
}

type fakeEnqueuer struct {
	calls int
}

func (f *fakeEnqueuer) EnqueueListingsRefresh(context.Context) error {
	f.calls++
	return nil
}

var variantRef = stock.TargetRef{Kind: stock.KindProductVariant, ID: 3}

func newTestService(t *testing.T) (*Service, *memoryStore, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newMemoryStore()
	store.listings[variantRef] = Listing{Key: "var-3", Name: "Table M white", Price: 120, Stock: 5}
	return NewService(store, client, nil, slog.Default()), store, client
}

func TestParseKey(t *testing.T) {
	ref, err := ParseKey("var-12")
	require.NoError(t, err)
	require.Equal(t, stock.TargetRef{Kind: stock.KindProductVariant, ID: 12}, ref)

	ref, err = ParseKey("res-4")
	require.NoError(t, err)
	require.Equal(t, stock.TargetRef{Kind: stock.KindResaleProduct, ID: 4}, ref)

	_, err = ParseKey("raw-1")
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = ParseKey("var-abc")
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPublishAssignsMarketplaceID(t *testing.T) {
	svc, store, _ := newTestService(t)

	listing, err := svc.Publish(context.Background(), "var-3")
	require.NoError(t, err)
	require.NotNil(t, listing.ListingID)
	require.Regexp(t, regexp.MustCompile(`^MLM-[0-9A-F]{8}$`), *listing.ListingID)

	persisted := store.listings[variantRef]
	require.NotNil(t, persisted.ListingID)
	require.Equal(t, *listing.ListingID, *persisted.ListingID)
}

func TestPublishTwiceConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Publish(ctx, "var-3")
	require.NoError(t, err)

	_, err = svc.Publish(ctx, "var-3")
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestListUsesCache(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, store.snapshotCalls)

	_, err = svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, store.snapshotCalls)
}

func TestPublishInvalidatesCache(t *testing.T) {
	svc, store, client := newTestService(t)
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, store.snapshotCalls)

	_, err = svc.Publish(ctx, "var-3")
	require.NoError(t, err)

	exists, err := client.Exists(ctx, "listings:snapshot").Result()
	require.NoError(t, err)
	require.Zero(t, exists)

	listings, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, store.snapshotCalls)
	require.NotNil(t, listings[0].ListingID)
}

func TestPublishAndUnlinkEnqueueRefresh(t *testing.T) {
	store := newMemoryStore()
	store.listings[variantRef] = Listing{Key: "var-3", Name: "Table M white", Price: 120, Stock: 5}
	enqueuer := &fakeEnqueuer{}
	svc := NewService(store, nil, enqueuer, slog.Default())
	ctx := context.Background()

	_, err := svc.Publish(ctx, "var-3")
	require.NoError(t, err)
	require.Equal(t, 1, enqueuer.calls)

	require.NoError(t, svc.Unlink(ctx, "var-3"))
	require.Equal(t, 2, enqueuer.calls)

	_, err = svc.Sync(ctx, "var-3")
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	require.Equal(t, 2, enqueuer.calls)
}

func TestUnlinkClearsListingID(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Publish(ctx, "var-3")
	require.NoError(t, err)

	require.NoError(t, svc.Unlink(ctx, "var-3"))
	require.Nil(t, store.listings[variantRef].ListingID)
}

func TestUnlinkUnpublishedRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.Unlink(context.Background(), "var-3")
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestSyncRequiresPublishedListing(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Sync(ctx, "var-3")
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Publish(ctx, "var-3")
	require.NoError(t, err)

	listing, err := svc.Sync(ctx, "var-3")
	require.NoError(t, err)
	require.NotNil(t, listing.ListingID)
}
