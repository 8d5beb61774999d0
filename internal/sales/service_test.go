package sales

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
)

type memoryRepo struct {
	items    map[stock.TargetRef]stock.Item
	orders   map[int64]Order
	channels map[int64]Channel
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		items:    make(map[stock.TargetRef]stock.Item),
		orders:   make(map[int64]Order),
		channels: make(map[int64]Channel),
	}
}

func (r *memoryRepo) seed(ref stock.TargetRef, name string, onHand int64) {
	r.items[ref] = stock.Item{Ref: ref, Name: name, OnHand: onHand}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetOrder(_ context.Context, id int64) (Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("sales: %w: order %d", shared.ErrNotFound, id)
	}
	return order, nil
}

func (r *memoryRepo) ListOrders(context.Context) ([]Order, error) {
	out := make([]Order, 0, len(r.orders))
	for _, order := range r.orders {
		out = append(out, order)
	}
	return out, nil
}

func (r *memoryRepo) CreateChannel(_ context.Context, name string) (Channel, error) {
	r.nextID++
	channel := Channel{ID: r.nextID, Name: name}
	r.channels[channel.ID] = channel
	return channel, nil
}

func (r *memoryRepo) ListChannels(context.Context) ([]Channel, error) {
	out := make([]Channel, 0, len(r.channels))
	for _, c := range r.channels {
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryRepo) DeleteChannel(_ context.Context, id int64) error {
	if _, ok := r.channels[id]; !ok {
		return fmt.Errorf("sales: %w: channel %d", shared.ErrNotFound, id)
	}
	for _, order := range r.orders {
		if order.ChannelID == id {
			return fmt.Errorf("sales: %w: channel has orders attached", shared.ErrConflict)
		}
	}
	delete(r.channels, id)
	return nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (tx *memoryTx) GetItemForUpdate(_ context.Context, ref stock.TargetRef) (stock.Item, error) {
	item, ok := tx.repo.items[ref]
	if !ok {
		return stock.Item{}, fmt.Errorf("stock: %w: %s", shared.ErrNotFound, ref)
	}
	return item, nil
}

func (tx *memoryTx) SetOnHand(_ context.Context, ref stock.TargetRef, qty int64) error {
	item := tx.repo.items[ref]
	item.OnHand = qty
	tx.repo.items[ref] = item
	return nil
}

func (tx *memoryTx) InsertMovement(context.Context, stock.Movement) error {
	return nil
}

func (tx *memoryTx) InsertOrder(_ context.Context, channelID int64, userID *int64, status string) (int64, error) {
	if _, ok := tx.repo.channels[channelID]; !ok {
		return 0, fmt.Errorf("sales: %w: channel %d", shared.ErrNotFound, channelID)
	}
	tx.repo.nextID++
	tx.repo.orders[tx.repo.nextID] = Order{
		ID:        tx.repo.nextID,
		ChannelID: channelID,
		UserID:    userID,
		Status:    status,
		CreatedAt: time.Now(),
	}
	return tx.repo.nextID, nil
}

func (tx *memoryTx) InsertLine(_ context.Context, line Line) (int64, error) {
	order := tx.repo.orders[line.OrderID]
	tx.repo.nextID++
	line.ID = tx.repo.nextID
	line.TargetName = tx.repo.items[line.Target].Name
	order.Lines = append(order.Lines, line)
	order.Total += float64(line.Qty) * line.UnitPrice
	tx.repo.orders[line.OrderID] = order
	return line.ID, nil
}

func (tx *memoryTx) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	return tx.repo.GetOrder(ctx, id)
}

func (tx *memoryTx) SetStatus(_ context.Context, id int64, status string) error {
	order, ok := tx.repo.orders[id]
	if !ok {
		return fmt.Errorf("sales: %w: order %d", shared.ErrNotFound, id)
	}
	order.Status = status
	tx.repo.orders[id] = order
	return nil
}

func (tx *memoryTx) DeleteOrder(_ context.Context, id int64) error {
	delete(tx.repo.orders, id)
	return nil
}

var (
	variantRef = stock.TargetRef{Kind: stock.KindProductVariant, ID: 1}
	hingeRef   = stock.TargetRef{Kind: stock.KindResaleProduct, ID: 2}
)

func newTestService(t *testing.T) (*Service, *memoryRepo, Channel) {
	t.Helper()
	repo := newMemoryRepo()
	repo.seed(variantRef, "Table M white", 10)
	repo.seed(hingeRef, "Brass hinge", 4)
	svc := NewService(repo, slog.Default(), nil)
	channel, err := svc.CreateChannel(context.Background(), "MercadoLibre")
	require.NoError(t, err)
	return svc, repo, channel
}

func variantLine(id, qty int64) LineInput {
	return LineInput{Qty: qty, UnitPrice: 100, VariantID: &id}
}

func resaleLine(id, qty int64) LineInput {
	return LineInput{Qty: qty, UnitPrice: 40, ResaleProductID: &id}
}

func TestCreateDecrementsStock(t *testing.T) {
	svc, repo, channel := newTestService(t)

	order, err := svc.Create(context.Background(), CreateInput{
		ChannelID: channel.ID,
		Lines:     []LineInput{variantLine(1, 2), resaleLine(2, 3)},
	})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, order.Status)
	require.Equal(t, float64(2*100+3*40), order.Total)
	require.Equal(t, int64(8), repo.items[variantRef].OnHand)
	require.Equal(t, int64(1), repo.items[hingeRef].OnHand)
}

func TestCreateCustomStatusPassesThrough(t *testing.T) {
	svc, _, channel := newTestService(t)

	order, err := svc.Create(context.Background(), CreateInput{
		ChannelID: channel.ID,
		Status:    "PENDING_SHIPMENT",
		Lines:     []LineInput{variantLine(1, 1)},
	})
	require.NoError(t, err)
	require.Equal(t, "PENDING_SHIPMENT", order.Status)
}

func TestCreateAsReturnedRejected(t *testing.T) {
	svc, _, channel := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		ChannelID: channel.ID,
		Status:    StatusReturned,
		Lines:     []LineInput{variantLine(1, 1)},
	})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCreateAttachesUserFromContext(t *testing.T) {
	svc, repo, channel := newTestService(t)
	ctx := shared.ContextWithUser(context.Background(), 7)

	order, err := svc.Create(ctx, CreateInput{
		ChannelID: channel.ID,
		Lines:     []LineInput{variantLine(1, 1)},
	})
	require.NoError(t, err)
	require.NotNil(t, order.UserID)
	require.Equal(t, int64(7), *order.UserID)
	require.Equal(t, int64(9), repo.items[variantRef].OnHand)
}

func TestCreateShortLineMovesNothing(t *testing.T) {
	svc, repo, channel := newTestService(t)

	// The hinge line exceeds stock, so the variant line must not move either.
	_, err := svc.Create(context.Background(), CreateInput{
		ChannelID: channel.ID,
		Lines:     []LineInput{variantLine(1, 2), resaleLine(2, 5)},
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Equal(t, int64(10), repo.items[variantRef].OnHand)
	require.Equal(t, int64(4), repo.items[hingeRef].OnHand)
	require.Empty(t, repo.orders)
}

func TestCreateAggregatesDemandAcrossLines(t *testing.T) {
	svc, repo, channel := newTestService(t)

	// Two hinge lines of 3 each exceed the 4 on hand together.
	_, err := svc.Create(context.Background(), CreateInput{
		ChannelID: channel.ID,
		Lines:     []LineInput{resaleLine(2, 3), resaleLine(2, 3)},
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Equal(t, int64(4), repo.items[hingeRef].OnHand)
}

func TestSellOutThenInsufficient(t *testing.T) {
	svc, _, channel := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		ChannelID: channel.ID,
		Lines:     []LineInput{resaleLine(2, 4)},
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{
		ChannelID: channel.ID,
		Lines:     []LineInput{resaleLine(2, 1)},
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
}

func TestReturnRestoresStock(t *testing.T) {
	svc, repo, channel := newTestService(t)
	order, err := svc.Create(context.Background(), CreateInput{
		ChannelID: channel.ID,
		Lines:     []LineInput{variantLine(1, 2)},
	})
	require.NoError(t, err)

	returned, err := svc.Return(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusReturned, returned.Status)
	require.Equal(t, int64(10), repo.items[variantRef].OnHand)
}

func TestReturnTwiceRejected(t *testing.T) {
	svc, repo, channel := newTestService(t)
	order, err := svc.Create(context.Background(), CreateInput{
		ChannelID: channel.ID,
		Lines:     []LineInput{variantLine(1, 2)},
	})
	require.NoError(t, err)

	_, err = svc.Return(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.Return(context.Background(), order.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	require.Equal(t, int64(10), repo.items[variantRef].OnHand)
}

func TestReactivateBooksStockOutAgain(t *testing.T) {
	svc, repo, channel := newTestService(t)
	order, err := svc.Create(context.Background(), CreateInput{
		ChannelID: channel.ID,
		Lines:     []LineInput{variantLine(1, 2)},
	})
	require.NoError(t, err)
	_, err = svc.Return(context.Background(), order.ID)
	require.NoError(t, err)

	reactivated, err := svc.Reactivate(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, reactivated.Status)
	require.Equal(t, int64(8), repo.items[variantRef].OnHand)
}

func TestReactivateFailsWithoutStock(t *testing.T) {
	svc, repo, channel := newTestService(t)
	order, err := svc.Create(context.Background(), CreateInput{
		ChannelID: channel.ID,
		Lines:     []LineInput{variantLine(1, 2)},
	})
	require.NoError(t, err)
	_, err = svc.Return(context.Background(), order.ID)
	require.NoError(t, err)

	// The returned units went out through another channel meanwhile.
	item := repo.items[variantRef]
	item.OnHand = 1
	repo.items[variantRef] = item

	_, err = svc.Reactivate(context.Background(), order.ID)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Contains(t, err.Error(), "insufficient stock to reactivate")
	require.Equal(t, StatusReturned, repo.orders[order.ID].Status)
	require.Equal(t, int64(1), repo.items[variantRef].OnHand)
}

func TestDeleteOpenOrderRestoresStock(t *testing.T) {
	svc, repo, channel := newTestService(t)
	order, err := svc.Create(context.Background(), CreateInput{
		ChannelID: channel.ID,
		Lines:     []LineInput{variantLine(1, 2)},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), order.ID))
	require.Equal(t, int64(10), repo.items[variantRef].OnHand)
	require.NotContains(t, repo.orders, order.ID)
}

func TestDeleteReturnedOrderLeavesStockAlone(t *testing.T) {
	svc, repo, channel := newTestService(t)
	order, err := svc.Create(context.Background(), CreateInput{
		ChannelID: channel.ID,
		Lines:     []LineInput{variantLine(1, 2)},
	})
	require.NoError(t, err)
	_, err = svc.Return(context.Background(), order.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), order.ID))
	require.Equal(t, int64(10), repo.items[variantRef].OnHand)
}

func TestDeleteChannelWithOrdersConflicts(t *testing.T) {
	svc, _, channel := newTestService(t)
	_, err := svc.Create(context.Background(), CreateInput{
		ChannelID: channel.ID,
		Lines:     []LineInput{variantLine(1, 1)},
	})
	require.NoError(t, err)

	err = svc.DeleteChannel(context.Background(), channel.ID)
	require.ErrorIs(t, err, shared.ErrConflict)
}
