package production

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inventia-erp/inventia/internal/bom"
	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
)

type memoryRepo struct {
	items           map[stock.TargetRef]stock.Item
	orders          map[int64]Order
	boms            map[int64][]bom.Line
	variantProducts map[int64]int64
	nextID          int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		items:           make(map[stock.TargetRef]stock.Item),
		orders:          make(map[int64]Order),
		boms:            make(map[int64][]bom.Line),
		variantProducts: make(map[int64]int64),
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
		return Order{}, fmt.Errorf("production: %w: order %d", shared.ErrNotFound, id)
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

func (tx *memoryTx) BOMLines(_ context.Context, productID int64) ([]bom.Line, error) {
	return tx.repo.boms[productID], nil
}

func (tx *memoryTx) InsertOrder(_ context.Context, variantID, qty int64) (int64, error) {
	productID, ok := tx.repo.variantProducts[variantID]
	if !ok {
		return 0, fmt.Errorf("production: %w: variant %d", shared.ErrNotFound, variantID)
	}
	tx.repo.nextID++
	tx.repo.orders[tx.repo.nextID] = Order{
		ID:        tx.repo.nextID,
		VariantID: variantID,
		ProductID: productID,
		Qty:       qty,
		Status:    StatusInProgress,
		CreatedAt: time.Now(),
	}
	return tx.repo.nextID, nil
}

func (tx *memoryTx) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	return tx.repo.GetOrder(ctx, id)
}

func (tx *memoryTx) SetStatus(_ context.Context, id int64, status string, finishedAt *time.Time) error {
	order, ok := tx.repo.orders[id]
	if !ok {
		return fmt.Errorf("production: %w: order %d", shared.ErrNotFound, id)
	}
	order.Status = status
	order.FinishedAt = finishedAt
	tx.repo.orders[id] = order
	return nil
}

func (tx *memoryTx) DeleteOrder(_ context.Context, id int64) error {
	delete(tx.repo.orders, id)
	return nil
}

var (
	variantRef = stock.TargetRef{Kind: stock.KindProductVariant, ID: 1}
	plankRef   = stock.TargetRef{Kind: stock.KindRawMaterial, ID: 10}
)

const productID = int64(7)

// newTestService seeds variant 1 of product 7, which consumes 3 planks per unit.
func newTestService(t *testing.T, plankStock int64) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	repo.seed(variantRef, "Table M white", 0)
	repo.seed(plankRef, "Oak plank", plankStock)
	repo.variantProducts[variantRef.ID] = productID
	repo.boms[productID] = []bom.Line{{ProductID: productID, MaterialID: 10, MaterialName: "Oak plank", QtyPerUnit: 3}}
	return NewService(repo, slog.Default(), nil), repo
}

func TestCreateStartsInProgress(t *testing.T) {
	svc, repo := newTestService(t, 9)

	order, err := svc.Create(context.Background(), CreateInput{VariantID: 1, Qty: 3})
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, order.Status)
	require.Nil(t, order.FinishedAt)
	require.Equal(t, int64(9), repo.items[plankRef].OnHand)
}

func TestCreateRejectsUnknownVariant(t *testing.T) {
	svc, _ := newTestService(t, 9)
	_, err := svc.Create(context.Background(), CreateInput{VariantID: 42, Qty: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFinishConsumesExactStock(t *testing.T) {
	svc, repo := newTestService(t, 9)
	order, err := svc.Create(context.Background(), CreateInput{VariantID: 1, Qty: 3})
	require.NoError(t, err)

	// 3 units at 3 planks each consume exactly the 9 on hand.
	finished, err := svc.Finish(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFinished, finished.Status)
	require.NotNil(t, finished.FinishedAt)
	require.Equal(t, int64(0), repo.items[plankRef].OnHand)
	require.Equal(t, int64(3), repo.items[variantRef].OnHand)
}

func TestFinishShortMaterialMovesNothing(t *testing.T) {
	svc, repo := newTestService(t, 9)
	order, err := svc.Create(context.Background(), CreateInput{VariantID: 1, Qty: 4})
	require.NoError(t, err)

	// 4 units need 12 planks but only 9 are on hand.
	_, err = svc.Finish(context.Background(), order.ID)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Equal(t, int64(9), repo.items[plankRef].OnHand)
	require.Equal(t, int64(0), repo.items[variantRef].OnHand)
	require.Equal(t, StatusInProgress, repo.orders[order.ID].Status)
}

func TestFinishTruncatesFractionalRequirements(t *testing.T) {
	svc, repo := newTestService(t, 9)
	repo.boms[productID] = []bom.Line{{ProductID: productID, MaterialID: 10, MaterialName: "Oak plank", QtyPerUnit: 0.5}}
	order, err := svc.Create(context.Background(), CreateInput{VariantID: 1, Qty: 3})
	require.NoError(t, err)

	// 0.5 * 3 = 1.5 truncates to 1 consumed plank.
	_, err = svc.Finish(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(8), repo.items[plankRef].OnHand)
}

func TestFinishTwiceRejected(t *testing.T) {
	svc, _ := newTestService(t, 9)
	order, err := svc.Create(context.Background(), CreateInput{VariantID: 1, Qty: 1})
	require.NoError(t, err)

	_, err = svc.Finish(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.Finish(context.Background(), order.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestRevertRestoresMaterials(t *testing.T) {
	svc, repo := newTestService(t, 9)
	order, err := svc.Create(context.Background(), CreateInput{VariantID: 1, Qty: 3})
	require.NoError(t, err)
	_, err = svc.Finish(context.Background(), order.ID)
	require.NoError(t, err)

	reverted, err := svc.Revert(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, reverted.Status)
	require.Nil(t, reverted.FinishedAt)
	require.Equal(t, int64(9), repo.items[plankRef].OnHand)
	require.Equal(t, int64(0), repo.items[variantRef].OnHand)
}

func TestRevertBlockedWhenOutputSold(t *testing.T) {
	svc, repo := newTestService(t, 9)
	order, err := svc.Create(context.Background(), CreateInput{VariantID: 1, Qty: 3})
	require.NoError(t, err)
	_, err = svc.Finish(context.Background(), order.ID)
	require.NoError(t, err)

	// Two of the three produced units were sold.
	item := repo.items[variantRef]
	item.OnHand = 1
	repo.items[variantRef] = item

	_, err = svc.Revert(context.Background(), order.ID)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Contains(t, err.Error(), "already sold or moved")
	require.Equal(t, StatusFinished, repo.orders[order.ID].Status)
}

func TestRevertInProgressRejected(t *testing.T) {
	svc, _ := newTestService(t, 9)
	order, err := svc.Create(context.Background(), CreateInput{VariantID: 1, Qty: 1})
	require.NoError(t, err)

	_, err = svc.Revert(context.Background(), order.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestDeleteFinishedReversesWhenStockAvailable(t *testing.T) {
	svc, repo := newTestService(t, 9)
	order, err := svc.Create(context.Background(), CreateInput{VariantID: 1, Qty: 3})
	require.NoError(t, err)
	_, err = svc.Finish(context.Background(), order.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), order.ID))
	require.Equal(t, int64(9), repo.items[plankRef].OnHand)
	require.Equal(t, int64(0), repo.items[variantRef].OnHand)
	require.NotContains(t, repo.orders, order.ID)
}

func TestDeleteFinishedSkipsReversalWhenOutputSold(t *testing.T) {
	svc, repo := newTestService(t, 9)
	order, err := svc.Create(context.Background(), CreateInput{VariantID: 1, Qty: 3})
	require.NoError(t, err)
	_, err = svc.Finish(context.Background(), order.ID)
	require.NoError(t, err)

	item := repo.items[variantRef]
	item.OnHand = 1
	repo.items[variantRef] = item

	require.NoError(t, svc.Delete(context.Background(), order.ID))
	require.Equal(t, int64(1), repo.items[variantRef].OnHand)
	require.Equal(t, int64(0), repo.items[plankRef].OnHand)
	require.NotContains(t, repo.orders, order.ID)
}

func TestDeleteInProgressLeavesStockAlone(t *testing.T) {
	svc, repo := newTestService(t, 9)
	order, err := svc.Create(context.Background(), CreateInput{VariantID: 1, Qty: 3})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), order.ID))
	require.Equal(t, int64(9), repo.items[plankRef].OnHand)
}
