package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
)

type memoryStore struct {
	suppliers map[int64]Supplier
	materials map[int64]RawMaterial
	resale    map[int64]ResaleProduct
	products  map[int64]ManufacturedProduct
	variants  map[int64]Variant
	bomLines  map[int64]BOMLine
	nextID    int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		suppliers: make(map[int64]Supplier),
		materials: make(map[int64]RawMaterial),
		resale:    make(map[int64]ResaleProduct),
		products:  make(map[int64]ManufacturedProduct),
		variants:  make(map[int64]Variant),
		bomLines:  make(map[int64]BOMLine),
	}
}

func (m *memoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) CreateSupplier(_ context.Context, s Supplier) (Supplier, error) {
	s.ID = m.id()
	m.suppliers[s.ID] = s
	return s, nil
}

func (m *memoryStore) ListSuppliers(context.Context) ([]Supplier, error) {
	out := make([]Supplier, 0, len(m.suppliers))
	for _, s := range m.suppliers {
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryStore) GetSupplier(_ context.Context, id int64) (Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return Supplier{}, fmt.Errorf("catalog: %w: supplier", shared.ErrNotFound)
	}
	return s, nil
}

func (m *memoryStore) UpdateSupplier(_ context.Context, s Supplier) error {
	if _, ok := m.suppliers[s.ID]; !ok {
		return fmt.Errorf("catalog: %w: supplier", shared.ErrNotFound)
	}
	m.suppliers[s.ID] = s
	return nil
}

func (m *memoryStore) DeleteSupplier(_ context.Context, id int64) error {
	if _, ok := m.suppliers[id]; !ok {
		return fmt.Errorf("catalog: %w: supplier", shared.ErrNotFound)
	}
	for _, mat := range m.materials {
		if mat.SupplierID == id {
			return fmt.Errorf("catalog: %w: supplier has items attached", shared.ErrConflict)
		}
	}
	delete(m.suppliers, id)
	return nil
}

func (m *memoryStore) CreateRawMaterial(_ context.Context, mat RawMaterial) (RawMaterial, error) {
	mat.ID = m.id()
	m.materials[mat.ID] = mat
	return mat, nil
}

func (m *memoryStore) ListRawMaterials(context.Context) ([]RawMaterial, error) {
	out := make([]RawMaterial, 0, len(m.materials))
	for _, mat := range m.materials {
		out = append(out, mat)
	}
	return out, nil
}

func (m *memoryStore) GetRawMaterial(_ context.Context, id int64) (RawMaterial, error) {
	mat, ok := m.materials[id]
	if !ok {
		return RawMaterial{}, fmt.Errorf("catalog: %w: raw material", shared.ErrNotFound)
	}
	return mat, nil
}

func (m *memoryStore) UpdateRawMaterial(_ context.Context, mat RawMaterial) error {
	current, ok := m.materials[mat.ID]
	if !ok {
		return fmt.Errorf("catalog: %w: raw material", shared.ErrNotFound)
	}
	mat.OnHand = current.OnHand
	m.materials[mat.ID] = mat
	return nil
}

func (m *memoryStore) DeleteRawMaterial(_ context.Context, id int64) error {
	delete(m.materials, id)
	return nil
}

func (m *memoryStore) CreateResaleProduct(_ context.Context, p ResaleProduct) (ResaleProduct, error) {
	p.ID = m.id()
	m.resale[p.ID] = p
	return p, nil
}

func (m *memoryStore) ListResaleProducts(context.Context) ([]ResaleProduct, error) {
	out := make([]ResaleProduct, 0, len(m.resale))
	for _, p := range m.resale {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryStore) GetResaleProduct(_ context.Context, id int64) (ResaleProduct, error) {
	p, ok := m.resale[id]
	if !ok {
		return ResaleProduct{}, fmt.Errorf("catalog: %w: resale product", shared.ErrNotFound)
	}
	return p, nil
}

func (m *memoryStore) UpdateResaleProduct(_ context.Context, p ResaleProduct) error {
	current, ok := m.resale[p.ID]
	if !ok {
		return fmt.Errorf("catalog: %w: resale product", shared.ErrNotFound)
	}
	p.OnHand = current.OnHand
	m.resale[p.ID] = p
	return nil
}

func (m *memoryStore) DeleteResaleProduct(_ context.Context, id int64) error {
	delete(m.resale, id)
	return nil
}

func (m *memoryStore) CreateProduct(_ context.Context, p ManufacturedProduct) (ManufacturedProduct, error) {
	p.ID = m.id()
	m.products[p.ID] = p
	return p, nil
}

func (m *memoryStore) ListProducts(context.Context) ([]ManufacturedProduct, error) {
	out := make([]ManufacturedProduct, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryStore) GetProduct(_ context.Context, id int64) (ManufacturedProduct, error) {
	p, ok := m.products[id]
	if !ok {
		return ManufacturedProduct{}, fmt.Errorf("catalog: %w: product", shared.ErrNotFound)
	}
	return p, nil
}

func (m *memoryStore) UpdateProduct(_ context.Context, p ManufacturedProduct) error {
	if _, ok := m.products[p.ID]; !ok {
		return fmt.Errorf("catalog: %w: product", shared.ErrNotFound)
	}
	m.products[p.ID] = p
	return nil
}

func (m *memoryStore) DeleteProduct(_ context.Context, id int64) error {
	delete(m.products, id)
	return nil
}

func (m *memoryStore) CreateVariant(_ context.Context, v Variant) (Variant, error) {
	if _, ok := m.products[v.ProductID]; !ok {
		return Variant{}, fmt.Errorf("catalog: %w: product", shared.ErrNotFound)
	}
	v.ID = m.id()
	m.variants[v.ID] = v
	return v, nil
}

func (m *memoryStore) ListVariants(_ context.Context, productID int64) ([]Variant, error) {
	var out []Variant
	for _, v := range m.variants {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memoryStore) GetVariant(_ context.Context, id int64) (Variant, error) {
	v, ok := m.variants[id]
	if !ok {
		return Variant{}, fmt.Errorf("catalog: %w: variant", shared.ErrNotFound)
	}
	return v, nil
}

func (m *memoryStore) UpdateVariant(_ context.Context, v Variant) error {
	current, ok := m.variants[v.ID]
	if !ok {
		return fmt.Errorf("catalog: %w: variant", shared.ErrNotFound)
	}
	current.Size = v.Size
	current.Color = v.Color
	m.variants[v.ID] = current
	return nil
}

func (m *memoryStore) DeleteVariant(_ context.Context, id int64) error {
	delete(m.variants, id)
	return nil
}

func (m *memoryStore) AddBOMLine(_ context.Context, line BOMLine) (BOMLine, error) {
	for _, existing := range m.bomLines {
		if existing.ProductID == line.ProductID && existing.MaterialID == line.MaterialID {
			return BOMLine{}, fmt.Errorf("catalog: %w: material already on bill of materials", shared.ErrConflict)
		}
	}
	line.ID = m.id()
	m.bomLines[line.ID] = line
	return line, nil
}

func (m *memoryStore) ListBOMLines(_ context.Context, productID int64) ([]BOMLine, error) {
	var out []BOMLine
	for _, line := range m.bomLines {
		if line.ProductID == productID {
			out = append(out, line)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteBOMLine(_ context.Context, id int64) error {
	delete(m.bomLines, id)
	return nil
}

type fakeAdjuster struct {
	store *memoryStore
	calls []stock.AdjustInput
}

func (f *fakeAdjuster) Adjust(_ context.Context, input stock.AdjustInput) (stock.Item, error) {
	f.calls = append(f.calls, input)
	switch stock.TargetKind(input.Kind) {
	case stock.KindRawMaterial:
		mat := f.store.materials[input.ID]
		if mat.OnHand+input.Delta < 0 {
			return stock.Item{}, &stock.InsufficientStockError{Item: mat.Name, Required: -input.Delta, Available: mat.OnHand}
		}
		mat.OnHand += input.Delta
		f.store.materials[input.ID] = mat
		return stock.Item{Name: mat.Name, OnHand: mat.OnHand}, nil
	case stock.KindResaleProduct:
		p := f.store.resale[input.ID]
		if p.OnHand+input.Delta < 0 {
			return stock.Item{}, &stock.InsufficientStockError{Item: p.Name, Required: -input.Delta, Available: p.OnHand}
		}
		p.OnHand += input.Delta
		f.store.resale[input.ID] = p
		return stock.Item{Name: p.Name, OnHand: p.OnHand}, nil
	case stock.KindProductVariant:
		v := f.store.variants[input.ID]
		v.OnHand += input.Delta
		f.store.variants[input.ID] = v
		return stock.Item{OnHand: v.OnHand}, nil
	}
	return stock.Item{}, stock.ErrUnknownTarget
}

func newTestService(t *testing.T) (*Service, *memoryStore, *fakeAdjuster) {
	t.Helper()
	store := newMemoryStore()
	adjuster := &fakeAdjuster{store: store}
	return NewService(store, adjuster, slog.Default()), store, adjuster
}

func TestCreateSupplierRequiresName(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.CreateSupplier(context.Background(), Supplier{})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestDeleteSupplierWithMaterialsConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, Supplier{Name: "Maderas SA"})
	require.NoError(t, err)
	_, err = svc.CreateRawMaterial(ctx, RawMaterial{Name: "Oak plank", SupplierID: supplier.ID})
	require.NoError(t, err)

	err = svc.DeleteSupplier(ctx, supplier.ID)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateRawMaterialJournalsInitialStock(t *testing.T) {
	svc, _, adjuster := newTestService(t)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, Supplier{Name: "Maderas SA"})
	require.NoError(t, err)
	material, err := svc.CreateRawMaterial(ctx, RawMaterial{Name: "Oak plank", SupplierID: supplier.ID, OnHand: 12})
	require.NoError(t, err)

	require.Equal(t, int64(12), material.OnHand)
	require.Len(t, adjuster.calls, 1)
	require.Equal(t, int64(12), adjuster.calls[0].Delta)
	require.Equal(t, "initial stock", adjuster.calls[0].Note)
}

func TestUpdateRawMaterialCorrectsStockThroughLedger(t *testing.T) {
	svc, _, adjuster := newTestService(t)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, Supplier{Name: "Maderas SA"})
	require.NoError(t, err)
	material, err := svc.CreateRawMaterial(ctx, RawMaterial{Name: "Oak plank", SupplierID: supplier.ID, OnHand: 10})
	require.NoError(t, err)

	material.OnHand = 7
	updated, err := svc.UpdateRawMaterial(ctx, material)
	require.NoError(t, err)
	require.Equal(t, int64(7), updated.OnHand)

	last := adjuster.calls[len(adjuster.calls)-1]
	require.Equal(t, int64(-3), last.Delta)
	require.Equal(t, "manual correction", last.Note)
}

func TestUpdateRawMaterialWithoutStockChangeSkipsLedger(t *testing.T) {
	svc, _, adjuster := newTestService(t)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, Supplier{Name: "Maderas SA"})
	require.NoError(t, err)
	material, err := svc.CreateRawMaterial(ctx, RawMaterial{Name: "Oak plank", SupplierID: supplier.ID, OnHand: 10})
	require.NoError(t, err)
	callsBefore := len(adjuster.calls)

	material.Description = "kiln dried"
	_, err = svc.UpdateRawMaterial(ctx, material)
	require.NoError(t, err)
	require.Len(t, adjuster.calls, callsBefore)
}

func TestAddBOMLineRejectsDuplicatePair(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, ManufacturedProduct{Name: "Table"})
	require.NoError(t, err)
	store.materials[99] = RawMaterial{ID: 99, Name: "Oak plank"}

	_, err = svc.AddBOMLine(ctx, BOMLine{ProductID: product.ID, MaterialID: 99, QtyPerUnit: 3})
	require.NoError(t, err)

	_, err = svc.AddBOMLine(ctx, BOMLine{ProductID: product.ID, MaterialID: 99, QtyPerUnit: 1})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestAddBOMLineRequiresPositiveQty(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.AddBOMLine(context.Background(), BOMLine{ProductID: 1, MaterialID: 2, QtyPerUnit: 0})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCreateVariantRequiresExistingProduct(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.CreateVariant(context.Background(), Variant{ProductID: 42, Size: "M"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
