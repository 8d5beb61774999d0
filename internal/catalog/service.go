package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
)

// Store is the persistence surface the service needs.
type Store interface {
	CreateSupplier(ctx context.Context, s Supplier) (Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	GetSupplier(ctx context.Context, id int64) (Supplier, error)
	UpdateSupplier(ctx context.Context, s Supplier) error
	DeleteSupplier(ctx context.Context, id int64) error

	CreateRawMaterial(ctx context.Context, m RawMaterial) (RawMaterial, error)
	ListRawMaterials(ctx context.Context) ([]RawMaterial, error)
	GetRawMaterial(ctx context.Context, id int64) (RawMaterial, error)
	UpdateRawMaterial(ctx context.Context, m RawMaterial) error
	DeleteRawMaterial(ctx context.Context, id int64) error

	CreateResaleProduct(ctx context.Context, p ResaleProduct) (ResaleProduct, error)
	ListResaleProducts(ctx context.Context) ([]ResaleProduct, error)
	GetResaleProduct(ctx context.Context, id int64) (ResaleProduct, error)
	UpdateResaleProduct(ctx context.Context, p ResaleProduct) error
	DeleteResaleProduct(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, p ManufacturedProduct) (ManufacturedProduct, error)
	ListProducts(ctx context.Context) ([]ManufacturedProduct, error)
	GetProduct(ctx context.Context, id int64) (ManufacturedProduct, error)
	UpdateProduct(ctx context.Context, p ManufacturedProduct) error
	DeleteProduct(ctx context.Context, id int64) error

	CreateVariant(ctx context.Context, v Variant) (Variant, error)
	ListVariants(ctx context.Context, productID int64) ([]Variant, error)
	GetVariant(ctx context.Context, id int64) (Variant, error)
	UpdateVariant(ctx context.Context, v Variant) error
	DeleteVariant(ctx context.Context, id int64) error

	AddBOMLine(ctx context.Context, line BOMLine) (BOMLine, error)
	ListBOMLines(ctx context.Context, productID int64) ([]BOMLine, error)
	DeleteBOMLine(ctx context.Context, id int64) error
}

type stockAdjuster interface {
	Adjust(ctx context.Context, input stock.AdjustInput) (stock.Item, error)
}

// Service implements catalog use cases over a Store.
type Service struct {
	store  Store
	stock  stockAdjuster
	logger *slog.Logger
}

// NewService wires the catalog service.
func NewService(store Store, stock stockAdjuster, logger *slog.Logger) *Service {
	return &Service{store: store, stock: stock, logger: logger}
}

// CreateSupplier validates and stores a supplier.
func (s *Service) CreateSupplier(ctx context.Context, input Supplier) (Supplier, error) {
	if input.Name == "" {
		return Supplier{}, fmt.Errorf("catalog: %w: supplier name required", shared.ErrInvalidInput)
	}
	return s.store.CreateSupplier(ctx, input)
}

func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return s.store.ListSuppliers(ctx)
}

func (s *Service) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	return s.store.GetSupplier(ctx, id)
}

func (s *Service) UpdateSupplier(ctx context.Context, input Supplier) (Supplier, error) {
	if input.Name == "" {
		return Supplier{}, fmt.Errorf("catalog: %w: supplier name required", shared.ErrInvalidInput)
	}
	if err := s.store.UpdateSupplier(ctx, input); err != nil {
		return Supplier{}, err
	}
	return input, nil
}

// DeleteSupplier refuses when materials or products still reference the
// supplier.
func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	return s.store.DeleteSupplier(ctx, id)
}

// CreateRawMaterial validates and stores a material. An initial on-hand
// quantity is journalled as an adjustment after the row exists.
func (s *Service) CreateRawMaterial(ctx context.Context, input RawMaterial) (RawMaterial, error) {
	if err := validateMaterial(input); err != nil {
		return RawMaterial{}, err
	}
	initial := input.OnHand
	input.OnHand = 0
	created, err := s.store.CreateRawMaterial(ctx, input)
	if err != nil {
		return RawMaterial{}, err
	}
	if initial > 0 {
		if _, err := s.stock.Adjust(ctx, stock.AdjustInput{
			Kind:  string(stock.KindRawMaterial),
			ID:    created.ID,
			Delta: initial,
			Note:  "initial stock",
		}); err != nil {
			return RawMaterial{}, err
		}
		created.OnHand = initial
	}
	return created, nil
}

func (s *Service) ListRawMaterials(ctx context.Context) ([]RawMaterial, error) {
	return s.store.ListRawMaterials(ctx)
}

func (s *Service) GetRawMaterial(ctx context.Context, id int64) (RawMaterial, error) {
	return s.store.GetRawMaterial(ctx, id)
}

// UpdateRawMaterial writes descriptive fields. When the request carries a new
// on-hand quantity the difference goes through the ledger as an adjustment so
// the movement journal stays complete.
func (s *Service) UpdateRawMaterial(ctx context.Context, input RawMaterial) (RawMaterial, error) {
	if err := validateMaterial(input); err != nil {
		return RawMaterial{}, err
	}
	current, err := s.store.GetRawMaterial(ctx, input.ID)
	if err != nil {
		return RawMaterial{}, err
	}
	if err := s.store.UpdateRawMaterial(ctx, input); err != nil {
		return RawMaterial{}, err
	}
	if delta := input.OnHand - current.OnHand; delta != 0 {
		if _, err := s.stock.Adjust(ctx, stock.AdjustInput{
			Kind:  string(stock.KindRawMaterial),
			ID:    input.ID,
			Delta: delta,
			Note:  "manual correction",
		}); err != nil {
			return RawMaterial{}, err
		}
	}
	return s.store.GetRawMaterial(ctx, input.ID)
}

func (s *Service) DeleteRawMaterial(ctx context.Context, id int64) error {
	return s.store.DeleteRawMaterial(ctx, id)
}

// CreateResaleProduct validates and stores a resale product, journalling any
// initial stock.
func (s *Service) CreateResaleProduct(ctx context.Context, input ResaleProduct) (ResaleProduct, error) {
	if err := validateResale(input); err != nil {
		return ResaleProduct{}, err
	}
	initial := input.OnHand
	input.OnHand = 0
	created, err := s.store.CreateResaleProduct(ctx, input)
	if err != nil {
		return ResaleProduct{}, err
	}
	if initial > 0 {
		if _, err := s.stock.Adjust(ctx, stock.AdjustInput{
			Kind:  string(stock.KindResaleProduct),
			ID:    created.ID,
			Delta: initial,
			Note:  "initial stock",
		}); err != nil {
			return ResaleProduct{}, err
		}
		created.OnHand = initial
	}
	return s.store.GetResaleProduct(ctx, created.ID)
}

func (s *Service) ListResaleProducts(ctx context.Context) ([]ResaleProduct, error) {
	return s.store.ListResaleProducts(ctx)
}

func (s *Service) GetResaleProduct(ctx context.Context, id int64) (ResaleProduct, error) {
	return s.store.GetResaleProduct(ctx, id)
}

func (s *Service) UpdateResaleProduct(ctx context.Context, input ResaleProduct) (ResaleProduct, error) {
	if err := validateResale(input); err != nil {
		return ResaleProduct{}, err
	}
	current, err := s.store.GetResaleProduct(ctx, input.ID)
	if err != nil {
		return ResaleProduct{}, err
	}
	if err := s.store.UpdateResaleProduct(ctx, input); err != nil {
		return ResaleProduct{}, err
	}
	if delta := input.OnHand - current.OnHand; delta != 0 {
		if _, err := s.stock.Adjust(ctx, stock.AdjustInput{
			Kind:  string(stock.KindResaleProduct),
			ID:    input.ID,
			Delta: delta,
			Note:  "manual correction",
		}); err != nil {
			return ResaleProduct{}, err
		}
	}
	return s.store.GetResaleProduct(ctx, input.ID)
}

func (s *Service) DeleteResaleProduct(ctx context.Context, id int64) error {
	return s.store.DeleteResaleProduct(ctx, id)
}

// CreateProduct stores a manufactured product.
func (s *Service) CreateProduct(ctx context.Context, input ManufacturedProduct) (ManufacturedProduct, error) {
	if input.Name == "" {
		return ManufacturedProduct{}, fmt.Errorf("catalog: %w: product name required", shared.ErrInvalidInput)
	}
	if input.SalePrice < 0 {
		return ManufacturedProduct{}, fmt.Errorf("catalog: %w: sale price cannot be negative", shared.ErrInvalidInput)
	}
	return s.store.CreateProduct(ctx, input)
}

func (s *Service) ListProducts(ctx context.Context) ([]ManufacturedProduct, error) {
	return s.store.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (ManufacturedProduct, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) UpdateProduct(ctx context.Context, input ManufacturedProduct) (ManufacturedProduct, error) {
	if input.Name == "" {
		return ManufacturedProduct{}, fmt.Errorf("catalog: %w: product name required", shared.ErrInvalidInput)
	}
	if err := s.store.UpdateProduct(ctx, input); err != nil {
		return ManufacturedProduct{}, err
	}
	return input, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.store.DeleteProduct(ctx, id)
}

// CreateVariant stores a size/color combination under a product.
func (s *Service) CreateVariant(ctx context.Context, input Variant) (Variant, error) {
	if input.ProductID <= 0 {
		return Variant{}, fmt.Errorf("catalog: %w: product id required", shared.ErrInvalidInput)
	}
	if input.Size == "" && input.Color == "" {
		return Variant{}, fmt.Errorf("catalog: %w: variant needs a size or color", shared.ErrInvalidInput)
	}
	initial := input.OnHand
	input.OnHand = 0
	created, err := s.store.CreateVariant(ctx, input)
	if err != nil {
		return Variant{}, err
	}
	if initial > 0 {
		if _, err := s.stock.Adjust(ctx, stock.AdjustInput{
			Kind:  string(stock.KindProductVariant),
			ID:    created.ID,
			Delta: initial,
			Note:  "initial stock",
		}); err != nil {
			return Variant{}, err
		}
		created.OnHand = initial
	}
	return created, nil
}

func (s *Service) ListVariants(ctx context.Context, productID int64) ([]Variant, error) {
	return s.store.ListVariants(ctx, productID)
}

func (s *Service) GetVariant(ctx context.Context, id int64) (Variant, error) {
	return s.store.GetVariant(ctx, id)
}

func (s *Service) UpdateVariant(ctx context.Context, input Variant) (Variant, error) {
	if input.Size == "" && input.Color == "" {
		return Variant{}, fmt.Errorf("catalog: %w: variant needs a size or color", shared.ErrInvalidInput)
	}
	if err := s.store.UpdateVariant(ctx, input); err != nil {
		return Variant{}, err
	}
	return s.store.GetVariant(ctx, input.ID)
}

func (s *Service) DeleteVariant(ctx context.Context, id int64) error {
	return s.store.DeleteVariant(ctx, id)
}

// AddBOMLine attaches a material requirement to a product. The pair must be
// unique per product.
func (s *Service) AddBOMLine(ctx context.Context, input BOMLine) (BOMLine, error) {
	if input.ProductID <= 0 || input.MaterialID <= 0 {
		return BOMLine{}, fmt.Errorf("catalog: %w: product and material ids required", shared.ErrInvalidInput)
	}
	if input.QtyPerUnit <= 0 {
		return BOMLine{}, fmt.Errorf("catalog: %w: quantity per unit must be positive", shared.ErrInvalidInput)
	}
	return s.store.AddBOMLine(ctx, input)
}

func (s *Service) ListBOMLines(ctx context.Context, productID int64) ([]BOMLine, error) {
	return s.store.ListBOMLines(ctx, productID)
}

func (s *Service) DeleteBOMLine(ctx context.Context, id int64) error {
	return s.store.DeleteBOMLine(ctx, id)
}

func validateMaterial(m RawMaterial) error {
	if m.Name == "" {
		return fmt.Errorf("catalog: %w: material name required", shared.ErrInvalidInput)
	}
	if m.SupplierID <= 0 {
		return fmt.Errorf("catalog: %w: supplier id required", shared.ErrInvalidInput)
	}
	if m.UnitCost < 0 {
		return fmt.Errorf("catalog: %w: unit cost cannot be negative", shared.ErrInvalidInput)
	}
	if m.OnHand < 0 {
		return fmt.Errorf("catalog: %w: on-hand cannot be negative", shared.ErrInvalidInput)
	}
	return nil
}

func validateResale(p ResaleProduct) error {
	if p.Name == "" {
		return fmt.Errorf("catalog: %w: product name required", shared.ErrInvalidInput)
	}
	if p.SupplierID <= 0 {
		return fmt.Errorf("catalog: %w: supplier id required", shared.ErrInvalidInput)
	}
	if p.PurchaseCost < 0 || p.SalePrice < 0 {
		return fmt.Errorf("catalog: %w: prices cannot be negative", shared.ErrInvalidInput)
	}
	if p.OnHand < 0 {
		return fmt.Errorf("catalog: %w: on-hand cannot be negative", shared.ErrInvalidInput)
	}
	return nil
}
