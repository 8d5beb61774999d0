package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inventia-erp/inventia/internal/shared"
)

// Repository persists catalog records in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository bound to the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("catalog: %w: %s", shared.ErrNotFound, what)
	}
	return fmt.Errorf("catalog: %s: %w", what, err)
}

// --- suppliers ---

func (r *Repository) CreateSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO suppliers (name, contact) VALUES ($1, $2) RETURNING id`,
		s.Name, s.Contact).Scan(&s.ID)
	if err != nil {
		return Supplier{}, fmt.Errorf("catalog: create supplier: %w", err)
	}
	return s, nil
}

func (r *Repository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, contact FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Contact); err != nil {
			return nil, fmt.Errorf("catalog: scan supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func (r *Repository) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	var s Supplier
	err := r.pool.QueryRow(ctx, `SELECT id, name, contact FROM suppliers WHERE id=$1`, id).
		Scan(&s.ID, &s.Name, &s.Contact)
	if err != nil {
		return Supplier{}, notFoundOr(err, "supplier")
	}
	return s, nil
}

func (r *Repository) UpdateSupplier(ctx context.Context, s Supplier) error {
	tag, err := r.pool.Exec(ctx, `UPDATE suppliers SET name=$2, contact=$3 WHERE id=$1`,
		s.ID, s.Name, s.Contact)
	if err != nil {
		return fmt.Errorf("catalog: update supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: %w: supplier", shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteSupplier(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id=$1`, id)
	if isFKViolation(err) {
		return fmt.Errorf("catalog: %w: supplier has items attached", shared.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("catalog: delete supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: %w: supplier", shared.ErrNotFound)
	}
	return nil
}

// --- raw materials ---

func (r *Repository) CreateRawMaterial(ctx context.Context, m RawMaterial) (RawMaterial, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO raw_materials (name, description, unit_cost, unit, on_hand, supplier_id)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		m.Name, m.Description, m.UnitCost, m.Unit, m.OnHand, m.SupplierID).Scan(&m.ID)
	if isFKViolation(err) {
		return RawMaterial{}, fmt.Errorf("catalog: %w: supplier", shared.ErrNotFound)
	}
	if err != nil {
		return RawMaterial{}, fmt.Errorf("catalog: create raw material: %w", err)
	}
	return m, nil
}

func (r *Repository) ListRawMaterials(ctx context.Context) ([]RawMaterial, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, unit_cost, unit, on_hand, supplier_id
		FROM raw_materials ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list raw materials: %w", err)
	}
	defer rows.Close()

	var materials []RawMaterial
	for rows.Next() {
		var m RawMaterial
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.UnitCost, &m.Unit, &m.OnHand, &m.SupplierID); err != nil {
			return nil, fmt.Errorf("catalog: scan raw material: %w", err)
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (r *Repository) GetRawMaterial(ctx context.Context, id int64) (RawMaterial, error) {
	var m RawMaterial
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, unit_cost, unit, on_hand, supplier_id
		FROM raw_materials WHERE id=$1`, id).
		Scan(&m.ID, &m.Name, &m.Description, &m.UnitCost, &m.Unit, &m.OnHand, &m.SupplierID)
	if err != nil {
		return RawMaterial{}, notFoundOr(err, "raw material")
	}
	return m, nil
}

// UpdateRawMaterial writes every field except on_hand, which only the stock
// ledger may touch.
func (r *Repository) UpdateRawMaterial(ctx context.Context, m RawMaterial) error {
	tag, err := r.pool.Exec(ctx, `UPDATE raw_materials SET name=$2, description=$3, unit_cost=$4, unit=$5, supplier_id=$6 WHERE id=$1`,
		m.ID, m.Name, m.Description, m.UnitCost, m.Unit, m.SupplierID)
	if isFKViolation(err) {
		return fmt.Errorf("catalog: %w: supplier", shared.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("catalog: update raw material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: %w: raw material", shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteRawMaterial(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM raw_materials WHERE id=$1`, id)
	if isFKViolation(err) {
		return fmt.Errorf("catalog: %w: material is referenced by orders or BOMs", shared.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("catalog: delete raw material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: %w: raw material", shared.ErrNotFound)
	}
	return nil
}

// --- resale products ---

func (r *Repository) CreateResaleProduct(ctx context.Context, p ResaleProduct) (ResaleProduct, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO resale_products (name, description, purchase_cost, sale_price, on_hand, supplier_id)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		p.Name, p.Description, p.PurchaseCost, p.SalePrice, p.OnHand, p.SupplierID).Scan(&p.ID)
	if isFKViolation(err) {
		return ResaleProduct{}, fmt.Errorf("catalog: %w: supplier", shared.ErrNotFound)
	}
	if err != nil {
		return ResaleProduct{}, fmt.Errorf("catalog: create resale product: %w", err)
	}
	return p, nil
}

func (r *Repository) ListResaleProducts(ctx context.Context) ([]ResaleProduct, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.name, p.description, p.purchase_cost, p.sale_price, p.on_hand, p.supplier_id, p.listing_id, s.name, s.contact
		FROM resale_products p JOIN suppliers s ON s.id = p.supplier_id ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list resale products: %w", err)
	}
	defer rows.Close()

	var products []ResaleProduct
	for rows.Next() {
		var p ResaleProduct
		var supplier Supplier
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PurchaseCost, &p.SalePrice, &p.OnHand, &p.SupplierID, &p.ListingID, &supplier.Name, &supplier.Contact); err != nil {
			return nil, fmt.Errorf("catalog: scan resale product: %w", err)
		}
		supplier.ID = p.SupplierID
		p.Supplier = &supplier
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) GetResaleProduct(ctx context.Context, id int64) (ResaleProduct, error) {
	var p ResaleProduct
	var supplier Supplier
	err := r.pool.QueryRow(ctx, `SELECT p.id, p.name, p.description, p.purchase_cost, p.sale_price, p.on_hand, p.supplier_id, p.listing_id, s.name, s.contact
		FROM resale_products p JOIN suppliers s ON s.id = p.supplier_id WHERE p.id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.PurchaseCost, &p.SalePrice, &p.OnHand, &p.SupplierID, &p.ListingID, &supplier.Name, &supplier.Contact)
	if err != nil {
		return ResaleProduct{}, notFoundOr(err, "resale product")
	}
	supplier.ID = p.SupplierID
	p.Supplier = &supplier
	return p, nil
}

func (r *Repository) UpdateResaleProduct(ctx context.Context, p ResaleProduct) error {
	tag, err := r.pool.Exec(ctx, `UPDATE resale_products SET name=$2, description=$3, purchase_cost=$4, sale_price=$5, supplier_id=$6 WHERE id=$1`,
		p.ID, p.Name, p.Description, p.PurchaseCost, p.SalePrice, p.SupplierID)
	if isFKViolation(err) {
		return fmt.Errorf("catalog: %w: supplier", shared.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("catalog: update resale product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: %w: resale product", shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteResaleProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM resale_products WHERE id=$1`, id)
	if isFKViolation(err) {
		return fmt.Errorf("catalog: %w: product is referenced by orders", shared.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("catalog: delete resale product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: %w: resale product", shared.ErrNotFound)
	}
	return nil
}

// --- manufactured products ---

func (r *Repository) CreateProduct(ctx context.Context, p ManufacturedProduct) (ManufacturedProduct, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO manufactured_products (name, description, sale_price)
		VALUES ($1, $2, $3) RETURNING id`,
		p.Name, p.Description, p.SalePrice).Scan(&p.ID)
	if err != nil {
		return ManufacturedProduct{}, fmt.Errorf("catalog: create product: %w", err)
	}
	return p, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]ManufacturedProduct, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, sale_price FROM manufactured_products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	defer rows.Close()

	var products []ManufacturedProduct
	for rows.Next() {
		var p ManufacturedProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.SalePrice); err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (ManufacturedProduct, error) {
	var p ManufacturedProduct
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, sale_price FROM manufactured_products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.SalePrice)
	if err != nil {
		return ManufacturedProduct{}, notFoundOr(err, "product")
	}
	return p, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p ManufacturedProduct) error {
	tag, err := r.pool.Exec(ctx, `UPDATE manufactured_products SET name=$2, description=$3, sale_price=$4 WHERE id=$1`,
		p.ID, p.Name, p.Description, p.SalePrice)
	if err != nil {
		return fmt.Errorf("catalog: update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: %w: product", shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM manufactured_products WHERE id=$1`, id)
	if isFKViolation(err) {
		return fmt.Errorf("catalog: %w: product has variants or BOM lines", shared.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("catalog: delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: %w: product", shared.ErrNotFound)
	}
	return nil
}

// --- variants ---

func (r *Repository) CreateVariant(ctx context.Context, v Variant) (Variant, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO product_variants (product_id, size, color, on_hand)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		v.ProductID, v.Size, v.Color, v.OnHand).Scan(&v.ID)
	if isFKViolation(err) {
		return Variant{}, fmt.Errorf("catalog: %w: product", shared.ErrNotFound)
	}
	if err != nil {
		return Variant{}, fmt.Errorf("catalog: create variant: %w", err)
	}
	return v, nil
}

func (r *Repository) ListVariants(ctx context.Context, productID int64) ([]Variant, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, size, color, on_hand, listing_id
		FROM product_variants WHERE product_id=$1 ORDER BY size, color`, productID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list variants: %w", err)
	}
	defer rows.Close()

	var variants []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.OnHand, &v.ListingID); err != nil {
			return nil, fmt.Errorf("catalog: scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (r *Repository) GetVariant(ctx context.Context, id int64) (Variant, error) {
	var v Variant
	err := r.pool.QueryRow(ctx, `SELECT id, product_id, size, color, on_hand, listing_id
		FROM product_variants WHERE id=$1`, id).
		Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.OnHand, &v.ListingID)
	if err != nil {
		return Variant{}, notFoundOr(err, "variant")
	}
	return v, nil
}

func (r *Repository) UpdateVariant(ctx context.Context, v Variant) error {
	tag, err := r.pool.Exec(ctx, `UPDATE product_variants SET size=$2, color=$3 WHERE id=$1`,
		v.ID, v.Size, v.Color)
	if err != nil {
		return fmt.Errorf("catalog: update variant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: %w: variant", shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteVariant(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM product_variants WHERE id=$1`, id)
	if isFKViolation(err) {
		return fmt.Errorf("catalog: %w: variant is referenced by orders", shared.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("catalog: delete variant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: %w: variant", shared.ErrNotFound)
	}
	return nil
}

// --- bill of materials ---

func (r *Repository) AddBOMLine(ctx context.Context, line BOMLine) (BOMLine, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO bom_lines (product_id, material_id, qty_per_unit)
		VALUES ($1, $2, $3) RETURNING id`,
		line.ProductID, line.MaterialID, line.QtyPerUnit).Scan(&line.ID)
	if isUniqueViolation(err) {
		return BOMLine{}, fmt.Errorf("catalog: %w: material already on bill of materials", shared.ErrConflict)
	}
	if isFKViolation(err) {
		return BOMLine{}, fmt.Errorf("catalog: %w: product or material", shared.ErrNotFound)
	}
	if err != nil {
		return BOMLine{}, fmt.Errorf("catalog: add bom line: %w", err)
	}
	return line, nil
}

func (r *Repository) ListBOMLines(ctx context.Context, productID int64) ([]BOMLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT b.id, b.product_id, b.material_id, m.name, b.qty_per_unit
		FROM bom_lines b JOIN raw_materials m ON m.id = b.material_id
		WHERE b.product_id=$1 ORDER BY m.name`, productID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list bom lines: %w", err)
	}
	defer rows.Close()

	var lines []BOMLine
	for rows.Next() {
		var line BOMLine
		if err := rows.Scan(&line.ID, &line.ProductID, &line.MaterialID, &line.MaterialName, &line.QtyPerUnit); err != nil {
			return nil, fmt.Errorf("catalog: scan bom line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *Repository) DeleteBOMLine(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bom_lines WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete bom line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: %w: bom line", shared.ErrNotFound)
	}
	return nil
}
