package purchasing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inventia-erp/inventia/internal/platform/db"
	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
)

// SQLRepository persists purchase orders in PostgreSQL.
type SQLRepository struct {
	pool *pgxpool.Pool
}

// NewSQLRepository returns a repository bound to the pool.
func NewSQLRepository(pool *pgxpool.Pool) *SQLRepository {
	return &SQLRepository{pool: pool}
}

// WithTx runs fn inside a repeatable-read transaction.
func (r *SQLRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{TxStore: stock.NewTxStore(tx)})
	})
}

const orderColumns = `o.id, o.supplier_id, s.name, o.status, o.created_at`

// GetOrder loads one order aggregate with lines and resolved target names.
func (r *SQLRepository) GetOrder(ctx context.Context, id int64) (Order, error) {
	var order Order
	err := r.pool.QueryRow(ctx, `SELECT `+orderColumns+`
		FROM purchase_orders o JOIN suppliers s ON s.id = o.supplier_id
		WHERE o.id=$1`, id).
		Scan(&order.ID, &order.SupplierID, &order.SupplierName, &order.Status, &order.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("purchasing: %w: order %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return Order{}, fmt.Errorf("purchasing: get order: %w", err)
	}
	lines, err := queryLines(ctx, r.pool, id)
	if err != nil {
		return Order{}, err
	}
	order.Lines = lines
	return order, nil
}

// ListOrders loads all order aggregates, newest first.
func (r *SQLRepository) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+`
		FROM purchase_orders o JOIN suppliers s ON s.id = o.supplier_id
		ORDER BY o.created_at DESC, o.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("purchasing: list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var order Order
		if err := rows.Scan(&order.ID, &order.SupplierID, &order.SupplierName, &order.Status, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("purchasing: scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		lines, err := queryLines(ctx, r.pool, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}
	return orders, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q querier, orderID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT l.id, l.order_id, l.qty, l.unit_cost, l.material_id, l.resale_product_id,
			COALESCE(m.name, p.name, '')
		FROM purchase_order_lines l
		LEFT JOIN raw_materials m ON m.id = l.material_id
		LEFT JOIN resale_products p ON p.id = l.resale_product_id
		WHERE l.order_id=$1 ORDER BY l.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("purchasing: list lines: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var line Line
		var materialID, resaleID *int64
		if err := rows.Scan(&line.ID, &line.OrderID, &line.Qty, &line.UnitCost, &materialID, &resaleID, &line.TargetName); err != nil {
			return nil, fmt.Errorf("purchasing: scan line: %w", err)
		}
		switch {
		case materialID != nil:
			line.Target = stock.TargetRef{Kind: stock.KindRawMaterial, ID: *materialID}
		case resaleID != nil:
			line.Target = stock.TargetRef{Kind: stock.KindResaleProduct, ID: *resaleID}
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

type txRepo struct {
	*stock.TxStore
}

func (r *txRepo) InsertOrder(ctx context.Context, supplierID int64, status string) (int64, error) {
	var id int64
	err := r.Tx().QueryRow(ctx, `INSERT INTO purchase_orders (supplier_id, status, created_at)
		VALUES ($1, $2, NOW()) RETURNING id`, supplierID, status).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, fmt.Errorf("purchasing: %w: supplier %d", shared.ErrNotFound, supplierID)
		}
		return 0, fmt.Errorf("purchasing: insert order: %w", err)
	}
	return id, nil
}

func (r *txRepo) InsertLine(ctx context.Context, line Line) (int64, error) {
	var materialID, resaleID *int64
	switch line.Target.Kind {
	case stock.KindRawMaterial:
		materialID = &line.Target.ID
	case stock.KindResaleProduct:
		resaleID = &line.Target.ID
	default:
		return 0, fmt.Errorf("purchasing: %w: line target %q", shared.ErrInvalidInput, line.Target.Kind)
	}
	var id int64
	err := r.Tx().QueryRow(ctx, `INSERT INTO purchase_order_lines (order_id, qty, unit_cost, material_id, resale_product_id)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		line.OrderID, line.Qty, line.UnitCost, materialID, resaleID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("purchasing: insert line: %w", err)
	}
	return id, nil
}

func (r *txRepo) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	var order Order
	err := r.Tx().QueryRow(ctx, `SELECT id, supplier_id, status, created_at
		FROM purchase_orders WHERE id=$1 FOR UPDATE`, id).
		Scan(&order.ID, &order.SupplierID, &order.Status, &order.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("purchasing: %w: order %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return Order{}, fmt.Errorf("purchasing: get order for update: %w", err)
	}
	lines, err := queryLines(ctx, r.Tx(), id)
	if err != nil {
		return Order{}, err
	}
	order.Lines = lines
	return order, nil
}

func (r *txRepo) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.Tx().Exec(ctx, `UPDATE purchase_orders SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("purchasing: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchasing: %w: order %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *txRepo) DeleteOrder(ctx context.Context, id int64) error {
	// Lines cascade with the header.
	tag, err := r.Tx().Exec(ctx, `DELETE FROM purchase_orders WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("purchasing: delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchasing: %w: order %d", shared.ErrNotFound, id)
	}
	return nil
}
