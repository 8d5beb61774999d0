package production

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inventia-erp/inventia/internal/bom"
	"github.com/inventia-erp/inventia/internal/platform/db"
	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
)

// SQLRepository persists production orders in PostgreSQL.
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

const orderQuery = `SELECT o.id, o.variant_id, p.name || ' ' || v.size || ' ' || v.color, v.product_id,
		o.qty, o.status, o.created_at, o.finished_at
	FROM production_orders o
	JOIN product_variants v ON v.id = o.variant_id
	JOIN manufactured_products p ON p.id = v.product_id`

// GetOrder loads one order with its variant name resolved.
func (r *SQLRepository) GetOrder(ctx context.Context, id int64) (Order, error) {
	var order Order
	err := r.pool.QueryRow(ctx, orderQuery+` WHERE o.id=$1`, id).
		Scan(&order.ID, &order.VariantID, &order.VariantName, &order.ProductID,
			&order.Qty, &order.Status, &order.CreatedAt, &order.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("production: %w: order %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return Order{}, fmt.Errorf("production: get order: %w", err)
	}
	return order, nil
}

// ListOrders loads all orders, newest first.
func (r *SQLRepository) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.pool.Query(ctx, orderQuery+` ORDER BY o.created_at DESC, o.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("production: list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var order Order
		if err := rows.Scan(&order.ID, &order.VariantID, &order.VariantName, &order.ProductID,
			&order.Qty, &order.Status, &order.CreatedAt, &order.FinishedAt); err != nil {
			return nil, fmt.Errorf("production: scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

type txRepo struct {
	*stock.TxStore
}

func (r *txRepo) InsertOrder(ctx context.Context, variantID, qty int64) (int64, error) {
	var id int64
	err := r.Tx().QueryRow(ctx, `INSERT INTO production_orders (variant_id, qty, status, created_at)
		VALUES ($1, $2, $3, NOW()) RETURNING id`, variantID, qty, StatusInProgress).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, fmt.Errorf("production: %w: variant %d", shared.ErrNotFound, variantID)
		}
		return 0, fmt.Errorf("production: insert order: %w", err)
	}
	return id, nil
}

func (r *txRepo) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	var order Order
	err := r.Tx().QueryRow(ctx, `SELECT o.id, o.variant_id, v.product_id, o.qty, o.status, o.created_at, o.finished_at
		FROM production_orders o
		JOIN product_variants v ON v.id = o.variant_id
		WHERE o.id=$1 FOR UPDATE OF o`, id).
		Scan(&order.ID, &order.VariantID, &order.ProductID, &order.Qty, &order.Status, &order.CreatedAt, &order.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("production: %w: order %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return Order{}, fmt.Errorf("production: get order for update: %w", err)
	}
	return order, nil
}

func (r *txRepo) SetStatus(ctx context.Context, id int64, status string, finishedAt *time.Time) error {
	tag, err := r.Tx().Exec(ctx, `UPDATE production_orders SET status=$2, finished_at=$3 WHERE id=$1`,
		id, status, finishedAt)
	if err != nil {
		return fmt.Errorf("production: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("production: %w: order %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *txRepo) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := r.Tx().Exec(ctx, `DELETE FROM production_orders WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("production: delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("production: %w: order %d", shared.ErrNotFound, id)
	}
	return nil
}

// BOMLines loads the product's bill with material names inside the transaction.
func (r *txRepo) BOMLines(ctx context.Context, productID int64) ([]bom.Line, error) {
	rows, err := r.Tx().Query(ctx, `SELECT b.id, b.product_id, b.material_id, m.name, b.qty_per_unit
		FROM bom_lines b JOIN raw_materials m ON m.id = b.material_id
		WHERE b.product_id=$1 ORDER BY b.id`, productID)
	if err != nil {
		return nil, fmt.Errorf("production: list bom lines: %w", err)
	}
	defer rows.Close()

	var lines []bom.Line
	for rows.Next() {
		var line bom.Line
		if err := rows.Scan(&line.ID, &line.ProductID, &line.MaterialID, &line.MaterialName, &line.QtyPerUnit); err != nil {
			return nil, fmt.Errorf("production: scan bom line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
