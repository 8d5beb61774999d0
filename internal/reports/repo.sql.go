package reports

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the report queries against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository bound to the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SalesTotals sums revenue and counts orders, RETURNED excluded.
func (r *Repository) SalesTotals(ctx context.Context) (float64, int64, error) {
	var netSales float64
	var orders int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(l.qty * l.unit_price), 0), COUNT(DISTINCT o.id)
		FROM sales_orders o
		LEFT JOIN sales_order_lines l ON l.order_id = o.id
		WHERE o.status <> 'RETURNED'`).Scan(&netSales, &orders)
	if err != nil {
		return 0, 0, fmt.Errorf("reports: sales totals: %w", err)
	}
	return netSales, orders, nil
}

// SalesByChannel groups revenue per channel, RETURNED excluded. Channels
// without sales appear with zero figures.
func (r *Repository) SalesByChannel(ctx context.Context) ([]ChannelSales, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id, c.name,
			COUNT(DISTINCT o.id) FILTER (WHERE o.status <> 'RETURNED'),
			COALESCE(SUM(l.qty * l.unit_price) FILTER (WHERE o.status <> 'RETURNED'), 0)
		FROM sales_channels c
		LEFT JOIN sales_orders o ON o.channel_id = c.id
		LEFT JOIN sales_order_lines l ON l.order_id = o.id
		GROUP BY c.id, c.name
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("reports: sales by channel: %w", err)
	}
	defer rows.Close()

	var channels []ChannelSales
	for rows.Next() {
		var c ChannelSales
		if err := rows.Scan(&c.ChannelID, &c.ChannelName, &c.Orders, &c.Revenue); err != nil {
			return nil, fmt.Errorf("reports: scan channel sales: %w", err)
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

// CountPendingPurchaseOrders counts orders still in REQUESTED.
func (r *Repository) CountPendingPurchaseOrders(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders WHERE status='REQUESTED'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("reports: count pending purchase orders: %w", err)
	}
	return count, nil
}

// CountActiveProductionOrders counts runs still in IN_PROGRESS.
func (r *Repository) CountActiveProductionOrders(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM production_orders WHERE status='IN_PROGRESS'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("reports: count active production orders: %w", err)
	}
	return count, nil
}

// LowStock lists stockable entities at or under the threshold.
func (r *Repository) LowStock(ctx context.Context, threshold int64) ([]LowStockItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT 'RAW_MATERIAL', id, name, on_hand FROM raw_materials WHERE on_hand <= $1
		UNION ALL
		SELECT 'RESALE_PRODUCT', id, name, on_hand FROM resale_products WHERE on_hand <= $1
		UNION ALL
		SELECT 'PRODUCT_VARIANT', v.id, p.name || ' ' || v.size || ' ' || v.color, v.on_hand
		FROM product_variants v JOIN manufactured_products p ON p.id = v.product_id
		WHERE v.on_hand <= $1
		ORDER BY 4, 3`, threshold)
	if err != nil {
		return nil, fmt.Errorf("reports: low stock: %w", err)
	}
	defer rows.Close()

	var items []LowStockItem
	for rows.Next() {
		var item LowStockItem
		if err := rows.Scan(&item.Kind, &item.ID, &item.Name, &item.OnHand); err != nil {
			return nil, fmt.Errorf("reports: scan low stock item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
