package sales

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

// SQLRepository persists sales orders and channels in PostgreSQL.
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

// CreateChannel stores a new channel.
func (r *SQLRepository) CreateChannel(ctx context.Context, name string) (Channel, error) {
	channel := Channel{Name: name}
	err := r.pool.QueryRow(ctx, `INSERT INTO sales_channels (name) VALUES ($1) RETURNING id`, name).
		Scan(&channel.ID)
	if err != nil {
		return Channel{}, fmt.Errorf("sales: create channel: %w", err)
	}
	return channel, nil
}

// ListChannels lists all channels by name.
func (r *SQLRepository) ListChannels(ctx context.Context) ([]Channel, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM sales_channels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sales: list channels: %w", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("sales: scan channel: %w", err)
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

// DeleteChannel removes a channel; orders referencing it block the delete.
func (r *SQLRepository) DeleteChannel(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sales_channels WHERE id=$1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("sales: %w: channel has orders attached", shared.ErrConflict)
		}
		return fmt.Errorf("sales: delete channel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales: %w: channel %d", shared.ErrNotFound, id)
	}
	return nil
}

const orderColumns = `o.id, o.channel_id, c.name, o.user_id, o.status, o.created_at`

// GetOrder loads one order aggregate with lines and resolved target names.
func (r *SQLRepository) GetOrder(ctx context.Context, id int64) (Order, error) {
	var order Order
	err := r.pool.QueryRow(ctx, `SELECT `+orderColumns+`
		FROM sales_orders o JOIN sales_channels c ON c.id = o.channel_id
		WHERE o.id=$1`, id).
		Scan(&order.ID, &order.ChannelID, &order.ChannelName, &order.UserID, &order.Status, &order.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("sales: %w: order %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return Order{}, fmt.Errorf("sales: get order: %w", err)
	}
	lines, err := queryLines(ctx, r.pool, id)
	if err != nil {
		return Order{}, err
	}
	order.Lines = lines
	order.Total = total(lines)
	return order, nil
}

// ListOrders loads all order aggregates, newest first.
func (r *SQLRepository) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+`
		FROM sales_orders o JOIN sales_channels c ON c.id = o.channel_id
		ORDER BY o.created_at DESC, o.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sales: list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var order Order
		if err := rows.Scan(&order.ID, &order.ChannelID, &order.ChannelName, &order.UserID, &order.Status, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("sales: scan order: %w", err)
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
		orders[i].Total = total(lines)
	}
	return orders, nil
}

func total(lines []Line) float64 {
	var sum float64
	for _, line := range lines {
		sum += float64(line.Qty) * line.UnitPrice
	}
	return sum
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q querier, orderID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT l.id, l.order_id, l.qty, l.unit_price, l.variant_id, l.resale_product_id,
			COALESCE(mp.name || ' ' || v.size || ' ' || v.color, p.name, '')
		FROM sales_order_lines l
		LEFT JOIN product_variants v ON v.id = l.variant_id
		LEFT JOIN manufactured_products mp ON mp.id = v.product_id
		LEFT JOIN resale_products p ON p.id = l.resale_product_id
		WHERE l.order_id=$1 ORDER BY l.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("sales: list lines: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var line Line
		var variantID, resaleID *int64
		if err := rows.Scan(&line.ID, &line.OrderID, &line.Qty, &line.UnitPrice, &variantID, &resaleID, &line.TargetName); err != nil {
			return nil, fmt.Errorf("sales: scan line: %w", err)
		}
		switch {
		case variantID != nil:
			line.Target = stock.TargetRef{Kind: stock.KindProductVariant, ID: *variantID}
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

func (r *txRepo) InsertOrder(ctx context.Context, channelID int64, userID *int64, status string) (int64, error) {
	var id int64
	err := r.Tx().QueryRow(ctx, `INSERT INTO sales_orders (channel_id, user_id, status, created_at)
		VALUES ($1, $2, $3, NOW()) RETURNING id`, channelID, userID, status).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, fmt.Errorf("sales: %w: channel %d", shared.ErrNotFound, channelID)
		}
		return 0, fmt.Errorf("sales: insert order: %w", err)
	}
	return id, nil
}

func (r *txRepo) InsertLine(ctx context.Context, line Line) (int64, error) {
	var variantID, resaleID *int64
	switch line.Target.Kind {
	case stock.KindProductVariant:
		variantID = &line.Target.ID
	case stock.KindResaleProduct:
		resaleID = &line.Target.ID
	default:
		return 0, fmt.Errorf("sales: %w: line target %q", shared.ErrInvalidInput, line.Target.Kind)
	}
	var id int64
	err := r.Tx().QueryRow(ctx, `INSERT INTO sales_order_lines (order_id, qty, unit_price, variant_id, resale_product_id)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		line.OrderID, line.Qty, line.UnitPrice, variantID, resaleID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("sales: insert line: %w", err)
	}
	return id, nil
}

func (r *txRepo) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	var order Order
	err := r.Tx().QueryRow(ctx, `SELECT id, channel_id, user_id, status, created_at
		FROM sales_orders WHERE id=$1 FOR UPDATE`, id).
		Scan(&order.ID, &order.ChannelID, &order.UserID, &order.Status, &order.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("sales: %w: order %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return Order{}, fmt.Errorf("sales: get order for update: %w", err)
	}
	lines, err := queryLines(ctx, r.Tx(), id)
	if err != nil {
		return Order{}, err
	}
	order.Lines = lines
	order.Total = total(lines)
	return order, nil
}

func (r *txRepo) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.Tx().Exec(ctx, `UPDATE sales_orders SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("sales: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales: %w: order %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *txRepo) DeleteOrder(ctx context.Context, id int64) error {
	// Lines cascade with the header.
	tag, err := r.Tx().Exec(ctx, `DELETE FROM sales_orders WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("sales: delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales: %w: order %d", shared.ErrNotFound, id)
	}
	return nil
}
