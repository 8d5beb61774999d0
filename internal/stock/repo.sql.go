package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inventia-erp/inventia/internal/platform/db"
	"github.com/inventia-erp/inventia/internal/shared"
)

// Repository provides ledger access over PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository bound to the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside a repeatable-read transaction with a TxStore bound to it.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx *TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxStore(tx))
	})
}

// ListMovements returns journal rows, newest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	query := `SELECT id, kind, target_kind, target_id, qty_delta, balance, ref_module, ref_id, note, created_at
		FROM stock_movements WHERE 1=1`
	args := []any{}
	idx := 1
	if filter.Target.Kind != "" {
		query += fmt.Sprintf(" AND target_kind=$%d AND target_id=$%d", idx, idx+1)
		args = append(args, string(filter.Target.Kind), filter.Target.ID)
		idx += 2
	}
	if !filter.From.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, filter.From)
		idx++
	}
	if !filter.To.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, filter.To)
		idx++
	}
	query += " ORDER BY created_at DESC, id DESC"
	query += fmt.Sprintf(" LIMIT $%d", idx)
	args = append(args, shared.ClampLimit(filter.Limit))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stock: list movements: %w", err)
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		var kind string
		if err := rows.Scan(&m.ID, &m.Kind, &kind, &m.Target.ID, &m.QtyDelta, &m.Balance, &m.RefModule, &m.RefID, &m.Note, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("stock: scan movement: %w", err)
		}
		m.Target.Kind = TargetKind(kind)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// TxStore implements TxLedger over a live pgx transaction. Order modules embed
// it in their own transactional repositories so stock rows and order rows
// commit together.
type TxStore struct {
	tx pgx.Tx
}

// NewTxStore binds a TxStore to the given transaction.
func NewTxStore(tx pgx.Tx) *TxStore {
	return &TxStore{tx: tx}
}

// Tx exposes the underlying transaction for callers that extend the store.
func (s *TxStore) Tx() pgx.Tx {
	return s.tx
}

// GetItemForUpdate loads the target row with a row lock held until commit.
func (s *TxStore) GetItemForUpdate(ctx context.Context, ref TargetRef) (Item, error) {
	var query string
	switch ref.Kind {
	case KindRawMaterial:
		query = `SELECT id, name, on_hand FROM raw_materials WHERE id=$1 FOR UPDATE`
	case KindResaleProduct:
		query = `SELECT id, name, on_hand FROM resale_products WHERE id=$1 FOR UPDATE`
	case KindProductVariant:
		query = `SELECT v.id, p.name || ' ' || v.size || ' ' || v.color, v.on_hand
			FROM product_variants v
			JOIN manufactured_products p ON p.id = v.product_id
			WHERE v.id=$1 FOR UPDATE OF v`
	default:
		return Item{}, fmt.Errorf("%w: %q", ErrUnknownTarget, ref.Kind)
	}

	item := Item{Ref: ref}
	err := s.tx.QueryRow(ctx, query, ref.ID).Scan(&item.Ref.ID, &item.Name, &item.OnHand)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, fmt.Errorf("stock: %w: %s", shared.ErrNotFound, ref)
	}
	if err != nil {
		return Item{}, fmt.Errorf("stock: get %s: %w", ref, err)
	}
	return item, nil
}

// SetOnHand writes the new on-hand quantity for the target.
func (s *TxStore) SetOnHand(ctx context.Context, ref TargetRef, qty int64) error {
	var query string
	switch ref.Kind {
	case KindRawMaterial:
		query = `UPDATE raw_materials SET on_hand=$2 WHERE id=$1`
	case KindResaleProduct:
		query = `UPDATE resale_products SET on_hand=$2 WHERE id=$1`
	case KindProductVariant:
		query = `UPDATE product_variants SET on_hand=$2 WHERE id=$1`
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTarget, ref.Kind)
	}
	tag, err := s.tx.Exec(ctx, query, ref.ID, qty)
	if err != nil {
		return fmt.Errorf("stock: set on-hand %s: %w", ref, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stock: %w: %s", shared.ErrNotFound, ref)
	}
	return nil
}

// InsertMovement appends a journal row.
func (s *TxStore) InsertMovement(ctx context.Context, m Movement) error {
	_, err := s.tx.Exec(ctx, `INSERT INTO stock_movements (kind, target_kind, target_id, qty_delta, balance, ref_module, ref_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		string(m.Kind), string(m.Target.Kind), m.Target.ID, m.QtyDelta, m.Balance, m.RefModule, m.RefID, m.Note)
	if err != nil {
		return fmt.Errorf("stock: insert movement: %w", err)
	}
	return nil
}
