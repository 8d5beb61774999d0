package listings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
)

// Repository reads the marketplace view from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository bound to the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const snapshotQuery = `
	SELECT 'var-' || v.id, p.name || ' ' || v.size || ' ' || v.color, p.sale_price, v.on_hand, v.listing_id
	FROM product_variants v JOIN manufactured_products p ON p.id = v.product_id
	UNION ALL
	SELECT 'res-' || r.id, r.name, r.sale_price, r.on_hand, r.listing_id
	FROM resale_products r
	ORDER BY 2`

// Snapshot lists every sellable item with its marketplace state.
func (r *Repository) Snapshot(ctx context.Context) ([]Listing, error) {
	rows, err := r.pool.Query(ctx, snapshotQuery)
	if err != nil {
		return nil, fmt.Errorf("listings: snapshot: %w", err)
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var l Listing
		if err := rows.Scan(&l.Key, &l.Name, &l.Price, &l.Stock, &l.ListingID); err != nil {
			return nil, fmt.Errorf("listings: scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Get loads the marketplace view of one item.
func (r *Repository) Get(ctx context.Context, ref stock.TargetRef) (Listing, error) {
	var query string
	switch ref.Kind {
	case stock.KindProductVariant:
		query = `SELECT 'var-' || v.id, p.name || ' ' || v.size || ' ' || v.color, p.sale_price, v.on_hand, v.listing_id
			FROM product_variants v JOIN manufactured_products p ON p.id = v.product_id WHERE v.id=$1`
	case stock.KindResaleProduct:
		query = `SELECT 'res-' || id, name, sale_price, on_hand, listing_id FROM resale_products WHERE id=$1`
	default:
		return Listing{}, fmt.Errorf("listings: %w: kind %q has no marketplace view", shared.ErrInvalidInput, ref.Kind)
	}

	var l Listing
	err := r.pool.QueryRow(ctx, query, ref.ID).Scan(&l.Key, &l.Name, &l.Price, &l.Stock, &l.ListingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Listing{}, fmt.Errorf("listings: %w: %s", shared.ErrNotFound, ref)
	}
	if err != nil {
		return Listing{}, fmt.Errorf("listings: get %s: %w", ref, err)
	}
	return l, nil
}

// SetListingID attaches or clears the marketplace listing id.
func (r *Repository) SetListingID(ctx context.Context, ref stock.TargetRef, listingID *string) error {
	var query string
	switch ref.Kind {
	case stock.KindProductVariant:
		query = `UPDATE product_variants SET listing_id=$2 WHERE id=$1`
	case stock.KindResaleProduct:
		query = `UPDATE resale_products SET listing_id=$2 WHERE id=$1`
	default:
		return fmt.Errorf("listings: %w: kind %q has no marketplace view", shared.ErrInvalidInput, ref.Kind)
	}
	tag, err := r.pool.Exec(ctx, query, ref.ID, listingID)
	if err != nil {
		return fmt.Errorf("listings: set listing id %s: %w", ref, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listings: %w: %s", shared.ErrNotFound, ref)
	}
	return nil
}
