// Package listings presents sellable items as one marketplace-facing view and
// simulates publishing them to an external marketplace.
package listings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
)

// Listing is the marketplace view of a sellable item: a product variant or a
// resale product, addressed by a composite key.
type Listing struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Stock     int64   `json:"stock"`
	ListingID *string `json:"listing_id,omitempty"`
}

const (
	variantPrefix = "var-"
	resalePrefix  = "res-"
)

// Key composes the listing key for a stock target.
func Key(ref stock.TargetRef) string {
	switch ref.Kind {
	case stock.KindProductVariant:
		return variantPrefix + strconv.FormatInt(ref.ID, 10)
	case stock.KindResaleProduct:
		return resalePrefix + strconv.FormatInt(ref.ID, 10)
	default:
		return ""
	}
}

// ParseKey resolves a composite key back to a stock target.
func ParseKey(key string) (stock.TargetRef, error) {
	var kind stock.TargetKind
	var raw string
	switch {
	case strings.HasPrefix(key, variantPrefix):
		kind, raw = stock.KindProductVariant, strings.TrimPrefix(key, variantPrefix)
	case strings.HasPrefix(key, resalePrefix):
		kind, raw = stock.KindResaleProduct, strings.TrimPrefix(key, resalePrefix)
	default:
		return stock.TargetRef{}, fmt.Errorf("listings: %w: bad key %q", shared.ErrInvalidInput, key)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return stock.TargetRef{}, fmt.Errorf("listings: %w: bad key %q", shared.ErrInvalidInput, key)
	}
	return stock.TargetRef{Kind: kind, ID: id}, nil
}
