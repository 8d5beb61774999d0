package stock

import (
	"fmt"
	"time"

	"github.com/inventia-erp/inventia/internal/shared"
)

// TargetKind enumerates the stockable entity kinds.
type TargetKind string

const (
	// KindRawMaterial targets a raw material.
	KindRawMaterial TargetKind = "RAW_MATERIAL"
	// KindResaleProduct targets a resale product.
	KindResaleProduct TargetKind = "RESALE_PRODUCT"
	// KindProductVariant targets a size/color variant of a manufactured product.
	KindProductVariant TargetKind = "PRODUCT_VARIANT"
)

// TargetRef is a tagged reference to exactly one stockable entity. Order lines
// store two nullable columns; the domain layer only ever sees this ref, so a
// both-set or neither-set line cannot propagate past decoding.
type TargetRef struct {
	Kind TargetKind `json:"kind"`
	ID   int64      `json:"id"`
}

func (r TargetRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Item is the ledger view of a stockable entity.
type Item struct {
	Ref    TargetRef
	Name   string
	OnHand int64
}

// MovementKind enumerates journal entry kinds.
type MovementKind string

const (
	// MovementIn records an inbound quantity.
	MovementIn MovementKind = "IN"
	// MovementOut records an outbound quantity.
	MovementOut MovementKind = "OUT"
	// MovementAdjust records a manual stock correction.
	MovementAdjust MovementKind = "ADJUST"
)

// Movement is one journal row in stock_movements.
type Movement struct {
	ID        int64
	Kind      MovementKind
	Target    TargetRef
	QtyDelta  int64
	Balance   int64
	RefModule string
	RefID     string
	Note      string
	CreatedAt time.Time
}

// RefDoc names the document a ledger mutation belongs to.
type RefDoc struct {
	Module string
	ID     string
	Note   string
}

// Demand is a planned decrement used for pre-validation.
type Demand struct {
	Target TargetRef
	Qty    int64
}

// MovementFilter filters journal listings.
type MovementFilter struct {
	Target TargetRef
	From   time.Time
	To     time.Time
	Limit  int
}

// InsufficientStockError reports a decrement that would take an item negative.
type InsufficientStockError struct {
	Item      string
	Target    TargetRef
	Required  int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: required %d, available %d", e.Item, e.Required, e.Available)
}

// Unwrap ties the error into the shared taxonomy.
func (e *InsufficientStockError) Unwrap() error {
	return shared.ErrInsufficientStock
}

// ErrInvalidQuantity indicates a non-positive amount.
var ErrInvalidQuantity = fmt.Errorf("stock: %w: quantity must be positive", shared.ErrInvalidInput)

// ErrUnknownTarget indicates an unsupported target kind.
var ErrUnknownTarget = fmt.Errorf("stock: %w: unknown target kind", shared.ErrInvalidInput)
