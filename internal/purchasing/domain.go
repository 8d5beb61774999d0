// Package purchasing implements the purchase order workflow. Receiving an
// order books its lines into stock; reopening or deleting a received order
// books them back out.
package purchasing

import (
	"fmt"
	"time"

	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
)

const (
	// StatusRequested marks an order placed with the supplier, not yet received.
	StatusRequested = "REQUESTED"
	// StatusReceived marks an order whose goods are booked into stock.
	StatusReceived = "RECEIVED"
)

var transitions = shared.Transitions{
	StatusRequested: {StatusReceived},
	StatusReceived:  {StatusRequested},
}

// Order is a purchase order aggregate with its lines.
type Order struct {
	ID           int64     `json:"id"`
	SupplierID   int64     `json:"supplier_id"`
	SupplierName string    `json:"supplier_name"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	Lines        []Line    `json:"lines"`
}

// Line is one purchased position targeting a raw material or a resale product.
type Line struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	Qty        int64           `json:"qty"`
	UnitCost   float64         `json:"unit_cost"`
	Target     stock.TargetRef `json:"target"`
	TargetName string          `json:"target_name"`
}

// LineInput is the wire form of a line: exactly one of the two targets set.
type LineInput struct {
	Qty             int64   `json:"qty" validate:"required,gt=0"`
	UnitCost        float64 `json:"unit_cost" validate:"gte=0"`
	MaterialID      *int64  `json:"material_id"`
	ResaleProductID *int64  `json:"resale_product_id"`
}

// TargetRef resolves the input to a tagged target, rejecting lines with both
// or neither target set.
func (in LineInput) TargetRef() (stock.TargetRef, error) {
	switch {
	case in.MaterialID != nil && in.ResaleProductID != nil:
		return stock.TargetRef{}, fmt.Errorf("purchasing: %w: line targets both a material and a resale product", shared.ErrInvalidInput)
	case in.MaterialID != nil:
		return stock.TargetRef{Kind: stock.KindRawMaterial, ID: *in.MaterialID}, nil
	case in.ResaleProductID != nil:
		return stock.TargetRef{Kind: stock.KindResaleProduct, ID: *in.ResaleProductID}, nil
	default:
		return stock.TargetRef{}, fmt.Errorf("purchasing: %w: line targets neither a material nor a resale product", shared.ErrInvalidInput)
	}
}

// CreateInput is a new purchase order request.
type CreateInput struct {
	SupplierID int64       `json:"supplier_id" validate:"required,gt=0"`
	Lines      []LineInput `json:"lines" validate:"required,min=1,dive"`
}
