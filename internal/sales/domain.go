// Package sales implements sales channels and the sales order workflow.
// Creating an order books its lines out of stock; returning an order books
// them back in.
package sales

import (
	"fmt"
	"time"

	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
)

const (
	// StatusPaid is the default open state for a new order.
	StatusPaid = "PAID"
	// StatusReturned marks an order whose goods went back into stock.
	StatusReturned = "RETURNED"
)

// Channel is a sales outlet (marketplace, store, direct).
type Channel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Order is a sales order aggregate with its lines.
type Order struct {
	ID          int64     `json:"id"`
	ChannelID   int64     `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	UserID      *int64    `json:"user_id,omitempty"`
	Status      string    `json:"status"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
	Lines       []Line    `json:"lines"`
}

// Line is one sold position targeting a product variant or a resale product.
type Line struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	Qty        int64           `json:"qty"`
	UnitPrice  float64         `json:"unit_price"`
	Target     stock.TargetRef `json:"target"`
	TargetName string          `json:"target_name"`
}

// LineInput is the wire form of a line: exactly one of the two targets set.
type LineInput struct {
	Qty             int64   `json:"qty" validate:"required,gt=0"`
	UnitPrice       float64 `json:"unit_price" validate:"gte=0"`
	VariantID       *int64  `json:"variant_id"`
	ResaleProductID *int64  `json:"resale_product_id"`
}

// TargetRef resolves the input to a tagged target, rejecting lines with both
// or neither target set.
func (in LineInput) TargetRef() (stock.TargetRef, error) {
	switch {
	case in.VariantID != nil && in.ResaleProductID != nil:
		return stock.TargetRef{}, fmt.Errorf("sales: %w: line targets both a variant and a resale product", shared.ErrInvalidInput)
	case in.VariantID != nil:
		return stock.TargetRef{Kind: stock.KindProductVariant, ID: *in.VariantID}, nil
	case in.ResaleProductID != nil:
		return stock.TargetRef{Kind: stock.KindResaleProduct, ID: *in.ResaleProductID}, nil
	default:
		return stock.TargetRef{}, fmt.Errorf("sales: %w: line targets neither a variant nor a resale product", shared.ErrInvalidInput)
	}
}

// CreateInput is a new sales order request. Status is free form and defaults
// to PAID; RETURNED is reserved for the return workflow.
type CreateInput struct {
	ChannelID int64       `json:"channel_id" validate:"required,gt=0"`
	Status    string      `json:"status"`
	Lines     []LineInput `json:"lines" validate:"required,min=1,dive"`
}
