// Package production implements the production order workflow. Finishing an
// order consumes raw materials per the product's bill of materials and books
// the produced variant into stock; reverting undoes both sides.
package production

import (
	"time"
)

const (
	// StatusInProgress marks a production run that has not consumed anything yet.
	StatusInProgress = "IN_PROGRESS"
	// StatusFinished marks a run whose materials were consumed and output booked.
	StatusFinished = "FINISHED"
)

// Order is a production order for one variant.
type Order struct {
	ID          int64      `json:"id"`
	VariantID   int64      `json:"variant_id"`
	VariantName string     `json:"variant_name,omitempty"`
	ProductID   int64      `json:"product_id"`
	Qty         int64      `json:"qty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// CreateInput is a new production order request.
type CreateInput struct {
	VariantID int64 `json:"variant_id" validate:"required,gt=0"`
	Qty       int64 `json:"qty" validate:"required,gt=0"`
}
