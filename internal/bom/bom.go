// Package bom resolves bill-of-material consumption for production orders.
package bom

import (
	"context"

	"github.com/inventia-erp/inventia/internal/stock"
)

// Line is one bill-of-material entry for a manufactured product.
type Line struct {
	ID           int64
	ProductID    int64
	MaterialID   int64
	MaterialName string
	QtyPerUnit   float64
}

// Requirement is the resolved material quantity for a production run.
type Requirement struct {
	Target stock.TargetRef
	Name   string
	Qty    int64
}

// LineSource loads the BOM lines of a product, typically inside the caller's
// transaction.
type LineSource interface {
	BOMLines(ctx context.Context, productID int64) ([]Line, error)
}

// Explode resolves per-material requirements for producing qty units. The
// per-line result is truncated toward zero, so fractional remainders are not
// consumed; lines that truncate to zero are dropped.
func Explode(lines []Line, qty int64) []Requirement {
	requirements := make([]Requirement, 0, len(lines))
	for _, line := range lines {
		required := int64(line.QtyPerUnit * float64(qty))
		if required <= 0 {
			continue
		}
		requirements = append(requirements, Requirement{
			Target: stock.TargetRef{Kind: stock.KindRawMaterial, ID: line.MaterialID},
			Name:   line.MaterialName,
			Qty:    required,
		})
	}
	return requirements
}

// Consumption loads a product's BOM and explodes it for qty units. A product
// without BOM lines resolves to an empty plan; production then moves no
// materials.
func Consumption(ctx context.Context, src LineSource, productID, qty int64) ([]Requirement, error) {
	lines, err := src.BOMLines(ctx, productID)
	if err != nil {
		return nil, err
	}
	return Explode(lines, qty), nil
}

// Demands converts requirements into ledger demands for pre-validation.
func Demands(requirements []Requirement) []stock.Demand {
	demands := make([]stock.Demand, 0, len(requirements))
	for _, req := range requirements {
		demands = append(demands, stock.Demand{Target: req.Target, Qty: req.Qty})
	}
	return demands
}
