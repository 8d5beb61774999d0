package stock

import (
	"context"
	"fmt"
)

// TxLedger exposes the stock mutations available inside a transaction. Order
// workflows obtain an implementation bound to their own database transaction
// so stock and order state always commit or roll back together.
type TxLedger interface {
	GetItemForUpdate(ctx context.Context, ref TargetRef) (Item, error)
	SetOnHand(ctx context.Context, ref TargetRef, qty int64) error
	InsertMovement(ctx context.Context, movement Movement) error
}

// Ledger implements the increment/decrement primitives over a TxLedger. All
// stock mutation in the system goes through these two calls, which keep the
// on-hand quantity non-negative and journal every change.
type Ledger struct{}

// Increase adds qty to the target's on-hand quantity.
func (Ledger) Increase(ctx context.Context, tx TxLedger, ref TargetRef, qty int64, doc RefDoc) (Item, error) {
	if qty <= 0 {
		return Item{}, ErrInvalidQuantity
	}
	item, err := tx.GetItemForUpdate(ctx, ref)
	if err != nil {
		return Item{}, err
	}
	item.OnHand += qty
	if err := tx.SetOnHand(ctx, ref, item.OnHand); err != nil {
		return Item{}, err
	}
	if err := tx.InsertMovement(ctx, Movement{
		Kind:      MovementIn,
		Target:    ref,
		QtyDelta:  qty,
		Balance:   item.OnHand,
		RefModule: doc.Module,
		RefID:     doc.ID,
		Note:      doc.Note,
	}); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Decrease subtracts qty from the target's on-hand quantity. It fails with
// InsufficientStockError, leaving the item untouched, when on-hand < qty.
func (Ledger) Decrease(ctx context.Context, tx TxLedger, ref TargetRef, qty int64, doc RefDoc) (Item, error) {
	if qty <= 0 {
		return Item{}, ErrInvalidQuantity
	}
	item, err := tx.GetItemForUpdate(ctx, ref)
	if err != nil {
		return Item{}, err
	}
	if item.OnHand < qty {
		return Item{}, &InsufficientStockError{Item: item.Name, Target: ref, Required: qty, Available: item.OnHand}
	}
	item.OnHand -= qty
	if err := tx.SetOnHand(ctx, ref, item.OnHand); err != nil {
		return Item{}, err
	}
	if err := tx.InsertMovement(ctx, Movement{
		Kind:      MovementOut,
		Target:    ref,
		QtyDelta:  -qty,
		Balance:   item.OnHand,
		RefModule: doc.Module,
		RefID:     doc.ID,
		Note:      doc.Note,
	}); err != nil {
		return Item{}, err
	}
	return item, nil
}

// ValidateDecrease checks every demand before anything is applied. Demands
// against the same target are summed first, so a plan that passes validation
// cannot fail while being applied. Row locks acquired here are held until the
// transaction ends.
func (Ledger) ValidateDecrease(ctx context.Context, tx TxLedger, demands []Demand) error {
	totals := make(map[TargetRef]int64, len(demands))
	order := make([]TargetRef, 0, len(demands))
	for _, d := range demands {
		if d.Qty <= 0 {
			return ErrInvalidQuantity
		}
		if _, ok := totals[d.Target]; !ok {
			order = append(order, d.Target)
		}
		totals[d.Target] += d.Qty
	}
	for _, ref := range order {
		item, err := tx.GetItemForUpdate(ctx, ref)
		if err != nil {
			return err
		}
		if item.OnHand < totals[ref] {
			return &InsufficientStockError{Item: item.Name, Target: ref, Required: totals[ref], Available: item.OnHand}
		}
	}
	return nil
}

// Adjust applies a manual correction, positive or negative. Negative
// corrections are subject to the same non-negativity guard as Decrease.
func (Ledger) Adjust(ctx context.Context, tx TxLedger, ref TargetRef, delta int64, doc RefDoc) (Item, error) {
	if delta == 0 {
		return Item{}, ErrInvalidQuantity
	}
	item, err := tx.GetItemForUpdate(ctx, ref)
	if err != nil {
		return Item{}, err
	}
	newQty := item.OnHand + delta
	if newQty < 0 {
		return Item{}, &InsufficientStockError{Item: item.Name, Target: ref, Required: -delta, Available: item.OnHand}
	}
	item.OnHand = newQty
	if err := tx.SetOnHand(ctx, ref, item.OnHand); err != nil {
		return Item{}, err
	}
	if err := tx.InsertMovement(ctx, Movement{
		Kind:      MovementAdjust,
		Target:    ref,
		QtyDelta:  delta,
		Balance:   item.OnHand,
		RefModule: doc.Module,
		RefID:     doc.ID,
		Note:      doc.Note,
	}); err != nil {
		return Item{}, err
	}
	return item, nil
}

// ParseKind validates a kind supplied by a caller.
func ParseKind(value string) (TargetKind, error) {
	switch TargetKind(value) {
	case KindRawMaterial, KindResaleProduct, KindProductVariant:
		return TargetKind(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTarget, value)
	}
}
