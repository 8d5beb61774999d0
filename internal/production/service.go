package production

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/inventia-erp/inventia/internal/bom"
	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
)

var transitions = shared.Transitions{
	StatusInProgress: {StatusFinished},
	StatusFinished:   {StatusInProgress},
}

// TxRepository is the transactional surface of the workflow: ledger access,
// BOM lines and the order rows, all on one transaction.
type TxRepository interface {
	stock.TxLedger
	bom.LineSource
	InsertOrder(ctx context.Context, variantID, qty int64) (int64, error)
	GetOrderForUpdate(ctx context.Context, id int64) (Order, error)
	SetStatus(ctx context.Context, id int64, status string, finishedAt *time.Time) error
	DeleteOrder(ctx context.Context, id int64) error
}

// Repository provides production order persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
}

// Service implements the production order workflow.
type Service struct {
	repo   Repository
	ledger stock.Ledger
	logger *slog.Logger
	audit  *shared.AuditLogger
}

// NewService wires the production service.
func NewService(repo Repository, logger *slog.Logger, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, logger: logger, audit: audit}
}

// Create stores a new order in IN_PROGRESS. Nothing moves until Finish.
func (s *Service) Create(ctx context.Context, input CreateInput) (Order, error) {
	if input.VariantID <= 0 {
		return Order{}, fmt.Errorf("production: %w: variant id required", shared.ErrInvalidInput)
	}
	if input.Qty <= 0 {
		return Order{}, fmt.Errorf("production: %w: quantity must be positive", shared.ErrInvalidInput)
	}

	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		variantRef := stock.TargetRef{Kind: stock.KindProductVariant, ID: input.VariantID}
		if _, err := tx.GetItemForUpdate(ctx, variantRef); err != nil {
			return err
		}
		id, err := tx.InsertOrder(ctx, input.VariantID, input.Qty)
		if err != nil {
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Info("production order created", "order_id", orderID, "variant_id", input.VariantID, "qty", input.Qty)
	s.recordAudit(ctx, "production.create", orderID, map[string]any{"qty": input.Qty})
	return s.repo.GetOrder(ctx, orderID)
}

// Finish consumes the bill of materials and books the produced variant into
// stock. Every material requirement is validated before any quantity moves;
// one short material aborts the whole run.
func (s *Service) Finish(ctx context.Context, id int64) (Order, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transitions.Check(order.Status, StatusFinished); err != nil {
			return fmt.Errorf("production: %w", err)
		}
		requirements, err := bom.Consumption(ctx, tx, order.ProductID, order.Qty)
		if err != nil {
			return err
		}
		if err := s.ledger.ValidateDecrease(ctx, tx, bom.Demands(requirements)); err != nil {
			return err
		}
		doc := stock.RefDoc{Module: "production", ID: strconv.FormatInt(id, 10)}
		for _, req := range requirements {
			if _, err := s.ledger.Decrease(ctx, tx, req.Target, req.Qty, doc); err != nil {
				return err
			}
		}
		variantRef := stock.TargetRef{Kind: stock.KindProductVariant, ID: order.VariantID}
		if _, err := s.ledger.Increase(ctx, tx, variantRef, order.Qty, doc); err != nil {
			return err
		}
		now := time.Now()
		return tx.SetStatus(ctx, id, StatusFinished, &now)
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Info("production order finished", "order_id", id)
	s.recordAudit(ctx, "production.finish", id, nil)
	return s.repo.GetOrder(ctx, id)
}

// Revert moves FINISHED back to IN_PROGRESS: the produced variant comes back
// out of stock and the materials are restored by their resolved requirements.
// Output that was already sold or moved blocks the revert.
func (s *Service) Revert(ctx context.Context, id int64) (Order, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transitions.Check(order.Status, StatusInProgress); err != nil {
			return fmt.Errorf("production: %w", err)
		}
		doc := stock.RefDoc{Module: "production", ID: strconv.FormatInt(id, 10), Note: "revert"}
		variantRef := stock.TargetRef{Kind: stock.KindProductVariant, ID: order.VariantID}
		if _, err := s.ledger.Decrease(ctx, tx, variantRef, order.Qty, doc); err != nil {
			return fmt.Errorf("production: finished goods already sold or moved: %w", err)
		}
		requirements, err := bom.Consumption(ctx, tx, order.ProductID, order.Qty)
		if err != nil {
			return err
		}
		for _, req := range requirements {
			if _, err := s.ledger.Increase(ctx, tx, req.Target, req.Qty, doc); err != nil {
				return err
			}
		}
		return tx.SetStatus(ctx, id, StatusInProgress, nil)
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Info("production order reverted", "order_id", id)
	s.recordAudit(ctx, "production.revert", id, nil)
	return s.repo.GetOrder(ctx, id)
}

// Delete removes the order. A FINISHED order is reversed first when its output
// is still on hand; output already sold or moved is left as is and only the
// order row goes away.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == StatusFinished {
			if err := s.reverseIfPossible(ctx, tx, order); err != nil {
				return err
			}
		}
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("production order deleted", "order_id", id)
	s.recordAudit(ctx, "production.delete", id, nil)
	return nil
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// List loads all orders, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.repo.ListOrders(ctx)
}

func (s *Service) reverseIfPossible(ctx context.Context, tx TxRepository, order Order) error {
	variantRef := stock.TargetRef{Kind: stock.KindProductVariant, ID: order.VariantID}
	variant, err := tx.GetItemForUpdate(ctx, variantRef)
	if err != nil {
		return err
	}
	if variant.OnHand < order.Qty {
		// Output already sold or moved; delete the order without touching stock.
		s.logger.Warn("skipping stock reversal on delete", "order_id", order.ID, "on_hand", variant.OnHand, "qty", order.Qty)
		return nil
	}
	doc := stock.RefDoc{Module: "production", ID: strconv.FormatInt(order.ID, 10), Note: "delete"}
	if _, err := s.ledger.Decrease(ctx, tx, variantRef, order.Qty, doc); err != nil {
		return err
	}
	requirements, err := bom.Consumption(ctx, tx, order.ProductID, order.Qty)
	if err != nil {
		return err
	}
	for _, req := range requirements {
		if _, err := s.ledger.Increase(ctx, tx, req.Target, req.Qty, doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.UserFromContext(ctx),
		Action:   action,
		Entity:   "production_order",
		EntityID: orderID,
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
