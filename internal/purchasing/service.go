package purchasing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/inventia-erp/inventia/internal/shared"
	"github.com/inventia-erp/inventia/internal/stock"
)

// TxRepository is the transactional surface of the workflow. It carries the
// stock ledger port so order rows and stock rows commit together.
type TxRepository interface {
	stock.TxLedger
	InsertOrder(ctx context.Context, supplierID int64, status string) (int64, error)
	InsertLine(ctx context.Context, line Line) (int64, error)
	GetOrderForUpdate(ctx context.Context, id int64) (Order, error)
	SetStatus(ctx context.Context, id int64, status string) error
	DeleteOrder(ctx context.Context, id int64) error
}

// Repository provides purchase order persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
}

// Service implements the purchase order workflow.
type Service struct {
	repo        Repository
	ledger      stock.Ledger
	logger      *slog.Logger
	audit       *shared.AuditLogger
	idempotency *shared.IdempotencyStore
}

// NewService wires the purchasing service.
func NewService(repo Repository, logger *slog.Logger, audit *shared.AuditLogger, idempotency *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, logger: logger, audit: audit, idempotency: idempotency}
}

// Create stores a new order in REQUESTED. Stock does not move until the order
// is received.
func (s *Service) Create(ctx context.Context, input CreateInput) (Order, error) {
	if input.SupplierID <= 0 {
		return Order{}, fmt.Errorf("purchasing: %w: supplier id required", shared.ErrInvalidInput)
	}
	if len(input.Lines) == 0 {
		return Order{}, fmt.Errorf("purchasing: %w: at least one line required", shared.ErrInvalidInput)
	}
	lines := make([]Line, 0, len(input.Lines))
	for _, in := range input.Lines {
		if in.Qty <= 0 {
			return Order{}, fmt.Errorf("purchasing: %w: line quantity must be positive", shared.ErrInvalidInput)
		}
		if in.UnitCost < 0 {
			return Order{}, fmt.Errorf("purchasing: %w: unit cost cannot be negative", shared.ErrInvalidInput)
		}
		ref, err := in.TargetRef()
		if err != nil {
			return Order{}, err
		}
		lines = append(lines, Line{Qty: in.Qty, UnitCost: in.UnitCost, Target: ref})
	}

	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertOrder(ctx, input.SupplierID, StatusRequested)
		if err != nil {
			return err
		}
		for _, line := range lines {
			// Existence check; no quantity moves on create.
			if _, err := tx.GetItemForUpdate(ctx, line.Target); err != nil {
				return err
			}
			line.OrderID = id
			if _, err := tx.InsertLine(ctx, line); err != nil {
				return err
			}
		}
		orderID = id
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Info("purchase order created", "order_id", orderID, "supplier_id", input.SupplierID, "lines", len(lines))
	s.recordAudit(ctx, "purchasing.create", orderID, map[string]any{"lines": len(lines)})
	return s.repo.GetOrder(ctx, orderID)
}

// Receive moves REQUESTED to RECEIVED and books every line into stock. An
// idempotency key, when supplied, guards against double delivery.
func (s *Service) Receive(ctx context.Context, id int64, idempotencyKey string) (Order, error) {
	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "purchasing.receive"); err != nil {
			return Order{}, err
		}
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transitions.Check(order.Status, StatusReceived); err != nil {
			return fmt.Errorf("purchasing: %w", err)
		}
		doc := stock.RefDoc{Module: "purchasing", ID: strconv.FormatInt(id, 10)}
		for _, line := range order.Lines {
			if _, err := s.ledger.Increase(ctx, tx, line.Target, line.Qty, doc); err != nil {
				return err
			}
		}
		return tx.SetStatus(ctx, id, StatusReceived)
	})
	if err != nil {
		if idempotencyKey != "" && s.idempotency != nil {
			if delErr := s.idempotency.Delete(ctx, idempotencyKey); delErr != nil {
				s.logger.Warn("idempotency rollback failed", "key", idempotencyKey, "error", delErr)
			}
		}
		return Order{}, err
	}

	s.logger.Info("purchase order received", "order_id", id)
	s.recordAudit(ctx, "purchasing.receive", id, nil)
	return s.repo.GetOrder(ctx, id)
}

// Reopen moves RECEIVED back to REQUESTED, taking every line back out of
// stock. All lines are validated before any quantity moves; stock that was
// already consumed downstream aborts the whole transition.
func (s *Service) Reopen(ctx context.Context, id int64) (Order, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transitions.Check(order.Status, StatusRequested); err != nil {
			return fmt.Errorf("purchasing: %w", err)
		}
		if err := s.reverseLines(ctx, tx, order, "reopen"); err != nil {
			return err
		}
		return tx.SetStatus(ctx, id, StatusRequested)
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Info("purchase order reopened", "order_id", id)
	s.recordAudit(ctx, "purchasing.reopen", id, nil)
	return s.repo.GetOrder(ctx, id)
}

// Delete removes the order and its lines. A RECEIVED order is reversed out of
// stock first; the delete fails when its goods were already consumed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == StatusReceived {
			if err := s.reverseLines(ctx, tx, order, "delete"); err != nil {
				return err
			}
		}
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("purchase order deleted", "order_id", id)
	s.recordAudit(ctx, "purchasing.delete", id, nil)
	return nil
}

// Get loads one order aggregate.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// List loads all order aggregates, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.repo.ListOrders(ctx)
}

func (s *Service) reverseLines(ctx context.Context, tx TxRepository, order Order, action string) error {
	demands := make([]stock.Demand, 0, len(order.Lines))
	for _, line := range order.Lines {
		demands = append(demands, stock.Demand{Target: line.Target, Qty: line.Qty})
	}
	if err := s.ledger.ValidateDecrease(ctx, tx, demands); err != nil {
		return fmt.Errorf("purchasing: stock already consumed: %w", err)
	}
	doc := stock.RefDoc{Module: "purchasing", ID: strconv.FormatInt(order.ID, 10), Note: action}
	for _, line := range order.Lines {
		if _, err := s.ledger.Decrease(ctx, tx, line.Target, line.Qty, doc); err != nil {
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
		Entity:   "purchase_order",
		EntityID: orderID,
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
