package sales

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
	InsertOrder(ctx context.Context, channelID int64, userID *int64, status string) (int64, error)
	InsertLine(ctx context.Context, line Line) (int64, error)
	GetOrderForUpdate(ctx context.Context, id int64) (Order, error)
	SetStatus(ctx context.Context, id int64, status string) error
	DeleteOrder(ctx context.Context, id int64) error
}

// Repository provides sales order and channel persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	CreateChannel(ctx context.Context, name string) (Channel, error)
	ListChannels(ctx context.Context) ([]Channel, error)
	DeleteChannel(ctx context.Context, id int64) error
}

// Service implements the sales workflow.
type Service struct {
	repo   Repository
	ledger stock.Ledger
	logger *slog.Logger
	audit  *shared.AuditLogger
}

// NewService wires the sales service.
func NewService(repo Repository, logger *slog.Logger, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, logger: logger, audit: audit}
}

// CreateChannel stores a new sales channel.
func (s *Service) CreateChannel(ctx context.Context, name string) (Channel, error) {
	if name == "" {
		return Channel{}, fmt.Errorf("sales: %w: channel name required", shared.ErrInvalidInput)
	}
	return s.repo.CreateChannel(ctx, name)
}

// ListChannels lists all channels.
func (s *Service) ListChannels(ctx context.Context) ([]Channel, error) {
	return s.repo.ListChannels(ctx)
}

// DeleteChannel removes a channel; channels with orders attached are kept.
func (s *Service) DeleteChannel(ctx context.Context, id int64) error {
	return s.repo.DeleteChannel(ctx, id)
}

// Create validates every line against stock first, then books all of them out
// and stores the order. One short line means no stock moves at all. The
// requesting user, when authenticated, is attached to the order.
func (s *Service) Create(ctx context.Context, input CreateInput) (Order, error) {
	if input.ChannelID <= 0 {
		return Order{}, fmt.Errorf("sales: %w: channel id required", shared.ErrInvalidInput)
	}
	if len(input.Lines) == 0 {
		return Order{}, fmt.Errorf("sales: %w: at least one line required", shared.ErrInvalidInput)
	}
	status := input.Status
	if status == "" {
		status = StatusPaid
	}
	if status == StatusReturned {
		return Order{}, fmt.Errorf("sales: %w: cannot create an order as %s", shared.ErrInvalidInput, StatusReturned)
	}
	lines := make([]Line, 0, len(input.Lines))
	for _, in := range input.Lines {
		if in.Qty <= 0 {
			return Order{}, fmt.Errorf("sales: %w: line quantity must be positive", shared.ErrInvalidInput)
		}
		if in.UnitPrice < 0 {
			return Order{}, fmt.Errorf("sales: %w: unit price cannot be negative", shared.ErrInvalidInput)
		}
		ref, err := in.TargetRef()
		if err != nil {
			return Order{}, err
		}
		lines = append(lines, Line{Qty: in.Qty, UnitPrice: in.UnitPrice, Target: ref})
	}

	var userID *int64
	if id := shared.UserFromContext(ctx); id != 0 {
		userID = &id
	}

	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		demands := make([]stock.Demand, 0, len(lines))
		for _, line := range lines {
			demands = append(demands, stock.Demand{Target: line.Target, Qty: line.Qty})
		}
		if err := s.ledger.ValidateDecrease(ctx, tx, demands); err != nil {
			return err
		}
		id, err := tx.InsertOrder(ctx, input.ChannelID, userID, status)
		if err != nil {
			return err
		}
		doc := stock.RefDoc{Module: "sales", ID: strconv.FormatInt(id, 10)}
		for _, line := range lines {
			if _, err := s.ledger.Decrease(ctx, tx, line.Target, line.Qty, doc); err != nil {
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

	s.logger.Info("sales order created", "order_id", orderID, "channel_id", input.ChannelID, "lines", len(lines))
	s.recordAudit(ctx, "sales.create", orderID, map[string]any{"lines": len(lines), "status": status})
	return s.repo.GetOrder(ctx, orderID)
}

// Return books every line back into stock and marks the order RETURNED.
func (s *Service) Return(ctx context.Context, id int64) (Order, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == StatusReturned {
			return fmt.Errorf("sales: %w: already %s", shared.ErrInvalidTransition, StatusReturned)
		}
		doc := stock.RefDoc{Module: "sales", ID: strconv.FormatInt(id, 10), Note: "return"}
		for _, line := range order.Lines {
			if _, err := s.ledger.Increase(ctx, tx, line.Target, line.Qty, doc); err != nil {
				return err
			}
		}
		return tx.SetStatus(ctx, id, StatusReturned)
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Info("sales order returned", "order_id", id)
	s.recordAudit(ctx, "sales.return", id, nil)
	return s.repo.GetOrder(ctx, id)
}

// Reactivate takes a RETURNED order back to PAID, booking its lines out of
// stock again. All lines are validated before any quantity moves.
func (s *Service) Reactivate(ctx context.Context, id int64) (Order, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != StatusReturned {
			return fmt.Errorf("sales: %w: %s -> %s", shared.ErrInvalidTransition, order.Status, StatusPaid)
		}
		demands := make([]stock.Demand, 0, len(order.Lines))
		for _, line := range order.Lines {
			demands = append(demands, stock.Demand{Target: line.Target, Qty: line.Qty})
		}
		if err := s.ledger.ValidateDecrease(ctx, tx, demands); err != nil {
			return fmt.Errorf("sales: insufficient stock to reactivate: %w", err)
		}
		doc := stock.RefDoc{Module: "sales", ID: strconv.FormatInt(id, 10), Note: "reactivate"}
		for _, line := range order.Lines {
			if _, err := s.ledger.Decrease(ctx, tx, line.Target, line.Qty, doc); err != nil {
				return err
			}
		}
		return tx.SetStatus(ctx, id, StatusPaid)
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Info("sales order reactivated", "order_id", id)
	s.recordAudit(ctx, "sales.reactivate", id, nil)
	return s.repo.GetOrder(ctx, id)
}

// Delete removes the order. Open orders give their stock back first; a
// RETURNED order already did on return.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != StatusReturned {
			doc := stock.RefDoc{Module: "sales", ID: strconv.FormatInt(id, 10), Note: "delete"}
			for _, line := range order.Lines {
				if _, err := s.ledger.Increase(ctx, tx, line.Target, line.Qty, doc); err != nil {
					return err
				}
			}
		}
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("sales order deleted", "order_id", id)
	s.recordAudit(ctx, "sales.delete", id, nil)
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

func (s *Service) recordAudit(ctx context.Context, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.UserFromContext(ctx),
		Action:   action,
		Entity:   "sales_order",
		EntityID: orderID,
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
