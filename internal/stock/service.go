package stock

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inventia-erp/inventia/internal/shared"
)

// AdjustInput is a manual stock correction request.
type AdjustInput struct {
	Kind  string `json:"kind"`
	ID    int64  `json:"id"`
	Delta int64  `json:"delta"`
	Note  string `json:"note"`
}

// Service exposes the ledger operations that stand on their own: manual
// corrections and journal listings. Order workflows use the Ledger primitives
// directly inside their own transactions.
type Service struct {
	repo   *Repository
	ledger Ledger
	logger *slog.Logger
	audit  *shared.AuditLogger
}

// NewService wires the stock service.
func NewService(repo *Repository, logger *slog.Logger, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, logger: logger, audit: audit}
}

// Adjust applies a signed manual correction to one target and journals it.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (Item, error) {
	kind, err := ParseKind(input.Kind)
	if err != nil {
		return Item{}, err
	}
	ref := TargetRef{Kind: kind, ID: input.ID}

	var item Item
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx *TxStore) error {
		var txErr error
		item, txErr = s.ledger.Adjust(ctx, tx, ref, input.Delta, RefDoc{Module: "stock", Note: input.Note})
		return txErr
	})
	if err != nil {
		return Item{}, err
	}

	s.logger.Info("stock adjusted", "target", ref.String(), "delta", input.Delta, "balance", item.OnHand)
	if s.audit != nil {
		if auditErr := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  shared.UserFromContext(ctx),
			Action:   "stock.adjust",
			Entity:   string(ref.Kind),
			EntityID: ref.ID,
			Meta:     map[string]any{"delta": input.Delta, "balance": item.OnHand, "note": input.Note},
		}); auditErr != nil {
			s.logger.Warn("audit record failed", "error", auditErr)
		}
	}
	return item, nil
}

// Movements lists journal entries matching the filter.
func (s *Service) Movements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if filter.Target.Kind != "" {
		if _, err := ParseKind(string(filter.Target.Kind)); err != nil {
			return nil, err
		}
		if filter.Target.ID <= 0 {
			return nil, fmt.Errorf("stock: %w: target id required with kind", shared.ErrInvalidInput)
		}
	}
	return s.repo.ListMovements(ctx, filter)
}
