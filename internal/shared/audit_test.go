package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuditRecordValidatesEntry(t *testing.T) {
	logger := NewAuditLogger(nil)

	err := logger.Record(context.Background(), AuditLog{Entity: "purchase_order", EntityID: 1})
	require.Error(t, err)

	err = logger.Record(context.Background(), AuditLog{Action: "purchasing.receive", Entity: "purchase_order"})
	require.Error(t, err)

	var nilLogger *AuditLogger
	err = nilLogger.Record(context.Background(), AuditLog{Action: "x", Entity: "y", EntityID: 1})
	require.Error(t, err)
}
