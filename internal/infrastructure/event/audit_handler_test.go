package event

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditLogHandler_JournalPosted(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := NewAuditLogHandler(zap.New(core))

	entry, err := accounting.NewJournalEntry(uuid.New(), "JE000007", time.Now(), "Cash sale")
	require.NoError(t, err)
	event := accounting.NewJournalEntryPostedEvent(entry, decimal.NewFromInt(1000))

	require.NoError(t, handler.Handle(context.Background(), event))
	require.Equal(t, 1, logs.Len())

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, accounting.EventTypeJournalEntryPosted, fields["event_type"])
	assert.Equal(t, "JE000007", fields["entry_number"])
	assert.Equal(t, "1000.00", fields["amount"])
	assert.Equal(t, entry.TenantID.String(), fields["tenant_id"])
}

func TestAuditLogHandler_SubscribesToAll(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	core, logs := observer.New(zap.InfoLevel)
	bus.Subscribe(NewAuditLogHandler(zap.New(core)))

	require.NoError(t, bus.Publish(context.Background(),
		testutil.NewLedgerEvent("Anything", uuid.New()),
		testutil.NewLedgerEvent("Else", uuid.New())))
	assert.Equal(t, 2, logs.FilterMessage("Ledger event").Len())
}
