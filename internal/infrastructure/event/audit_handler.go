package event

import (
	"context"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"go.uber.org/zap"
)

// AuditLogHandler writes one structured log line per ledger event. It
// subscribes to every event and adds the fields an auditor searches by.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes returns nil so the handler receives all events
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *accounting.JournalEntryPostedEvent:
		fields = append(fields,
			zap.String("entry_number", e.EntryNumber),
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.String("posted_by", e.PostedBy.String()),
			zap.Int("accounts", len(e.AccountIDs)))
	case *accounting.JournalEntryReversedEvent:
		fields = append(fields,
			zap.String("entry_number", e.EntryNumber),
			zap.String("reversal_number", e.ReversalNumber))
	case *trade.DocumentStatusChangedEvent:
		fields = append(fields,
			zap.String("document_number", e.DocumentNumber),
			zap.String("from_status", string(e.FromStatus)),
			zap.String("to_status", string(e.ToStatus)),
			zap.String("outstanding", e.OutstandingAmount.StringFixed(2)))
	case *trade.PaymentAllocatedEvent:
		fields = append(fields,
			zap.String("document_id", e.DocumentID.String()),
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.String("unallocated", e.Unallocated.StringFixed(2)))
	case *trade.PaymentBouncedEvent:
		fields = append(fields, zap.Int("released_documents", len(e.DocumentIDs)))
	}

	h.logger.Info("Ledger event", fields...)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
