package accounting

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Metrics records ledger activity
type Metrics interface {
	RecordJournalPosted(ctx context.Context, tenantID uuid.UUID, lineCount int, amount decimal.Decimal)
	RecordPostingRejected(ctx context.Context, tenantID uuid.UUID, code string)
	RecordJournalReversed(ctx context.Context, tenantID uuid.UUID)
}

type noopMetrics struct{}

func (noopMetrics) RecordJournalPosted(context.Context, uuid.UUID, int, decimal.Decimal) {}
func (noopMetrics) RecordPostingRejected(context.Context, uuid.UUID, string)             {}
func (noopMetrics) RecordJournalReversed(context.Context, uuid.UUID)                     {}
