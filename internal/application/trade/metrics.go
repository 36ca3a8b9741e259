package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Metrics records trade business metrics
type Metrics interface {
	RecordDocumentConfirmed(ctx context.Context, tenantID uuid.UUID, kind string, total decimal.Decimal)
	RecordPaymentAllocated(ctx context.Context, tenantID uuid.UUID, side string, amount decimal.Decimal)
	RecordDocumentsOverdue(ctx context.Context, tenantID uuid.UUID, count int)
}

type noopMetrics struct{}

func (noopMetrics) RecordDocumentConfirmed(context.Context, uuid.UUID, string, decimal.Decimal) {}
func (noopMetrics) RecordPaymentAllocated(context.Context, uuid.UUID, string, decimal.Decimal)  {}
func (noopMetrics) RecordDocumentsOverdue(context.Context, uuid.UUID, int)                      {}
