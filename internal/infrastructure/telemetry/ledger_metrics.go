package telemetry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LedgerMetrics records posting and settlement activity. It satisfies the
// metrics ports of the accounting and trade application services.
type LedgerMetrics struct {
	journalsPosted     *Counter
	journalAmount      *AmountCounter
	journalLines       *Histogram
	postingsRejected   *Counter
	journalsReversed   *Counter
	documentsConfirmed *Counter
	documentAmount     *AmountCounter
	paymentsAllocated  *Counter
	allocatedAmount    *AmountCounter
	documentsOverdue   *Counter
}

// NewLedgerMetrics registers the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, errors.New("NewLedgerMetrics: meter cannot be nil")
	}

	m := &LedgerMetrics{}
	var err error
	if m.journalsPosted, err = NewCounter(meter, "ledger_journal_posted_total", "Journal entries posted", "{entry}"); err != nil {
		return nil, err
	}
	if m.journalAmount, err = NewAmountCounter(meter, "ledger_journal_posted_amount_total", "Debit total of posted journal entries"); err != nil {
		return nil, err
	}
	if m.journalLines, err = NewHistogram(meter, HistogramOpts{
		Name:        "ledger_journal_lines",
		Description: "Line count of posted journal entries",
		Unit:        "{line}",
		Boundaries:  []float64{2, 3, 4, 6, 10, 20, 50},
	}); err != nil {
		return nil, err
	}
	if m.postingsRejected, err = NewCounter(meter, "ledger_posting_rejected_total", "Posting attempts rejected by validation", "{entry}"); err != nil {
		return nil, err
	}
	if m.journalsReversed, err = NewCounter(meter, "ledger_journal_reversed_total", "Journal entries reversed", "{entry}"); err != nil {
		return nil, err
	}
	if m.documentsConfirmed, err = NewCounter(meter, "trade_document_confirmed_total", "Trade documents confirmed", "{document}"); err != nil {
		return nil, err
	}
	if m.documentAmount, err = NewAmountCounter(meter, "trade_document_confirmed_amount_total", "Grand total of confirmed trade documents"); err != nil {
		return nil, err
	}
	if m.paymentsAllocated, err = NewCounter(meter, "trade_payment_allocated_total", "Payment allocations applied", "{allocation}"); err != nil {
		return nil, err
	}
	if m.allocatedAmount, err = NewAmountCounter(meter, "trade_payment_allocated_amount_total", "Amount allocated from payments to documents"); err != nil {
		return nil, err
	}
	if m.documentsOverdue, err = NewCounter(meter, "trade_document_overdue_total", "Documents moved to OVERDUE", "{document}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordJournalPosted counts a posted entry with its line count and amount
func (m *LedgerMetrics) RecordJournalPosted(ctx context.Context, tenantID uuid.UUID, lineCount int, amount decimal.Decimal) {
	tenant := AttrTenantID.String(tenantID.String())
	m.journalsPosted.Inc(ctx, tenant)
	m.journalAmount.Add(ctx, amount.InexactFloat64(), tenant)
	m.journalLines.Record(ctx, float64(lineCount), tenant)
}

// RecordPostingRejected counts a rejected posting by error code
func (m *LedgerMetrics) RecordPostingRejected(ctx context.Context, tenantID uuid.UUID, code string) {
	m.postingsRejected.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrErrorCode.String(code))
}

// RecordJournalReversed counts a reversal
func (m *LedgerMetrics) RecordJournalReversed(ctx context.Context, tenantID uuid.UUID) {
	m.journalsReversed.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// RecordDocumentConfirmed counts a confirmed document and its total
func (m *LedgerMetrics) RecordDocumentConfirmed(ctx context.Context, tenantID uuid.UUID, kind string, total decimal.Decimal) {
	attrs := []attribute.KeyValue{AttrTenantID.String(tenantID.String()), AttrDocumentKind.String(kind)}
	m.documentsConfirmed.Inc(ctx, attrs...)
	m.documentAmount.Add(ctx, total.InexactFloat64(), attrs...)
}

// RecordPaymentAllocated counts an allocation and its amount
func (m *LedgerMetrics) RecordPaymentAllocated(ctx context.Context, tenantID uuid.UUID, side string, amount decimal.Decimal) {
	attrs := []attribute.KeyValue{AttrTenantID.String(tenantID.String()), AttrPaymentSide.String(side)}
	m.paymentsAllocated.Inc(ctx, attrs...)
	m.allocatedAmount.Add(ctx, amount.InexactFloat64(), attrs...)
}

// RecordDocumentsOverdue counts documents moved to OVERDUE in one sweep
func (m *LedgerMetrics) RecordDocumentsOverdue(ctx context.Context, tenantID uuid.UUID, count int) {
	if count <= 0 {
		return
	}
	m.documentsOverdue.Add(ctx, int64(count), AttrTenantID.String(tenantID.String()))
}
