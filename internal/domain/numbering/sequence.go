// Package numbering defines document number sequences.
package numbering

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// SequenceType identifies an independent number series within a tenant
type SequenceType string

const (
	SequenceJournalEntry    SequenceType = "journal_entry"
	SequenceSalesOrder      SequenceType = "sales_order"
	SequenceSalesInvoice    SequenceType = "sales_invoice"
	SequenceSalesPayment    SequenceType = "sales_payment"
	SequencePurchaseOrder   SequenceType = "purchase_order"
	SequencePurchaseBill    SequenceType = "purchase_bill"
	SequencePurchasePayment SequenceType = "purchase_payment"
)

var defaultPrefixes = map[SequenceType]string{
	SequenceJournalEntry:    "JE",
	SequenceSalesOrder:      "SO",
	SequenceSalesInvoice:    "SI",
	SequenceSalesPayment:    "SP",
	SequencePurchaseOrder:   "PO",
	SequencePurchaseBill:    "PB",
	SequencePurchasePayment: "PP",
}

// IsValid checks if the sequence type is known
func (t SequenceType) IsValid() bool {
	_, ok := defaultPrefixes[t]
	return ok
}

// String returns the string representation of SequenceType
func (t SequenceType) String() string {
	return string(t)
}

// DefaultPrefix returns the prefix used when the caller does not supply one
func (t SequenceType) DefaultPrefix() string {
	return defaultPrefixes[t]
}

// DefaultWidth is the zero-padded width of the numeric part of a document number
const DefaultWidth = 6

// ErrInvalidSequence is returned for unknown sequence types
var ErrInvalidSequence = shared.NewValidationError("INVALID_SEQUENCE", "Unknown sequence type")

// Format renders a document number as {prefix}{zero-padded n}.
// Numbers wider than width are rendered in full, never truncated.
func Format(prefix string, n int64, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}

// Counter atomically increments a tenant's sequence and returns the new value.
// Implementations must never hand the same value to two callers.
type Counter interface {
	Increment(ctx context.Context, tenantID uuid.UUID, sequenceType SequenceType) (int64, error)
}

// Generator produces formatted document numbers
type Generator interface {
	NextNumber(ctx context.Context, tenantID uuid.UUID, sequenceType SequenceType, prefix string) (string, error)
}
