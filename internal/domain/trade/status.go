package trade

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentStatus represents the lifecycle state of an order, bill or invoice
type DocumentStatus string

const (
	StatusDraft       DocumentStatus = "DRAFT"
	StatusSent        DocumentStatus = "SENT"
	StatusConfirmed   DocumentStatus = "CONFIRMED"
	StatusDelivered   DocumentStatus = "DELIVERED"
	StatusReceived    DocumentStatus = "RECEIVED"
	StatusInvoiced    DocumentStatus = "INVOICED"
	StatusBilled      DocumentStatus = "BILLED"
	StatusPartialPaid DocumentStatus = "PARTIAL_PAID"
	StatusPaid        DocumentStatus = "PAID"
	StatusOverdue     DocumentStatus = "OVERDUE"
	StatusCancelled   DocumentStatus = "CANCELLED"
)

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// IsValidFor checks whether the status belongs to the given document kind
func (s DocumentStatus) IsValidFor(kind DocumentKind) bool {
	switch kind {
	case KindSalesOrder:
		switch s {
		case StatusDraft, StatusConfirmed, StatusDelivered, StatusInvoiced, StatusCancelled:
			return true
		}
	case KindPurchaseOrder:
		switch s {
		case StatusDraft, StatusSent, StatusConfirmed, StatusReceived, StatusBilled, StatusCancelled:
			return true
		}
	case KindSalesInvoice, KindPurchaseBill:
		switch s {
		case StatusDraft, StatusConfirmed, StatusPartialPaid, StatusPaid, StatusOverdue, StatusCancelled:
			return true
		}
	}
	return false
}

// IsOpen reports whether a bill or invoice in this status still carries an
// amount owed by or to the party.
func (s DocumentStatus) IsOpen() bool {
	switch s {
	case StatusConfirmed, StatusPartialPaid, StatusOverdue:
		return true
	}
	return false
}

// DeriveStatus derives a bill or invoice status from its paid amount,
// total and due date. Rules are evaluated in this order:
//
//  1. nothing paid and due date before today: OVERDUE
//  2. nothing paid and not a draft: CONFIRMED
//  3. paid at least the total: PAID
//  4. otherwise: PARTIAL_PAID
//
// A draft with nothing paid and no past due date keeps its draft status.
// Rule 1 fires for drafts too.
func DeriveStatus(current DocumentStatus, paid, total decimal.Decimal, dueDate *time.Time, today time.Time) DocumentStatus {
	if paid.IsZero() {
		if dueDate != nil && dateBefore(*dueDate, today) {
			return StatusOverdue
		}
		if current != StatusDraft {
			return StatusConfirmed
		}
		return current
	}
	if paid.GreaterThanOrEqual(total) {
		return StatusPaid
	}
	return StatusPartialPaid
}

// dateBefore compares calendar dates, ignoring time of day
func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
