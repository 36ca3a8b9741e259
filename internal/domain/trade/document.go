package trade

import (
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentKind distinguishes the four trade documents that share the
// line/aggregate/payment pattern.
type DocumentKind string

const (
	KindSalesOrder    DocumentKind = "SALES_ORDER"
	KindSalesInvoice  DocumentKind = "SALES_INVOICE"
	KindPurchaseOrder DocumentKind = "PURCHASE_ORDER"
	KindPurchaseBill  DocumentKind = "PURCHASE_BILL"
)

// IsValid checks if the kind is valid
func (k DocumentKind) IsValid() bool {
	switch k {
	case KindSalesOrder, KindSalesInvoice, KindPurchaseOrder, KindPurchaseBill:
		return true
	}
	return false
}

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// IsOrder reports whether the kind is an order
func (k DocumentKind) IsOrder() bool {
	return k == KindSalesOrder || k == KindPurchaseOrder
}

// IsBillable reports whether the kind is a bill or invoice that payments settle
func (k DocumentKind) IsBillable() bool {
	return k == KindSalesInvoice || k == KindPurchaseBill
}

// Side returns which kind of party the document is issued to or received from
func (k DocumentKind) Side() PartySide {
	if k == KindSalesOrder || k == KindSalesInvoice {
		return SideCustomer
	}
	return SideSupplier
}

// BillingKind returns the bill/invoice kind raised against an order kind
func (k DocumentKind) BillingKind() DocumentKind {
	switch k {
	case KindSalesOrder:
		return KindSalesInvoice
	case KindPurchaseOrder:
		return KindPurchaseBill
	}
	return ""
}

// SequenceType returns the number series documents of this kind draw from
func (k DocumentKind) SequenceType() numbering.SequenceType {
	switch k {
	case KindSalesOrder:
		return numbering.SequenceSalesOrder
	case KindSalesInvoice:
		return numbering.SequenceSalesInvoice
	case KindPurchaseOrder:
		return numbering.SequencePurchaseOrder
	default:
		return numbering.SequencePurchaseBill
	}
}

// fulfilledStatus is the order status reached once every line is fulfilled
func (k DocumentKind) fulfilledStatus() DocumentStatus {
	if k == KindSalesOrder {
		return StatusDelivered
	}
	return StatusReceived
}

// invoicedStatus is the order status reached once every line is invoiced
func (k DocumentKind) invoicedStatus() DocumentStatus {
	if k == KindSalesOrder {
		return StatusInvoiced
	}
	return StatusBilled
}

// Document is the aggregate root shared by sales orders, sales invoices,
// purchase orders and purchase bills. Lines are exclusively owned by the
// document; the header amounts are always derived from them.
type Document struct {
	shared.TenantAggregateRoot
	Kind              DocumentKind
	DocumentNumber    string
	PartyID           uuid.UUID
	SourceOrderID     *uuid.UUID
	DocumentDate      time.Time
	DueDate           *time.Time
	Reference         string
	Status            DocumentStatus
	Lines             []DocumentLine
	Subtotal          decimal.Decimal
	DiscountAmount    decimal.Decimal
	TaxAmount         decimal.Decimal
	TotalAmount       decimal.Decimal
	PaidAmount        decimal.Decimal
	OutstandingAmount decimal.Decimal
	Remark            string
	ConfirmedAt       *time.Time
	CancelledAt       *time.Time
	CancelReason      string
}

// NewDocument creates a new draft document
func NewDocument(tenantID uuid.UUID, kind DocumentKind, number string, partyID uuid.UUID, documentDate time.Time, dueDate *time.Time) (*Document, error) {
	if !kind.IsValid() {
		return nil, shared.NewValidationError("INVALID_KIND", "Document kind is invalid")
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewValidationError("INVALID_DOCUMENT_NUMBER", "Document number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.NewValidationError("INVALID_DOCUMENT_NUMBER", "Document number cannot exceed 50 characters")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PARTY", "Party ID cannot be empty")
	}
	if documentDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATE", "Document date is required")
	}
	if kind.IsBillable() && dueDate == nil {
		return nil, shared.NewValidationError("INVALID_DUE_DATE", "Bills and invoices require a due date")
	}
	if dueDate != nil && dateBefore(*dueDate, documentDate) {
		return nil, shared.NewValidationError("INVALID_DUE_DATE", "Due date cannot be before the document date")
	}

	doc := &Document{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Kind:                kind,
		DocumentNumber:      number,
		PartyID:             partyID,
		DocumentDate:        documentDate,
		DueDate:             dueDate,
		Status:              StatusDraft,
		Lines:               make([]DocumentLine, 0),
		Subtotal:            decimal.Zero,
		DiscountAmount:      decimal.Zero,
		TaxAmount:           decimal.Zero,
		TotalAmount:         decimal.Zero,
		PaidAmount:          decimal.Zero,
		OutstandingAmount:   decimal.Zero,
	}
	doc.AddDomainEvent(NewDocumentCreatedEvent(doc))
	return doc, nil
}

func (d *Document) ensureEditable() error {
	if d.Status == StatusCancelled {
		return shared.ErrInvalidState.WithMessage("Cancelled documents cannot be modified")
	}
	if d.Kind.IsOrder() && (d.Status == d.Kind.invoicedStatus()) {
		return shared.ErrInvalidState.WithMessage("Fully invoiced orders cannot be modified")
	}
	return nil
}

// FindLine returns the line with the given ID
func (d *Document) FindLine(lineID uuid.UUID) (*DocumentLine, error) {
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			return &d.Lines[i], nil
		}
	}
	return nil, shared.ErrNotFound.WithMessage("Document line not found")
}

// AddLine computes and appends a new line. Callers must Recompute afterwards
// within the same transaction.
func (d *Document) AddLine(in LineInput) (*DocumentLine, error) {
	if err := d.ensureEditable(); err != nil {
		return nil, err
	}
	lineNo := 1
	for _, l := range d.Lines {
		if l.LineNo >= lineNo {
			lineNo = l.LineNo + 1
		}
	}
	line, err := newDocumentLine(d.ID, lineNo, in)
	if err != nil {
		return nil, err
	}
	d.Lines = append(d.Lines, *line)
	d.UpdatedAt = time.Now()
	return &d.Lines[len(d.Lines)-1], nil
}

// UpdateLine recomputes an existing line from new values
func (d *Document) UpdateLine(lineID uuid.UUID, in LineInput) (*DocumentLine, error) {
	if err := d.ensureEditable(); err != nil {
		return nil, err
	}
	line, err := d.FindLine(lineID)
	if err != nil {
		return nil, err
	}
	if err := line.update(in); err != nil {
		return nil, err
	}
	d.UpdatedAt = time.Now()
	return line, nil
}

// RemoveLine removes a line that has not been fulfilled or invoiced
func (d *Document) RemoveLine(lineID uuid.UUID) error {
	if err := d.ensureEditable(); err != nil {
		return err
	}
	for i := range d.Lines {
		if d.Lines[i].ID != lineID {
			continue
		}
		if d.Lines[i].FulfilledQuantity.IsPositive() || d.Lines[i].InvoicedQuantity.IsPositive() {
			return shared.ErrInvalidState.WithMessage("Lines with fulfilled or invoiced quantity cannot be removed")
		}
		d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
		d.UpdatedAt = time.Now()
		return nil
	}
	return shared.ErrNotFound.WithMessage("Document line not found")
}

// Recompute derives the header amounts from the current lines.
//
//	subtotal = sum of line totals
//	discount = subtotal * partyDiscountPercent / 100 (orders only)
//	tax      = sum of per-line tax
//	total    = subtotal - discount + tax
//
// Bills and invoices then refresh their outstanding amount and status.
// Recompute never accumulates, so repeated calls over unchanged lines
// yield identical values. It advances the version: a saved change to a
// document passes through exactly one Recompute or ApplyPaidAmount.
func (d *Document) Recompute(partyDiscountPercent decimal.Decimal, today time.Time) error {
	if !valueobject.IsValidPercent(partyDiscountPercent) {
		return shared.ErrInvalidDiscount
	}

	subtotal := decimal.Zero
	tax := decimal.Zero
	for i := range d.Lines {
		subtotal = subtotal.Add(d.Lines[i].LineTotal)
		lineTax, err := d.Lines[i].TaxAmount()
		if err != nil {
			return err
		}
		tax = tax.Add(lineTax)
	}

	discount := decimal.Zero
	if d.Kind.IsOrder() {
		discount = valueobject.RoundMoney(valueobject.PercentOf(subtotal, partyDiscountPercent))
	}

	d.Subtotal = subtotal
	d.DiscountAmount = discount
	d.TaxAmount = tax
	d.TotalAmount = subtotal.Sub(discount).Add(tax)
	d.UpdatedAt = time.Now()

	if d.Kind.IsBillable() && d.Status != StatusCancelled {
		d.OutstandingAmount = d.TotalAmount.Sub(d.PaidAmount)
		d.RefreshStatus(today)
	}
	d.IncrementVersion()
	return nil
}

// ApplyPaidAmount sets the paid amount to the sum of allocations against
// this bill or invoice, then refreshes the outstanding amount and status.
func (d *Document) ApplyPaidAmount(paid decimal.Decimal, today time.Time) error {
	if !d.Kind.IsBillable() {
		return shared.ErrInvalidState.WithMessage("Only bills and invoices receive payments")
	}
	if paid.IsNegative() {
		return shared.ErrInvalidAmount.WithMessage("Paid amount cannot be negative")
	}
	if d.Status == StatusCancelled && paid.IsPositive() {
		return shared.ErrInvalidState.WithMessage("Cancelled documents cannot receive payments")
	}
	d.PaidAmount = paid
	d.OutstandingAmount = d.TotalAmount.Sub(paid)
	d.UpdatedAt = time.Now()
	d.RefreshStatus(today)
	d.IncrementVersion()
	return nil
}

// RefreshStatus re-derives a bill or invoice status. Cancelled documents and
// orders are left unchanged.
func (d *Document) RefreshStatus(today time.Time) {
	if !d.Kind.IsBillable() || d.Status == StatusCancelled {
		return
	}
	next := DeriveStatus(d.Status, d.PaidAmount, d.TotalAmount, d.DueDate, today)
	d.setStatus(next)
}

func (d *Document) setStatus(next DocumentStatus) {
	if next == d.Status {
		return
	}
	prev := d.Status
	d.Status = next
	d.UpdatedAt = time.Now()
	d.AddDomainEvent(NewDocumentStatusChangedEvent(d, prev, next))
}

// Send marks a draft purchase order as sent to the supplier
func (d *Document) Send() error {
	if d.Kind != KindPurchaseOrder {
		return shared.ErrInvalidState.WithMessage("Only purchase orders can be sent")
	}
	if d.Status != StatusDraft {
		return shared.ErrInvalidState.WithMessage("Only draft purchase orders can be sent")
	}
	d.setStatus(StatusSent)
	return nil
}

// Confirm moves a draft (or sent) document into its active state.
// Bills and invoices immediately derive their payment status. A bill that
// went overdue before it was ever confirmed can still be confirmed.
func (d *Document) Confirm(now time.Time) error {
	unconfirmedOverdue := d.Status == StatusOverdue && d.ConfirmedAt == nil
	if d.Status != StatusDraft && d.Status != StatusSent && !unconfirmedOverdue {
		return shared.ErrInvalidState.WithMessage("Only draft or sent documents can be confirmed")
	}
	if len(d.Lines) == 0 {
		return shared.ErrInvalidState.WithMessage("Documents without lines cannot be confirmed")
	}
	d.ConfirmedAt = &now
	d.setStatus(StatusConfirmed)
	d.RefreshStatus(now)
	return nil
}

// Cancel cancels a document that has not been paid or fulfilled
func (d *Document) Cancel(reason string, now time.Time) error {
	if d.Status == StatusCancelled {
		return shared.ErrInvalidState.WithMessage("Document is already cancelled")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("INVALID_REASON", "Cancel reason is required")
	}
	if d.Kind.IsBillable() && d.PaidAmount.IsPositive() {
		return shared.ErrInvalidState.WithMessage("Documents with payments cannot be cancelled")
	}
	if d.Kind.IsOrder() {
		for _, l := range d.Lines {
			if l.FulfilledQuantity.IsPositive() || l.InvoicedQuantity.IsPositive() {
				return shared.ErrInvalidState.WithMessage("Orders with fulfilled or invoiced lines cannot be cancelled")
			}
		}
	}
	d.CancelledAt = &now
	d.CancelReason = reason
	d.OutstandingAmount = decimal.Zero
	d.setStatus(StatusCancelled)
	return nil
}

// IsOverdue reports whether a bill or invoice is past due with money still owed
func (d *Document) IsOverdue(today time.Time) bool {
	return d.Kind.IsBillable() && d.DueDate != nil && dateBefore(*d.DueDate, today) && d.OutstandingAmount.IsPositive()
}
