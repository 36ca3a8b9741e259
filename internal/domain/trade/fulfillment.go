package trade

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fulfillment records a delivery (sales) or receipt (purchase) of part of
// an order line. An order line's fulfilled quantity is the sum of its
// fulfillment rows.
type Fulfillment struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	DocumentID  uuid.UUID
	LineID      uuid.UUID
	Quantity    decimal.Decimal
	FulfilledAt time.Time
	Reference   string
	CreatedAt   time.Time
}

// NewFulfillment creates a fulfillment row for an order line
func NewFulfillment(order *Document, lineID uuid.UUID, quantity decimal.Decimal, fulfilledAt time.Time, reference string) (*Fulfillment, error) {
	if !order.Kind.IsOrder() {
		return nil, shared.ErrInvalidState.WithMessage("Only orders can be fulfilled")
	}
	if !quantity.IsPositive() {
		return nil, shared.ErrInvalidQuantity.WithMessage("Fulfilled quantity must be positive")
	}
	if _, err := order.FindLine(lineID); err != nil {
		return nil, err
	}
	return &Fulfillment{
		ID:          uuid.New(),
		TenantID:    order.TenantID,
		DocumentID:  order.ID,
		LineID:      lineID,
		Quantity:    quantity,
		FulfilledAt: fulfilledAt,
		Reference:   reference,
		CreatedAt:   time.Now(),
	}, nil
}

// ApplyFulfillment sets a line's fulfilled quantity to total, the sum of
// its fulfillment rows. Once every line is fulfilled the order moves to
// DELIVERED (sales) or RECEIVED (purchase).
func (d *Document) ApplyFulfillment(lineID uuid.UUID, total decimal.Decimal) error {
	if !d.Kind.IsOrder() {
		return shared.ErrInvalidState.WithMessage("Only orders can be fulfilled")
	}
	if d.Status != StatusConfirmed && d.Status != d.Kind.fulfilledStatus() {
		return shared.ErrInvalidState.WithMessage("Only confirmed orders can be fulfilled")
	}
	if total.IsNegative() {
		return shared.ErrInvalidQuantity
	}
	line, err := d.FindLine(lineID)
	if err != nil {
		return err
	}
	if total.GreaterThan(line.Quantity) {
		return ErrOverFulfillment
	}
	line.FulfilledQuantity = total
	line.UpdatedAt = time.Now()

	if d.allLines((*DocumentLine).IsFullyFulfilled) {
		d.setStatus(d.Kind.fulfilledStatus())
	} else {
		d.setStatus(StatusConfirmed)
	}
	return nil
}

func (d *Document) allLines(pred func(*DocumentLine) bool) bool {
	if len(d.Lines) == 0 {
		return false
	}
	for i := range d.Lines {
		if !pred(&d.Lines[i]) {
			return false
		}
	}
	return true
}

// NewBillingDocument raises a draft bill or invoice for every fulfilled but
// not yet invoiced quantity of the order. The order's invoiced quantities
// are advanced and, once every line is invoiced, the order moves to
// INVOICED (sales) or BILLED (purchase).
func NewBillingDocument(order *Document, number string, documentDate, dueDate time.Time) (*Document, error) {
	if !order.Kind.IsOrder() {
		return nil, shared.ErrInvalidState.WithMessage("Bills and invoices are raised from orders")
	}
	switch order.Status {
	case StatusConfirmed, order.Kind.fulfilledStatus():
	default:
		return nil, shared.ErrInvalidState.WithMessage("Only confirmed or fulfilled orders can be invoiced")
	}

	doc, err := NewDocument(order.TenantID, order.Kind.BillingKind(), number, order.PartyID, documentDate, &dueDate)
	if err != nil {
		return nil, err
	}
	orderID := order.ID
	doc.SourceOrderID = &orderID
	doc.Reference = order.DocumentNumber

	for i := range order.Lines {
		src := &order.Lines[i]
		qty := src.RemainingToInvoice()
		if !qty.IsPositive() {
			continue
		}
		line, err := doc.AddLine(LineInput{
			ProductID:       src.ProductID,
			Description:     src.Description,
			Quantity:        qty,
			UnitPrice:       src.UnitPrice,
			DiscountPercent: src.DiscountPercent,
			Tax:             src.Tax,
		})
		if err != nil {
			return nil, err
		}
		srcID := src.ID
		line.SourceLineID = &srcID
		src.InvoicedQuantity = src.InvoicedQuantity.Add(qty)
		src.UpdatedAt = time.Now()
	}
	if len(doc.Lines) == 0 {
		return nil, ErrNothingToInvoice
	}
	if err := doc.Recompute(decimal.Zero, documentDate); err != nil {
		return nil, err
	}

	if order.allLines((*DocumentLine).IsFullyInvoiced) {
		order.setStatus(order.Kind.invoicedStatus())
	}
	order.IncrementVersion()
	return doc, nil
}
