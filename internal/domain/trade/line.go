package trade

import (
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineTotals is the derived part of a document line
type LineTotals struct {
	GrossAmount    decimal.Decimal // quantity * unit price
	DiscountAmount decimal.Decimal
	LineTotal      decimal.Decimal
}

// ComputeLine derives the discount and total of a line.
// discount = quantity * unitPrice * discountPercent / 100 and
// total = quantity * unitPrice - discount, both held at currency precision
// so a stored line recomputes to the same values.
func ComputeLine(quantity, unitPrice, discountPercent decimal.Decimal) (LineTotals, error) {
	if quantity.IsNegative() {
		return LineTotals{}, shared.ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return LineTotals{}, shared.ErrInvalidPrice
	}
	if !valueobject.IsValidPercent(discountPercent) {
		return LineTotals{}, shared.ErrInvalidDiscount
	}

	gross := valueobject.RoundMoney(quantity.Mul(unitPrice))
	discount := valueobject.RoundMoney(valueobject.PercentOf(quantity.Mul(unitPrice), discountPercent))
	return LineTotals{
		GrossAmount:    gross,
		DiscountAmount: discount,
		LineTotal:      gross.Sub(discount),
	}, nil
}

// TaxRef is the snapshot of a tax definition applied to a line
type TaxRef struct {
	TaxID     uuid.UUID
	Rate      decimal.Decimal
	Inclusive bool
}

// TaxRefFrom snapshots a tax definition
func TaxRefFrom(t *accounting.Tax) *TaxRef {
	if t == nil {
		return nil
	}
	return &TaxRef{TaxID: t.ID, Rate: t.Rate, Inclusive: t.IsInclusive}
}

// DocumentLine is a product/quantity/price row owned by a document.
// Orders track how much has been fulfilled (delivered or received) and
// how much has been invoiced (billed) against each line.
type DocumentLine struct {
	ID                uuid.UUID
	DocumentID        uuid.UUID
	LineNo            int
	ProductID         uuid.UUID
	Description       string
	Quantity          decimal.Decimal
	UnitPrice         decimal.Decimal
	DiscountPercent   decimal.Decimal
	DiscountAmount    decimal.Decimal
	LineTotal         decimal.Decimal
	Tax               *TaxRef
	FulfilledQuantity decimal.Decimal
	InvoicedQuantity  decimal.Decimal
	SourceLineID      *uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LineInput carries caller-supplied line values
type LineInput struct {
	ProductID       uuid.UUID
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	Tax             *TaxRef
}

func newDocumentLine(documentID uuid.UUID, lineNo int, in LineInput) (*DocumentLine, error) {
	if in.ProductID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	totals, err := ComputeLine(in.Quantity, in.UnitPrice, in.DiscountPercent)
	if err != nil {
		return nil, err
	}
	if err := validateTaxRef(in.Tax); err != nil {
		return nil, err
	}

	now := time.Now()
	return &DocumentLine{
		ID:                uuid.New(),
		DocumentID:        documentID,
		LineNo:            lineNo,
		ProductID:         in.ProductID,
		Description:       in.Description,
		Quantity:          in.Quantity,
		UnitPrice:         in.UnitPrice,
		DiscountPercent:   in.DiscountPercent,
		DiscountAmount:    totals.DiscountAmount,
		LineTotal:         totals.LineTotal,
		Tax:               in.Tax,
		FulfilledQuantity: decimal.Zero,
		InvoicedQuantity:  decimal.Zero,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func validateTaxRef(t *TaxRef) error {
	if t == nil {
		return nil
	}
	if !valueobject.IsValidRate(t.Rate) {
		return shared.ErrInvalidRate
	}
	return nil
}

// update recomputes the line from new values. Quantity may not drop below
// what has already been fulfilled or invoiced.
func (l *DocumentLine) update(in LineInput) error {
	totals, err := ComputeLine(in.Quantity, in.UnitPrice, in.DiscountPercent)
	if err != nil {
		return err
	}
	if err := validateTaxRef(in.Tax); err != nil {
		return err
	}
	if in.Quantity.LessThan(l.FulfilledQuantity) || in.Quantity.LessThan(l.InvoicedQuantity) {
		return shared.ErrInvalidQuantity.WithMessage("Quantity cannot drop below the fulfilled or invoiced quantity")
	}
	if in.ProductID != uuid.Nil {
		l.ProductID = in.ProductID
	}
	l.Description = in.Description
	l.Quantity = in.Quantity
	l.UnitPrice = in.UnitPrice
	l.DiscountPercent = in.DiscountPercent
	l.DiscountAmount = totals.DiscountAmount
	l.LineTotal = totals.LineTotal
	l.Tax = in.Tax
	l.UpdatedAt = time.Now()
	return nil
}

// TaxAmount returns the line's tax as computed by the tax calculator,
// zero when the line carries no tax.
func (l *DocumentLine) TaxAmount() (decimal.Decimal, error) {
	if l.Tax == nil {
		return decimal.Zero, nil
	}
	breakdown, err := accounting.CalculateTax(l.LineTotal, l.Tax.Rate, l.Tax.Inclusive)
	if err != nil {
		return decimal.Zero, err
	}
	return breakdown.TaxAmount, nil
}

// RemainingToFulfill returns the ordered quantity not yet fulfilled
func (l *DocumentLine) RemainingToFulfill() decimal.Decimal {
	return l.Quantity.Sub(l.FulfilledQuantity)
}

// RemainingToInvoice returns the fulfilled quantity not yet invoiced
func (l *DocumentLine) RemainingToInvoice() decimal.Decimal {
	return l.FulfilledQuantity.Sub(l.InvoicedQuantity)
}

// IsFullyFulfilled reports whether the ordered quantity has been fulfilled
func (l *DocumentLine) IsFullyFulfilled() bool {
	return l.FulfilledQuantity.GreaterThanOrEqual(l.Quantity)
}

// IsFullyInvoiced reports whether the ordered quantity has been invoiced
func (l *DocumentLine) IsFullyInvoiced() bool {
	return l.InvoicedQuantity.GreaterThanOrEqual(l.Quantity)
}
