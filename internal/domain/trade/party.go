package trade

import (
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Party is a customer or supplier. Only the fields the ledger needs are
// held here: the discount applied to orders, the credit limit and the
// default payment terms.
type Party struct {
	shared.TenantAggregateRoot
	Side             PartySide
	Code             string
	Name             string
	DiscountPercent  decimal.Decimal
	CreditLimit      decimal.Decimal
	PaymentTermsDays int
	IsActive         bool
}

// NewParty creates a new active party
func NewParty(tenantID uuid.UUID, side PartySide, code, name string) (*Party, error) {
	if !side.IsValid() {
		return nil, ErrInvalidSide
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Party code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewValidationError("INVALID_CODE", "Party code cannot exceed 50 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Party name cannot be empty")
	}
	return &Party{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Side:                side,
		Code:                strings.ToUpper(code),
		Name:                name,
		DiscountPercent:     decimal.Zero,
		CreditLimit:         decimal.Zero,
		IsActive:            true,
	}, nil
}

// SetDiscountPercent sets the discount applied to this party's orders
func (p *Party) SetDiscountPercent(pct decimal.Decimal) error {
	if !valueobject.IsValidPercent(pct) {
		return shared.ErrInvalidDiscount
	}
	p.DiscountPercent = pct
	p.UpdatedAt = time.Now()
	return nil
}

// SetCreditLimit sets the credit limit; zero means no credit
func (p *Party) SetCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.ErrInvalidAmount.WithMessage("Credit limit cannot be negative")
	}
	p.CreditLimit = limit
	p.UpdatedAt = time.Now()
	return nil
}

// SetPaymentTerms sets the default number of days until a bill or invoice is due
func (p *Party) SetPaymentTerms(days int) error {
	if days < 0 {
		return shared.NewValidationError("INVALID_PAYMENT_TERMS", "Payment terms cannot be negative")
	}
	p.PaymentTermsDays = days
	p.UpdatedAt = time.Now()
	return nil
}

// DueDateFor returns the due date of a document dated documentDate
func (p *Party) DueDateFor(documentDate time.Time) time.Time {
	return documentDate.AddDate(0, 0, p.PaymentTermsDays)
}

// Deactivate marks the party inactive
func (p *Party) Deactivate() {
	p.IsActive = false
	p.UpdatedAt = time.Now()
}

// PartyBalance summarizes what a party owes or is owed
type PartyBalance struct {
	PartyID         uuid.UUID
	Side            PartySide
	Outstanding     decimal.Decimal
	CreditLimit     decimal.Decimal
	CreditAvailable decimal.Decimal
	OpenDocuments   int
	OverdueAmount   decimal.Decimal
}

// ComputePartyBalance sums the outstanding amount of the party's open
// bills and invoices. Documents of other parties are ignored.
func ComputePartyBalance(party *Party, docs []*Document, today time.Time) PartyBalance {
	b := PartyBalance{
		PartyID:       party.ID,
		Side:          party.Side,
		Outstanding:   decimal.Zero,
		CreditLimit:   party.CreditLimit,
		OverdueAmount: decimal.Zero,
	}
	for _, d := range docs {
		if d.PartyID != party.ID || !d.Kind.IsBillable() || !d.Status.IsOpen() {
			continue
		}
		b.Outstanding = b.Outstanding.Add(d.OutstandingAmount)
		b.OpenDocuments++
		if d.IsOverdue(today) {
			b.OverdueAmount = b.OverdueAmount.Add(d.OutstandingAmount)
		}
	}
	b.CreditAvailable = b.CreditLimit.Sub(b.Outstanding)
	return b
}
