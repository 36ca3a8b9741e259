package accounting

import (
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxBreakdown is the base/tax/total split of an amount
type TaxBreakdown struct {
	BaseAmount  decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

// CalculateTax splits amount into base and tax at the given rate.
//
// For inclusive tax the amount already contains the tax:
// tax = amount * rate / (1 + rate) and base = amount - tax.
// For exclusive tax base = amount and tax = amount * rate.
// Tax is rounded first and base is derived from the rounded tax, so
// base + tax == total holds exactly after rounding.
func CalculateTax(amount, rate decimal.Decimal, inclusive bool) (TaxBreakdown, error) {
	if !valueobject.IsValidRate(rate) {
		return TaxBreakdown{}, shared.ErrInvalidRate
	}

	var base, tax decimal.Decimal
	if inclusive {
		tax = valueobject.RoundMoney(amount.Mul(rate).Div(decimal.NewFromInt(1).Add(rate)))
		base = valueobject.RoundMoney(amount.Sub(tax))
	} else {
		base = valueobject.RoundMoney(amount)
		tax = valueobject.RoundMoney(amount.Mul(rate))
	}

	return TaxBreakdown{
		BaseAmount:  base,
		TaxAmount:   tax,
		TotalAmount: base.Add(tax),
	}, nil
}

// Tax is a configured tax rate that document lines can reference
type Tax struct {
	shared.TenantAggregateRoot
	Code         string
	Name         string
	Rate         decimal.Decimal
	IsInclusive  bool
	TaxAccountID *uuid.UUID
	IsActive     bool
}

// NewTax creates a new tax definition. rate is a fraction in [0, 1].
func NewTax(tenantID uuid.UUID, code, name string, rate decimal.Decimal, inclusive bool) (*Tax, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Tax code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Tax name cannot be empty")
	}
	if !valueobject.IsValidRate(rate) {
		return nil, shared.ErrInvalidRate
	}
	return &Tax{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Rate:                rate,
		IsInclusive:         inclusive,
		IsActive:            true,
	}, nil
}

// SetTaxAccount links the liability account that collects this tax
func (t *Tax) SetTaxAccount(account *Account) error {
	if account == nil {
		t.TaxAccountID = nil
		return nil
	}
	if account.TenantID != t.TenantID {
		return ErrInvalidAccount.WithMessage("Tax account belongs to another tenant")
	}
	if err := account.CanPost(); err != nil {
		return err
	}
	id := account.ID
	t.TaxAccountID = &id
	return nil
}

// Calculate applies the tax to amount
func (t *Tax) Calculate(amount decimal.Decimal) (TaxBreakdown, error) {
	return CalculateTax(amount, t.Rate, t.IsInclusive)
}
