package accounting

import (
	"fmt"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Ledger state errors
var (
	ErrAlreadyPosted    = shared.NewDomainError("ALREADY_POSTED", "Journal entry is already posted")
	ErrUnbalancedEntry  = shared.NewDomainError("UNBALANCED_ENTRY", "Journal entry debits and credits are not equal")
	ErrEmptyEntry       = shared.NewDomainError("EMPTY_ENTRY", "Journal entry has no lines")
	ErrHeaderAccount    = shared.NewDomainError("HEADER_ACCOUNT", "Header accounts cannot receive postings")
	ErrInactiveAccount  = shared.NewDomainError("INACTIVE_ACCOUNT", "Account is inactive")
	ErrInvalidEntryType = shared.NewValidationError("INVALID_ENTRY_TYPE", "Entry type must be DEBIT or CREDIT")
	ErrInvalidAccount   = shared.NewValidationError("INVALID_ACCOUNT", "Account is invalid")
)

// UnbalancedEntryError is returned when a journal entry's debit and credit
// totals differ at posting time. It unwraps to a DomainError with code
// UNBALANCED_ENTRY so boundary code can treat it like any other state error.
type UnbalancedEntryError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// NewUnbalancedEntryError creates an UnbalancedEntryError for the given totals
func NewUnbalancedEntryError(debit, credit decimal.Decimal) *UnbalancedEntryError {
	return &UnbalancedEntryError{Debit: debit, Credit: credit}
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("journal entry is unbalanced: debit %s, credit %s",
		e.Debit.StringFixed(2), e.Credit.StringFixed(2))
}

// Unwrap exposes the underlying domain error
func (e *UnbalancedEntryError) Unwrap() error {
	return ErrUnbalancedEntry.WithMessage(e.Error())
}

// Difference returns debit minus credit
func (e *UnbalancedEntryError) Difference() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}
