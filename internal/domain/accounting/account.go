package accounting

import (
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType represents the classification of a chart-of-accounts entry
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}

// NormalSide returns the side on which the account's balance increases.
// Assets and expenses are debit-normal; liabilities, equity and income are credit-normal.
func (t AccountType) NormalSide() EntryType {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return EntryTypeDebit
	default:
		return EntryTypeCredit
	}
}

// DeriveBalance computes a signed balance from debit and credit totals
// according to the account type's normal side.
func DeriveBalance(t AccountType, debitTotal, creditTotal decimal.Decimal) decimal.Decimal {
	if t.NormalSide() == EntryTypeDebit {
		return debitTotal.Sub(creditTotal)
	}
	return creditTotal.Sub(debitTotal)
}

// Account represents a node in the chart of accounts.
// Balance is a cache of the balance derived from posted journal lines and is
// rewritten in full whenever an entry touching the account is posted.
type Account struct {
	shared.TenantAggregateRoot
	Code             string
	Name             string
	Type             AccountType
	ParentID         *uuid.UUID
	Level            int
	IsHeader         bool
	IsControl        bool
	IsActive         bool
	Description      string
	Balance          decimal.Decimal
	BalanceUpdatedAt *time.Time
}

// NewAccount creates a new postable account at the top level of the chart
func NewAccount(tenantID uuid.UUID, code, name string, accountType AccountType) (*Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Account code cannot be empty")
	}
	if len(code) > 20 {
		return nil, shared.NewValidationError("INVALID_CODE", "Account code cannot exceed 20 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewValidationError("INVALID_ACCOUNT_TYPE", "Account type is invalid")
	}

	return &Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Type:                accountType,
		Level:               1,
		IsActive:            true,
		Balance:             decimal.Zero,
	}, nil
}

// SetParent places the account under parent in the chart tree
func (a *Account) SetParent(parent *Account) error {
	if parent == nil {
		a.ParentID = nil
		a.Level = 1
		a.UpdatedAt = time.Now()
		return nil
	}
	if parent.ID == a.ID {
		return shared.NewValidationError("INVALID_PARENT", "Account cannot be its own parent")
	}
	if parent.TenantID != a.TenantID {
		return shared.NewValidationError("INVALID_PARENT", "Parent account belongs to another tenant")
	}
	parentID := parent.ID
	a.ParentID = &parentID
	a.Level = parent.Level + 1
	a.UpdatedAt = time.Now()
	return nil
}

// MarkHeader flags the account as a non-postable aggregator node
func (a *Account) MarkHeader(isHeader bool) {
	a.IsHeader = isHeader
	a.UpdatedAt = time.Now()
}

// Deactivate prevents new postings to the account
func (a *Account) Deactivate() {
	a.IsActive = false
	a.UpdatedAt = time.Now()
}

// CanPost reports whether journal lines may be posted to the account
func (a *Account) CanPost() error {
	if a.IsHeader {
		return ErrHeaderAccount.WithMessage("Account " + a.Code + " is a header account and cannot receive postings")
	}
	if !a.IsActive {
		return ErrInactiveAccount.WithMessage("Account " + a.Code + " is inactive")
	}
	return nil
}

// ApplyDerivedBalance replaces the cached balance with one derived from the
// given posted totals.
func (a *Account) ApplyDerivedBalance(totals BalanceTotals, at time.Time) {
	a.Balance = DeriveBalance(a.Type, totals.Debit, totals.Credit)
	a.BalanceUpdatedAt = &at
	a.UpdatedAt = at
	a.IncrementVersion()
}

// BalanceTotals holds the debit and credit sums of posted lines for one account
type BalanceTotals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Add accumulates a line amount on the given side
func (t BalanceTotals) Add(entryType EntryType, amount decimal.Decimal) BalanceTotals {
	if entryType == EntryTypeDebit {
		t.Debit = t.Debit.Add(amount)
	} else {
		t.Credit = t.Credit.Add(amount)
	}
	return t
}

// PostedLine is a read model of a journal line belonging to a posted entry
type PostedLine struct {
	AccountID uuid.UUID
	EntryType EntryType
	Amount    decimal.Decimal
	EntryDate time.Time
}

// SumPostedLines groups posted lines by account.
// Accounts without lines are absent from the result.
func SumPostedLines(lines []PostedLine) map[uuid.UUID]BalanceTotals {
	result := make(map[uuid.UUID]BalanceTotals)
	for _, l := range lines {
		result[l.AccountID] = result[l.AccountID].Add(l.EntryType, l.Amount)
	}
	return result
}
