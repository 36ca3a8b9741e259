package accounting

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrialBalanceLine is one account's derived balance placed in its column
type TrialBalanceLine struct {
	AccountID   uuid.UUID
	AccountCode string
	AccountName string
	AccountType AccountType
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// TrialBalance lists every postable account's balance in debit/credit columns
type TrialBalance struct {
	TenantID    uuid.UUID
	AsOf        *time.Time
	Lines       []TrialBalanceLine
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// IsBalanced reports whether the debit and credit columns agree
func (tb *TrialBalance) IsBalanced() bool {
	return tb.TotalDebit.Equal(tb.TotalCredit)
}

// Difference returns total debit minus total credit
func (tb *TrialBalance) Difference() decimal.Decimal {
	return tb.TotalDebit.Sub(tb.TotalCredit)
}

// BuildTrialBalance derives each non-header account's balance from totals and
// places it in the column of its normal side, or the opposite column when the
// balance is negative. Lines are ordered by account code.
func BuildTrialBalance(tenantID uuid.UUID, accounts []*Account, totals map[uuid.UUID]BalanceTotals, asOf *time.Time) *TrialBalance {
	tb := &TrialBalance{
		TenantID:    tenantID,
		AsOf:        asOf,
		Lines:       make([]TrialBalanceLine, 0, len(accounts)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}

	for _, acc := range accounts {
		if acc.IsHeader {
			continue
		}
		t := totals[acc.ID]
		balance := DeriveBalance(acc.Type, t.Debit, t.Credit)

		line := TrialBalanceLine{
			AccountID:   acc.ID,
			AccountCode: acc.Code,
			AccountName: acc.Name,
			AccountType: acc.Type,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		}
		side := acc.Type.NormalSide()
		if balance.IsNegative() {
			side = side.Opposite()
		}
		if side == EntryTypeDebit {
			line.Debit = balance.Abs()
		} else {
			line.Credit = balance.Abs()
		}

		tb.TotalDebit = tb.TotalDebit.Add(line.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(line.Credit)
		tb.Lines = append(tb.Lines, line)
	}

	sort.Slice(tb.Lines, func(i, j int) bool {
		return tb.Lines[i].AccountCode < tb.Lines[j].AccountCode
	})
	return tb
}
