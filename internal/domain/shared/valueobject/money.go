// Package valueobject holds the currency arithmetic shared by the ledger
// and trade domains. Amounts are shopspring decimals throughout; floats
// never touch money.
package valueobject

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places every stored amount carries
const MoneyPlaces int32 = 2

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// RoundMoney rounds to MoneyPlaces with round-half-to-even, the only
// rounding applied to currency amounts: 0.005 -> 0.00, 0.015 -> 0.02.
// Line amounts, discounts and tax are each rounded once where computed and
// document totals are sums of rounded parts.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MoneyPlaces)
}

// PercentOf returns amount * percent / 100, unrounded
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	if percent.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(percent).Div(hundred)
}

// IsValidPercent reports whether p lies in [0, 100]
func IsValidPercent(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

// IsValidRate reports whether r lies in [0, 1]
func IsValidRate(r decimal.Decimal) bool {
	return !r.IsNegative() && r.LessThanOrEqual(one)
}
