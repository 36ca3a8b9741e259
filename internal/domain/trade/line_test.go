package trade

import (
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeLine(t *testing.T) {
	tests := []struct {
		name         string
		qty, price   string
		pct          string
		wantDiscount string
		wantTotal    string
	}{
		{"ten percent off", "10", "100", "10", "100", "900"},
		{"no discount", "3", "25.50", "0", "0", "76.50"},
		{"discount rounds half even", "3", "19.99", "15", "9.00", "50.97"},
		{"full discount", "2", "40", "100", "80", "0"},
		{"zero quantity", "0", "99.99", "50", "0", "0"},
		{"fractional quantity", "2.5", "4", "0", "0", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeLine(d(tt.qty), d(tt.price), d(tt.pct))
			require.NoError(t, err)
			assert.True(t, got.DiscountAmount.Equal(d(tt.wantDiscount)), "discount %s", got.DiscountAmount)
			assert.True(t, got.LineTotal.Equal(d(tt.wantTotal)), "total %s", got.LineTotal)
		})
	}
}

func TestComputeLine_Validation(t *testing.T) {
	_, err := ComputeLine(d("-1"), d("10"), d("0"))
	assert.ErrorIs(t, err, shared.ErrInvalidQuantity)

	_, err = ComputeLine(d("1"), d("-0.01"), d("0"))
	assert.ErrorIs(t, err, shared.ErrInvalidPrice)

	_, err = ComputeLine(d("1"), d("10"), d("100.01"))
	assert.ErrorIs(t, err, shared.ErrInvalidDiscount)

	_, err = ComputeLine(d("1"), d("10"), d("-5"))
	assert.ErrorIs(t, err, shared.ErrInvalidDiscount)
}

func TestDocumentLine_TaxAmount(t *testing.T) {
	line, err := newDocumentLine(uuid.New(), 1, LineInput{
		ProductID: uuid.New(),
		Quantity:  d("4"),
		UnitPrice: d("25"),
		Tax:       &TaxRef{TaxID: uuid.New(), Rate: d("0.15")},
	})
	require.NoError(t, err)

	tax, err := line.TaxAmount()
	require.NoError(t, err)
	assert.True(t, tax.Equal(d("15")))

	line.Tax = nil
	tax, err = line.TaxAmount()
	require.NoError(t, err)
	assert.True(t, tax.IsZero())
}

func TestNewDocumentLine_RejectsBadTaxRate(t *testing.T) {
	_, err := newDocumentLine(uuid.New(), 1, LineInput{
		ProductID: uuid.New(),
		Quantity:  d("1"),
		UnitPrice: d("1"),
		Tax:       &TaxRef{Rate: d("1.5")},
	})
	assert.ErrorIs(t, err, shared.ErrInvalidRate)
}

func TestDocumentLine_UpdateBelowFulfilled(t *testing.T) {
	line, err := newDocumentLine(uuid.New(), 1, LineInput{ProductID: uuid.New(), Quantity: d("10"), UnitPrice: d("5")})
	require.NoError(t, err)
	line.FulfilledQuantity = d("6")

	err = line.update(LineInput{Quantity: d("5"), UnitPrice: d("5")})
	assert.ErrorIs(t, err, shared.ErrInvalidQuantity)

	require.NoError(t, line.update(LineInput{Quantity: d("6"), UnitPrice: d("5")}))
	assert.True(t, line.LineTotal.Equal(d("30")))
	assert.True(t, line.IsFullyFulfilled())
}
