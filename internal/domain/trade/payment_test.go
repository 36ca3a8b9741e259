package trade

import (
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmedInvoiceFor(t *testing.T, tenantID, partyID uuid.UUID, number string, total string) *Document {
	t.Helper()
	due := today.AddDate(0, 0, 30)
	doc, err := NewDocument(tenantID, KindSalesInvoice, number, partyID, today, &due)
	require.NoError(t, err)
	_, err = doc.AddLine(line("1", total, "0"))
	require.NoError(t, err)
	require.NoError(t, doc.Recompute(d("0"), today))
	require.NoError(t, doc.Confirm(today))
	return doc
}

func TestNewPayment(t *testing.T) {
	p, err := NewPayment(uuid.New(), "SP000001", SideCustomer, uuid.New(), d("250"), today, PaymentMethodBankTransfer)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusDraft, p.Status)
	assert.True(t, p.UnallocatedAmount.Equal(d("250")))

	_, err = NewPayment(uuid.New(), "SP2", SideCustomer, uuid.New(), d("0"), today, PaymentMethodCash)
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = NewPayment(uuid.New(), "SP3", SideCustomer, uuid.New(), d("1"), today, PaymentMethod("BARTER"))
	assert.ErrorIs(t, err, ErrInvalidMethod)

	_, err = NewPayment(uuid.New(), "SP4", PartySide("EMPLOYEE"), uuid.New(), d("1"), today, PaymentMethodCash)
	assert.ErrorIs(t, err, ErrInvalidSide)
}

func TestPayment_Allocate(t *testing.T) {
	tenantID, partyID := uuid.New(), uuid.New()
	inv1 := confirmedInvoiceFor(t, tenantID, partyID, "SI000001", "1000")
	inv2 := confirmedInvoiceFor(t, tenantID, partyID, "SI000002", "1000")

	p, err := NewPayment(tenantID, "SP000001", SideCustomer, partyID, d("1500"), today, PaymentMethodCash)
	require.NoError(t, err)

	alloc, err := p.Allocate(inv1, d("600"))
	require.NoError(t, err)
	assert.Equal(t, inv1.ID, alloc.DocumentID)
	assert.Equal(t, p.ID, alloc.PaymentID)
	assert.True(t, p.AllocatedAmount.Equal(d("600")))
	assert.True(t, p.UnallocatedAmount.Equal(d("900")))

	t.Run("duplicate pair", func(t *testing.T) {
		_, err := p.Allocate(inv1, d("1"))
		assert.ErrorIs(t, err, ErrDuplicateAllocation)
	})

	t.Run("exceeds unallocated", func(t *testing.T) {
		_, err := p.Allocate(inv2, d("900.01"))
		assert.ErrorIs(t, err, ErrOverAllocation)
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := p.Allocate(inv2, d("-5"))
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	t.Run("reallocate replaces in place", func(t *testing.T) {
		updated, err := p.Reallocate(inv1, d("1000"))
		require.NoError(t, err)
		assert.True(t, updated.Amount.Equal(d("1000")))
		assert.Len(t, p.Allocations, 1)
		assert.True(t, p.UnallocatedAmount.Equal(d("500")))

		_, err = p.Reallocate(inv1, d("1500.01"))
		assert.ErrorIs(t, err, ErrOverAllocation)
	})

	t.Run("reallocate missing pair", func(t *testing.T) {
		_, err := p.Reallocate(inv2, d("1"))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("zero allocation is allowed", func(t *testing.T) {
		_, err := p.Allocate(inv2, d("0"))
		require.NoError(t, err)
		assert.Len(t, p.Allocations, 2)
	})
}

func TestPayment_AllocateTargetChecks(t *testing.T) {
	tenantID, partyID := uuid.New(), uuid.New()
	inv := confirmedInvoiceFor(t, tenantID, partyID, "SI000001", "100")

	t.Run("other party", func(t *testing.T) {
		p, _ := NewPayment(tenantID, "SP1", SideCustomer, uuid.New(), d("100"), today, PaymentMethodCash)
		_, err := p.Allocate(inv, d("10"))
		assert.ErrorIs(t, err, ErrPartyMismatch)
	})

	t.Run("supplier payment against sales invoice", func(t *testing.T) {
		p, _ := NewPayment(tenantID, "PP1", SideSupplier, partyID, d("100"), today, PaymentMethodCash)
		_, err := p.Allocate(inv, d("10"))
		assert.ErrorIs(t, err, ErrPartyMismatch)
	})

	t.Run("order is not billable", func(t *testing.T) {
		order, err := NewDocument(tenantID, KindSalesOrder, "SO1", partyID, today, nil)
		require.NoError(t, err)
		p, _ := NewPayment(tenantID, "SP2", SideCustomer, partyID, d("100"), today, PaymentMethodCash)
		_, err = p.Allocate(order, d("10"))
		assert.ErrorIs(t, err, ErrNotBillable)
	})
}

func TestPayment_Lifecycle(t *testing.T) {
	tenantID, partyID := uuid.New(), uuid.New()
	inv := confirmedInvoiceFor(t, tenantID, partyID, "SI000001", "100")
	p, _ := NewPayment(tenantID, "SP1", SideCustomer, partyID, d("100"), today, PaymentMethodCheque)

	assert.Error(t, p.Reconcile())
	require.NoError(t, p.Confirm())
	_, err := p.Allocate(inv, d("100"))
	require.NoError(t, err)

	released, err := p.Bounce()
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{inv.ID}, released)
	assert.Empty(t, p.Allocations)
	assert.True(t, p.UnallocatedAmount.Equal(d("100")))
	assert.Equal(t, PaymentStatusBounced, p.Status)

	_, err = p.Allocate(inv, d("1"))
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	_, err = p.Bounce()
	assert.Error(t, err)
}
