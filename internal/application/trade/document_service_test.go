package trade

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type tradeFixture struct {
	tenantID  uuid.UUID
	customer  *trade.Party
	supplier  *trade.Party
	scope     *mockScope
	publisher *MockEventPublisher
	metrics   *recordingMetrics
	numbers   *fixedNumbers
}

func newTradeFixture(t *testing.T) *tradeFixture {
	t.Helper()
	tenantID := uuid.New()
	customer, err := trade.NewParty(tenantID, trade.SideCustomer, "c001", "Acme Retail")
	require.NoError(t, err)
	require.NoError(t, customer.SetDiscountPercent(d("5")))
	require.NoError(t, customer.SetPaymentTerms(30))
	require.NoError(t, customer.SetCreditLimit(d("5000")))
	supplier, err := trade.NewParty(tenantID, trade.SideSupplier, "s001", "Bolt Supply")
	require.NoError(t, err)

	f := &tradeFixture{
		tenantID:  tenantID,
		customer:  customer,
		supplier:  supplier,
		scope:     newMockScope(),
		publisher: &MockEventPublisher{},
		metrics:   &recordingMetrics{},
		numbers:   &fixedNumbers{},
	}
	f.scope.parties.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil).Maybe()
	f.scope.parties.On("FindByIDForTenant", mock.Anything, tenantID, supplier.ID).Return(supplier, nil).Maybe()
	return f
}

func (f *tradeFixture) documentService() *DocumentService {
	return NewDocumentService(DocumentServiceConfig{
		Scope:          f.scope,
		Numbers:        f.numbers,
		EventPublisher: f.publisher,
		Metrics:        f.metrics,
		Now:            func() time.Time { return now },
	})
}

func (f *tradeFixture) order(t *testing.T, lines ...trade.LineInput) *trade.Document {
	t.Helper()
	doc, err := trade.NewDocument(f.tenantID, trade.KindSalesOrder, "SO000100", f.customer.ID, now, nil)
	require.NoError(t, err)
	for _, in := range lines {
		_, err := doc.AddLine(in)
		require.NoError(t, err)
	}
	require.NoError(t, doc.Recompute(f.customer.DiscountPercent, now))
	doc.ClearDomainEvents()
	return doc
}

// invoice builds a confirmed sales invoice dated 30 days before due
func (f *tradeFixture) invoice(t *testing.T, due time.Time, total string) *trade.Document {
	t.Helper()
	docDate := due.AddDate(0, 0, -30)
	doc, err := trade.NewDocument(f.tenantID, trade.KindSalesInvoice, "SI000100", f.customer.ID, docDate, &due)
	require.NoError(t, err)
	_, err = doc.AddLine(lineIn("1", total))
	require.NoError(t, err)
	require.NoError(t, doc.Recompute(decimal.Zero, docDate))
	require.NoError(t, doc.Confirm(docDate))
	doc.ClearDomainEvents()
	return doc
}

func lineIn(qty, price string) trade.LineInput {
	return trade.LineInput{ProductID: uuid.New(), Quantity: d(qty), UnitPrice: d(price), DiscountPercent: decimal.Zero}
}

func (f *tradeFixture) expectLocked(doc *trade.Document) {
	f.scope.documents.On("FindByIDForUpdate", mock.Anything, f.tenantID, doc.ID).Return(doc, nil)
	f.scope.documents.On("Update", mock.Anything, doc).Return(nil).Maybe()
}

// ==================== Create ====================

func TestDocumentService_Create(t *testing.T) {
	t.Run("sales order applies party discount", func(t *testing.T) {
		f := newTradeFixture(t)
		f.scope.documents.On("Create", mock.Anything, mock.AnythingOfType("*trade.Document")).Return(nil)

		resp, err := f.documentService().Create(context.Background(), f.tenantID, CreateDocumentRequest{
			Kind:         trade.KindSalesOrder,
			PartyID:      f.customer.ID,
			DocumentDate: now,
			Lines: []LineRequest{
				{ProductID: uuid.New(), Quantity: d("2"), UnitPrice: d("100")},
				{ProductID: uuid.New(), Quantity: d("1"), UnitPrice: d("80")},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "SO000001", resp.DocumentNumber)
		assert.Equal(t, "DRAFT", resp.Status)
		assert.Nil(t, resp.DueDate)
		assert.True(t, resp.Subtotal.Equal(d("280")))
		assert.True(t, resp.DiscountAmount.Equal(d("14")))
		assert.True(t, resp.TotalAmount.Equal(d("266")))
		assert.Len(t, resp.Lines, 2)
		assert.Contains(t, f.publisher.EventTypes(), trade.EventTypeDocumentCreated)
	})

	t.Run("invoice defaults due date from payment terms and snapshots tax", func(t *testing.T) {
		f := newTradeFixture(t)
		vat, err := accounting.NewTax(f.tenantID, "VAT10", "VAT 10%", d("0.10"), false)
		require.NoError(t, err)
		f.scope.taxes.On("FindByIDForTenant", mock.Anything, f.tenantID, vat.ID).Return(vat, nil)
		f.scope.documents.On("Create", mock.Anything, mock.AnythingOfType("*trade.Document")).Return(nil)

		resp, err := f.documentService().Create(context.Background(), f.tenantID, CreateDocumentRequest{
			Kind:         trade.KindSalesInvoice,
			PartyID:      f.customer.ID,
			DocumentDate: now,
			Lines: []LineRequest{
				{ProductID: uuid.New(), Quantity: d("1"), UnitPrice: d("1000"), TaxID: &vat.ID},
			},
		})
		require.NoError(t, err)

		require.NotNil(t, resp.DueDate)
		assert.Equal(t, now.AddDate(0, 0, 30), *resp.DueDate)
		assert.True(t, resp.DiscountAmount.IsZero(), "party discount applies to orders only")
		assert.True(t, resp.TaxAmount.Equal(d("100")))
		assert.True(t, resp.TotalAmount.Equal(d("1100")))
		assert.True(t, resp.OutstandingAmount.Equal(d("1100")))
		require.NotNil(t, resp.Lines[0].TaxRate)
		assert.True(t, resp.Lines[0].TaxRate.Equal(d("0.10")))
	})

	t.Run("party on the wrong side", func(t *testing.T) {
		f := newTradeFixture(t)
		_, err := f.documentService().Create(context.Background(), f.tenantID, CreateDocumentRequest{
			Kind:         trade.KindSalesOrder,
			PartyID:      f.supplier.ID,
			DocumentDate: now,
		})
		assert.ErrorIs(t, err, trade.ErrPartyMismatch)
		f.scope.documents.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown tax", func(t *testing.T) {
		f := newTradeFixture(t)
		taxID := uuid.New()
		f.scope.taxes.On("FindByIDForTenant", mock.Anything, f.tenantID, taxID).Return(nil, shared.ErrNotFound)

		_, err := f.documentService().Create(context.Background(), f.tenantID, CreateDocumentRequest{
			Kind:         trade.KindSalesOrder,
			PartyID:      f.customer.ID,
			DocumentDate: now,
			Lines:        []LineRequest{{ProductID: uuid.New(), Quantity: d("1"), UnitPrice: d("1"), TaxID: &taxID}},
		})
		require.Error(t, err)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_TAX", de.Code)
	})

	t.Run("invalid kind never takes a number", func(t *testing.T) {
		f := newTradeFixture(t)
		_, err := f.documentService().Create(context.Background(), f.tenantID, CreateDocumentRequest{Kind: "QUOTE"})
		require.Error(t, err)
		assert.Empty(t, f.numbers.next)
		assert.Equal(t, 0, f.scope.calls)
	})
}

// ==================== Lines ====================

func TestDocumentService_Lines(t *testing.T) {
	t.Run("add line recomputes totals and advances version", func(t *testing.T) {
		f := newTradeFixture(t)
		doc := f.order(t, lineIn("2", "100"))
		version := doc.Version
		f.expectLocked(doc)

		resp, err := f.documentService().AddLine(context.Background(), f.tenantID, doc.ID, LineRequest{
			ProductID: uuid.New(), Quantity: d("3"), UnitPrice: d("10"),
		})
		require.NoError(t, err)
		assert.True(t, resp.Subtotal.Equal(d("230")))
		assert.True(t, resp.DiscountAmount.Equal(d("11.50")))
		assert.True(t, resp.TotalAmount.Equal(d("218.50")))
		assert.Equal(t, version+1, resp.Version)
		f.scope.documents.AssertCalled(t, "Update", mock.Anything, doc)
	})

	t.Run("negative quantity leaves document untouched", func(t *testing.T) {
		f := newTradeFixture(t)
		doc := f.order(t, lineIn("2", "100"))
		f.expectLocked(doc)

		_, err := f.documentService().AddLine(context.Background(), f.tenantID, doc.ID, LineRequest{
			ProductID: uuid.New(), Quantity: d("-1"), UnitPrice: d("10"),
		})
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
		assert.Len(t, doc.Lines, 1)
		f.scope.documents.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("update and remove line", func(t *testing.T) {
		f := newTradeFixture(t)
		doc := f.order(t, lineIn("2", "100"), lineIn("1", "50"))
		lineID := doc.Lines[0].ID
		f.expectLocked(doc)
		svc := f.documentService()

		resp, err := svc.UpdateLine(context.Background(), f.tenantID, doc.ID, lineID, LineRequest{
			Quantity: d("4"), UnitPrice: d("100"), DiscountPercent: d("10"),
		})
		require.NoError(t, err)
		assert.True(t, resp.Subtotal.Equal(d("410")))

		resp, err = svc.RemoveLine(context.Background(), f.tenantID, doc.ID, lineID)
		require.NoError(t, err)
		assert.Len(t, resp.Lines, 1)
		assert.True(t, resp.Subtotal.Equal(d("50")))
		assert.True(t, resp.TotalAmount.Equal(d("47.50")))
	})

	t.Run("recompute is idempotent", func(t *testing.T) {
		f := newTradeFixture(t)
		doc := f.order(t, lineIn("3", "19.99"))
		f.expectLocked(doc)
		svc := f.documentService()

		first, err := svc.RecomputeDocumentTotals(context.Background(), f.tenantID, doc.ID)
		require.NoError(t, err)
		second, err := svc.RecomputeDocumentTotals(context.Background(), f.tenantID, doc.ID)
		require.NoError(t, err)

		assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
		assert.True(t, first.DiscountAmount.Equal(second.DiscountAmount))
		assert.True(t, first.Subtotal.Equal(d("59.97")))
	})

	t.Run("document not found", func(t *testing.T) {
		f := newTradeFixture(t)
		id := uuid.New()
		f.scope.documents.On("FindByIDForUpdate", mock.Anything, f.tenantID, id).Return(nil, shared.ErrNotFound)

		_, err := f.documentService().RecomputeDocumentTotals(context.Background(), f.tenantID, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// ==================== Lifecycle ====================

func TestDocumentService_Lifecycle(t *testing.T) {
	t.Run("confirm records metric and status event", func(t *testing.T) {
		f := newTradeFixture(t)
		due := now.AddDate(0, 0, 30)
		doc, err := trade.NewDocument(f.tenantID, trade.KindSalesInvoice, "SI000200", f.customer.ID, now, &due)
		require.NoError(t, err)
		_, err = doc.AddLine(lineIn("1", "500"))
		require.NoError(t, err)
		f.expectLocked(doc)

		resp, err := f.documentService().Confirm(context.Background(), f.tenantID, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "CONFIRMED", resp.Status)
		assert.NotNil(t, resp.ConfirmedAt)
		assert.Equal(t, []string{"SALES_INVOICE"}, f.metrics.confirmed)
		assert.Contains(t, f.publisher.EventTypes(), trade.EventTypeDocumentStatusChanged)
	})

	t.Run("cancel keeps outstanding at zero", func(t *testing.T) {
		f := newTradeFixture(t)
		doc := f.invoice(t, now.AddDate(0, 0, 10), "300")
		f.expectLocked(doc)

		resp, err := f.documentService().Cancel(context.Background(), f.tenantID, doc.ID, "raised in error")
		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", resp.Status)
		assert.True(t, resp.OutstandingAmount.IsZero())
	})

	t.Run("cancel requires a reason", func(t *testing.T) {
		f := newTradeFixture(t)
		doc := f.invoice(t, now.AddDate(0, 0, 10), "300")
		f.expectLocked(doc)

		_, err := f.documentService().Cancel(context.Background(), f.tenantID, doc.ID, " ")
		require.Error(t, err)
		f.scope.documents.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestDocumentService_RefreshOverdue(t *testing.T) {
	f := newTradeFixture(t)
	late := f.invoice(t, now.AddDate(0, 0, -1), "250")
	current := f.invoice(t, now.AddDate(0, 0, 10), "400")
	f.scope.documents.On("FindOpenBillables", mock.Anything, f.tenantID, (*uuid.UUID)(nil)).
		Return([]*trade.Document{late, current}, nil)
	f.scope.documents.On("FindByIDForUpdate", mock.Anything, f.tenantID, late.ID).Return(late, nil)
	f.scope.documents.On("FindByIDForUpdate", mock.Anything, f.tenantID, current.ID).Return(current, nil)
	f.scope.documents.On("Update", mock.Anything, late).Return(nil).Once()

	result, err := f.documentService().RefreshOverdue(context.Background(), f.tenantID, now)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, []uuid.UUID{late.ID}, result.MarkedOverdue)
	assert.Equal(t, trade.StatusOverdue, late.Status)
	assert.Equal(t, trade.StatusConfirmed, current.Status)
	assert.Equal(t, 1, f.metrics.overdue)
	f.scope.documents.AssertNumberOfCalls(t, "Update", 1)
}

// ==================== Fulfillment ====================

func TestDocumentService_RecordFulfillment(t *testing.T) {
	confirmedOrder := func(t *testing.T, f *tradeFixture) *trade.Document {
		doc := f.order(t, lineIn("10", "100"))
		require.NoError(t, doc.Confirm(now))
		doc.ClearDomainEvents()
		return doc
	}

	t.Run("completes the line and delivers the order", func(t *testing.T) {
		f := newTradeFixture(t)
		order := confirmedOrder(t, f)
		lineID := order.Lines[0].ID
		f.expectLocked(order)
		f.scope.fulfillments.On("SumForLine", mock.Anything, f.tenantID, lineID).Return(d("4"), nil)
		f.scope.fulfillments.On("Create", mock.Anything, mock.AnythingOfType("*trade.Fulfillment")).Return(nil)

		resp, err := f.documentService().RecordFulfillment(context.Background(), f.tenantID, order.ID, FulfillmentRequest{
			LineID: lineID, Quantity: d("6"), Reference: "DN-7",
		})
		require.NoError(t, err)
		assert.Equal(t, "DELIVERED", resp.Status)
		assert.True(t, resp.Lines[0].FulfilledQuantity.Equal(d("10")))
	})

	t.Run("refuses to exceed the ordered quantity", func(t *testing.T) {
		f := newTradeFixture(t)
		order := confirmedOrder(t, f)
		lineID := order.Lines[0].ID
		f.expectLocked(order)
		f.scope.fulfillments.On("SumForLine", mock.Anything, f.tenantID, lineID).Return(d("8"), nil)

		_, err := f.documentService().RecordFulfillment(context.Background(), f.tenantID, order.ID, FulfillmentRequest{
			LineID: lineID, Quantity: d("5"),
		})
		assert.ErrorIs(t, err, trade.ErrOverFulfillment)
		f.scope.fulfillments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.True(t, order.Lines[0].FulfilledQuantity.IsZero())
	})

	t.Run("raises invoice for the fulfilled quantity", func(t *testing.T) {
		f := newTradeFixture(t)
		order := confirmedOrder(t, f)
		require.NoError(t, order.ApplyFulfillment(order.Lines[0].ID, d("6")))
		f.scope.documents.On("FindByIDForTenant", mock.Anything, f.tenantID, order.ID).Return(order, nil)
		f.expectLocked(order)
		f.scope.documents.On("Create", mock.Anything, mock.AnythingOfType("*trade.Document")).Return(nil)

		resp, err := f.documentService().CreateBillingDocument(context.Background(), f.tenantID, order.ID, BillingRequest{DocumentDate: now})
		require.NoError(t, err)

		assert.Equal(t, "SALES_INVOICE", resp.Kind)
		assert.Equal(t, "SI000001", resp.DocumentNumber)
		assert.Equal(t, &order.ID, resp.SourceOrderID)
		require.NotNil(t, resp.DueDate)
		assert.Equal(t, now.AddDate(0, 0, 30), *resp.DueDate)
		require.Len(t, resp.Lines, 1)
		assert.True(t, resp.Lines[0].Quantity.Equal(d("6")))
		assert.True(t, resp.TotalAmount.Equal(d("600")))
		assert.True(t, order.Lines[0].InvoicedQuantity.Equal(d("6")))
		assert.Equal(t, trade.StatusConfirmed, order.Status)
	})
}
