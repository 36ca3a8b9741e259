package trade

import (
	"context"
	"sync"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockDocumentRepository is a mock implementation of trade.DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.Document, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*trade.Document, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*trade.Document, error) {
	args := m.Called(ctx, tenantID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter trade.DocumentFilter) (shared.Paginated[*trade.Document], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[*trade.Document]), args.Error(1)
}

func (m *MockDocumentRepository) FindOpenBillables(ctx context.Context, tenantID uuid.UUID, partyID *uuid.UUID) ([]*trade.Document, error) {
	args := m.Called(ctx, tenantID, partyID)
	return args.Get(0).([]*trade.Document), args.Error(1)
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *trade.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc *trade.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of trade.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*trade.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *trade.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *trade.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) SumAllocationsForDocument(ctx context.Context, tenantID, documentID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, documentID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockPartyRepository is a mock implementation of trade.PartyRepository
type MockPartyRepository struct {
	mock.Mock
}

func (m *MockPartyRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.Party, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Party), args.Error(1)
}

func (m *MockPartyRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, side trade.PartySide, code string) (bool, error) {
	args := m.Called(ctx, tenantID, side, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockPartyRepository) Save(ctx context.Context, party *trade.Party) error {
	args := m.Called(ctx, party)
	return args.Error(0)
}

// MockFulfillmentRepository is a mock implementation of trade.FulfillmentRepository
type MockFulfillmentRepository struct {
	mock.Mock
}

func (m *MockFulfillmentRepository) Create(ctx context.Context, f *trade.Fulfillment) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockFulfillmentRepository) SumForLine(ctx context.Context, tenantID, lineID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, lineID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockFulfillmentRepository) FindByDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]*trade.Fulfillment, error) {
	args := m.Called(ctx, tenantID, documentID)
	return args.Get(0).([]*trade.Fulfillment), args.Error(1)
}

// MockTaxRepository is a mock implementation of accounting.TaxRepository
type MockTaxRepository struct {
	mock.Mock
}

func (m *MockTaxRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*accounting.Tax, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Tax), args.Error(1)
}

func (m *MockTaxRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*accounting.Tax, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]*accounting.Tax), args.Error(1)
}

func (m *MockTaxRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaxRepository) Save(ctx context.Context, tax *accounting.Tax) error {
	args := m.Called(ctx, tax)
	return args.Error(0)
}

// mockScope runs the callback against the mock repositories without a real transaction
type mockScope struct {
	documents    *MockDocumentRepository
	payments     *MockPaymentRepository
	parties      *MockPartyRepository
	fulfillments *MockFulfillmentRepository
	taxes        *MockTaxRepository
	calls        int
}

func newMockScope() *mockScope {
	return &mockScope{
		documents:    new(MockDocumentRepository),
		payments:     new(MockPaymentRepository),
		parties:      new(MockPartyRepository),
		fulfillments: new(MockFulfillmentRepository),
		taxes:        new(MockTaxRepository),
	}
}

func (s *mockScope) Execute(ctx context.Context, fn func(repos TradeRepositories) error) error {
	s.calls++
	return fn(s)
}

func (s *mockScope) DocumentRepo() trade.DocumentRepository       { return s.documents }
func (s *mockScope) PaymentRepo() trade.PaymentRepository         { return s.payments }
func (s *mockScope) PartyRepo() trade.PartyRepository             { return s.parties }
func (s *mockScope) FulfillmentRepo() trade.FulfillmentRepository { return s.fulfillments }
func (s *mockScope) TaxRepo() accounting.TaxRepository            { return s.taxes }

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.EventType()
	}
	return types
}

// fixedNumbers hands out sequential numbers per sequence type
type fixedNumbers struct {
	mu   sync.Mutex
	next map[numbering.SequenceType]int64
}

func (f *fixedNumbers) NextNumber(_ context.Context, _ uuid.UUID, seqType numbering.SequenceType, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next == nil {
		f.next = make(map[numbering.SequenceType]int64)
	}
	f.next[seqType]++
	if prefix == "" {
		prefix = seqType.DefaultPrefix()
	}
	return numbering.Format(prefix, f.next[seqType], numbering.DefaultWidth), nil
}

// recordingMetrics captures metric calls
type recordingMetrics struct {
	confirmed []string
	allocated decimal.Decimal
	overdue   int
}

func (m *recordingMetrics) RecordDocumentConfirmed(_ context.Context, _ uuid.UUID, kind string, _ decimal.Decimal) {
	m.confirmed = append(m.confirmed, kind)
}

func (m *recordingMetrics) RecordPaymentAllocated(_ context.Context, _ uuid.UUID, _ string, amount decimal.Decimal) {
	m.allocated = m.allocated.Add(amount)
}

func (m *recordingMetrics) RecordDocumentsOverdue(_ context.Context, _ uuid.UUID, count int) {
	m.overdue += count
}
