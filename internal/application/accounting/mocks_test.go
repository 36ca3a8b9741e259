package accounting

import (
	"context"
	"sync"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of accounting.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*accounting.Account, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*accounting.Account, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accounting.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*accounting.Account, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]*accounting.Account, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*accounting.Account), args.Error(1)
}

func (m *MockAccountRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *accounting.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) SaveBalance(ctx context.Context, account *accounting.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockJournalEntryRepository is a mock implementation of accounting.JournalEntryRepository
type MockJournalEntryRepository struct {
	mock.Mock
}

func (m *MockJournalEntryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*accounting.JournalEntry, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.JournalEntry), args.Error(1)
}

func (m *MockJournalEntryRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*accounting.JournalEntry, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.JournalEntry), args.Error(1)
}

func (m *MockJournalEntryRepository) Create(ctx context.Context, entry *accounting.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalEntryRepository) CreateLine(ctx context.Context, line *accounting.JournalLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *MockJournalEntryRepository) DeleteLine(ctx context.Context, entryID, lineID uuid.UUID) error {
	args := m.Called(ctx, entryID, lineID)
	return args.Error(0)
}

func (m *MockJournalEntryRepository) Update(ctx context.Context, entry *accounting.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalEntryRepository) SumPostedByAccount(ctx context.Context, tenantID uuid.UUID, accountIDs []uuid.UUID, asOf *time.Time) (map[uuid.UUID]accounting.BalanceTotals, error) {
	args := m.Called(ctx, tenantID, accountIDs, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]accounting.BalanceTotals), args.Error(1)
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
	accounts *MockAccountRepository
	journals *MockJournalEntryRepository
	taxes    *MockTaxRepository
	calls    int
}

func newMockScope() *mockScope {
	return &mockScope{
		accounts: new(MockAccountRepository),
		journals: new(MockJournalEntryRepository),
		taxes:    new(MockTaxRepository),
	}
}

func (s *mockScope) Execute(ctx context.Context, fn func(repos LedgerRepositories) error) error {
	s.calls++
	return fn(s)
}

func (s *mockScope) AccountRepo() accounting.AccountRepository      { return s.accounts }
func (s *mockScope) JournalRepo() accounting.JournalEntryRepository { return s.journals }
func (s *mockScope) TaxRepo() accounting.TaxRepository              { return s.taxes }

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

// fixedNumbers hands out sequential journal numbers
type fixedNumbers struct {
	mu   sync.Mutex
	next int64
}

func (f *fixedNumbers) NextNumber(_ context.Context, _ uuid.UUID, seqType numbering.SequenceType, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	if prefix == "" {
		prefix = seqType.DefaultPrefix()
	}
	return numbering.Format(prefix, f.next, numbering.DefaultWidth), nil
}

// recordingMetrics captures metric calls
type recordingMetrics struct {
	posted   int
	rejected []string
	reversed int
}

func (m *recordingMetrics) RecordJournalPosted(context.Context, uuid.UUID, int, decimal.Decimal) {
	m.posted++
}

func (m *recordingMetrics) RecordPostingRejected(_ context.Context, _ uuid.UUID, code string) {
	m.rejected = append(m.rejected, code)
}

func (m *recordingMetrics) RecordJournalReversed(context.Context, uuid.UUID) {
	m.reversed++
}
