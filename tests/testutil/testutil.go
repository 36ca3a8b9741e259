// Package testutil provides shared fixtures for ledger tests: mock and
// in-memory databases, deterministic identifiers, fully wired services and
// polling assertions.
package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	appaccounting "github.com/erp/ledger/internal/application/accounting"
	appnumbering "github.com/erp/ledger/internal/application/numbering"
	apptrade "github.com/erp/ledger/internal/application/trade"
	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB opens GORM with the postgres dialector on top of sqlmock.
// The connection is closed when the test ends.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to open GORM connection")

	t.Cleanup(func() { _ = mockDB.Close() })
	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// NewSQLiteDB returns a migrated in-memory SQLite ledger. A single
// connection keeps every statement on the same in-memory database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, persistence.AutoMigrate(db))
	return db
}

// Ledger bundles the application services over one database
type Ledger struct {
	Chart     *appaccounting.ChartService
	Journal   *appaccounting.JournalService
	Balances  *appaccounting.BalanceService
	Documents *apptrade.DocumentService
	Payments  *apptrade.PaymentService
	Parties   *apptrade.PartyService
	Numbers   *appnumbering.Service
}

// LedgerOptions customizes NewLedger
type LedgerOptions struct {
	Counter   numbering.Counter     // defaults to the number_sequences table
	Publisher shared.EventPublisher // optional
	Now       func() time.Time      // optional fixed clock
}

// NewLedger wires every service over db the way the server does
func NewLedger(db *gorm.DB, opts LedgerOptions) *Ledger {
	counter := opts.Counter
	if counter == nil {
		counter = persistence.NewGormSequenceCounter(db)
	}
	numbers := appnumbering.NewService(counter)
	ledgerScope := persistence.NewGormLedgerTransactionScope(db)
	tradeScope := persistence.NewGormTradeTransactionScope(db)

	return &Ledger{
		Chart: appaccounting.NewChartService(ledgerScope, nil),
		Journal: appaccounting.NewJournalService(appaccounting.JournalServiceConfig{
			Scope: ledgerScope, Numbers: numbers, EventPublisher: opts.Publisher, Now: opts.Now,
		}),
		Balances: appaccounting.NewBalanceService(ledgerScope, nil),
		Documents: apptrade.NewDocumentService(apptrade.DocumentServiceConfig{
			Scope: tradeScope, Numbers: numbers, EventPublisher: opts.Publisher, Now: opts.Now,
		}),
		Payments: apptrade.NewPaymentService(apptrade.PaymentServiceConfig{
			Scope: tradeScope, Numbers: numbers, EventPublisher: opts.Publisher, Now: opts.Now,
		}),
		Parties: apptrade.NewPartyService(tradeScope, nil),
		Numbers: numbers,
	}
}

// NewTestUUID generates a deterministic UUID for testing.
// Uses the provided seed string to create a reproducible UUID.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// TestTenantID returns a standard tenant ID for tests.
func TestTenantID() uuid.UUID {
	return NewTestUUID("test-tenant")
}

// TestUserID returns a standard user ID for tests.
func TestUserID() uuid.UUID {
	return NewTestUUID("test-user")
}

// ContextWithTimeout creates a context with a timeout for tests.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// RequireEventually retries condition until it holds or the timeout expires.
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...interface{}) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}

	require.Fail(t, "Condition not met within timeout", msgAndArgs...)
}
