package persistence

import (
	"context"

	appaccounting "github.com/erp/ledger/internal/application/accounting"
	apptrade "github.com/erp/ledger/internal/application/trade"
	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/trade"
	"gorm.io/gorm"
)

// GormLedgerTransactionScope implements the ledger TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormLedgerTransactionScope struct {
	db *gorm.DB
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope.
func NewGormLedgerTransactionScope(db *gorm.DB) *GormLedgerTransactionScope {
	return &GormLedgerTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appaccounting.LedgerRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedgerRepositories{tx: tx})
	})
}

// gormLedgerRepositories provides access to the ledger repositories within a transaction.
type gormLedgerRepositories struct {
	tx *gorm.DB
}

// AccountRepo returns the account repository scoped to the current transaction.
func (r *gormLedgerRepositories) AccountRepo() accounting.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

// JournalRepo returns the journal entry repository scoped to the current transaction.
func (r *gormLedgerRepositories) JournalRepo() accounting.JournalEntryRepository {
	return NewGormJournalEntryRepository(r.tx)
}

// TaxRepo returns the tax repository scoped to the current transaction.
func (r *gormLedgerRepositories) TaxRepo() accounting.TaxRepository {
	return NewGormTaxRepository(r.tx)
}

// GormTradeTransactionScope implements the trade TransactionScope using GORM transactions.
type GormTradeTransactionScope struct {
	db *gorm.DB
}

// NewGormTradeTransactionScope creates a new GormTradeTransactionScope.
func NewGormTradeTransactionScope(db *gorm.DB) *GormTradeTransactionScope {
	return &GormTradeTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *GormTradeTransactionScope) Execute(ctx context.Context, fn func(repos apptrade.TradeRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTradeRepositories{tx: tx})
	})
}

// gormTradeRepositories provides access to the trade repositories within a transaction.
type gormTradeRepositories struct {
	tx *gorm.DB
}

// DocumentRepo returns the document repository scoped to the current transaction.
func (r *gormTradeRepositories) DocumentRepo() trade.DocumentRepository {
	return NewGormDocumentRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormTradeRepositories) PaymentRepo() trade.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// PartyRepo returns the party repository scoped to the current transaction.
func (r *gormTradeRepositories) PartyRepo() trade.PartyRepository {
	return NewGormPartyRepository(r.tx)
}

// FulfillmentRepo returns the fulfillment repository scoped to the current transaction.
func (r *gormTradeRepositories) FulfillmentRepo() trade.FulfillmentRepository {
	return NewGormFulfillmentRepository(r.tx)
}

// TaxRepo returns the tax repository scoped to the current transaction.
func (r *gormTradeRepositories) TaxRepo() accounting.TaxRepository {
	return NewGormTaxRepository(r.tx)
}

// Ensure the scopes implement their application interfaces
var (
	_ appaccounting.TransactionScope   = (*GormLedgerTransactionScope)(nil)
	_ appaccounting.LedgerRepositories = (*gormLedgerRepositories)(nil)
	_ apptrade.TransactionScope        = (*GormTradeTransactionScope)(nil)
	_ apptrade.TradeRepositories       = (*gormTradeRepositories)(nil)
)
