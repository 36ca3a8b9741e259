package accounting

import (
	"context"

	"github.com/erp/ledger/internal/domain/accounting"
)

// TransactionScope defines the interface for executing ledger operations within a transaction.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos LedgerRepositories) error) error
}

// LedgerRepositories provides access to the ledger repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Lock order for posting: the journal entry row first, then account rows in
// ascending ID order (AccountRepo.FindByIDsForUpdate sorts).
type LedgerRepositories interface {
	AccountRepo() accounting.AccountRepository
	JournalRepo() accounting.JournalEntryRepository
	TaxRepo() accounting.TaxRepository
}
