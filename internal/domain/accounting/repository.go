package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountRepository persists the chart of accounts
type AccountRepository interface {
	// FindByIDForTenant finds an account by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)

	// FindByIDsForUpdate loads and row-locks the given accounts in ascending ID order.
	// It fails with ErrNotFound when any ID is missing.
	FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Account, error)

	// FindByCode finds an account by its tenant-unique code
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error)

	// FindAllForTenant returns every account of the tenant ordered by code
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]*Account, error)

	// ExistsByCode checks whether the code is taken within the tenant
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)

	// Save creates or updates an account
	Save(ctx context.Context, account *Account) error

	// SaveBalance persists the cached balance with an optimistic version check
	SaveBalance(ctx context.Context, account *Account) error
}

// JournalEntryRepository persists journal entries and their lines
type JournalEntryRepository interface {
	// FindByIDForTenant loads an entry with its lines
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error)

	// FindByIDForUpdate loads an entry with its lines and row-locks the entry
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error)

	// Create inserts a new entry together with its lines
	Create(ctx context.Context, entry *JournalEntry) error

	// CreateLine inserts one line of an existing entry
	CreateLine(ctx context.Context, line *JournalLine) error

	// DeleteLine removes one line of an existing entry
	DeleteLine(ctx context.Context, entryID, lineID uuid.UUID) error

	// Update saves header fields with an optimistic version check
	Update(ctx context.Context, entry *JournalEntry) error

	// SumPostedByAccount aggregates lines of entries that affect the ledger,
	// optionally limited to entries dated on or before asOf.
	// A nil accountIDs slice means every account of the tenant.
	SumPostedByAccount(ctx context.Context, tenantID uuid.UUID, accountIDs []uuid.UUID, asOf *time.Time) (map[uuid.UUID]BalanceTotals, error)
}

// TaxRepository persists tax definitions
type TaxRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Tax, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Tax, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, tax *Tax) error
}
