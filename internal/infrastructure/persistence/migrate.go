package persistence

import (
	"fmt"

	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// LedgerModels lists every table the ledger owns, in dependency order
func LedgerModels() []interface{} {
	return []interface{}{
		&models.AccountModel{},
		&models.JournalEntryModel{},
		&models.JournalLineModel{},
		&models.TaxModel{},
		&models.SequenceModel{},
		&models.PartyModel{},
		&models.DocumentModel{},
		&models.DocumentLineModel{},
		&models.PaymentModel{},
		&models.AllocationModel{},
		&models.FulfillmentModel{},
	}
}

// uniqueIndexes are composite keys that cannot be expressed on the embedded
// tenant field, so they are created after AutoMigrate.
var uniqueIndexes = []struct {
	name    string
	table   string
	columns string
}{
	{"uq_accounts_tenant_code", "accounts", "tenant_id, code"},
	{"uq_journal_entries_tenant_number", "journal_entries", "tenant_id, entry_number"},
	{"uq_taxes_tenant_code", "taxes", "tenant_id, code"},
	{"uq_parties_tenant_side_code", "parties", "tenant_id, side, code"},
	{"uq_trade_documents_tenant_number", "trade_documents", "tenant_id, document_number"},
	{"uq_payments_tenant_number", "payments", "tenant_id, payment_number"},
	{"uq_payment_allocations_payment_document", "payment_allocations", "payment_id, document_id"},
}

// AutoMigrate creates or updates the ledger schema. Production deployments
// run the SQL files under migrations/ instead; this path serves sqlite and
// tests.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(LedgerModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, idx := range uniqueIndexes {
		stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}
