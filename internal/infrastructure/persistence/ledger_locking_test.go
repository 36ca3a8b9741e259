package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockGormDB opens GORM with the postgres dialector on top of sqlmock
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormJournalEntryRepository_FindByIDForUpdate(t *testing.T) {
	t.Run("locks the entry header and loads lines separately", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormJournalEntryRepository(db)

		tenantID := uuid.New()
		entryID := uuid.New()
		accountID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT \* FROM "journal_entries" WHERE tenant_id = \$1 AND id = \$2 .*FOR UPDATE`).
			WithArgs(tenantID, entryID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "entry_number", "entry_date", "description", "status", "version", "created_at", "updated_at"}).
				AddRow(entryID, tenantID, "JE-000001", now, "Cash sale", "DRAFT", 1, now, now))
		mock.ExpectQuery(`SELECT \* FROM "journal_lines" WHERE entry_id = \$1 ORDER BY line_no ASC`).
			WithArgs(entryID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "entry_id", "account_id", "line_no", "entry_type", "amount", "description", "created_at"}).
				AddRow(uuid.New(), entryID, accountID, 1, "DEBIT", "1000.00", "", now).
				AddRow(uuid.New(), entryID, accountID, 2, "CREDIT", "1000.00", "", now))

		entry, err := repo.FindByIDForUpdate(context.Background(), tenantID, entryID)
		require.NoError(t, err)
		assert.Equal(t, "JE-000001", entry.EntryNumber)
		assert.Len(t, entry.Lines, 2)
		assert.True(t, entry.IsBalanced())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing row to not found", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormJournalEntryRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "journal_entries" .*FOR UPDATE`).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByIDForUpdate(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormJournalEntryRepository_Update(t *testing.T) {
	t.Run("version mismatch is a concurrency conflict", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormJournalEntryRepository(db)

		entry, err := accounting.NewJournalEntry(uuid.New(), "JE-000001", time.Now(), "Cash sale")
		require.NoError(t, err)
		entry.Version = 2

		mock.ExpectExec(`UPDATE "journal_entries" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.Update(context.Background(), entry)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.True(t, shared.IsRetryable(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("succeeds when one row matches", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormJournalEntryRepository(db)

		entry, err := accounting.NewJournalEntry(uuid.New(), "JE-000002", time.Now(), "Accrual")
		require.NoError(t, err)
		entry.Version = 2

		mock.ExpectExec(`UPDATE "journal_entries" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(context.Background(), entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAccountRepository_FindByIDsForUpdate(t *testing.T) {
	t.Run("locks accounts in ascending id order", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormAccountRepository(db)

		tenantID := uuid.New()
		a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
		b := uuid.MustParse("00000000-0000-0000-0000-000000000002")
		now := time.Now()

		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE tenant_id = \$1 AND id IN \(\$2,\$3\) ORDER BY id FOR UPDATE`).
			WithArgs(tenantID, a, b).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "code", "name", "type", "is_active", "balance", "version", "created_at", "updated_at"}).
				AddRow(a, tenantID, "1000", "Cash", "ASSET", true, "0", 1, now, now).
				AddRow(b, tenantID, "4000", "Revenue", "INCOME", true, "0", 1, now, now))

		// Duplicates and reverse order collapse to one sorted lock set
		accounts, err := repo.FindByIDsForUpdate(context.Background(), tenantID, []uuid.UUID{b, a, b})
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, a, accounts[0].ID)
		assert.Equal(t, b, accounts[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing account is not found", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormAccountRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "accounts" .*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByIDsForUpdate(context.Background(), uuid.New(), []uuid.UUID{uuid.New()})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("empty id set issues no query", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormAccountRepository(db)

		accounts, err := repo.FindByIDsForUpdate(context.Background(), uuid.New(), nil)
		require.NoError(t, err)
		assert.Empty(t, accounts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAccountRepository_SaveBalance_Conflict(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormAccountRepository(db)

	account, err := accounting.NewAccount(uuid.New(), "1000", "Cash", accounting.AccountTypeAsset)
	require.NoError(t, err)
	account.Version = 3
	account.Balance = decimal.NewFromInt(250)

	mock.ExpectExec(`UPDATE "accounts" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.SaveBalance(context.Background(), account)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDocumentRepository_FindByIDForUpdate(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormDocumentRepository(db)

	tenantID := uuid.New()
	docID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "trade_documents" WHERE tenant_id = \$1 AND id = \$2 .*FOR UPDATE`).
		WithArgs(tenantID, docID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "kind", "document_number", "party_id", "document_date", "status", "total_amount", "paid_amount", "outstanding_amount", "version", "created_at", "updated_at"}).
			AddRow(docID, tenantID, "SALES_INVOICE", "SI-000001", uuid.New(), now, "CONFIRMED", "500", "0", "500", 2, now, now))
	mock.ExpectQuery(`SELECT \* FROM "trade_document_lines" WHERE document_id = \$1 ORDER BY line_no ASC`).
		WithArgs(docID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id"}))

	doc, err := repo.FindByIDForUpdate(context.Background(), tenantID, docID)
	require.NoError(t, err)
	assert.Equal(t, trade.KindSalesInvoice, doc.Kind)
	assert.Equal(t, trade.StatusConfirmed, doc.Status)
	assert.True(t, doc.OutstandingAmount.Equal(decimal.NewFromInt(500)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPaymentRepository_Update_Conflict(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormPaymentRepository(db)

	payment, err := trade.NewPayment(uuid.New(), "RCV-000001", trade.SideCustomer, uuid.New(),
		decimal.NewFromInt(100), time.Now(), trade.PaymentMethodCash)
	require.NoError(t, err)
	payment.Version = 2

	mock.ExpectExec(`UPDATE "payments" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), payment)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
