package persistence

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormJournalEntryRepository implements JournalEntryRepository using GORM
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

// FindByIDForTenant loads an entry with its lines
func (r *GormJournalEntryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*accounting.JournalEntry, error) {
	return r.find(ctx, r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate loads an entry with its lines and row-locks the entry
func (r *GormJournalEntryRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*accounting.JournalEntry, error) {
	return r.find(ctx, forUpdate(r.db.WithContext(ctx)), tenantID, id)
}

// find loads the header through query and the lines in a second,
// unlocked statement.
func (r *GormJournalEntryRepository) find(ctx context.Context, query *gorm.DB, tenantID, id uuid.UUID) (*accounting.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := query.
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	if err := r.db.WithContext(ctx).
		Where("entry_id = ?", model.ID).
		Order("line_no ASC").
		Find(&model.Lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new entry together with its lines
func (r *GormJournalEntryRepository) Create(ctx context.Context, entry *accounting.JournalEntry) error {
	return r.db.WithContext(ctx).Create(models.JournalEntryModelFromDomain(entry)).Error
}

// CreateLine inserts one line of an existing entry
func (r *GormJournalEntryRepository) CreateLine(ctx context.Context, line *accounting.JournalLine) error {
	return r.db.WithContext(ctx).Create(models.JournalLineModelFromDomain(line)).Error
}

// DeleteLine removes one line of an existing entry
func (r *GormJournalEntryRepository) DeleteLine(ctx context.Context, entryID, lineID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("entry_id = ? AND id = ?", entryID, lineID).
		Delete(&models.JournalLineModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Update saves header fields with an optimistic version check
func (r *GormJournalEntryRepository) Update(ctx context.Context, entry *accounting.JournalEntry) error {
	result := r.db.WithContext(ctx).
		Model(&models.JournalEntryModel{}).
		Where("id = ? AND version = ?", entry.ID, entry.Version-1).
		Updates(map[string]interface{}{
			"description":          entry.Description,
			"reference":            entry.Reference,
			"status":               entry.Status,
			"posted_by":            entry.PostedBy,
			"posted_at":            entry.PostedAt,
			"reversed_by":          entry.ReversedBy,
			"reversed_at":          entry.ReversedAt,
			"reversed_by_entry_id": entry.ReversedByEntryID,
			"version":              entry.Version,
			"updated_at":           entry.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithMessage("Journal entry was modified by another transaction")
	}
	return nil
}

// balanceRow is one aggregated (account, side) row
type balanceRow struct {
	AccountID uuid.UUID
	EntryType accounting.EntryType
	Total     decimal.Decimal
}

// SumPostedByAccount aggregates the lines of POSTED and REVERSED entries.
// A reversed entry stays in the sums because its mirror entry is posted
// alongside it and cancels it out.
func (r *GormJournalEntryRepository) SumPostedByAccount(ctx context.Context, tenantID uuid.UUID, accountIDs []uuid.UUID, asOf *time.Time) (map[uuid.UUID]accounting.BalanceTotals, error) {
	query := r.db.WithContext(ctx).
		Table("journal_lines AS l").
		Select("l.account_id AS account_id, l.entry_type AS entry_type, SUM(l.amount) AS total").
		Joins("JOIN journal_entries AS e ON e.id = l.entry_id").
		Where("e.tenant_id = ? AND e.status IN ?", tenantID,
			[]accounting.EntryStatus{accounting.EntryStatusPosted, accounting.EntryStatusReversed})
	if accountIDs != nil {
		if len(accountIDs) == 0 {
			return map[uuid.UUID]accounting.BalanceTotals{}, nil
		}
		query = query.Where("l.account_id IN ?", accountIDs)
	}
	if asOf != nil {
		query = query.Where("e.entry_date <= ?", *asOf)
	}

	var rows []balanceRow
	if err := query.Group("l.account_id, l.entry_type").Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]accounting.BalanceTotals)
	for _, row := range rows {
		totals[row.AccountID] = totals[row.AccountID].Add(row.EntryType, row.Total)
	}
	return totals, nil
}

var _ accounting.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
