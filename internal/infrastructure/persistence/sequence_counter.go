package persistence

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceCounter implements numbering.Counter on the number_sequences
// table. Each increment runs in its own short transaction: the row update
// serializes concurrent callers and is committed before the number is used,
// so a later rollback of the caller leaves a gap rather than a duplicate.
type GormSequenceCounter struct {
	db *gorm.DB
}

// NewGormSequenceCounter creates a new GormSequenceCounter
func NewGormSequenceCounter(db *gorm.DB) *GormSequenceCounter {
	return &GormSequenceCounter{db: db}
}

// Increment bumps the tenant's sequence and returns the new value
func (c *GormSequenceCounter) Increment(ctx context.Context, tenantID uuid.UUID, sequenceType numbering.SequenceType) (int64, error) {
	if !sequenceType.IsValid() {
		return 0, numbering.ErrInvalidSequence
	}

	var next int64
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		seed := models.SequenceModel{
			TenantID:     tenantID,
			SequenceType: sequenceType.String(),
			CurrentValue: 0,
			UpdatedAt:    now,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.SequenceModel{}).
			Where("tenant_id = ? AND sequence_type = ?", tenantID, sequenceType.String()).
			Updates(map[string]interface{}{
				"current_value": gorm.Expr("current_value + 1"),
				"updated_at":    now,
			}).Error; err != nil {
			return err
		}

		var row models.SequenceModel
		if err := tx.Where("tenant_id = ? AND sequence_type = ?", tenantID, sequenceType.String()).
			First(&row).Error; err != nil {
			return err
		}
		next = row.CurrentValue
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

var _ numbering.Counter = (*GormSequenceCounter)(nil)
