package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantRecord holds the columns every ledger table shares: identity, audit
// timestamps, the optimistic-lock version and the owning tenant. Repositories
// update rows with WHERE id = ? AND version = ? against Version.
type TenantRecord struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
	Version   int        `gorm:"not null;default:1"`
}

func tenantRecordFrom(t shared.TenantAggregateRoot) TenantRecord {
	return TenantRecord{
		ID:        t.ID,
		TenantID:  t.TenantID,
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Version:   t.Version,
	}
}

// restore copies the shared columns into a domain aggregate. Loaded
// aggregates start with no pending events.
func (r TenantRecord) restore(t *shared.TenantAggregateRoot) {
	t.ID = r.ID
	t.TenantID = r.TenantID
	t.CreatedBy = r.CreatedBy
	t.CreatedAt = r.CreatedAt
	t.UpdatedAt = r.UpdatedAt
	t.Version = r.Version
}
