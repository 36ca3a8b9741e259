package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPartyRepository implements PartyRepository using GORM
type GormPartyRepository struct {
	db *gorm.DB
}

// NewGormPartyRepository creates a new GormPartyRepository
func NewGormPartyRepository(db *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// FindByIDForTenant finds a party by ID within a tenant
func (r *GormPartyRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.Party, error) {
	var model models.PartyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// ExistsByCode checks whether the code is taken on one side of the tenant.
// Customers and suppliers have separate code spaces.
func (r *GormPartyRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, side trade.PartySide, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PartyModel{}).
		Where("tenant_id = ? AND side = ? AND code = ?", tenantID, side, code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a party
func (r *GormPartyRepository) Save(ctx context.Context, party *trade.Party) error {
	return r.db.WithContext(ctx).Save(models.PartyModelFromDomain(party)).Error
}

var _ trade.PartyRepository = (*GormPartyRepository)(nil)
