package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTaxRepository implements TaxRepository using GORM
type GormTaxRepository struct {
	db *gorm.DB
}

// NewGormTaxRepository creates a new GormTaxRepository
func NewGormTaxRepository(db *gorm.DB) *GormTaxRepository {
	return &GormTaxRepository{db: db}
}

// FindByIDForTenant finds a tax by ID within a tenant
func (r *GormTaxRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*accounting.Tax, error) {
	var model models.TaxModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple taxes; missing IDs are skipped
func (r *GormTaxRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*accounting.Tax, error) {
	if len(ids) == 0 {
		return []*accounting.Tax{}, nil
	}
	var rows []models.TaxModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	taxes := make([]*accounting.Tax, len(rows))
	for i := range rows {
		taxes[i] = rows[i].ToDomain()
	}
	return taxes, nil
}

// ExistsByCode checks whether the code is taken within the tenant
func (r *GormTaxRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TaxModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a tax
func (r *GormTaxRepository) Save(ctx context.Context, tax *accounting.Tax) error {
	return r.db.WithContext(ctx).Save(models.TaxModelFromDomain(tax)).Error
}

var _ accounting.TaxRepository = (*GormTaxRepository)(nil)
