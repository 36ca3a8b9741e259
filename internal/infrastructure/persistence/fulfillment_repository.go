package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormFulfillmentRepository implements FulfillmentRepository using GORM
type GormFulfillmentRepository struct {
	db *gorm.DB
}

// NewGormFulfillmentRepository creates a new GormFulfillmentRepository
func NewGormFulfillmentRepository(db *gorm.DB) *GormFulfillmentRepository {
	return &GormFulfillmentRepository{db: db}
}

// Create inserts a fulfillment row
func (r *GormFulfillmentRepository) Create(ctx context.Context, f *trade.Fulfillment) error {
	return r.db.WithContext(ctx).Create(models.FulfillmentModelFromDomain(f)).Error
}

// SumForLine sums the fulfilled quantity recorded against an order line
func (r *GormFulfillmentRepository) SumForLine(ctx context.Context, tenantID, lineID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.WithContext(ctx).Model(&models.FulfillmentModel{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("tenant_id = ? AND line_id = ?", tenantID, lineID).
		Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// FindByDocument lists the fulfillment rows of an order, oldest first
func (r *GormFulfillmentRepository) FindByDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]*trade.Fulfillment, error) {
	var rows []models.FulfillmentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_id = ?", tenantID, documentID).
		Order("fulfilled_at ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*trade.Fulfillment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ trade.FulfillmentRepository = (*GormFulfillmentRepository)(nil)
