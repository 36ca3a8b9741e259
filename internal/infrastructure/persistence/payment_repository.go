package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByIDForTenant loads a payment with its allocations
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.Payment, error) {
	return r.find(ctx, r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate loads a payment with its allocations and row-locks it
func (r *GormPaymentRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*trade.Payment, error) {
	return r.find(ctx, forUpdate(r.db.WithContext(ctx)), tenantID, id)
}

func (r *GormPaymentRepository) find(ctx context.Context, query *gorm.DB, tenantID, id uuid.UUID) (*trade.Payment, error) {
	var model models.PaymentModel
	if err := query.
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", model.ID).
		Order("allocated_at ASC").
		Find(&model.Allocations).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new payment together with its allocations
func (r *GormPaymentRepository) Create(ctx context.Context, payment *trade.Payment) error {
	return r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error
}

// Update saves header fields with an optimistic version check and
// synchronizes the stored allocations with payment.Allocations.
func (r *GormPaymentRepository) Update(ctx context.Context, payment *trade.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	result := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("id = ? AND version = ?", payment.ID, payment.Version-1).
		Updates(map[string]interface{}{
			"allocated_amount":   model.AllocatedAmount,
			"unallocated_amount": model.UnallocatedAmount,
			"reference":          model.Reference,
			"status":             model.Status,
			"remark":             model.Remark,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithMessage("Payment was modified by another transaction")
	}

	return syncChildren(r.db.WithContext(ctx), "payment_id", payment.ID, model.Allocations,
		func(a *models.AllocationModel) uuid.UUID { return a.ID })
}

// SumAllocationsForDocument sums every allocation referencing the document
// across all payments.
func (r *GormPaymentRepository) SumAllocationsForDocument(ctx context.Context, tenantID, documentID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.WithContext(ctx).Model(&models.AllocationModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("tenant_id = ? AND document_id = ?", tenantID, documentID).
		Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

var _ trade.PaymentRepository = (*GormPaymentRepository)(nil)
