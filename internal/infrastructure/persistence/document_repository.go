package persistence

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByIDForTenant loads a document with its lines
func (r *GormDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.Document, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByIDForUpdate loads a document with its lines and row-locks the header
func (r *GormDocumentRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*trade.Document, error) {
	return r.findOne(ctx, forUpdate(r.db.WithContext(ctx)).Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByNumber finds a document by its tenant-unique number
func (r *GormDocumentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*trade.Document, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("tenant_id = ? AND document_number = ?", tenantID, number))
}

func (r *GormDocumentRepository) findOne(ctx context.Context, query *gorm.DB) (*trade.Document, error) {
	var model models.DocumentModel
	if err := query.First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", model.ID).
		Order("line_no ASC").
		Find(&model.Lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists document headers matching the filter
func (r *GormDocumentRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter trade.DocumentFilter) (shared.Paginated[*trade.Document], error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.DocumentModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return shared.Paginated[*trade.Document]{}, err
	}

	query = query.Order(documentSort.orderBy(filter.OrderBy, filter.OrderDir))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	var rows []models.DocumentModel
	if err := query.Find(&rows).Error; err != nil {
		return shared.Paginated[*trade.Document]{}, err
	}
	docs := make([]*trade.Document, len(rows))
	for i := range rows {
		docs[i] = rows[i].ToDomain()
	}
	return shared.NewPaginated(docs, total, filter.Page, filter.PageSize), nil
}

// applyFilter applies the typed filter fields and the free-form filters map
func (r *GormDocumentRepository) applyFilter(query *gorm.DB, filter trade.DocumentFilter) *gorm.DB {
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.PartyID != nil {
		query = query.Where("party_id = ?", *filter.PartyID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	for key, value := range filter.Filters {
		switch key {
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("document_date >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("document_date <= ?", t)
			}
		case "due_before":
			if t, ok := value.(time.Time); ok {
				query = query.Where("due_date < ?", t)
			}
		case "source_order_id":
			if id, ok := value.(uuid.UUID); ok {
				query = query.Where("source_order_id = ?", id)
			}
		}
	}
	return query
}

// FindOpenBillables returns the headers of bills and invoices that still
// carry an amount owed, optionally limited to one party.
func (r *GormDocumentRepository) FindOpenBillables(ctx context.Context, tenantID uuid.UUID, partyID *uuid.UUID) ([]*trade.Document, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND kind IN ? AND status IN ?", tenantID,
			[]trade.DocumentKind{trade.KindSalesInvoice, trade.KindPurchaseBill},
			[]trade.DocumentStatus{trade.StatusConfirmed, trade.StatusPartialPaid, trade.StatusOverdue})
	if partyID != nil {
		query = query.Where("party_id = ?", *partyID)
	}

	var rows []models.DocumentModel
	if err := query.Order("due_date ASC, document_number ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]*trade.Document, len(rows))
	for i := range rows {
		docs[i] = rows[i].ToDomain()
	}
	return docs, nil
}

// TenantsWithOpenDocuments lists every tenant holding at least one open
// invoice or bill. It is the only query that crosses tenants.
func (r *GormDocumentRepository) TenantsWithOpenDocuments(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.DocumentModel{}).
		Where("kind IN ? AND status IN ?",
			[]trade.DocumentKind{trade.KindSalesInvoice, trade.KindPurchaseBill},
			[]trade.DocumentStatus{trade.StatusConfirmed, trade.StatusPartialPaid}).
		Distinct().
		Order("tenant_id").
		Pluck("tenant_id", &tenantIDs).Error
	if err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// Create inserts a new document together with its lines
func (r *GormDocumentRepository) Create(ctx context.Context, doc *trade.Document) error {
	return r.db.WithContext(ctx).Create(models.DocumentModelFromDomain(doc)).Error
}

// Update saves header fields with an optimistic version check and
// synchronizes the stored lines with doc.Lines.
func (r *GormDocumentRepository) Update(ctx context.Context, doc *trade.Document) error {
	model := models.DocumentModelFromDomain(doc)
	result := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("id = ? AND version = ?", doc.ID, doc.Version-1).
		Updates(map[string]interface{}{
			"due_date":           model.DueDate,
			"reference":          model.Reference,
			"status":             model.Status,
			"subtotal":           model.Subtotal,
			"discount_amount":    model.DiscountAmount,
			"tax_amount":         model.TaxAmount,
			"total_amount":       model.TotalAmount,
			"paid_amount":        model.PaidAmount,
			"outstanding_amount": model.OutstandingAmount,
			"remark":             model.Remark,
			"confirmed_at":       model.ConfirmedAt,
			"cancelled_at":       model.CancelledAt,
			"cancel_reason":      model.CancelReason,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithMessage("Document was modified by another transaction")
	}

	return syncChildren(r.db.WithContext(ctx), "document_id", doc.ID, model.Lines,
		func(l *models.DocumentLineModel) uuid.UUID { return l.ID })
}

var _ trade.DocumentRepository = (*GormDocumentRepository)(nil)
