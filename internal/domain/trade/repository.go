package trade

import (
	"context"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentFilter narrows document list queries
type DocumentFilter struct {
	shared.Filter
	Kind     DocumentKind
	PartyID  *uuid.UUID
	Statuses []DocumentStatus
}

// DocumentRepository persists documents and their lines
type DocumentRepository interface {
	// FindByIDForTenant loads a document with its lines
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)

	// FindByIDForUpdate loads a document with its lines and row-locks the header.
	// Every line mutation and derived-field recompute goes through this lock.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)

	// FindByNumber finds a document by its tenant-unique number
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Document, error)

	// FindAll lists document headers matching the filter
	FindAll(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter) (shared.Paginated[*Document], error)

	// FindOpenBillables returns the headers of bills and invoices in an open status,
	// optionally limited to one party.
	FindOpenBillables(ctx context.Context, tenantID uuid.UUID, partyID *uuid.UUID) ([]*Document, error)

	// Create inserts a new document together with its lines
	Create(ctx context.Context, doc *Document) error

	// Update saves header fields with an optimistic version check and
	// synchronizes the stored lines with doc.Lines.
	Update(ctx context.Context, doc *Document) error
}

// PaymentRepository persists payments and their allocations
type PaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)

	// FindByIDForUpdate loads a payment with its allocations and row-locks it
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)

	Create(ctx context.Context, payment *Payment) error

	// Update saves header fields with an optimistic version check and
	// synchronizes the stored allocations with payment.Allocations.
	Update(ctx context.Context, payment *Payment) error

	// SumAllocationsForDocument sums every allocation referencing the document
	// across all payments.
	SumAllocationsForDocument(ctx context.Context, tenantID, documentID uuid.UUID) (decimal.Decimal, error)
}

// PartyRepository persists customers and suppliers
type PartyRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Party, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, side PartySide, code string) (bool, error)
	Save(ctx context.Context, party *Party) error
}

// FulfillmentRepository persists delivery and receipt rows of order lines
type FulfillmentRepository interface {
	Create(ctx context.Context, f *Fulfillment) error

	// SumForLine sums the fulfilled quantity recorded against an order line
	SumForLine(ctx context.Context, tenantID, lineID uuid.UUID) (decimal.Decimal, error)

	FindByDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]*Fulfillment, error)
}
