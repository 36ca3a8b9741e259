package trade

import (
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeDocument is the aggregate type of every trade document
const AggregateTypeDocument = "Document"

// Event type constants
const (
	EventTypeDocumentCreated       = "DocumentCreated"
	EventTypeDocumentStatusChanged = "DocumentStatusChanged"
)

// DocumentCreatedEvent is raised when a new document is created
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID    `json:"document_id"`
	DocumentNumber string       `json:"document_number"`
	Kind           DocumentKind `json:"kind"`
	PartyID        uuid.UUID    `json:"party_id"`
}

// NewDocumentCreatedEvent creates a new DocumentCreatedEvent
func NewDocumentCreatedEvent(d *Document) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCreated, AggregateTypeDocument, d.ID, d.TenantID),
		DocumentID:      d.ID,
		DocumentNumber:  d.DocumentNumber,
		Kind:            d.Kind,
		PartyID:         d.PartyID,
	}
}

// DocumentStatusChangedEvent is raised whenever a document changes status,
// including statuses derived from payments and due dates.
type DocumentStatusChangedEvent struct {
	shared.BaseDomainEvent
	DocumentID        uuid.UUID       `json:"document_id"`
	DocumentNumber    string          `json:"document_number"`
	Kind              DocumentKind    `json:"kind"`
	FromStatus        DocumentStatus  `json:"from_status"`
	ToStatus          DocumentStatus  `json:"to_status"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
}

// NewDocumentStatusChangedEvent creates a new DocumentStatusChangedEvent
func NewDocumentStatusChangedEvent(d *Document, from, to DocumentStatus) *DocumentStatusChangedEvent {
	return &DocumentStatusChangedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeDocumentStatusChanged, AggregateTypeDocument, d.ID, d.TenantID),
		DocumentID:        d.ID,
		DocumentNumber:    d.DocumentNumber,
		Kind:              d.Kind,
		FromStatus:        from,
		ToStatus:          to,
		TotalAmount:       d.TotalAmount,
		PaidAmount:        d.PaidAmount,
		OutstandingAmount: d.OutstandingAmount,
	}
}
