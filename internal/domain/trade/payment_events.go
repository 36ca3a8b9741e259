package trade

import (
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypePayment is the aggregate type of payments
const AggregateTypePayment = "Payment"

// Event type constants
const (
	EventTypePaymentCreated     = "PaymentCreated"
	EventTypePaymentAllocated   = "PaymentAllocated"
	EventTypePaymentReallocated = "PaymentReallocated"
	EventTypePaymentBounced     = "PaymentBounced"
)

// PaymentCreatedEvent is raised when a payment is recorded
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID       `json:"payment_id"`
	PaymentNumber string          `json:"payment_number"`
	Side          PartySide       `json:"side"`
	PartyID       uuid.UUID       `json:"party_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
}

// NewPaymentCreatedEvent creates a new PaymentCreatedEvent
func NewPaymentCreatedEvent(p *Payment) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCreated, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		PaymentNumber:   p.PaymentNumber,
		Side:            p.Side,
		PartyID:         p.PartyID,
		Amount:          p.Amount,
		Method:          p.Method,
	}
}

// PaymentAllocatedEvent is raised when an allocation is created or updated
type PaymentAllocatedEvent struct {
	shared.BaseDomainEvent
	PaymentID    uuid.UUID       `json:"payment_id"`
	AllocationID uuid.UUID       `json:"allocation_id"`
	DocumentID   uuid.UUID       `json:"document_id"`
	Amount       decimal.Decimal `json:"amount"`
	Unallocated  decimal.Decimal `json:"unallocated_amount"`
}

// NewPaymentAllocatedEvent creates a PaymentAllocated or PaymentReallocated event
func NewPaymentAllocatedEvent(p *Payment, a *Allocation, reallocated bool) *PaymentAllocatedEvent {
	eventType := EventTypePaymentAllocated
	if reallocated {
		eventType = EventTypePaymentReallocated
	}
	return &PaymentAllocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		AllocationID:    a.ID,
		DocumentID:      a.DocumentID,
		Amount:          a.Amount,
		Unallocated:     p.UnallocatedAmount,
	}
}

// PaymentBouncedEvent is raised when a payment bounces and its allocations are released
type PaymentBouncedEvent struct {
	shared.BaseDomainEvent
	PaymentID   uuid.UUID   `json:"payment_id"`
	DocumentIDs []uuid.UUID `json:"document_ids"`
}

// NewPaymentBouncedEvent creates a new PaymentBouncedEvent
func NewPaymentBouncedEvent(p *Payment, released []uuid.UUID) *PaymentBouncedEvent {
	return &PaymentBouncedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentBounced, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		DocumentIDs:     released,
	}
}
