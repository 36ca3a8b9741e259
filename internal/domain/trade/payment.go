package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartySide identifies whether a party buys from or sells to the tenant
type PartySide string

const (
	SideCustomer PartySide = "CUSTOMER"
	SideSupplier PartySide = "SUPPLIER"
)

// IsValid checks if the side is valid
func (s PartySide) IsValid() bool {
	return s == SideCustomer || s == SideSupplier
}

// String returns the string representation of PartySide
func (s PartySide) String() string {
	return string(s)
}

// PaymentSequenceType returns the number series payments on this side draw from
func (s PartySide) PaymentSequenceType() numbering.SequenceType {
	if s == SideCustomer {
		return numbering.SequenceSalesPayment
	}
	return numbering.SequencePurchasePayment
}

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "CASH"
	PaymentMethodBankTransfer  PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheque        PaymentMethod = "CHEQUE"
	PaymentMethodCreditCard    PaymentMethod = "CREDIT_CARD"
	PaymentMethodMobileBanking PaymentMethod = "MOBILE_BANKING"
	PaymentMethodEWallet       PaymentMethod = "E_WALLET"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheque,
		PaymentMethodCreditCard, PaymentMethodMobileBanking, PaymentMethodEWallet:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// PaymentStatus represents the lifecycle of a payment
type PaymentStatus string

const (
	PaymentStatusDraft      PaymentStatus = "DRAFT"
	PaymentStatusConfirmed  PaymentStatus = "CONFIRMED"
	PaymentStatusReconciled PaymentStatus = "RECONCILED"
	PaymentStatusBounced    PaymentStatus = "BOUNCED"
)

// IsValid checks if the status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusDraft, PaymentStatusConfirmed, PaymentStatusReconciled, PaymentStatusBounced:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// CanAllocate returns true if allocations may change in this status
func (s PaymentStatus) CanAllocate() bool {
	return s == PaymentStatusDraft || s == PaymentStatusConfirmed
}

// Allocation assigns part of a payment to one bill or invoice.
// It is owned by its payment and only references the document.
type Allocation struct {
	ID          uuid.UUID
	PaymentID   uuid.UUID
	DocumentID  uuid.UUID
	Amount      decimal.Decimal
	AllocatedAt time.Time
	UpdatedAt   time.Time
}

// Payment is money received from a customer or paid to a supplier
type Payment struct {
	shared.TenantAggregateRoot
	PaymentNumber     string
	Side              PartySide
	PartyID           uuid.UUID
	Amount            decimal.Decimal
	AllocatedAmount   decimal.Decimal
	UnallocatedAmount decimal.Decimal
	PaymentDate       time.Time
	Method            PaymentMethod
	Reference         string
	Status            PaymentStatus
	Allocations       []Allocation
	Remark            string
}

// NewPayment creates a new draft payment
func NewPayment(tenantID uuid.UUID, number string, side PartySide, partyID uuid.UUID, amount decimal.Decimal, paymentDate time.Time, method PaymentMethod) (*Payment, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewValidationError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if !side.IsValid() {
		return nil, ErrInvalidSide
	}
	if partyID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PARTY", "Party ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount.WithMessage("Payment amount must be positive")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATE", "Payment date is required")
	}
	if !method.IsValid() {
		return nil, ErrInvalidMethod
	}

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentNumber:       number,
		Side:                side,
		PartyID:             partyID,
		Amount:              amount,
		AllocatedAmount:     decimal.Zero,
		UnallocatedAmount:   amount,
		PaymentDate:         paymentDate,
		Method:              method,
		Status:              PaymentStatusDraft,
		Allocations:         make([]Allocation, 0),
	}
	p.AddDomainEvent(NewPaymentCreatedEvent(p))
	return p, nil
}

// FindAllocation returns the allocation against the given document, or nil
func (p *Payment) FindAllocation(documentID uuid.UUID) *Allocation {
	for i := range p.Allocations {
		if p.Allocations[i].DocumentID == documentID {
			return &p.Allocations[i]
		}
	}
	return nil
}

func (p *Payment) checkTarget(doc *Document) error {
	if !p.Status.CanAllocate() {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Cannot allocate a payment in %s status", p.Status))
	}
	if !doc.Kind.IsBillable() {
		return ErrNotBillable
	}
	if doc.TenantID != p.TenantID || doc.Kind.Side() != p.Side || doc.PartyID != p.PartyID {
		return ErrPartyMismatch
	}
	if doc.Status == StatusCancelled {
		return shared.ErrInvalidState.WithMessage("Cannot allocate to a cancelled document")
	}
	return nil
}

// Allocate creates a new allocation of amount against doc. A second
// allocation between the same payment and document is rejected; use
// Reallocate to change it.
func (p *Payment) Allocate(doc *Document, amount decimal.Decimal) (*Allocation, error) {
	if amount.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}
	if err := p.checkTarget(doc); err != nil {
		return nil, err
	}
	if p.FindAllocation(doc.ID) != nil {
		return nil, ErrDuplicateAllocation
	}
	if amount.GreaterThan(p.UnallocatedAmount) {
		return nil, ErrOverAllocation
	}

	now := time.Now()
	p.Allocations = append(p.Allocations, Allocation{
		ID:          uuid.New(),
		PaymentID:   p.ID,
		DocumentID:  doc.ID,
		Amount:      amount,
		AllocatedAt: now,
		UpdatedAt:   now,
	})
	p.refreshAllocated()
	p.IncrementVersion()

	alloc := &p.Allocations[len(p.Allocations)-1]
	p.AddDomainEvent(NewPaymentAllocatedEvent(p, alloc, false))
	return alloc, nil
}

// Reallocate replaces the amount of an existing allocation
func (p *Payment) Reallocate(doc *Document, amount decimal.Decimal) (*Allocation, error) {
	if amount.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}
	if err := p.checkTarget(doc); err != nil {
		return nil, err
	}
	alloc := p.FindAllocation(doc.ID)
	if alloc == nil {
		return nil, shared.ErrNotFound.WithMessage("Allocation not found")
	}
	if amount.GreaterThan(p.UnallocatedAmount.Add(alloc.Amount)) {
		return nil, ErrOverAllocation
	}

	alloc.Amount = amount
	alloc.UpdatedAt = time.Now()
	p.refreshAllocated()
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentAllocatedEvent(p, alloc, true))
	return alloc, nil
}

func (p *Payment) refreshAllocated() {
	allocated := decimal.Zero
	for _, a := range p.Allocations {
		allocated = allocated.Add(a.Amount)
	}
	p.AllocatedAmount = allocated
	p.UnallocatedAmount = p.Amount.Sub(allocated)
	p.UpdatedAt = time.Now()
}

// Confirm confirms a draft payment
func (p *Payment) Confirm() error {
	if p.Status != PaymentStatusDraft {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Cannot confirm payment in %s status", p.Status))
	}
	p.Status = PaymentStatusConfirmed
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Reconcile marks a confirmed payment as matched against the bank statement
func (p *Payment) Reconcile() error {
	if p.Status != PaymentStatusConfirmed {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Cannot reconcile payment in %s status", p.Status))
	}
	p.Status = PaymentStatusReconciled
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Bounce marks the payment as bounced and releases every allocation.
// It returns the documents whose paid amount must be recomputed.
func (p *Payment) Bounce() ([]uuid.UUID, error) {
	if p.Status == PaymentStatusBounced {
		return nil, shared.ErrInvalidState.WithMessage("Payment has already bounced")
	}
	released := make([]uuid.UUID, 0, len(p.Allocations))
	for _, a := range p.Allocations {
		released = append(released, a.DocumentID)
	}
	p.Allocations = make([]Allocation, 0)
	p.refreshAllocated()
	p.Status = PaymentStatusBounced
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentBouncedEvent(p, released))
	return released, nil
}
