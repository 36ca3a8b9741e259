package trade

import (
	"time"

	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Documents ====================

// LineRequest carries one document line. TaxID references a stored tax definition.
type LineRequest struct {
	ProductID       uuid.UUID
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	TaxID           *uuid.UUID
}

// CreateDocumentRequest creates an order, bill or invoice.
// A bill or invoice without DueDate is due after the party's payment terms.
type CreateDocumentRequest struct {
	Kind         trade.DocumentKind
	PartyID      uuid.UUID
	DocumentDate time.Time
	DueDate      *time.Time
	Reference    string
	Remark       string
	CreatedBy    *uuid.UUID
	Lines        []LineRequest
}

// DocumentListFilter narrows document list queries
type DocumentListFilter struct {
	Kind     trade.DocumentKind
	PartyID  *uuid.UUID
	Statuses []trade.DocumentStatus
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// DocumentLineResponse represents a document line in API responses
type DocumentLineResponse struct {
	ID                uuid.UUID        `json:"id"`
	LineNo            int              `json:"line_no"`
	ProductID         uuid.UUID        `json:"product_id"`
	Description       string           `json:"description,omitempty"`
	Quantity          decimal.Decimal  `json:"quantity"`
	UnitPrice         decimal.Decimal  `json:"unit_price"`
	DiscountPercent   decimal.Decimal  `json:"discount_percent"`
	DiscountAmount    decimal.Decimal  `json:"discount_amount"`
	LineTotal         decimal.Decimal  `json:"line_total"`
	TaxID             *uuid.UUID       `json:"tax_id,omitempty"`
	TaxRate           *decimal.Decimal `json:"tax_rate,omitempty"`
	TaxInclusive      bool             `json:"tax_inclusive"`
	FulfilledQuantity decimal.Decimal  `json:"fulfilled_quantity"`
	InvoicedQuantity  decimal.Decimal  `json:"invoiced_quantity"`
	SourceLineID      *uuid.UUID       `json:"source_line_id,omitempty"`
}

// DocumentResponse represents a document in API responses
type DocumentResponse struct {
	ID                uuid.UUID              `json:"id"`
	Kind              string                 `json:"kind"`
	DocumentNumber    string                 `json:"document_number"`
	PartyID           uuid.UUID              `json:"party_id"`
	SourceOrderID     *uuid.UUID             `json:"source_order_id,omitempty"`
	DocumentDate      time.Time              `json:"document_date"`
	DueDate           *time.Time             `json:"due_date,omitempty"`
	Reference         string                 `json:"reference,omitempty"`
	Status            string                 `json:"status"`
	Subtotal          decimal.Decimal        `json:"subtotal"`
	DiscountAmount    decimal.Decimal        `json:"discount_amount"`
	TaxAmount         decimal.Decimal        `json:"tax_amount"`
	TotalAmount       decimal.Decimal        `json:"total_amount"`
	PaidAmount        decimal.Decimal        `json:"paid_amount"`
	OutstandingAmount decimal.Decimal        `json:"outstanding_amount"`
	Remark            string                 `json:"remark,omitempty"`
	ConfirmedAt       *time.Time             `json:"confirmed_at,omitempty"`
	CancelledAt       *time.Time             `json:"cancelled_at,omitempty"`
	CancelReason      string                 `json:"cancel_reason,omitempty"`
	Lines             []DocumentLineResponse `json:"lines,omitempty"`
	Version           int                    `json:"version"`
}

// ToDocumentResponse converts a domain Document to DocumentResponse
func ToDocumentResponse(d *trade.Document) DocumentResponse {
	lines := make([]DocumentLineResponse, len(d.Lines))
	for i, l := range d.Lines {
		lr := DocumentLineResponse{
			ID:                l.ID,
			LineNo:            l.LineNo,
			ProductID:         l.ProductID,
			Description:       l.Description,
			Quantity:          l.Quantity,
			UnitPrice:         l.UnitPrice,
			DiscountPercent:   l.DiscountPercent,
			DiscountAmount:    l.DiscountAmount,
			LineTotal:         l.LineTotal,
			FulfilledQuantity: l.FulfilledQuantity,
			InvoicedQuantity:  l.InvoicedQuantity,
			SourceLineID:      l.SourceLineID,
		}
		if l.Tax != nil {
			taxID, rate := l.Tax.TaxID, l.Tax.Rate
			lr.TaxID = &taxID
			lr.TaxRate = &rate
			lr.TaxInclusive = l.Tax.Inclusive
		}
		lines[i] = lr
	}
	return DocumentResponse{
		ID:                d.ID,
		Kind:              string(d.Kind),
		DocumentNumber:    d.DocumentNumber,
		PartyID:           d.PartyID,
		SourceOrderID:     d.SourceOrderID,
		DocumentDate:      d.DocumentDate,
		DueDate:           d.DueDate,
		Reference:         d.Reference,
		Status:            string(d.Status),
		Subtotal:          d.Subtotal,
		DiscountAmount:    d.DiscountAmount,
		TaxAmount:         d.TaxAmount,
		TotalAmount:       d.TotalAmount,
		PaidAmount:        d.PaidAmount,
		OutstandingAmount: d.OutstandingAmount,
		Remark:            d.Remark,
		ConfirmedAt:       d.ConfirmedAt,
		CancelledAt:       d.CancelledAt,
		CancelReason:      d.CancelReason,
		Lines:             lines,
		Version:           d.Version,
	}
}

// ToDocumentResponses converts a slice of documents
func ToDocumentResponses(docs []*trade.Document) []DocumentResponse {
	out := make([]DocumentResponse, len(docs))
	for i, d := range docs {
		out[i] = ToDocumentResponse(d)
	}
	return out
}

// FulfillmentRequest records a delivered or received quantity of one order line
type FulfillmentRequest struct {
	LineID      uuid.UUID
	Quantity    decimal.Decimal
	FulfilledAt time.Time
	Reference   string
}

// BillingRequest raises a bill or invoice from an order's fulfilled quantities.
// Without DueDate the party's payment terms apply.
type BillingRequest struct {
	DocumentDate time.Time
	DueDate      *time.Time
}

// OverdueSweepResult reports the documents that moved to OVERDUE
type OverdueSweepResult struct {
	Checked       int         `json:"checked"`
	MarkedOverdue []uuid.UUID `json:"marked_overdue"`
}

// ==================== Payments ====================

// CreatePaymentRequest records money received from a customer or paid to a supplier
type CreatePaymentRequest struct {
	Side        trade.PartySide
	PartyID     uuid.UUID
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      trade.PaymentMethod
	Reference   string
	Remark      string
}

// AllocationResponse represents an allocation in API responses
type AllocationResponse struct {
	ID          uuid.UUID       `json:"id"`
	DocumentID  uuid.UUID       `json:"document_id"`
	Amount      decimal.Decimal `json:"amount"`
	AllocatedAt time.Time       `json:"allocated_at"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                uuid.UUID            `json:"id"`
	PaymentNumber     string               `json:"payment_number"`
	Side              string               `json:"side"`
	PartyID           uuid.UUID            `json:"party_id"`
	Amount            decimal.Decimal      `json:"amount"`
	AllocatedAmount   decimal.Decimal      `json:"allocated_amount"`
	UnallocatedAmount decimal.Decimal      `json:"unallocated_amount"`
	PaymentDate       time.Time            `json:"payment_date"`
	Method            string               `json:"method"`
	Reference         string               `json:"reference,omitempty"`
	Status            string               `json:"status"`
	Remark            string               `json:"remark,omitempty"`
	Allocations       []AllocationResponse `json:"allocations"`
	Version           int                  `json:"version"`
}

// ToPaymentResponse converts a domain Payment to PaymentResponse
func ToPaymentResponse(p *trade.Payment) PaymentResponse {
	allocs := make([]AllocationResponse, len(p.Allocations))
	for i, a := range p.Allocations {
		allocs[i] = AllocationResponse{
			ID:          a.ID,
			DocumentID:  a.DocumentID,
			Amount:      a.Amount,
			AllocatedAt: a.AllocatedAt,
		}
	}
	return PaymentResponse{
		ID:                p.ID,
		PaymentNumber:     p.PaymentNumber,
		Side:              string(p.Side),
		PartyID:           p.PartyID,
		Amount:            p.Amount,
		AllocatedAmount:   p.AllocatedAmount,
		UnallocatedAmount: p.UnallocatedAmount,
		PaymentDate:       p.PaymentDate,
		Method:            string(p.Method),
		Reference:         p.Reference,
		Status:            string(p.Status),
		Remark:            p.Remark,
		Allocations:       allocs,
		Version:           p.Version,
	}
}

// AllocationResult is returned by allocate and reallocate
type AllocationResult struct {
	AllocationID uuid.UUID        `json:"allocation_id"`
	Payment      PaymentResponse  `json:"payment"`
	Document     DocumentResponse `json:"document"`
}

// ==================== Parties ====================

// CreatePartyRequest creates a customer or supplier
type CreatePartyRequest struct {
	Side             trade.PartySide
	Code             string
	Name             string
	DiscountPercent  decimal.Decimal
	CreditLimit      decimal.Decimal
	PaymentTermsDays int
}

// PartyResponse represents a party in API responses
type PartyResponse struct {
	ID               uuid.UUID       `json:"id"`
	Side             string          `json:"side"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	DiscountPercent  decimal.Decimal `json:"discount_percent"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	PaymentTermsDays int             `json:"payment_terms_days"`
	IsActive         bool            `json:"is_active"`
}

// ToPartyResponse converts a domain Party to PartyResponse
func ToPartyResponse(p *trade.Party) PartyResponse {
	return PartyResponse{
		ID:               p.ID,
		Side:             string(p.Side),
		Code:             p.Code,
		Name:             p.Name,
		DiscountPercent:  p.DiscountPercent,
		CreditLimit:      p.CreditLimit,
		PaymentTermsDays: p.PaymentTermsDays,
		IsActive:         p.IsActive,
	}
}

// PartyBalanceResponse represents a party's outstanding balance
type PartyBalanceResponse struct {
	PartyID         uuid.UUID       `json:"party_id"`
	Side            string          `json:"side"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	CreditAvailable decimal.Decimal `json:"credit_available"`
	OpenDocuments   int             `json:"open_documents"`
	OverdueAmount   decimal.Decimal `json:"overdue_amount"`
}

// ToPartyBalanceResponse converts a domain PartyBalance
func ToPartyBalanceResponse(b trade.PartyBalance) PartyBalanceResponse {
	return PartyBalanceResponse{
		PartyID:         b.PartyID,
		Side:            string(b.Side),
		Outstanding:     b.Outstanding,
		CreditLimit:     b.CreditLimit,
		CreditAvailable: b.CreditAvailable,
		OpenDocuments:   b.OpenDocuments,
		OverdueAmount:   b.OverdueAmount,
	}
}
