package handler

import (
	"time"

	"github.com/erp/ledger/internal/application/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentLineRequest is one document line in a request body
type DocumentLineRequest struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	Description     string          `json:"description" binding:"max=500"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxID           *uuid.UUID      `json:"tax_id"`
}

func (r DocumentLineRequest) toLine() trade.LineRequest {
	return trade.LineRequest{
		ProductID:       r.ProductID,
		Description:     r.Description,
		Quantity:        r.Quantity,
		UnitPrice:       r.UnitPrice,
		DiscountPercent: r.DiscountPercent,
		TaxID:           r.TaxID,
	}
}

// CreateDocumentRequest is the body of POST /documents
type CreateDocumentRequest struct {
	Kind         string                `json:"kind" binding:"required,oneof=SALES_ORDER SALES_INVOICE PURCHASE_ORDER PURCHASE_BILL"`
	PartyID      uuid.UUID             `json:"party_id" binding:"required"`
	DocumentDate string                `json:"document_date" binding:"required,datetime=2006-01-02"`
	DueDate      string                `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Reference    string                `json:"reference" binding:"max=100"`
	Remark       string                `json:"remark" binding:"max=500"`
	Lines        []DocumentLineRequest `json:"lines" binding:"dive"`
}

// ListDocumentsQuery holds the query parameters of GET /documents
type ListDocumentsQuery struct {
	Kind     string `form:"kind" binding:"omitempty,oneof=SALES_ORDER SALES_INVOICE PURCHASE_ORDER PURCHASE_BILL"`
	PartyID  string `form:"party_id" binding:"omitempty,uuid"`
	Status   string `form:"status"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// CancelDocumentRequest is the optional body of POST /documents/:id/cancel
type CancelDocumentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// FulfillmentRequest is the body of POST /documents/:id/fulfillments
type FulfillmentRequest struct {
	LineID      uuid.UUID       `json:"line_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	FulfilledAt string          `json:"fulfilled_at" binding:"omitempty,datetime=2006-01-02"`
	Reference   string          `json:"reference" binding:"max=100"`
}

// BillingRequest is the body of POST /documents/:id/billing
type BillingRequest struct {
	DocumentDate string `json:"document_date" binding:"required,datetime=2006-01-02"`
	DueDate      string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
}

// OverdueSweepRequest is the optional body of POST /overdue-sweeps
type OverdueSweepRequest struct {
	Today string `json:"today" binding:"omitempty,datetime=2006-01-02"`
}

// CreatePaymentRequest is the body of POST /payments
type CreatePaymentRequest struct {
	Side        string          `json:"side" binding:"required,oneof=CUSTOMER SUPPLIER"`
	PartyID     uuid.UUID       `json:"party_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date" binding:"required,datetime=2006-01-02"`
	Method      string          `json:"method" binding:"required,oneof=CASH BANK_TRANSFER CHEQUE CREDIT_CARD MOBILE_BANKING E_WALLET"`
	Reference   string          `json:"reference" binding:"max=100"`
	Remark      string          `json:"remark" binding:"max=500"`
}

// AllocateRequest is the body of POST /payments/:id/allocations
type AllocateRequest struct {
	DocumentID uuid.UUID       `json:"document_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
}

// ReallocateRequest is the body of PUT /payments/:id/allocations/:document_id
type ReallocateRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// CreatePartyRequest is the body of POST /parties
type CreatePartyRequest struct {
	Side             string          `json:"side" binding:"required,oneof=CUSTOMER SUPPLIER"`
	Code             string          `json:"code" binding:"required,max=50"`
	Name             string          `json:"name" binding:"required,max=200"`
	DiscountPercent  decimal.Decimal `json:"discount_percent" binding:"decimal_gte0"`
	CreditLimit      decimal.Decimal `json:"credit_limit" binding:"decimal_gte0"`
	PaymentTermsDays int             `json:"payment_terms_days" binding:"gte=0,lte=365"`
}

// dateOr parses s, falling back to def when s is empty
func dateOr(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	return parseDate(s)
}
