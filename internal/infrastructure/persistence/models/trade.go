package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentModel is the persistence model for the Document aggregate root.
// Orders, invoices and bills share this table and are told apart by Kind.
type DocumentModel struct {
	TenantRecord
	Kind              trade.DocumentKind   `gorm:"type:varchar(20);not null;index"`
	DocumentNumber    string               `gorm:"type:varchar(50);not null"`
	PartyID           uuid.UUID            `gorm:"type:uuid;not null;index"`
	SourceOrderID     *uuid.UUID           `gorm:"type:uuid;index"`
	DocumentDate      time.Time            `gorm:"type:date;not null"`
	DueDate           *time.Time           `gorm:"type:date;index"`
	Reference         string               `gorm:"type:varchar(100)"`
	Status            trade.DocumentStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Lines             []DocumentLineModel  `gorm:"foreignKey:DocumentID;references:ID"`
	Subtotal          decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountAmount    decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	TaxAmount         decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	TotalAmount       decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	PaidAmount        decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	OutstandingAmount decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	Remark            string               `gorm:"type:text"`
	ConfirmedAt       *time.Time
	CancelledAt       *time.Time
	CancelReason      string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "trade_documents"
}

// ToDomain converts the persistence model to a domain Document entity.
func (m *DocumentModel) ToDomain() *trade.Document {
	d := &trade.Document{
		Kind:              m.Kind,
		DocumentNumber:    m.DocumentNumber,
		PartyID:           m.PartyID,
		SourceOrderID:     m.SourceOrderID,
		DocumentDate:      m.DocumentDate,
		DueDate:           m.DueDate,
		Reference:         m.Reference,
		Status:            m.Status,
		Subtotal:          m.Subtotal,
		DiscountAmount:    m.DiscountAmount,
		TaxAmount:         m.TaxAmount,
		TotalAmount:       m.TotalAmount,
		PaidAmount:        m.PaidAmount,
		OutstandingAmount: m.OutstandingAmount,
		Remark:            m.Remark,
		ConfirmedAt:       m.ConfirmedAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		Lines:             make([]trade.DocumentLine, len(m.Lines)),
	}
	m.restore(&d.TenantAggregateRoot)
	for i := range m.Lines {
		d.Lines[i] = m.Lines[i].ToDomain()
	}
	return d
}

// FromDomain populates the persistence model from a domain Document entity.
func (m *DocumentModel) FromDomain(d *trade.Document) {
	m.TenantRecord = tenantRecordFrom(d.TenantAggregateRoot)
	m.Kind = d.Kind
	m.DocumentNumber = d.DocumentNumber
	m.PartyID = d.PartyID
	m.SourceOrderID = d.SourceOrderID
	m.DocumentDate = d.DocumentDate
	m.DueDate = d.DueDate
	m.Reference = d.Reference
	m.Status = d.Status
	m.Subtotal = d.Subtotal
	m.DiscountAmount = d.DiscountAmount
	m.TaxAmount = d.TaxAmount
	m.TotalAmount = d.TotalAmount
	m.PaidAmount = d.PaidAmount
	m.OutstandingAmount = d.OutstandingAmount
	m.Remark = d.Remark
	m.ConfirmedAt = d.ConfirmedAt
	m.CancelledAt = d.CancelledAt
	m.CancelReason = d.CancelReason
	m.Lines = make([]DocumentLineModel, len(d.Lines))
	for i := range d.Lines {
		m.Lines[i] = *DocumentLineModelFromDomain(&d.Lines[i])
	}
}

// DocumentModelFromDomain creates a new persistence model from a domain Document entity.
func DocumentModelFromDomain(d *trade.Document) *DocumentModel {
	m := &DocumentModel{}
	m.FromDomain(d)
	return m
}

// DocumentLineModel is the persistence model for the DocumentLine entity.
// The applied tax is stored as a snapshot so later rate changes never
// alter an existing document.
type DocumentLineModel struct {
	ID                uuid.UUID        `gorm:"type:uuid;primary_key"`
	DocumentID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	LineNo            int              `gorm:"not null"`
	ProductID         uuid.UUID        `gorm:"type:uuid;not null"`
	Description       string           `gorm:"type:varchar(500)"`
	Quantity          decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	UnitPrice         decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	DiscountPercent   decimal.Decimal  `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountAmount    decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	LineTotal         decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	TaxID             *uuid.UUID       `gorm:"type:uuid"`
	TaxRate           *decimal.Decimal `gorm:"type:decimal(9,6)"`
	TaxInclusive      bool             `gorm:"not null"`
	FulfilledQuantity decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	InvoicedQuantity  decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	SourceLineID      *uuid.UUID       `gorm:"type:uuid"`
	CreatedAt         time.Time        `gorm:"not null"`
	UpdatedAt         time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentLineModel) TableName() string {
	return "trade_document_lines"
}

// ToDomain converts the persistence model to a domain DocumentLine entity.
func (m *DocumentLineModel) ToDomain() trade.DocumentLine {
	l := trade.DocumentLine{
		ID:                m.ID,
		DocumentID:        m.DocumentID,
		LineNo:            m.LineNo,
		ProductID:         m.ProductID,
		Description:       m.Description,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
		DiscountPercent:   m.DiscountPercent,
		DiscountAmount:    m.DiscountAmount,
		LineTotal:         m.LineTotal,
		FulfilledQuantity: m.FulfilledQuantity,
		InvoicedQuantity:  m.InvoicedQuantity,
		SourceLineID:      m.SourceLineID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.TaxID != nil && m.TaxRate != nil {
		l.Tax = &trade.TaxRef{TaxID: *m.TaxID, Rate: *m.TaxRate, Inclusive: m.TaxInclusive}
	}
	return l
}

// DocumentLineModelFromDomain creates a new persistence model from a domain DocumentLine entity.
func DocumentLineModelFromDomain(l *trade.DocumentLine) *DocumentLineModel {
	m := &DocumentLineModel{
		ID:                l.ID,
		DocumentID:        l.DocumentID,
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
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
	if l.Tax != nil {
		taxID, rate := l.Tax.TaxID, l.Tax.Rate
		m.TaxID = &taxID
		m.TaxRate = &rate
		m.TaxInclusive = l.Tax.Inclusive
	}
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	TenantRecord
	PaymentNumber     string              `gorm:"type:varchar(50);not null"`
	Side              trade.PartySide     `gorm:"type:varchar(20);not null;index"`
	PartyID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	Amount            decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	AllocatedAmount   decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	UnallocatedAmount decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentDate       time.Time           `gorm:"type:date;not null"`
	Method            trade.PaymentMethod `gorm:"type:varchar(20);not null"`
	Reference         string              `gorm:"type:varchar(100)"`
	Status            trade.PaymentStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Allocations       []AllocationModel   `gorm:"foreignKey:PaymentID;references:ID"`
	Remark            string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *trade.Payment {
	p := &trade.Payment{
		PaymentNumber:     m.PaymentNumber,
		Side:              m.Side,
		PartyID:           m.PartyID,
		Amount:            m.Amount,
		AllocatedAmount:   m.AllocatedAmount,
		UnallocatedAmount: m.UnallocatedAmount,
		PaymentDate:       m.PaymentDate,
		Method:            m.Method,
		Reference:         m.Reference,
		Status:            m.Status,
		Remark:            m.Remark,
		Allocations:       make([]trade.Allocation, len(m.Allocations)),
	}
	m.restore(&p.TenantAggregateRoot)
	for i, a := range m.Allocations {
		p.Allocations[i] = trade.Allocation{
			ID:          a.ID,
			PaymentID:   a.PaymentID,
			DocumentID:  a.DocumentID,
			Amount:      a.Amount,
			AllocatedAt: a.AllocatedAt,
			UpdatedAt:   a.UpdatedAt,
		}
	}
	return p
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *trade.Payment) {
	m.TenantRecord = tenantRecordFrom(p.TenantAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.Side = p.Side
	m.PartyID = p.PartyID
	m.Amount = p.Amount
	m.AllocatedAmount = p.AllocatedAmount
	m.UnallocatedAmount = p.UnallocatedAmount
	m.PaymentDate = p.PaymentDate
	m.Method = p.Method
	m.Reference = p.Reference
	m.Status = p.Status
	m.Remark = p.Remark
	m.Allocations = make([]AllocationModel, len(p.Allocations))
	for i, a := range p.Allocations {
		m.Allocations[i] = AllocationModel{
			ID:          a.ID,
			TenantID:    p.TenantID,
			PaymentID:   p.ID,
			DocumentID:  a.DocumentID,
			Amount:      a.Amount,
			AllocatedAt: a.AllocatedAt,
			UpdatedAt:   a.UpdatedAt,
		}
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment entity.
func PaymentModelFromDomain(p *trade.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// AllocationModel is the persistence model for the Allocation entity.
// A payment holds at most one allocation per document.
type AllocationModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	DocumentID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	AllocatedAt time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AllocationModel) TableName() string {
	return "payment_allocations"
}

// PartyModel is the persistence model for the Party aggregate root.
type PartyModel struct {
	TenantRecord
	Side             trade.PartySide `gorm:"type:varchar(20);not null"`
	Code             string          `gorm:"type:varchar(50);not null"`
	Name             string          `gorm:"type:varchar(200);not null"`
	DiscountPercent  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	CreditLimit      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentTermsDays int             `gorm:"not null;default:0"`
	IsActive         bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PartyModel) TableName() string {
	return "parties"
}

// ToDomain converts the persistence model to a domain Party entity.
func (m *PartyModel) ToDomain() *trade.Party {
	p := &trade.Party{
		Side:             m.Side,
		Code:             m.Code,
		Name:             m.Name,
		DiscountPercent:  m.DiscountPercent,
		CreditLimit:      m.CreditLimit,
		PaymentTermsDays: m.PaymentTermsDays,
		IsActive:         m.IsActive,
	}
	m.restore(&p.TenantAggregateRoot)
	return p
}

// PartyModelFromDomain creates a new persistence model from a domain Party entity.
func PartyModelFromDomain(p *trade.Party) *PartyModel {
	m := &PartyModel{
		Side:             p.Side,
		Code:             p.Code,
		Name:             p.Name,
		DiscountPercent:  p.DiscountPercent,
		CreditLimit:      p.CreditLimit,
		PaymentTermsDays: p.PaymentTermsDays,
		IsActive:         p.IsActive,
	}
	m.TenantRecord = tenantRecordFrom(p.TenantAggregateRoot)
	return m
}

// FulfillmentModel is the persistence model for the Fulfillment entity.
type FulfillmentModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	DocumentID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	FulfilledAt time.Time       `gorm:"not null"`
	Reference   string          `gorm:"type:varchar(100)"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FulfillmentModel) TableName() string {
	return "trade_fulfillments"
}

// ToDomain converts the persistence model to a domain Fulfillment entity.
func (m *FulfillmentModel) ToDomain() *trade.Fulfillment {
	return &trade.Fulfillment{
		ID:          m.ID,
		TenantID:    m.TenantID,
		DocumentID:  m.DocumentID,
		LineID:      m.LineID,
		Quantity:    m.Quantity,
		FulfilledAt: m.FulfilledAt,
		Reference:   m.Reference,
		CreatedAt:   m.CreatedAt,
	}
}

// FulfillmentModelFromDomain creates a new persistence model from a domain Fulfillment entity.
func FulfillmentModelFromDomain(f *trade.Fulfillment) *FulfillmentModel {
	return &FulfillmentModel{
		ID:          f.ID,
		TenantID:    f.TenantID,
		DocumentID:  f.DocumentID,
		LineID:      f.LineID,
		Quantity:    f.Quantity,
		FulfilledAt: f.FulfilledAt,
		Reference:   f.Reference,
		CreatedAt:   f.CreatedAt,
	}
}
