package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for the Account aggregate root.
type AccountModel struct {
	TenantRecord
	Code             string                 `gorm:"type:varchar(20);not null"`
	Name             string                 `gorm:"type:varchar(200);not null"`
	Type             accounting.AccountType `gorm:"type:varchar(20);not null;index"`
	ParentID         *uuid.UUID             `gorm:"type:uuid;index"`
	Level            int                    `gorm:"not null;default:1"`
	IsHeader         bool                   `gorm:"not null"`
	IsControl        bool                   `gorm:"not null"`
	IsActive         bool                   `gorm:"not null"`
	Description      string                 `gorm:"type:text"`
	Balance          decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	BalanceUpdatedAt *time.Time
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account entity.
func (m *AccountModel) ToDomain() *accounting.Account {
	a := &accounting.Account{
		Code:             m.Code,
		Name:             m.Name,
		Type:             m.Type,
		ParentID:         m.ParentID,
		Level:            m.Level,
		IsHeader:         m.IsHeader,
		IsControl:        m.IsControl,
		IsActive:         m.IsActive,
		Description:      m.Description,
		Balance:          m.Balance,
		BalanceUpdatedAt: m.BalanceUpdatedAt,
	}
	m.restore(&a.TenantAggregateRoot)
	return a
}

// FromDomain populates the persistence model from a domain Account entity.
func (m *AccountModel) FromDomain(a *accounting.Account) {
	m.TenantRecord = tenantRecordFrom(a.TenantAggregateRoot)
	m.Code = a.Code
	m.Name = a.Name
	m.Type = a.Type
	m.ParentID = a.ParentID
	m.Level = a.Level
	m.IsHeader = a.IsHeader
	m.IsControl = a.IsControl
	m.IsActive = a.IsActive
	m.Description = a.Description
	m.Balance = a.Balance
	m.BalanceUpdatedAt = a.BalanceUpdatedAt
}

// AccountModelFromDomain creates a new persistence model from a domain Account entity.
func AccountModelFromDomain(a *accounting.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// JournalEntryModel is the persistence model for the JournalEntry aggregate root.
type JournalEntryModel struct {
	TenantRecord
	EntryNumber       string                 `gorm:"type:varchar(50);not null"`
	EntryDate         time.Time              `gorm:"type:date;not null;index"`
	Description       string                 `gorm:"type:text"`
	Reference         string                 `gorm:"type:varchar(100)"`
	Status            accounting.EntryStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Lines             []JournalLineModel     `gorm:"foreignKey:EntryID;references:ID"`
	PostedBy          *uuid.UUID             `gorm:"type:uuid"`
	PostedAt          *time.Time
	ReversedBy        *uuid.UUID `gorm:"type:uuid"`
	ReversedAt        *time.Time
	ReversalOfID      *uuid.UUID `gorm:"type:uuid;index"`
	ReversedByEntryID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// ToDomain converts the persistence model to a domain JournalEntry entity.
func (m *JournalEntryModel) ToDomain() *accounting.JournalEntry {
	e := &accounting.JournalEntry{
		EntryNumber:       m.EntryNumber,
		EntryDate:         m.EntryDate,
		Description:       m.Description,
		Reference:         m.Reference,
		Status:            m.Status,
		PostedBy:          m.PostedBy,
		PostedAt:          m.PostedAt,
		ReversedBy:        m.ReversedBy,
		ReversedAt:        m.ReversedAt,
		ReversalOfID:      m.ReversalOfID,
		ReversedByEntryID: m.ReversedByEntryID,
		Lines:             make([]accounting.JournalLine, len(m.Lines)),
	}
	m.restore(&e.TenantAggregateRoot)
	for i := range m.Lines {
		e.Lines[i] = m.Lines[i].ToDomain()
	}
	return e
}

// FromDomain populates the persistence model from a domain JournalEntry entity.
func (m *JournalEntryModel) FromDomain(e *accounting.JournalEntry) {
	m.TenantRecord = tenantRecordFrom(e.TenantAggregateRoot)
	m.EntryNumber = e.EntryNumber
	m.EntryDate = e.EntryDate
	m.Description = e.Description
	m.Reference = e.Reference
	m.Status = e.Status
	m.PostedBy = e.PostedBy
	m.PostedAt = e.PostedAt
	m.ReversedBy = e.ReversedBy
	m.ReversedAt = e.ReversedAt
	m.ReversalOfID = e.ReversalOfID
	m.ReversedByEntryID = e.ReversedByEntryID
	m.Lines = make([]JournalLineModel, len(e.Lines))
	for i := range e.Lines {
		m.Lines[i] = *JournalLineModelFromDomain(&e.Lines[i])
	}
}

// JournalEntryModelFromDomain creates a new persistence model from a domain JournalEntry entity.
func JournalEntryModelFromDomain(e *accounting.JournalEntry) *JournalEntryModel {
	m := &JournalEntryModel{}
	m.FromDomain(e)
	return m
}

// JournalLineModel is the persistence model for the JournalLine entity.
type JournalLineModel struct {
	ID          uuid.UUID            `gorm:"type:uuid;primary_key"`
	EntryID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	AccountID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	LineNo      int                  `gorm:"not null"`
	EntryType   accounting.EntryType `gorm:"type:varchar(10);not null"`
	Amount      decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Description string               `gorm:"type:varchar(500)"`
	CreatedAt   time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (JournalLineModel) TableName() string {
	return "journal_lines"
}

// ToDomain converts the persistence model to a domain JournalLine entity.
func (m *JournalLineModel) ToDomain() accounting.JournalLine {
	return accounting.JournalLine{
		ID:          m.ID,
		EntryID:     m.EntryID,
		AccountID:   m.AccountID,
		LineNo:      m.LineNo,
		EntryType:   m.EntryType,
		Amount:      m.Amount,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

// JournalLineModelFromDomain creates a new persistence model from a domain JournalLine entity.
func JournalLineModelFromDomain(l *accounting.JournalLine) *JournalLineModel {
	return &JournalLineModel{
		ID:          l.ID,
		EntryID:     l.EntryID,
		AccountID:   l.AccountID,
		LineNo:      l.LineNo,
		EntryType:   l.EntryType,
		Amount:      l.Amount,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
	}
}

// TaxModel is the persistence model for the Tax aggregate root.
type TaxModel struct {
	TenantRecord
	Code         string          `gorm:"type:varchar(20);not null"`
	Name         string          `gorm:"type:varchar(100);not null"`
	Rate         decimal.Decimal `gorm:"type:decimal(9,6);not null"`
	IsInclusive  bool            `gorm:"not null"`
	TaxAccountID *uuid.UUID      `gorm:"type:uuid"`
	IsActive     bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TaxModel) TableName() string {
	return "taxes"
}

// ToDomain converts the persistence model to a domain Tax entity.
func (m *TaxModel) ToDomain() *accounting.Tax {
	t := &accounting.Tax{
		Code:         m.Code,
		Name:         m.Name,
		Rate:         m.Rate,
		IsInclusive:  m.IsInclusive,
		TaxAccountID: m.TaxAccountID,
		IsActive:     m.IsActive,
	}
	m.restore(&t.TenantAggregateRoot)
	return t
}

// TaxModelFromDomain creates a new persistence model from a domain Tax entity.
func TaxModelFromDomain(t *accounting.Tax) *TaxModel {
	m := &TaxModel{
		Code:         t.Code,
		Name:         t.Name,
		Rate:         t.Rate,
		IsInclusive:  t.IsInclusive,
		TaxAccountID: t.TaxAccountID,
		IsActive:     t.IsActive,
	}
	m.TenantRecord = tenantRecordFrom(t.TenantAggregateRoot)
	return m
}

// SequenceModel holds the last number handed out for one tenant's series.
type SequenceModel struct {
	TenantID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	SequenceType string    `gorm:"type:varchar(50);primaryKey"`
	CurrentValue int64     `gorm:"not null;default:0"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceModel) TableName() string {
	return "number_sequences"
}
