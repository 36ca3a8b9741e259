package accounting

import (
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Accounts ====================

// CreateAccountRequest represents a request to add an account to the chart
type CreateAccountRequest struct {
	Code        string
	Name        string
	Type        accounting.AccountType
	ParentID    *uuid.UUID
	IsHeader    bool
	IsControl   bool
	Description string
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID               uuid.UUID       `json:"id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	ParentID         *uuid.UUID      `json:"parent_id,omitempty"`
	Level            int             `json:"level"`
	IsHeader         bool            `json:"is_header"`
	IsControl        bool            `json:"is_control"`
	IsActive         bool            `json:"is_active"`
	Description      string          `json:"description,omitempty"`
	Balance          decimal.Decimal `json:"balance"`
	BalanceUpdatedAt *time.Time      `json:"balance_updated_at,omitempty"`
}

// ToAccountResponse converts an account to its response
func ToAccountResponse(a *accounting.Account) AccountResponse {
	return AccountResponse{
		ID:               a.ID,
		Code:             a.Code,
		Name:             a.Name,
		Type:             string(a.Type),
		ParentID:         a.ParentID,
		Level:            a.Level,
		IsHeader:         a.IsHeader,
		IsControl:        a.IsControl,
		IsActive:         a.IsActive,
		Description:      a.Description,
		Balance:          a.Balance,
		BalanceUpdatedAt: a.BalanceUpdatedAt,
	}
}

// ==================== Taxes ====================

// CreateTaxRequest represents a request to define a tax
type CreateTaxRequest struct {
	Code         string
	Name         string
	Rate         decimal.Decimal
	Inclusive    bool
	TaxAccountID *uuid.UUID
}

// TaxResponse represents a tax definition in API responses
type TaxResponse struct {
	ID           uuid.UUID       `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Rate         decimal.Decimal `json:"rate"`
	Inclusive    bool            `json:"inclusive"`
	TaxAccountID *uuid.UUID      `json:"tax_account_id,omitempty"`
	IsActive     bool            `json:"is_active"`
}

// ToTaxResponse converts a tax to its response
func ToTaxResponse(t *accounting.Tax) TaxResponse {
	return TaxResponse{
		ID:           t.ID,
		Code:         t.Code,
		Name:         t.Name,
		Rate:         t.Rate,
		Inclusive:    t.IsInclusive,
		TaxAccountID: t.TaxAccountID,
		IsActive:     t.IsActive,
	}
}

// ==================== Journal ====================

// JournalLineInput is one line supplied when creating an entry
type JournalLineInput struct {
	AccountID   uuid.UUID
	EntryType   accounting.EntryType
	Amount      decimal.Decimal
	Description string
}

// CreateJournalEntryRequest represents a request to create a draft entry
type CreateJournalEntryRequest struct {
	EntryDate   time.Time
	Description string
	Reference   string
	CreatedBy   *uuid.UUID
	Lines       []JournalLineInput
}

// JournalLineResponse represents a journal line in API responses
type JournalLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	LineNo      int             `json:"line_no"`
	AccountID   uuid.UUID       `json:"account_id"`
	EntryType   string          `json:"entry_type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// JournalEntryResponse represents a journal entry in API responses
type JournalEntryResponse struct {
	ID                uuid.UUID             `json:"id"`
	EntryNumber       string                `json:"entry_number"`
	EntryDate         time.Time             `json:"entry_date"`
	Description       string                `json:"description"`
	Reference         string                `json:"reference,omitempty"`
	Status            string                `json:"status"`
	TotalDebit        decimal.Decimal       `json:"total_debit"`
	TotalCredit       decimal.Decimal       `json:"total_credit"`
	Lines             []JournalLineResponse `json:"lines"`
	PostedBy          *uuid.UUID            `json:"posted_by,omitempty"`
	PostedAt          *time.Time            `json:"posted_at,omitempty"`
	ReversedBy        *uuid.UUID            `json:"reversed_by,omitempty"`
	ReversedAt        *time.Time            `json:"reversed_at,omitempty"`
	ReversalOfID      *uuid.UUID            `json:"reversal_of_id,omitempty"`
	ReversedByEntryID *uuid.UUID            `json:"reversed_by_entry_id,omitempty"`
	Version           int                   `json:"version"`
}

// ToJournalEntryResponse converts a journal entry to its response
func ToJournalEntryResponse(e *accounting.JournalEntry) JournalEntryResponse {
	debit, credit := e.Totals()
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{
			ID:          l.ID,
			LineNo:      l.LineNo,
			AccountID:   l.AccountID,
			EntryType:   string(l.EntryType),
			Amount:      l.Amount,
			Description: l.Description,
		}
	}
	return JournalEntryResponse{
		ID:                e.ID,
		EntryNumber:       e.EntryNumber,
		EntryDate:         e.EntryDate,
		Description:       e.Description,
		Reference:         e.Reference,
		Status:            string(e.Status),
		TotalDebit:        debit,
		TotalCredit:       credit,
		Lines:             lines,
		PostedBy:          e.PostedBy,
		PostedAt:          e.PostedAt,
		ReversedBy:        e.ReversedBy,
		ReversedAt:        e.ReversedAt,
		ReversalOfID:      e.ReversalOfID,
		ReversedByEntryID: e.ReversedByEntryID,
		Version:           e.Version,
	}
}

// AccountBalanceChange reports an account balance rewritten by a posting
type AccountBalanceChange struct {
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code"`
	Previous    decimal.Decimal `json:"previous"`
	Balance     decimal.Decimal `json:"balance"`
}

// PostingResult is returned by posting and reversal
type PostingResult struct {
	Entry    JournalEntryResponse   `json:"entry"`
	Reversal *JournalEntryResponse  `json:"reversal,omitempty"`
	Balances []AccountBalanceChange `json:"balances"`
}

// ==================== Balances ====================

// TrialBalanceLineResponse is one row of a trial balance
type TrialBalanceLineResponse struct {
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	AccountType string          `json:"account_type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalanceResponse represents a trial balance in API responses
type TrialBalanceResponse struct {
	AsOf        *time.Time                 `json:"as_of,omitempty"`
	Lines       []TrialBalanceLineResponse `json:"lines"`
	TotalDebit  decimal.Decimal            `json:"total_debit"`
	TotalCredit decimal.Decimal            `json:"total_credit"`
	Balanced    bool                       `json:"balanced"`
}

// ToTrialBalanceResponse converts a trial balance to its response
func ToTrialBalanceResponse(tb *accounting.TrialBalance) TrialBalanceResponse {
	lines := make([]TrialBalanceLineResponse, len(tb.Lines))
	for i, l := range tb.Lines {
		lines[i] = TrialBalanceLineResponse{
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			AccountName: l.AccountName,
			AccountType: string(l.AccountType),
			Debit:       l.Debit,
			Credit:      l.Credit,
		}
	}
	return TrialBalanceResponse{
		AsOf:        tb.AsOf,
		Lines:       lines,
		TotalDebit:  tb.TotalDebit,
		TotalCredit: tb.TotalCredit,
		Balanced:    tb.IsBalanced(),
	}
}
