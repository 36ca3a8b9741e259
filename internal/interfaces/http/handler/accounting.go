package handler

import (
	"github.com/erp/ledger/internal/application/accounting"
	domain "github.com/erp/ledger/internal/domain/accounting"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountingHandler serves the chart of accounts, taxes, journal entries
// and balances.
type AccountingHandler struct {
	BaseHandler
	chart    *accounting.ChartService
	journal  *accounting.JournalService
	balances *accounting.BalanceService
}

// NewAccountingHandler creates a new AccountingHandler
func NewAccountingHandler(chart *accounting.ChartService, journal *accounting.JournalService, balances *accounting.BalanceService) *AccountingHandler {
	return &AccountingHandler{chart: chart, journal: journal, balances: balances}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *AccountingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts")
	accounts.POST("", h.CreateAccount)
	accounts.GET("", h.ListAccounts)
	accounts.GET("/:id", h.GetAccount)
	accounts.GET("/:id/balance", h.GetAccountBalance)

	taxes := rg.Group("/taxes")
	taxes.POST("", h.CreateTax)
	taxes.GET("/:id", h.GetTax)
	taxes.GET("/:id/calculate", h.CalculateTax)

	entries := rg.Group("/journal-entries")
	entries.POST("", h.CreateJournalEntry)
	entries.GET("/:id", h.GetJournalEntry)
	entries.POST("/:id/lines", h.AddJournalLine)
	entries.DELETE("/:id/lines/:line_id", h.RemoveJournalLine)
	entries.POST("/:id/post", h.PostJournalEntry)
	entries.POST("/:id/reverse", h.ReverseJournalEntry)

	rg.GET("/trial-balance", h.TrialBalance)
}

// CreateAccountRequest is the body of POST /accounts
type CreateAccountRequest struct {
	Code        string     `json:"code" binding:"required,max=20"`
	Name        string     `json:"name" binding:"required,max=200"`
	Type        string     `json:"type" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	ParentID    *uuid.UUID `json:"parent_id"`
	IsHeader    bool       `json:"is_header"`
	IsControl   bool       `json:"is_control"`
	Description string     `json:"description" binding:"max=500"`
}

// CreateTaxRequest is the body of POST /taxes
type CreateTaxRequest struct {
	Code         string          `json:"code" binding:"required,max=20"`
	Name         string          `json:"name" binding:"required,max=100"`
	Rate         decimal.Decimal `json:"rate" binding:"decimal_gte0"`
	Inclusive    bool            `json:"inclusive"`
	TaxAccountID *uuid.UUID      `json:"tax_account_id"`
}

// JournalLineRequest is one journal line in a request body
type JournalLineRequest struct {
	AccountID   uuid.UUID       `json:"account_id" binding:"required"`
	EntryType   string          `json:"entry_type" binding:"required,oneof=DEBIT CREDIT"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"max=500"`
}

// CreateJournalEntryRequest is the body of POST /journal-entries
type CreateJournalEntryRequest struct {
	EntryDate   string               `json:"entry_date" binding:"required,datetime=2006-01-02"`
	Description string               `json:"description" binding:"required,max=500"`
	Reference   string               `json:"reference" binding:"max=100"`
	Lines       []JournalLineRequest `json:"lines" binding:"dive"`
}

// TaxCalculationResponse is returned by GET /taxes/:id/calculate
type TaxCalculationResponse struct {
	BaseAmount  decimal.Decimal `json:"base_amount"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// AccountBalanceResponse is returned by GET /accounts/:id/balance
type AccountBalanceResponse struct {
	AccountID uuid.UUID       `json:"account_id"`
	AsOf      *string         `json:"as_of,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
}

func (r JournalLineRequest) toInput() accounting.JournalLineInput {
	return accounting.JournalLineInput{
		AccountID:   r.AccountID,
		EntryType:   domain.EntryType(r.EntryType),
		Amount:      r.Amount,
		Description: r.Description,
	}
}

// CreateAccount handles POST /accounts
func (h *AccountingHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	account, err := h.chart.CreateAccount(c.Request.Context(), tenantID(c), accounting.CreateAccountRequest{
		Code:        req.Code,
		Name:        req.Name,
		Type:        domain.AccountType(req.Type),
		ParentID:    req.ParentID,
		IsHeader:    req.IsHeader,
		IsControl:   req.IsControl,
		Description: req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// ListAccounts handles GET /accounts
func (h *AccountingHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.chart.ListAccounts(c.Request.Context(), tenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

// GetAccount handles GET /accounts/:id
func (h *AccountingHandler) GetAccount(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	account, err := h.chart.GetAccount(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// GetAccountBalance handles GET /accounts/:id/balance?as_of=YYYY-MM-DD
func (h *AccountingHandler) GetAccountBalance(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	asOf, ok := h.parseAsOf(c)
	if !ok {
		return
	}

	balance, err := h.balances.GetAccountBalance(c.Request.Context(), tenantID(c), id, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := AccountBalanceResponse{AccountID: id, Balance: balance}
	if asOf != nil {
		s := asOf.Format(dateLayout)
		resp.AsOf = &s
	}
	h.Success(c, resp)
}

// CreateTax handles POST /taxes
func (h *AccountingHandler) CreateTax(c *gin.Context) {
	var req CreateTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	tax, err := h.chart.CreateTax(c.Request.Context(), tenantID(c), accounting.CreateTaxRequest{
		Code:         req.Code,
		Name:         req.Name,
		Rate:         req.Rate,
		Inclusive:    req.Inclusive,
		TaxAccountID: req.TaxAccountID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tax)
}

// GetTax handles GET /taxes/:id
func (h *AccountingHandler) GetTax(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	tax, err := h.chart.GetTax(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tax)
}

// CalculateTax handles GET /taxes/:id/calculate?amount=
func (h *AccountingHandler) CalculateTax(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		h.BadRequest(c, "amount must be a decimal number")
		return
	}

	breakdown, err := h.chart.CalculateTax(c.Request.Context(), tenantID(c), id, amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, TaxCalculationResponse{
		BaseAmount:  breakdown.BaseAmount,
		TaxAmount:   breakdown.TaxAmount,
		TotalAmount: breakdown.TotalAmount,
	})
}

// CreateJournalEntry handles POST /journal-entries
func (h *AccountingHandler) CreateJournalEntry(c *gin.Context) {
	var req CreateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	entryDate, err := parseDate(req.EntryDate)
	if err != nil {
		h.BadRequest(c, "entry_date must be a date in the form "+dateLayout)
		return
	}

	lines := make([]accounting.JournalLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = l.toInput()
	}

	entry, err := h.journal.CreateJournalEntry(c.Request.Context(), tenantID(c), accounting.CreateJournalEntryRequest{
		EntryDate:   entryDate,
		Description: req.Description,
		Reference:   req.Reference,
		CreatedBy:   optionalActor(c),
		Lines:       lines,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// GetJournalEntry handles GET /journal-entries/:id
func (h *AccountingHandler) GetJournalEntry(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	entry, err := h.journal.GetJournalEntry(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// AddJournalLine handles POST /journal-entries/:id/lines and returns the
// updated entry.
func (h *AccountingHandler) AddJournalLine(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req JournalLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.journal.CreateJournalLine(ctx, tenantID(c), id, req.toInput()); err != nil {
		h.HandleError(c, err)
		return
	}
	entry, err := h.journal.GetJournalEntry(ctx, tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// RemoveJournalLine handles DELETE /journal-entries/:id/lines/:line_id
func (h *AccountingHandler) RemoveJournalLine(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.parseUUIDParam(c, "line_id")
	if !ok {
		return
	}
	if err := h.journal.RemoveJournalLine(c.Request.Context(), tenantID(c), id, lineID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// PostJournalEntry handles POST /journal-entries/:id/post
func (h *AccountingHandler) PostJournalEntry(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actorID(c)
	if !ok {
		return
	}
	result, err := h.journal.PostJournalEntry(c.Request.Context(), tenantID(c), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ReverseJournalEntry handles POST /journal-entries/:id/reverse
func (h *AccountingHandler) ReverseJournalEntry(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actorID(c)
	if !ok {
		return
	}
	result, err := h.journal.ReverseJournalEntry(c.Request.Context(), tenantID(c), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// TrialBalance handles GET /trial-balance?as_of=YYYY-MM-DD
func (h *AccountingHandler) TrialBalance(c *gin.Context) {
	asOf, ok := h.parseAsOf(c)
	if !ok {
		return
	}
	tb, err := h.balances.TrialBalance(c.Request.Context(), tenantID(c), asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tb)
}
