package handler

import (
	"net/http"
	"testing"

	appaccounting "github.com/erp/ledger/internal/application/accounting"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountingHandler_PostAndReverse(t *testing.T) {
	s := newTestServer(t)
	cash := s.createAccount(t, "1000", "Cash", "ASSET")
	revenue := s.createAccount(t, "4000", "Sales Revenue", "INCOME")

	created := decode[appaccounting.JournalEntryResponse](t, s.do(t, http.MethodPost, "/journal-entries", gin.H{
		"entry_date":  "2026-02-15",
		"description": "Cash sale",
		"lines": []gin.H{
			{"account_id": cash, "entry_type": "DEBIT", "amount": "1000"},
			{"account_id": revenue, "entry_type": "CREDIT", "amount": "900"},
		},
	}), http.StatusCreated)
	entryID := created.Data.ID
	assert.Equal(t, "DRAFT", created.Data.Status)
	require.Len(t, created.Data.Lines, 2)

	t.Run("unbalanced entry is rejected with both totals", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/journal-entries/"+entryID.String()+"/post", nil)
		env := decode[any](t, w, http.StatusUnprocessableEntity)
		assert.Equal(t, "UNBALANCED_ENTRY", env.Error.Code)
		assert.Contains(t, env.Error.Message, "debit 1000.00")
		assert.Contains(t, env.Error.Message, "credit 900.00")
	})

	t.Run("posting needs an actor", func(t *testing.T) {
		w := s.doWithHeaders(t, http.MethodPost, "/journal-entries/"+entryID.String()+"/post", nil,
			map[string]string{"X-Tenant-ID": s.tenantID.String()})
		assert.Equal(t, dto.ErrCodeNoActor, errorCode(t, w, http.StatusBadRequest))
	})

	t.Run("adding a line balances the entry", func(t *testing.T) {
		env := decode[appaccounting.JournalEntryResponse](t, s.do(t, http.MethodPost, "/journal-entries/"+entryID.String()+"/lines", gin.H{
			"account_id": revenue, "entry_type": "CREDIT", "amount": "100",
		}), http.StatusCreated)
		require.Len(t, env.Data.Lines, 3)
		assert.True(t, env.Data.TotalDebit.Equal(env.Data.TotalCredit))
	})

	t.Run("post applies balances", func(t *testing.T) {
		env := decode[appaccounting.PostingResult](t, s.do(t, http.MethodPost, "/journal-entries/"+entryID.String()+"/post", nil), http.StatusOK)
		assert.Equal(t, "POSTED", env.Data.Entry.Status)
		assert.Equal(t, "JE000001", env.Data.Entry.EntryNumber)
		require.NotNil(t, env.Data.Entry.PostedBy)
		assert.Equal(t, s.actorID, *env.Data.Entry.PostedBy)
		assert.Len(t, env.Data.Balances, 2)

		bal := decode[AccountBalanceResponse](t, s.do(t, http.MethodGet, "/accounts/"+cash.String()+"/balance", nil), http.StatusOK)
		assert.True(t, bal.Data.Balance.Equal(decimal.NewFromInt(1000)), "cash %s", bal.Data.Balance)
	})

	t.Run("posting twice conflicts", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/journal-entries/"+entryID.String()+"/post", nil)
		assert.Equal(t, "ALREADY_POSTED", errorCode(t, w, http.StatusConflict))
	})

	t.Run("posted entries reject new lines", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/journal-entries/"+entryID.String()+"/lines", gin.H{
			"account_id": cash, "entry_type": "DEBIT", "amount": "5",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("balance as of a date before the entry is zero", func(t *testing.T) {
		bal := decode[AccountBalanceResponse](t, s.do(t, http.MethodGet, "/accounts/"+cash.String()+"/balance?as_of=2026-02-01", nil), http.StatusOK)
		assert.True(t, bal.Data.Balance.IsZero())
		require.NotNil(t, bal.Data.AsOf)
		assert.Equal(t, "2026-02-01", *bal.Data.AsOf)
	})

	t.Run("trial balance is balanced", func(t *testing.T) {
		env := decode[appaccounting.TrialBalanceResponse](t, s.do(t, http.MethodGet, "/trial-balance", nil), http.StatusOK)
		assert.True(t, env.Data.Balanced)
		assert.True(t, env.Data.TotalDebit.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("reverse creates a mirror entry and zeroes balances", func(t *testing.T) {
		env := decode[appaccounting.PostingResult](t, s.do(t, http.MethodPost, "/journal-entries/"+entryID.String()+"/reverse", nil), http.StatusCreated)
		assert.Equal(t, "REVERSED", env.Data.Entry.Status)
		require.NotNil(t, env.Data.Reversal)
		assert.Equal(t, "JE000002", env.Data.Reversal.EntryNumber)

		bal := decode[AccountBalanceResponse](t, s.do(t, http.MethodGet, "/accounts/"+cash.String()+"/balance", nil), http.StatusOK)
		assert.True(t, bal.Data.Balance.IsZero(), "cash %s", bal.Data.Balance)
	})
}

func TestAccountingHandler_Validation(t *testing.T) {
	s := newTestServer(t)

	t.Run("unknown account type", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/accounts", gin.H{"code": "9", "name": "X", "type": "EXOTIC"})
		assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w, http.StatusBadRequest))
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		s.createAccount(t, "1000", "Cash", "ASSET")
		w := s.do(t, http.MethodPost, "/accounts", gin.H{"code": "1000", "name": "Cash again", "type": "ASSET"})
		assert.Equal(t, "ALREADY_EXISTS", errorCode(t, w, http.StatusConflict))
	})

	t.Run("malformed id", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/accounts/not-a-uuid", nil)
		assert.Equal(t, dto.ErrCodeInvalidID, errorCode(t, w, http.StatusBadRequest))
	})

	t.Run("missing entry", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/journal-entries/"+uuid.New().String(), nil)
		assert.Equal(t, "NOT_FOUND", errorCode(t, w, http.StatusNotFound))
	})

	t.Run("bad as_of", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/trial-balance?as_of=yesterday", nil)
		assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w, http.StatusBadRequest))
	})

	t.Run("missing tenant", func(t *testing.T) {
		w := s.doWithHeaders(t, http.MethodGet, "/accounts", nil, nil)
		assert.Equal(t, dto.ErrCodeNoTenant, errorCode(t, w, http.StatusBadRequest))
	})

	t.Run("accounts are scoped to the tenant", func(t *testing.T) {
		other := s.doWithHeaders(t, http.MethodGet, "/accounts", nil, map[string]string{"X-Tenant-ID": uuid.New().String()})
		env := decode[[]appaccounting.AccountResponse](t, other, http.StatusOK)
		assert.Empty(t, env.Data)
	})
}

func TestAccountingHandler_Taxes(t *testing.T) {
	s := newTestServer(t)

	exclusive := decode[appaccounting.TaxResponse](t, s.do(t, http.MethodPost, "/taxes", gin.H{
		"code": "VAT10", "name": "VAT 10%", "rate": "0.10",
	}), http.StatusCreated)

	env := decode[TaxCalculationResponse](t, s.do(t, http.MethodGet, "/taxes/"+exclusive.Data.ID.String()+"/calculate?amount=200", nil), http.StatusOK)
	assert.True(t, env.Data.TaxAmount.Equal(decimal.NewFromInt(20)))
	assert.True(t, env.Data.TotalAmount.Equal(decimal.NewFromInt(220)))

	inclusive := decode[appaccounting.TaxResponse](t, s.do(t, http.MethodPost, "/taxes", gin.H{
		"code": "VAT10I", "name": "VAT 10% incl", "rate": "0.10", "inclusive": true,
	}), http.StatusCreated)
	env = decode[TaxCalculationResponse](t, s.do(t, http.MethodGet, "/taxes/"+inclusive.Data.ID.String()+"/calculate?amount=110", nil), http.StatusOK)
	assert.True(t, env.Data.BaseAmount.Equal(decimal.NewFromInt(100)), "base %s", env.Data.BaseAmount)
	assert.True(t, env.Data.TotalAmount.Equal(decimal.NewFromInt(110)))

	t.Run("negative rate fails binding", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/taxes", gin.H{"code": "NEG", "name": "Negative", "rate": "-0.1"})
		assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w, http.StatusBadRequest))
	})

	t.Run("amount must be a number", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/taxes/"+exclusive.Data.ID.String()+"/calculate?amount=abc", nil)
		assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w, http.StatusBadRequest))
	})
}
