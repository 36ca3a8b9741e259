package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliHarness struct {
	opts     *options
	dbPath   string
	tenantID uuid.UUID
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()
	return &cliHarness{
		opts: &options{loadConfig: func(string) (*config.Config, error) {
			return &config.Config{
				App: config.AppConfig{Name: "ledgerctl", Env: "test"},
				Database: config.DatabaseConfig{
					Driver:       "postgres",
					MaxOpenConns: 1,
					MaxIdleConns: 1,
				},
				Log:    config.LogConfig{Level: "error", Format: "console"},
				Ledger: config.LedgerConfig{SequenceBackend: "database", SequenceWidth: 6, DefaultCurrency: "EUR"},
			}, nil
		}},
		dbPath:   filepath.Join(t.TempDir(), "ledger.db"),
		tenantID: uuid.New(),
	}
}

// run executes one ledgerctl invocation against the harness ledger file
func (h *cliHarness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand("test", h.opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--sqlite", h.dbPath, "--tenant", h.tenantID.String()))
	err := cmd.Execute()
	return out.String(), err
}

func (h *cliHarness) createAccount(t *testing.T, code, name, typ string) string {
	t.Helper()
	out, err := h.run(t, "accounts", "create", "--code", code, "--name", name, "--type", typ, "--json")
	require.NoError(t, err, out)
	var account struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &account))
	return account.ID
}

func TestLedgerctl_PostAndReport(t *testing.T) {
	h := newHarness(t)
	cash := h.createAccount(t, "1000", "Cash", "asset")
	revenue := h.createAccount(t, "4000", "Sales Revenue", "income")

	out, err := h.run(t, "journal", "create", "--date", "2026-03-01", "--description", "Cash sale",
		"--line", cash+":DEBIT:1500.00",
		"--line", revenue+":credit:1500.00:March sales",
		"--json")
	require.NoError(t, err, out)
	var entry struct {
		ID          string `json:"id"`
		EntryNumber string `json:"entry_number"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, "JE000001", entry.EntryNumber)

	out, err = h.run(t, "journal", "post", entry.ID, "--actor", uuid.NewString())
	require.NoError(t, err, out)
	assert.Contains(t, out, "Posted JE000001")
	assert.Contains(t, out, "1,500.00")

	t.Run("balance in English", func(t *testing.T) {
		out, err := h.run(t, "balance", cash)
		require.NoError(t, err, out)
		assert.Equal(t, "1,500.00\n", out)
	})

	t.Run("balance in German", func(t *testing.T) {
		out, err := h.run(t, "balance", cash, "--lang", "de")
		require.NoError(t, err, out)
		assert.Equal(t, "1.500,00\n", out)
	})

	t.Run("balance before the entry date", func(t *testing.T) {
		out, err := h.run(t, "balance", cash, "--as-of", "2026-02-28")
		require.NoError(t, err, out)
		assert.Equal(t, "0.00\n", out)
	})

	t.Run("trial balance", func(t *testing.T) {
		out, err := h.run(t, "trial-balance")
		require.NoError(t, err, out)
		assert.Contains(t, out, "Sales Revenue")
		assert.Contains(t, out, "Income")
		assert.Contains(t, out, "TOTAL")
		assert.Contains(t, out, "DEBIT (EUR)")
	})

	t.Run("reverse", func(t *testing.T) {
		out, err := h.run(t, "journal", "reverse", entry.ID, "--actor", uuid.NewString())
		require.NoError(t, err, out)
		assert.Contains(t, out, "Reversed JE000001 with JE000002")

		out, err = h.run(t, "balance", cash)
		require.NoError(t, err, out)
		assert.Equal(t, "0.00\n", out)
	})

	t.Run("posting twice fails", func(t *testing.T) {
		_, err := h.run(t, "journal", "post", entry.ID, "--actor", uuid.NewString())
		assert.Error(t, err)
	})
}

func TestLedgerctl_UnbalancedPostIsRejected(t *testing.T) {
	h := newHarness(t)
	cash := h.createAccount(t, "1000", "Cash", "asset")
	revenue := h.createAccount(t, "4000", "Revenue", "income")

	out, err := h.run(t, "journal", "create", "--description", "Typo",
		"--line", cash+":DEBIT:100", "--line", revenue+":CREDIT:90", "--json")
	require.NoError(t, err, out)
	var entry struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &entry))

	_, err = h.run(t, "journal", "post", entry.ID, "--actor", uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debit 100.00")
	assert.Contains(t, err.Error(), "credit 90.00")
}

func TestLedgerctl_NextNumber(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "next-number", "sales_order")
	require.NoError(t, err)
	assert.Equal(t, "SO000001\n", out)

	out, err = h.run(t, "next-number", "sales_order", "--prefix", "ORD")
	require.NoError(t, err)
	assert.Equal(t, "ORD000002\n", out)

	_, err = h.run(t, "next-number", "unknown")
	assert.Error(t, err)
}

func TestLedgerctl_RefreshOverdue(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "refresh-overdue", "--today", "2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, "Checked 0 documents, 0 marked overdue\n", out)
}

func TestLedgerctl_Validation(t *testing.T) {
	h := newHarness(t)

	t.Run("tenant is required", func(t *testing.T) {
		cmd := newRootCommand("test", h.opts)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"accounts", "list", "--sqlite", h.dbPath, "--tenant", ""})
		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--tenant")
	})

	t.Run("invalid as-of", func(t *testing.T) {
		_, err := h.run(t, "balance", uuid.NewString(), "--as-of", "03/01/2026")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "YYYY-MM-DD")
	})

	t.Run("invalid language", func(t *testing.T) {
		_, err := h.run(t, "accounts", "list", "--lang", "not a tag!")
		assert.Error(t, err)
	})
}

func TestParseLine(t *testing.T) {
	accountID := uuid.New()

	in, err := parseLine(accountID.String() + ":debit:12.50:Office supplies")
	require.NoError(t, err)
	assert.Equal(t, accountID, in.AccountID)
	assert.Equal(t, "DEBIT", string(in.EntryType))
	assert.True(t, in.Amount.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, "Office supplies", in.Description)

	for _, bad := range []string{
		"",
		accountID.String() + ":DEBIT",
		"not-a-uuid:DEBIT:10",
		accountID.String() + ":DEBIT:ten",
	} {
		_, err := parseLine(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatter(t *testing.T) {
	en, err := newFormatter("en")
	require.NoError(t, err)
	assert.Equal(t, "1,234,567.89", en.Amount(decimal.RequireFromString("1234567.891")))
	assert.Equal(t, "0.02", en.Amount(decimal.RequireFromString("0.025")))
	assert.Equal(t, "Sales Invoice", en.Label("SALES_INVOICE"))

	de, err := newFormatter("de")
	require.NoError(t, err)
	assert.Equal(t, "1.234.567,89", de.Amount(decimal.RequireFromString("1234567.891")))
}
