package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appaccounting "github.com/erp/ledger/internal/application/accounting"
	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postingFixture struct {
	ledger   *testutil.Ledger
	tenantID uuid.UUID
	cash     uuid.UUID
	revenue  uuid.UUID
	actor    uuid.UUID
}

func newPostingFixture(t *testing.T, ctx context.Context) *postingFixture {
	t.Helper()
	tdb := NewTestDB(t)
	f := &postingFixture{
		ledger:   testutil.NewLedger(tdb.DB, testutil.LedgerOptions{}),
		tenantID: uuid.New(),
		actor:    uuid.New(),
	}

	cash, err := f.ledger.Chart.CreateAccount(ctx, f.tenantID, appaccounting.CreateAccountRequest{
		Code: "1000", Name: "Cash", Type: accounting.AccountTypeAsset,
	})
	require.NoError(t, err)
	revenue, err := f.ledger.Chart.CreateAccount(ctx, f.tenantID, appaccounting.CreateAccountRequest{
		Code: "4000", Name: "Sales Revenue", Type: accounting.AccountTypeIncome,
	})
	require.NoError(t, err)
	f.cash, f.revenue = cash.ID, revenue.ID
	return f
}

func (f *postingFixture) draft(t *testing.T, ctx context.Context, amount int64, date time.Time) uuid.UUID {
	t.Helper()
	entry, err := f.ledger.Journal.CreateJournalEntry(ctx, f.tenantID, appaccounting.CreateJournalEntryRequest{
		EntryDate:   date,
		Description: "Cash sale",
		Lines: []appaccounting.JournalLineInput{
			{AccountID: f.cash, EntryType: accounting.EntryTypeDebit, Amount: decimal.NewFromInt(amount)},
			{AccountID: f.revenue, EntryType: accounting.EntryTypeCredit, Amount: decimal.NewFromInt(amount)},
		},
	})
	require.NoError(t, err)
	return entry.ID
}

func TestPosting_ConcurrentEntriesOnSharedAccounts(t *testing.T) {
	ctx := testutil.ContextWithTimeout(t, 2*time.Minute)
	f := newPostingFixture(t, ctx)

	const workers = 12
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	entries := make([]uuid.UUID, workers)
	for i := range entries {
		entries[i] = f.draft(t, ctx, 25, date)
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for _, id := range entries {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := f.ledger.Journal.PostJournalEntry(ctx, f.tenantID, id, f.actor)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	expected := decimal.NewFromInt(25 * workers)

	cached, err := f.ledger.Balances.GetAccountBalance(ctx, f.tenantID, f.cash, nil)
	require.NoError(t, err)
	assert.True(t, cached.Equal(expected), "cached balance %s", cached)

	asOf := date.AddDate(0, 0, 1)
	computed, err := f.ledger.Balances.GetAccountBalance(ctx, f.tenantID, f.cash, &asOf)
	require.NoError(t, err)
	assert.True(t, computed.Equal(cached), "computed %s vs cached %s", computed, cached)

	revenue, err := f.ledger.Balances.GetAccountBalance(ctx, f.tenantID, f.revenue, nil)
	require.NoError(t, err)
	assert.True(t, revenue.Equal(expected))

	tb, err := f.ledger.Balances.TrialBalance(ctx, f.tenantID, nil)
	require.NoError(t, err)
	assert.True(t, tb.Balanced)
	assert.True(t, tb.TotalDebit.Equal(expected))
}

func TestPosting_ConcurrentDoublePost(t *testing.T) {
	ctx := testutil.ContextWithTimeout(t, 2*time.Minute)
	f := newPostingFixture(t, ctx)
	id := f.draft(t, ctx, 100, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	const attempts = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Journal.PostJournalEntry(ctx, f.tenantID, id, f.actor)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	for _, err := range failures {
		assert.True(t, errors.Is(err, accounting.ErrAlreadyPosted) || errors.Is(err, shared.ErrConcurrencyConflict),
			"unexpected error: %v", err)
	}

	balance, err := f.ledger.Balances.GetAccountBalance(ctx, f.tenantID, f.cash, nil)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)), "posted once, got %s", balance)
}

func TestPosting_ReverseRestoresBalancesOnPostgres(t *testing.T) {
	ctx := testutil.ContextWithTimeout(t, 2*time.Minute)
	f := newPostingFixture(t, ctx)
	id := f.draft(t, ctx, 40, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	_, err := f.ledger.Journal.PostJournalEntry(ctx, f.tenantID, id, f.actor)
	require.NoError(t, err)

	result, err := f.ledger.Journal.ReverseJournalEntry(ctx, f.tenantID, id, f.actor)
	require.NoError(t, err)
	require.NotNil(t, result.Reversal)
	assert.Equal(t, "REVERSED", result.Entry.Status)

	balance, err := f.ledger.Balances.GetAccountBalance(ctx, f.tenantID, f.cash, nil)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	_, err = f.ledger.Journal.ReverseJournalEntry(ctx, f.tenantID, id, f.actor)
	assert.Error(t, err)
}
