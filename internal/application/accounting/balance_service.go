package accounting

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BalanceService reads account balances and trial balances
type BalanceService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(scope TransactionScope, logger *zap.Logger) *BalanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceService{scope: scope, logger: logger}
}

// GetAccountBalance returns the derived balance of an account.
//
// Without asOf the cached balance is returned; it is rewritten under the
// account lock by every posting, so it always equals the full derivation.
// With asOf the balance is derived from entries dated on or before asOf.
// A header account reports the sum of its descendants' balances.
func (s *BalanceService) GetAccountBalance(ctx context.Context, tenantID, accountID uuid.UUID, asOf *time.Time) (decimal.Decimal, error) {
	balance := decimal.Zero
	err := s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		acc, err := repos.AccountRepo().FindByIDForTenant(ctx, tenantID, accountID)
		if err != nil {
			return err
		}
		if !acc.IsHeader && asOf == nil {
			balance = acc.Balance
			return nil
		}

		ids := []uuid.UUID{acc.ID}
		if acc.IsHeader {
			all, err := repos.AccountRepo().FindAllForTenant(ctx, tenantID)
			if err != nil {
				return err
			}
			ids = descendantIDs(acc.ID, all)
			if len(ids) == 0 {
				return nil
			}
		}
		totals, err := repos.JournalRepo().SumPostedByAccount(ctx, tenantID, ids, asOf)
		if err != nil {
			return err
		}
		sum := accounting.BalanceTotals{Debit: decimal.Zero, Credit: decimal.Zero}
		for _, id := range ids {
			t := totals[id]
			sum.Debit = sum.Debit.Add(t.Debit)
			sum.Credit = sum.Credit.Add(t.Credit)
		}
		balance = accounting.DeriveBalance(acc.Type, sum.Debit, sum.Credit)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// TrialBalance lists every postable account's derived balance in its debit
// or credit column.
func (s *BalanceService) TrialBalance(ctx context.Context, tenantID uuid.UUID, asOf *time.Time) (*TrialBalanceResponse, error) {
	var tb *accounting.TrialBalance
	err := s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		accounts, err := repos.AccountRepo().FindAllForTenant(ctx, tenantID)
		if err != nil {
			return err
		}
		totals, err := repos.JournalRepo().SumPostedByAccount(ctx, tenantID, nil, asOf)
		if err != nil {
			return err
		}
		tb = accounting.BuildTrialBalance(tenantID, accounts, totals, asOf)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !tb.IsBalanced() {
		s.logger.Error("Trial balance does not balance",
			zap.String("tenant_id", tenantID.String()),
			zap.String("difference", tb.Difference().StringFixed(2)))
	}
	resp := ToTrialBalanceResponse(tb)
	return &resp, nil
}

// descendantIDs returns the non-header accounts below root in the chart tree
func descendantIDs(root uuid.UUID, accounts []*accounting.Account) []uuid.UUID {
	children := make(map[uuid.UUID][]*accounting.Account)
	for _, a := range accounts {
		if a.ParentID != nil {
			children[*a.ParentID] = append(children[*a.ParentID], a)
		}
	}
	var ids []uuid.UUID
	queue := []uuid.UUID{root}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, c := range children[next] {
			if c.IsHeader {
				queue = append(queue, c.ID)
				continue
			}
			ids = append(ids, c.ID)
		}
	}
	return ids
}
