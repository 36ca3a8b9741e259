package accounting

import (
	"context"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ChartService maintains the chart of accounts and tax definitions
type ChartService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewChartService creates a new ChartService
func NewChartService(scope TransactionScope, logger *zap.Logger) *ChartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChartService{scope: scope, logger: logger}
}

// CreateAccount adds an account to the tenant's chart
func (s *ChartService) CreateAccount(ctx context.Context, tenantID uuid.UUID, req CreateAccountRequest) (*AccountResponse, error) {
	account, err := accounting.NewAccount(tenantID, req.Code, req.Name, req.Type)
	if err != nil {
		return nil, err
	}
	account.MarkHeader(req.IsHeader)
	account.IsControl = req.IsControl
	account.Description = req.Description

	err = s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		exists, err := repos.AccountRepo().ExistsByCode(ctx, tenantID, account.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyExists.WithMessage("Account code " + account.Code + " already exists")
		}
		if req.ParentID != nil {
			parent, err := repos.AccountRepo().FindByIDForTenant(ctx, tenantID, *req.ParentID)
			if err != nil {
				return err
			}
			if err := account.SetParent(parent); err != nil {
				return err
			}
		}
		return repos.AccountRepo().Save(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("code", account.Code),
		zap.String("type", string(account.Type)))
	resp := ToAccountResponse(account)
	return &resp, nil
}

// GetAccount loads one account
func (s *ChartService) GetAccount(ctx context.Context, tenantID, accountID uuid.UUID) (*AccountResponse, error) {
	var account *accounting.Account
	err := s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		var err error
		account, err = repos.AccountRepo().FindByIDForTenant(ctx, tenantID, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToAccountResponse(account)
	return &resp, nil
}

// ListAccounts returns the tenant's chart ordered by code
func (s *ChartService) ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]AccountResponse, error) {
	var accounts []*accounting.Account
	err := s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		var err error
		accounts, err = repos.AccountRepo().FindAllForTenant(ctx, tenantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = ToAccountResponse(a)
	}
	return out, nil
}

// CreateTax defines a tax, optionally linked to the liability account it accrues to
func (s *ChartService) CreateTax(ctx context.Context, tenantID uuid.UUID, req CreateTaxRequest) (*TaxResponse, error) {
	tax, err := accounting.NewTax(tenantID, req.Code, req.Name, req.Rate, req.Inclusive)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		exists, err := repos.TaxRepo().ExistsByCode(ctx, tenantID, tax.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyExists.WithMessage("Tax code " + tax.Code + " already exists")
		}
		if req.TaxAccountID != nil {
			acc, err := repos.AccountRepo().FindByIDForTenant(ctx, tenantID, *req.TaxAccountID)
			if err != nil {
				return err
			}
			if err := tax.SetTaxAccount(acc); err != nil {
				return err
			}
		}
		return repos.TaxRepo().Save(ctx, tax)
	})
	if err != nil {
		return nil, err
	}
	resp := ToTaxResponse(tax)
	return &resp, nil
}

// GetTax loads one tax definition
func (s *ChartService) GetTax(ctx context.Context, tenantID, taxID uuid.UUID) (*TaxResponse, error) {
	var tax *accounting.Tax
	err := s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		var err error
		tax, err = repos.TaxRepo().FindByIDForTenant(ctx, tenantID, taxID)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToTaxResponse(tax)
	return &resp, nil
}

// CalculateTax splits an amount with a stored tax definition
func (s *ChartService) CalculateTax(ctx context.Context, tenantID, taxID uuid.UUID, amount decimal.Decimal) (accounting.TaxBreakdown, error) {
	var tax *accounting.Tax
	err := s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		var err error
		tax, err = repos.TaxRepo().FindByIDForTenant(ctx, tenantID, taxID)
		return err
	})
	if err != nil {
		return accounting.TaxBreakdown{}, err
	}
	return tax.Calculate(amount)
}
