package trade

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PartyService maintains customers and suppliers and reports their balances
type PartyService struct {
	scope  TransactionScope
	logger *zap.Logger
	now    func() time.Time
}

// NewPartyService creates a new PartyService
func NewPartyService(scope TransactionScope, logger *zap.Logger) *PartyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PartyService{scope: scope, logger: logger, now: time.Now}
}

// Create creates a new customer or supplier
func (s *PartyService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePartyRequest) (*PartyResponse, error) {
	party, err := trade.NewParty(tenantID, req.Side, req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if err := party.SetDiscountPercent(req.DiscountPercent); err != nil {
		return nil, err
	}
	if err := party.SetCreditLimit(req.CreditLimit); err != nil {
		return nil, err
	}
	if err := party.SetPaymentTerms(req.PaymentTermsDays); err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TradeRepositories) error {
		exists, err := repos.PartyRepo().ExistsByCode(ctx, tenantID, party.Side, party.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyExists.WithMessage("Party code " + party.Code + " already exists")
		}
		return repos.PartyRepo().Save(ctx, party)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Party created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("side", string(party.Side)),
		zap.String("code", party.Code))
	resp := ToPartyResponse(party)
	return &resp, nil
}

// GetByID loads one party
func (s *PartyService) GetByID(ctx context.Context, tenantID, partyID uuid.UUID) (*PartyResponse, error) {
	var party *trade.Party
	err := s.scope.Execute(ctx, func(repos TradeRepositories) error {
		var err error
		party, err = repos.PartyRepo().FindByIDForTenant(ctx, tenantID, partyID)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToPartyResponse(party)
	return &resp, nil
}

// Balance returns the party's outstanding amount over its open bills or
// invoices and the credit still available under its credit limit.
func (s *PartyService) Balance(ctx context.Context, tenantID, partyID uuid.UUID) (*PartyBalanceResponse, error) {
	var balance trade.PartyBalance
	err := s.scope.Execute(ctx, func(repos TradeRepositories) error {
		party, err := repos.PartyRepo().FindByIDForTenant(ctx, tenantID, partyID)
		if err != nil {
			return err
		}
		docs, err := repos.DocumentRepo().FindOpenBillables(ctx, tenantID, &party.ID)
		if err != nil {
			return err
		}
		balance = trade.ComputePartyBalance(party, docs, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToPartyBalanceResponse(balance)
	return &resp, nil
}
