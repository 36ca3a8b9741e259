package trade

import (
	"context"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/trade"
)

// TradeRepositories provides access to the repositories bound to one transaction
type TradeRepositories interface {
	DocumentRepo() trade.DocumentRepository
	PaymentRepo() trade.PaymentRepository
	PartyRepo() trade.PartyRepository
	FulfillmentRepo() trade.FulfillmentRepository
	TaxRepo() accounting.TaxRepository
}

// TransactionScope runs fn inside a single database transaction.
// Any error returned by fn rolls back every write made through repos.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TradeRepositories) error) error
}
