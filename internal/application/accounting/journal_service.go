package accounting

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JournalService creates, posts and reverses journal entries. Every
// operation runs in a single transaction; posting locks the entry and then
// its accounts so balances are always rewritten from a consistent snapshot.
type JournalService struct {
	scope          TransactionScope
	numbers        numbering.Generator
	eventPublisher shared.EventPublisher
	metrics        Metrics
	logger         *zap.Logger
	now            func() time.Time
}

// JournalServiceConfig holds the collaborators of a JournalService
type JournalServiceConfig struct {
	Scope          TransactionScope
	Numbers        numbering.Generator
	EventPublisher shared.EventPublisher
	Metrics        Metrics
	Logger         *zap.Logger
	Now            func() time.Time
}

// NewJournalService creates a new JournalService
func NewJournalService(cfg JournalServiceConfig) *JournalService {
	s := &JournalService{
		scope:          cfg.Scope,
		numbers:        cfg.Numbers,
		eventPublisher: cfg.EventPublisher,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		now:            cfg.Now,
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CreateJournalEntry creates a draft entry, optionally with its lines
func (s *JournalService) CreateJournalEntry(ctx context.Context, tenantID uuid.UUID, req CreateJournalEntryRequest) (*JournalEntryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "journal", "create_entry")
	defer span.End()

	for _, l := range req.Lines {
		if l.Amount.IsNegative() {
			return nil, shared.ErrInvalidAmount
		}
	}

	number, err := s.numbers.NextNumber(ctx, tenantID, numbering.SequenceJournalEntry, "")
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	entry, err := accounting.NewJournalEntry(tenantID, number, req.EntryDate, req.Description)
	if err != nil {
		return nil, err
	}
	entry.Reference = req.Reference
	if req.CreatedBy != nil {
		entry.SetCreatedBy(*req.CreatedBy)
	}

	err = s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		for _, in := range req.Lines {
			if err := checkPostable(ctx, repos.AccountRepo(), tenantID, in.AccountID); err != nil {
				return err
			}
			if _, err := entry.AddLine(in.AccountID, in.EntryType, in.Amount, in.Description); err != nil {
				return err
			}
		}
		return repos.JournalRepo().Create(ctx, entry)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(telemetry.AttrEntryNumber.String(entry.EntryNumber))
	s.logger.Info("Journal entry created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("entry_id", entry.ID.String()),
		zap.String("entry_number", entry.EntryNumber),
		zap.Int("lines", len(entry.Lines)))
	s.publish(ctx, entry)

	resp := ToJournalEntryResponse(entry)
	return &resp, nil
}

// CreateJournalLine adds one line to a draft entry and returns its ID.
// A negative amount is rejected before anything is read or written.
func (s *JournalService) CreateJournalLine(ctx context.Context, tenantID, entryID uuid.UUID, in JournalLineInput) (uuid.UUID, error) {
	if in.Amount.IsNegative() {
		return uuid.Nil, shared.ErrInvalidAmount
	}
	if !in.EntryType.IsValid() {
		return uuid.Nil, accounting.ErrInvalidEntryType
	}

	var lineID uuid.UUID
	err := s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		entry, err := repos.JournalRepo().FindByIDForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if err := checkPostable(ctx, repos.AccountRepo(), tenantID, in.AccountID); err != nil {
			return err
		}
		line, err := entry.AddLine(in.AccountID, in.EntryType, in.Amount, in.Description)
		if err != nil {
			return err
		}
		lineID = line.ID
		return repos.JournalRepo().CreateLine(ctx, line)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return lineID, nil
}

// RemoveJournalLine deletes one line of a draft entry
func (s *JournalService) RemoveJournalLine(ctx context.Context, tenantID, entryID, lineID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		entry, err := repos.JournalRepo().FindByIDForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if err := entry.RemoveLine(lineID); err != nil {
			return err
		}
		return repos.JournalRepo().DeleteLine(ctx, entryID, lineID)
	})
}

// GetJournalEntry loads an entry with its lines
func (s *JournalService) GetJournalEntry(ctx context.Context, tenantID, entryID uuid.UUID) (*JournalEntryResponse, error) {
	var entry *accounting.JournalEntry
	err := s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		var err error
		entry, err = repos.JournalRepo().FindByIDForTenant(ctx, tenantID, entryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToJournalEntryResponse(entry)
	return &resp, nil
}

// PostJournalEntry validates that debits equal credits, posts the entry and
// rewrites the balance of every account it touches from all posted lines.
// On any failure the entry stays a draft and no balance changes.
func (s *JournalService) PostJournalEntry(ctx context.Context, tenantID, entryID, actorID uuid.UUID) (*PostingResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "journal", "post_entry")
	defer span.End()
	span.SetAttributes(telemetry.AttrEntryID.String(entryID.String()))

	var (
		entry    *accounting.JournalEntry
		balances []AccountBalanceChange
	)
	err := s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		var err error
		entry, err = repos.JournalRepo().FindByIDForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if entry.Status == accounting.EntryStatusPosted {
			return accounting.ErrAlreadyPosted
		}
		accounts, err := lockAccounts(ctx, repos.AccountRepo(), entry)
		if err != nil {
			return err
		}
		if err := entry.Post(actorID, s.now()); err != nil {
			return err
		}
		if err := repos.JournalRepo().Update(ctx, entry); err != nil {
			return err
		}
		balances, err = s.rederiveBalances(ctx, repos, tenantID, accounts)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.recordRejection(ctx, tenantID, entryID, err)
		return nil, err
	}

	debit, _ := entry.Totals()
	s.metrics.RecordJournalPosted(ctx, tenantID, len(entry.Lines), debit)
	s.logger.Info("Journal entry posted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("entry_id", entry.ID.String()),
		zap.String("entry_number", entry.EntryNumber),
		zap.String("amount", debit.StringFixed(2)),
		zap.Int("accounts", len(balances)))
	s.publish(ctx, entry)

	return &PostingResult{Entry: ToJournalEntryResponse(entry), Balances: balances}, nil
}

// ReverseJournalEntry posts a mirror of a posted entry and marks the
// original REVERSED. Both stay in the ledger so each account nets to zero.
func (s *JournalService) ReverseJournalEntry(ctx context.Context, tenantID, entryID, actorID uuid.UUID) (*PostingResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "journal", "reverse_entry")
	defer span.End()

	number, err := s.numbers.NextNumber(ctx, tenantID, numbering.SequenceJournalEntry, "")
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		entry, reversal *accounting.JournalEntry
		balances        []AccountBalanceChange
	)
	err = s.scope.Execute(ctx, func(repos LedgerRepositories) error {
		var err error
		entry, err = repos.JournalRepo().FindByIDForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		accounts, err := lockAccounts(ctx, repos.AccountRepo(), entry)
		if err != nil {
			return err
		}
		reversal, err = entry.Reverse(number, actorID, s.now())
		if err != nil {
			return err
		}
		if err := repos.JournalRepo().Create(ctx, reversal); err != nil {
			return err
		}
		if err := repos.JournalRepo().Update(ctx, entry); err != nil {
			return err
		}
		balances, err = s.rederiveBalances(ctx, repos, tenantID, accounts)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordJournalReversed(ctx, tenantID)
	s.logger.Info("Journal entry reversed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("entry_number", entry.EntryNumber),
		zap.String("reversal_number", reversal.EntryNumber))
	s.publish(ctx, entry, reversal)

	rev := ToJournalEntryResponse(reversal)
	return &PostingResult{Entry: ToJournalEntryResponse(entry), Reversal: &rev, Balances: balances}, nil
}

// rederiveBalances fully re-aggregates every locked account from the lines
// of ledger-affecting entries and persists the result. Accounts must already
// be locked by the caller.
func (s *JournalService) rederiveBalances(ctx context.Context, repos LedgerRepositories, tenantID uuid.UUID, accounts []*accounting.Account) ([]AccountBalanceChange, error) {
	ids := make([]uuid.UUID, len(accounts))
	for i, acc := range accounts {
		ids[i] = acc.ID
	}
	totals, err := repos.JournalRepo().SumPostedByAccount(ctx, tenantID, ids, nil)
	if err != nil {
		return nil, err
	}

	now := s.now()
	changes := make([]AccountBalanceChange, 0, len(accounts))
	for _, acc := range accounts {
		previous := acc.Balance
		acc.ApplyDerivedBalance(totals[acc.ID], now)
		if err := repos.AccountRepo().SaveBalance(ctx, acc); err != nil {
			return nil, err
		}
		changes = append(changes, AccountBalanceChange{
			AccountID:   acc.ID,
			AccountCode: acc.Code,
			Previous:    previous,
			Balance:     acc.Balance,
		})
	}
	return changes, nil
}

func (s *JournalService) recordRejection(ctx context.Context, tenantID, entryID uuid.UUID, err error) {
	var unbalanced *accounting.UnbalancedEntryError
	if errors.As(err, &unbalanced) {
		s.metrics.RecordPostingRejected(ctx, tenantID, accounting.ErrUnbalancedEntry.Code)
		s.logger.Warn("Rejected unbalanced journal entry",
			zap.String("entry_id", entryID.String()),
			zap.String("debit", unbalanced.Debit.StringFixed(2)),
			zap.String("credit", unbalanced.Credit.StringFixed(2)))
		return
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		s.metrics.RecordPostingRejected(ctx, tenantID, de.Code)
		return
	}
	s.logger.Error("Failed to post journal entry",
		zap.String("entry_id", entryID.String()),
		zap.Error(err))
}

func (s *JournalService) publish(ctx context.Context, aggregates ...*accounting.JournalEntry) {
	sources := make([]shared.EventSource, len(aggregates))
	for i, agg := range aggregates {
		sources[i] = agg
	}
	if err := shared.PublishPending(ctx, s.eventPublisher, sources...); err != nil {
		s.logger.Warn("Failed to publish journal events", zap.Error(err))
	}
}

// lockAccounts row-locks every account referenced by the entry in ascending
// ID order and checks that each one can receive postings.
func lockAccounts(ctx context.Context, repo accounting.AccountRepository, entry *accounting.JournalEntry) ([]*accounting.Account, error) {
	ids := entry.AccountIDs()
	if len(ids) == 0 {
		return nil, nil
	}
	accounts, err := repo.FindByIDsForUpdate(ctx, entry.TenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*accounting.Account, len(accounts))
	for _, acc := range accounts {
		byID[acc.ID] = acc
	}
	if err := entry.ValidatePostingAccounts(byID); err != nil {
		return nil, err
	}
	return accounts, nil
}

func checkPostable(ctx context.Context, repo accounting.AccountRepository, tenantID, accountID uuid.UUID) error {
	acc, err := repo.FindByIDForTenant(ctx, tenantID, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return accounting.ErrInvalidAccount.WithMessage("Account not found")
		}
		return err
	}
	return acc.CanPost()
}
