package accounting

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryStatus represents the lifecycle state of a journal entry
type EntryStatus string

const (
	EntryStatusDraft    EntryStatus = "DRAFT"
	EntryStatusPosted   EntryStatus = "POSTED"
	EntryStatusReversed EntryStatus = "REVERSED"
)

// IsValid checks if the status is a valid EntryStatus
func (s EntryStatus) IsValid() bool {
	switch s {
	case EntryStatusDraft, EntryStatusPosted, EntryStatusReversed:
		return true
	}
	return false
}

// String returns the string representation of EntryStatus
func (s EntryStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s EntryStatus) CanTransitionTo(target EntryStatus) bool {
	switch s {
	case EntryStatusDraft:
		return target == EntryStatusPosted
	case EntryStatusPosted:
		return target == EntryStatusReversed
	}
	return false
}

// AffectsLedger reports whether lines of an entry in this status count
// towards account balances. A reversed entry stays in the ledger and is
// offset by its reversal entry.
func (s EntryStatus) AffectsLedger() bool {
	return s == EntryStatusPosted || s == EntryStatusReversed
}

// EntryType is the side of a journal line
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// IsValid checks if the entry type is valid
func (t EntryType) IsValid() bool {
	return t == EntryTypeDebit || t == EntryTypeCredit
}

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}

// Opposite returns the other side
func (t EntryType) Opposite() EntryType {
	if t == EntryTypeDebit {
		return EntryTypeCredit
	}
	return EntryTypeDebit
}

// ParseEntryType parses a case-insensitive entry type
func ParseEntryType(s string) (EntryType, error) {
	t := EntryType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidEntryType
	}
	return t, nil
}

// JournalLine is a single debit or credit posting within a journal entry
type JournalLine struct {
	ID          uuid.UUID
	EntryID     uuid.UUID
	AccountID   uuid.UUID
	LineNo      int
	EntryType   EntryType
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}

// JournalEntry is a group of debit/credit lines recording one accounting transaction
type JournalEntry struct {
	shared.TenantAggregateRoot
	EntryNumber       string
	EntryDate         time.Time
	Description       string
	Reference         string
	Status            EntryStatus
	Lines             []JournalLine
	PostedBy          *uuid.UUID
	PostedAt          *time.Time
	ReversedBy        *uuid.UUID
	ReversedAt        *time.Time
	ReversalOfID      *uuid.UUID
	ReversedByEntryID *uuid.UUID
}

// NewJournalEntry creates a new draft journal entry
func NewJournalEntry(tenantID uuid.UUID, entryNumber string, entryDate time.Time, description string) (*JournalEntry, error) {
	if entryNumber == "" {
		return nil, shared.NewValidationError("INVALID_ENTRY_NUMBER", "Entry number cannot be empty")
	}
	if len(entryNumber) > 50 {
		return nil, shared.NewValidationError("INVALID_ENTRY_NUMBER", "Entry number cannot exceed 50 characters")
	}
	if entryDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATE", "Entry date is required")
	}

	entry := &JournalEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		EntryNumber:         entryNumber,
		EntryDate:           entryDate,
		Description:         description,
		Status:              EntryStatusDraft,
		Lines:               make([]JournalLine, 0),
	}
	entry.AddDomainEvent(NewJournalEntryCreatedEvent(entry))
	return entry, nil
}

// AddLine appends a debit or credit line to a draft entry
func (e *JournalEntry) AddLine(accountID uuid.UUID, entryType EntryType, amount decimal.Decimal, description string) (*JournalLine, error) {
	if e.Status != EntryStatusDraft {
		return nil, shared.ErrInvalidState.WithMessage("Lines can only be added to draft journal entries")
	}
	if accountID == uuid.Nil {
		return nil, ErrInvalidAccount.WithMessage("Account ID cannot be empty")
	}
	if !entryType.IsValid() {
		return nil, ErrInvalidEntryType
	}
	if amount.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}

	line := JournalLine{
		ID:          uuid.New(),
		EntryID:     e.ID,
		AccountID:   accountID,
		LineNo:      e.nextLineNo(),
		EntryType:   entryType,
		Amount:      amount,
		Description: description,
		CreatedAt:   time.Now(),
	}
	e.Lines = append(e.Lines, line)
	e.UpdatedAt = time.Now()
	return &e.Lines[len(e.Lines)-1], nil
}

// RemoveLine removes a line from a draft entry
func (e *JournalEntry) RemoveLine(lineID uuid.UUID) error {
	if e.Status != EntryStatusDraft {
		return shared.ErrInvalidState.WithMessage("Lines can only be removed from draft journal entries")
	}
	for i := range e.Lines {
		if e.Lines[i].ID == lineID {
			e.Lines = append(e.Lines[:i], e.Lines[i+1:]...)
			e.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.ErrNotFound.WithMessage("Journal line not found")
}

func (e *JournalEntry) nextLineNo() int {
	last := 0
	for _, l := range e.Lines {
		if l.LineNo > last {
			last = l.LineNo
		}
	}
	return last + 1
}

// Totals returns the exact debit and credit sums of the entry's lines
func (e *JournalEntry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		if l.EntryType == EntryTypeDebit {
			debit = debit.Add(l.Amount)
		} else {
			credit = credit.Add(l.Amount)
		}
	}
	return debit, credit
}

// IsBalanced reports whether total debits equal total credits exactly
func (e *JournalEntry) IsBalanced() bool {
	debit, credit := e.Totals()
	return debit.Equal(credit)
}

// AccountIDs returns the distinct accounts referenced by the entry's lines,
// sorted ascending. Locks are taken in this order.
func (e *JournalEntry) AccountIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(e.Lines))
	ids := make([]uuid.UUID, 0, len(e.Lines))
	for _, l := range e.Lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

// Post validates the balance invariant and moves the entry to POSTED.
// The entry is left untouched when any check fails.
func (e *JournalEntry) Post(actor uuid.UUID, now time.Time) error {
	switch e.Status {
	case EntryStatusPosted:
		return ErrAlreadyPosted
	case EntryStatusReversed:
		return shared.ErrInvalidState.WithMessage("Reversed journal entries cannot be posted")
	}
	if len(e.Lines) == 0 {
		return ErrEmptyEntry
	}

	debit, credit := e.Totals()
	if !debit.Equal(credit) {
		return NewUnbalancedEntryError(debit, credit)
	}

	e.Status = EntryStatusPosted
	e.PostedBy = &actor
	e.PostedAt = &now
	e.UpdatedAt = now
	e.IncrementVersion()

	e.AddDomainEvent(NewJournalEntryPostedEvent(e, debit))
	return nil
}

// Reverse creates a posted mirror entry with every line's side swapped and
// marks this entry REVERSED. Both entries remain in the ledger, so the net
// effect on every account is zero.
func (e *JournalEntry) Reverse(reversalNumber string, actor uuid.UUID, now time.Time) (*JournalEntry, error) {
	if e.Status != EntryStatusPosted {
		return nil, shared.ErrInvalidState.WithMessage("Only posted journal entries can be reversed")
	}

	reversal, err := NewJournalEntry(e.TenantID, reversalNumber, now, "Reversal of "+e.EntryNumber)
	if err != nil {
		return nil, err
	}
	reversal.Reference = e.EntryNumber
	originalID := e.ID
	reversal.ReversalOfID = &originalID
	for _, l := range e.Lines {
		if _, err := reversal.AddLine(l.AccountID, l.EntryType.Opposite(), l.Amount, l.Description); err != nil {
			return nil, err
		}
	}
	if err := reversal.Post(actor, now); err != nil {
		return nil, err
	}

	reversalID := reversal.ID
	e.Status = EntryStatusReversed
	e.ReversedBy = &actor
	e.ReversedAt = &now
	e.ReversedByEntryID = &reversalID
	e.UpdatedAt = now
	e.IncrementVersion()

	e.AddDomainEvent(NewJournalEntryReversedEvent(e, reversal))
	return reversal, nil
}

// ValidatePostingAccounts checks that every line references a postable
// account of the entry's tenant. accounts must contain every referenced account.
func (e *JournalEntry) ValidatePostingAccounts(accounts map[uuid.UUID]*Account) error {
	for _, l := range e.Lines {
		acc, ok := accounts[l.AccountID]
		if !ok || acc.TenantID != e.TenantID {
			return ErrInvalidAccount.WithMessage("Journal line references an unknown account")
		}
		if err := acc.CanPost(); err != nil {
			return err
		}
	}
	return nil
}
