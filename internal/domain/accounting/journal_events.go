package accounting

import (
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeJournalEntry = "JournalEntry"

// Event type constants
const (
	EventTypeJournalEntryCreated  = "JournalEntryCreated"
	EventTypeJournalEntryPosted   = "JournalEntryPosted"
	EventTypeJournalEntryReversed = "JournalEntryReversed"
)

// JournalEntryCreatedEvent is raised when a draft journal entry is created
type JournalEntryCreatedEvent struct {
	shared.BaseDomainEvent
	EntryID     uuid.UUID `json:"entry_id"`
	EntryNumber string    `json:"entry_number"`
}

// NewJournalEntryCreatedEvent creates a new JournalEntryCreatedEvent
func NewJournalEntryCreatedEvent(entry *JournalEntry) *JournalEntryCreatedEvent {
	return &JournalEntryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalEntryCreated, AggregateTypeJournalEntry, entry.ID, entry.TenantID),
		EntryID:         entry.ID,
		EntryNumber:     entry.EntryNumber,
	}
}

// JournalEntryPostedEvent is raised when an entry passes the balance check and is posted
type JournalEntryPostedEvent struct {
	shared.BaseDomainEvent
	EntryID     uuid.UUID       `json:"entry_id"`
	EntryNumber string          `json:"entry_number"`
	Amount      decimal.Decimal `json:"amount"`
	PostedBy    uuid.UUID       `json:"posted_by"`
	AccountIDs  []uuid.UUID     `json:"account_ids"`
}

// NewJournalEntryPostedEvent creates a new JournalEntryPostedEvent
func NewJournalEntryPostedEvent(entry *JournalEntry, amount decimal.Decimal) *JournalEntryPostedEvent {
	var postedBy uuid.UUID
	if entry.PostedBy != nil {
		postedBy = *entry.PostedBy
	}
	return &JournalEntryPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalEntryPosted, AggregateTypeJournalEntry, entry.ID, entry.TenantID),
		EntryID:         entry.ID,
		EntryNumber:     entry.EntryNumber,
		Amount:          amount,
		PostedBy:        postedBy,
		AccountIDs:      entry.AccountIDs(),
	}
}

// JournalEntryReversedEvent is raised when a posted entry is reversed
type JournalEntryReversedEvent struct {
	shared.BaseDomainEvent
	EntryID         uuid.UUID `json:"entry_id"`
	EntryNumber     string    `json:"entry_number"`
	ReversalEntryID uuid.UUID `json:"reversal_entry_id"`
	ReversalNumber  string    `json:"reversal_number"`
}

// NewJournalEntryReversedEvent creates a new JournalEntryReversedEvent
func NewJournalEntryReversedEvent(entry, reversal *JournalEntry) *JournalEntryReversedEvent {
	return &JournalEntryReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalEntryReversed, AggregateTypeJournalEntry, entry.ID, entry.TenantID),
		EntryID:         entry.ID,
		EntryNumber:     entry.EntryNumber,
		ReversalEntryID: reversal.ID,
		ReversalNumber:  reversal.EntryNumber,
	}
}
