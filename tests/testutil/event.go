package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// EventRecorder captures ledger events. It can be subscribed to a bus as a
// handler or passed to the services directly as their publisher.
type EventRecorder struct {
	mu     sync.Mutex
	types  []string
	events []shared.DomainEvent
	fail   error
}

// NewEventRecorder records the given event types, or every event when none
// are named
func NewEventRecorder(eventTypes ...string) *EventRecorder {
	return &EventRecorder{types: eventTypes}
}

// EventTypes implements shared.EventHandler
func (r *EventRecorder) EventTypes() []string { return r.types }

// Handle records event and then returns the error set by FailWith
func (r *EventRecorder) Handle(_ context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.fail
}

// Publish implements shared.EventPublisher and stops at the first failure
func (r *EventRecorder) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		if err := r.Handle(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// FailWith makes later calls to Handle return err
func (r *EventRecorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

// Events returns the recorded events in arrival order
func (r *EventRecorder) Events() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Types returns the event type of each recorded event, in order
func (r *EventRecorder) Types() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.EventType()
	}
	return out
}

// Count returns how many events of eventType were recorded
func (r *EventRecorder) Count(eventType string) int {
	n := 0
	for _, t := range r.Types() {
		if t == eventType {
			n++
		}
	}
	return n
}

// Len returns the number of recorded events
func (r *EventRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// LedgerEvent is a bare event for exercising buses and handlers
type LedgerEvent struct {
	shared.BaseDomainEvent
	Amount string `json:"amount"`
}

// NewLedgerEvent creates an event of eventType on a fresh aggregate
func NewLedgerEvent(eventType string, tenantID uuid.UUID) *LedgerEvent {
	return &LedgerEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "JournalEntry", uuid.New(), tenantID),
		Amount:          "100.00",
	}
}
