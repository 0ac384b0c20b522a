// Package events publishes domain events after successful writes. Publishing is best effort:
// callers log a failed publish and keep the write.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	BalanceSaved        = "budget.balance_saved"
	AllocationUpserted  = "budget.allocation_upserted"
	AllocationUpdated   = "budget.allocation_updated"
	AllocationRemoved   = "budget.allocation_removed"
	Overallocated       = "budget.overallocated"
	TransactionRecorded = "ledger.transaction_recorded"
	TransactionDeleted  = "ledger.transaction_deleted"
	UserSignedUp        = "account.user_signed_up"
	UserStatusChanged   = "account.user_status_changed"
	CategoryChanged     = "catalog.category_changed"
)

type Event struct {
	Type       string         `json:"type"`
	UserID     int64          `json:"userId,omitempty"`
	Month      string         `json:"month,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

func New(eventType string, userID int64, month string, data map[string]any) Event {
	return Event{Type: eventType, UserID: userID, Month: month, Data: data, OccurredAt: time.Now().UTC()}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop drops every event. It is used when AMQP_URL is empty.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types lists the recorded event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
