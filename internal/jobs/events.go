package jobs

import (
	"sync"
	"time"

	"alchemist/internal/domain"
)

// EventType classifies messages emitted while a batch runs.
type EventType string

const (
	EventTypeStatus EventType = "status"
	EventTypeLog    EventType = "log"
	EventTypeResult EventType = "result"
	EventTypeError  EventType = "error"
)

// Event is a sequenced payload consumed by UI subscribers.
type Event struct {
	Seq       int64              `json:"seq"`
	Timestamp time.Time          `json:"timestamp"`
	BatchID   string             `json:"batchId"`
	Type      EventType          `json:"type"`
	Status    domain.BatchStatus `json:"status,omitempty"`
	Message   string             `json:"message,omitempty"`
	Job       int                `json:"job,omitempty"`
	JobsTotal int                `json:"jobsTotal,omitempty"`
	Output    string             `json:"output,omitempty"`
	Command   string             `json:"command,omitempty"`
	Outcome   string             `json:"outcome,omitempty"`
	ExitCode  int                `json:"exitCode,omitempty"`
	Note      string             `json:"note,omitempty"`
	OK        *bool              `json:"ok,omitempty"`
}

// EventBus stores recent events and provides incremental reads.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
	listeners []func(Event)
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Subscribe registers fn to receive every event after it is stored.
// Listeners run on the publishing goroutine and must not block.
func (b *EventBus) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Publish appends one event and assigns sequence and timestamp.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}
	listeners := b.listeners
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// ForBatch returns the retained events of one batch in sequence order.
func (b *EventBus) ForBatch(batchID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Event
	for _, event := range b.events {
		if event.BatchID == batchID {
			out = append(out, event)
		}
	}
	return out
}
