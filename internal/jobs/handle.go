package jobs

import (
	"context"
	"sync"
	"sync/atomic"

	"alchemist/internal/domain"
)

// Handle is the caller's view of one dispatched batch. It can be awaited,
// abandoned, or cancelled; cancellation only stops jobs that have not
// started yet.
type Handle struct {
	id        string
	done      chan struct{}
	once      sync.Once
	cancel    context.CancelFunc
	cancelled atomic.Bool

	mu    sync.Mutex
	event domain.CompletionEvent
}

func newHandle(id string, cancel context.CancelFunc) *Handle {
	return &Handle{
		id:     id,
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// ID returns the batch identifier.
func (h *Handle) ID() string {
	return h.id
}

// Done is closed once the completion event is available.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the batch completes or ctx ends.
func (h *Handle) Wait(ctx context.Context) (domain.CompletionEvent, error) {
	select {
	case <-h.done:
		return h.result(), nil
	case <-ctx.Done():
		return domain.CompletionEvent{}, ctx.Err()
	}
}

// Result returns the completion event if the batch already finished.
func (h *Handle) Result() (domain.CompletionEvent, bool) {
	select {
	case <-h.done:
		return h.result(), true
	default:
		return domain.CompletionEvent{}, false
	}
}

// Cancel asks the batch to start no further jobs. Safe to call repeatedly.
func (h *Handle) Cancel() {
	h.cancelled.Store(true)
	h.cancel()
}

// Cancelled reports whether Cancel was called.
func (h *Handle) Cancelled() bool {
	return h.cancelled.Load()
}

func (h *Handle) result() domain.CompletionEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.event
}

func (h *Handle) complete(event domain.CompletionEvent) {
	h.once.Do(func() {
		h.mu.Lock()
		h.event = event
		h.mu.Unlock()
		h.cancel()
		close(h.done)
	})
}
