package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"alchemist/internal/domain"
)

var (
	// ErrUnknownBatch is returned for IDs the registry never saw or already pruned.
	ErrUnknownBatch = errors.New("unknown batch")
	// ErrDuplicateBatch is returned when an ID is registered twice.
	ErrDuplicateBatch = errors.New("batch already registered")
	// ErrBatchFinished is returned when cancelling a batch that already ended.
	ErrBatchFinished = errors.New("batch already finished")
)

// defaultRetained bounds how many finished batches stay queryable.
const defaultRetained = 100

// Registry tracks every dispatched batch. Batches never exclude each other;
// any number may run at once.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	finished []string
	retained int
}

type entry struct {
	batch  domain.Batch
	handle *Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[string]*entry),
		retained: defaultRetained,
	}
}

// Register records a queued batch and returns its handle together with the
// context the executor must observe between jobs.
func (r *Registry) Register(id, label string, jobsTotal int) (*Handle, context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateBatch, id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	handle := newHandle(id, cancel)
	r.entries[id] = &entry{
		batch: domain.Batch{
			ID:        id,
			Label:     label,
			Status:    domain.BatchStatusQueued,
			JobsTotal: jobsTotal,
		},
		handle: handle,
	}
	return handle, ctx, nil
}

// Transition validates and applies a status change.
func (r *Registry) Transition(id string, status domain.BatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBatch, id)
	}
	if e.batch.Status == status {
		return nil
	}
	if !isValidTransition(e.batch.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", e.batch.Status, status)
	}
	e.batch.Status = status
	return nil
}

// RecordJob counts one finished job.
func (r *Registry) RecordJob(id string, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return
	}
	e.batch.JobsDone++
	if failed {
		e.batch.Failures++
	}
}

// Finish moves the batch to its terminal status and resolves the handle.
// A batch whose remaining jobs were skipped ends cancelled.
func (r *Registry) Finish(id string, event domain.CompletionEvent, skipped int) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return
	}

	status := domain.BatchStatusDone
	switch {
	case skipped > 0:
		status = domain.BatchStatusCancelled
	case !event.OK:
		status = domain.BatchStatusFailed
	}
	if isValidTransition(e.batch.Status, status) {
		e.batch.Status = status
	}
	r.finished = append(r.finished, id)
	r.pruneLocked()
	handle := e.handle
	r.mu.Unlock()

	handle.complete(event)
}

// Cancel requests that the batch start no further jobs.
func (r *Registry) Cancel(id string) error {
	r.mu.RLock()
	e, ok := r.entries[id]
	var status domain.BatchStatus
	if ok {
		status = e.batch.Status
	}
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBatch, id)
	}
	if isTerminal(status) {
		return ErrBatchFinished
	}
	e.handle.Cancel()
	return nil
}

// Get returns a snapshot of one batch.
func (r *Registry) Get(id string) (domain.Batch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return domain.Batch{}, false
	}
	return e.batch, true
}

// Handle returns the handle of a registered batch.
func (r *Registry) Handle(id string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.handle, true
}

// Active counts batches that are queued or running.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if !isTerminal(e.batch.Status) {
			n++
		}
	}
	return n
}

func (r *Registry) pruneLocked() {
	for len(r.finished) > r.retained {
		delete(r.entries, r.finished[0])
		r.finished = r.finished[1:]
	}
}

// isTerminal reports whether no further transitions are possible.
func isTerminal(status domain.BatchStatus) bool {
	switch status {
	case domain.BatchStatusDone, domain.BatchStatusFailed, domain.BatchStatusCancelled:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the batch state machine edges.
func isValidTransition(from, to domain.BatchStatus) bool {
	switch from {
	case domain.BatchStatusQueued:
		return to == domain.BatchStatusRunning || to == domain.BatchStatusCancelled
	case domain.BatchStatusRunning:
		return to == domain.BatchStatusDone || to == domain.BatchStatusFailed || to == domain.BatchStatusCancelled
	default:
		return false
	}
}
