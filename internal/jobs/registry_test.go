package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"alchemist/internal/domain"
)

// TestRegistryLifecycle verifies normal progression to done state.
func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	handle, ctx, err := r.Register("b1", "MP4  480p / 360p", 2)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if r.Active() != 1 {
		t.Fatalf("active = %d, want 1", r.Active())
	}

	if err := r.Transition("b1", domain.BatchStatusRunning); err != nil {
		t.Fatalf("transition: %v", err)
	}
	r.RecordJob("b1", false)
	r.RecordJob("b1", true)

	event := domain.CompletionEvent{BatchID: "b1", OK: false, Message: "Encoding completed with errors:\nx"}
	r.Finish("b1", event, 0)

	batch, ok := r.Get("b1")
	if !ok {
		t.Fatal("batch missing")
	}
	if batch.Status != domain.BatchStatusFailed || batch.JobsDone != 2 || batch.Failures != 1 {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	if ctx.Err() == nil {
		t.Fatal("batch context should be released after finish")
	}

	got, err := handle.Wait(context.Background())
	if err != nil || got != event {
		t.Fatalf("Wait() = %+v, %v", got, err)
	}
	if r.Active() != 0 {
		t.Fatalf("active = %d, want 0", r.Active())
	}
}

// TestRegistryAllowsConcurrentBatches verifies there is no mutual exclusion.
func TestRegistryAllowsConcurrentBatches(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"a", "b", "c"} {
		if _, _, err := r.Register(id, "", 1); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
		if err := r.Transition(id, domain.BatchStatusRunning); err != nil {
			t.Fatalf("transition %s: %v", id, err)
		}
	}
	if r.Active() != 3 {
		t.Fatalf("active = %d, want 3", r.Active())
	}

	if _, _, err := r.Register("a", "", 1); !errors.Is(err, ErrDuplicateBatch) {
		t.Fatalf("duplicate register error = %v", err)
	}
}

// TestRegistryRejectsInvalidTransition checks state machine constraints.
func TestRegistryRejectsInvalidTransition(t *testing.T) {
	r := NewRegistry()
	if _, _, err := r.Register("b1", "", 1); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := r.Transition("b1", domain.BatchStatusDone); err == nil {
		t.Fatal("expected invalid transition error")
	}
	if err := r.Transition("missing", domain.BatchStatusRunning); !errors.Is(err, ErrUnknownBatch) {
		t.Fatalf("unknown batch error = %v", err)
	}
}

// TestRegistryCancel verifies cancel signals the batch context and is refused after finish.
func TestRegistryCancel(t *testing.T) {
	r := NewRegistry()
	handle, ctx, err := r.Register("b1", "", 3)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_ = r.Transition("b1", domain.BatchStatusRunning)

	if err := r.Cancel("b1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if ctx.Err() == nil || !handle.Cancelled() {
		t.Fatal("expected cancellation to propagate")
	}
	if _, done := handle.Result(); done {
		t.Fatal("cancel must not resolve the handle before the executor finishes")
	}

	r.Finish("b1", domain.CompletionEvent{OK: false}, 2)
	batch, _ := r.Get("b1")
	if batch.Status != domain.BatchStatusCancelled {
		t.Fatalf("status = %s, want cancelled", batch.Status)
	}
	if err := r.Cancel("b1"); !errors.Is(err, ErrBatchFinished) {
		t.Fatalf("second cancel error = %v, want %v", err, ErrBatchFinished)
	}
}

// TestHandleWaitHonoursContext verifies an abandoned wait returns promptly.
func TestHandleWaitHonoursContext(t *testing.T) {
	r := NewRegistry()
	handle, _, err := r.Register("b1", "", 1)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := handle.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v", err)
	}
	select {
	case <-handle.Done():
		t.Fatal("handle should still be pending")
	default:
	}
}

// TestRegistryPrunesFinishedBatches verifies retention is bounded.
func TestRegistryPrunesFinishedBatches(t *testing.T) {
	r := NewRegistry()
	r.retained = 2
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("b%d", i)
		if _, _, err := r.Register(id, "", 1); err != nil {
			t.Fatalf("register: %v", err)
		}
		_ = r.Transition(id, domain.BatchStatusRunning)
		r.Finish(id, domain.CompletionEvent{OK: true}, 0)
	}

	if _, ok := r.Get("b0"); ok {
		t.Fatal("b0 should have been pruned")
	}
	if _, ok := r.Get("b3"); !ok {
		t.Fatal("b3 should be retained")
	}
}
