// Package notify delivers batch completion events to whatever surface
// started the batch.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"alchemist/internal/domain"
	"alchemist/internal/logging"
)

// EventEncodingComplete is the front-end event carrying a CompletionEvent.
const EventEncodingComplete = "encoding:complete"

// ErrSurfaceGone is returned when the interactive surface has been closed.
var ErrSurfaceGone = errors.New("notification surface is gone")

// Bridge delivers one completion event.
type Bridge interface {
	Emit(event domain.CompletionEvent) error
}

// BridgeFunc adapts a function to Bridge.
type BridgeFunc func(event domain.CompletionEvent) error

// Emit calls f.
func (f BridgeFunc) Emit(event domain.CompletionEvent) error {
	return f(event)
}

// Sink wraps a bridge so that delivery can never fail the caller.
type Sink struct {
	bridge Bridge
	logger zerolog.Logger
}

// NewSink binds a sink to the bridge snapshot taken at batch start.
func NewSink(bridge Bridge) *Sink {
	return &Sink{bridge: bridge, logger: logging.WithComponent("notify")}
}

// Deliver invokes the bridge exactly once. Errors and panics are logged
// and swallowed.
func (s *Sink) Deliver(event domain.CompletionEvent) {
	if s == nil || s.bridge == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("batch_id", event.BatchID).
				Str("panic", fmt.Sprint(r)).
				Msg("completion delivery panicked")
		}
	}()

	if err := s.bridge.Emit(event); err != nil {
		s.logger.Warn().Err(err).Str("batch_id", event.BatchID).Msg("completion delivery failed")
		return
	}
	s.logger.Debug().Str("batch_id", event.BatchID).Bool("ok", event.OK).Msg("completion delivered")
}

// Surface tracks the Wails runtime context between startup and shutdown.
type Surface struct {
	mu   sync.RWMutex
	ctx  context.Context
	emit func(ctx context.Context, name string, data ...interface{})
}

// NewSurface creates a detached surface that emits through the Wails runtime.
func NewSurface() *Surface {
	return &Surface{emit: wailsruntime.EventsEmit}
}

// NewSurfaceForTests creates a surface with an injectable emitter.
func NewSurfaceForTests(emit func(ctx context.Context, name string, data ...interface{})) *Surface {
	return &Surface{emit: emit}
}

// Attach stores the runtime context handed to OnStartup.
func (s *Surface) Attach(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
}

// Detach clears the runtime context on shutdown.
func (s *Surface) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = nil
}

// Context returns the attached runtime context, or nil.
func (s *Surface) Context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// Publish emits an arbitrary named event when the surface is attached.
func (s *Surface) Publish(name string, data ...interface{}) error {
	ctx := s.Context()
	if ctx == nil {
		return ErrSurfaceGone
	}
	s.emit(ctx, name, data...)
	return nil
}

// Bridge returns a bridge emitting encoding:complete on this surface. The
// surface is re-checked at delivery time so a closed window yields
// ErrSurfaceGone instead of emitting into a dead context.
func (s *Surface) Bridge() Bridge {
	return BridgeFunc(func(event domain.CompletionEvent) error {
		return s.Publish(EventEncodingComplete, event)
	})
}

// WriterBridge prints the completion message, for headless callers.
type WriterBridge struct {
	W io.Writer
}

// Emit writes the event as a status line followed by the message.
func (b WriterBridge) Emit(event domain.CompletionEvent) error {
	status := "OK"
	if !event.OK {
		status = "FAILED"
	}
	_, err := fmt.Fprintf(b.W, "[%s] %s\n", status, event.Message)
	return err
}

// Multi fans one event out to several bridges, joining their errors.
func Multi(bridges ...Bridge) Bridge {
	return BridgeFunc(func(event domain.CompletionEvent) error {
		var errs []error
		for _, b := range bridges {
			if b == nil {
				continue
			}
			if err := b.Emit(event); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
