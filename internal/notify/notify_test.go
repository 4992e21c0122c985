package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alchemist/internal/domain"
)

func TestSinkDeliversExactlyOnce(t *testing.T) {
	var got []domain.CompletionEvent
	sink := NewSink(BridgeFunc(func(e domain.CompletionEvent) error {
		got = append(got, e)
		return nil
	}))

	sink.Deliver(domain.CompletionEvent{BatchID: "b1", OK: true, Message: "done"})
	require.Len(t, got, 1)
	assert.Equal(t, "done", got[0].Message)
}

func TestSinkSwallowsErrorsAndPanics(t *testing.T) {
	failing := NewSink(BridgeFunc(func(domain.CompletionEvent) error { return errors.New("window closed") }))
	panicking := NewSink(BridgeFunc(func(domain.CompletionEvent) error { panic("evaluate failed") }))

	assert.NotPanics(t, func() { failing.Deliver(domain.CompletionEvent{}) })
	assert.NotPanics(t, func() { panicking.Deliver(domain.CompletionEvent{}) })
	assert.NotPanics(t, func() { NewSink(nil).Deliver(domain.CompletionEvent{}) })
	assert.NotPanics(t, func() { (*Sink)(nil).Deliver(domain.CompletionEvent{}) })
}

func TestSurfaceBridgeEmitsWhileAttached(t *testing.T) {
	type emitted struct {
		name string
		data []interface{}
	}
	var calls []emitted
	surface := NewSurfaceForTests(func(_ context.Context, name string, data ...interface{}) {
		calls = append(calls, emitted{name: name, data: data})
	})
	bridge := surface.Bridge()

	event := domain.CompletionEvent{OK: false, Message: "Encoding completed with errors:\nx"}
	assert.ErrorIs(t, bridge.Emit(event), ErrSurfaceGone)

	surface.Attach(context.Background())
	require.NoError(t, bridge.Emit(event))
	require.Len(t, calls, 1)
	assert.Equal(t, EventEncodingComplete, calls[0].name)
	assert.Equal(t, []interface{}{event}, calls[0].data)

	surface.Detach()
	assert.ErrorIs(t, bridge.Emit(event), ErrSurfaceGone)
	assert.Len(t, calls, 1)
}

func TestWriterBridgeAndMulti(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	bridge := Multi(WriterBridge{W: &buf}, nil, BridgeFunc(func(domain.CompletionEvent) error { return boom }))

	err := bridge.Emit(domain.CompletionEvent{OK: true, Message: "Encoding complete – 1 file written."})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "[OK] Encoding complete – 1 file written.\n", buf.String())
}
