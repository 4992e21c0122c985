// Package batch turns a file drop into a dispatched batch: normalize,
// validate, resolve tools, compile, then execute in the background.
package batch

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"alchemist/internal/compiler"
	"alchemist/internal/config"
	"alchemist/internal/diagnostics"
	"alchemist/internal/domain"
	"alchemist/internal/executor"
	"alchemist/internal/jobs"
	"alchemist/internal/logging"
	"alchemist/internal/notify"
	"alchemist/internal/pathnorm"
)

// Options wires the collaborators of an Orchestrator. Nil fields get
// production defaults.
type Options struct {
	Resolver *diagnostics.Resolver
	Compiler *compiler.Compiler
	Executor *executor.Executor
	Registry *jobs.Registry
	Events   *jobs.EventBus
	// PassLogDir is created before a batch with two-pass jobs starts.
	PassLogDir string
	NewID      func() string
}

// Orchestrator runs the synchronous compile phase and owns the background
// goroutine of every batch it dispatches.
type Orchestrator struct {
	resolver   *diagnostics.Resolver
	compiler   *compiler.Compiler
	executor   *executor.Executor
	registry   *jobs.Registry
	events     *jobs.EventBus
	passLogDir string
	newID      func() string
	mkdirAll   func(string, os.FileMode) error
	logger     zerolog.Logger

	wg sync.WaitGroup
}

// New builds an orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		resolver:   opts.Resolver,
		compiler:   opts.Compiler,
		executor:   opts.Executor,
		registry:   opts.Registry,
		events:     opts.Events,
		passLogDir: opts.PassLogDir,
		newID:      opts.NewID,
		mkdirAll:   os.MkdirAll,
		logger:     logging.WithComponent("batch"),
	}
	if o.resolver == nil {
		o.resolver = diagnostics.NewResolver()
	}
	if o.compiler == nil {
		o.compiler = compiler.New(compiler.Options{PassLogDir: o.passLogDir})
	}
	if o.passLogDir == "" {
		o.passLogDir = o.compiler.PassLogDir()
	}
	if o.executor == nil {
		o.executor = executor.New(nil, executor.DefaultTimeout)
	}
	if o.registry == nil {
		o.registry = jobs.NewRegistry()
	}
	if o.events == nil {
		o.events = jobs.NewEventBus(0)
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	return o
}

// Registry exposes the batch registry.
func (o *Orchestrator) Registry() *jobs.Registry {
	return o.registry
}

// Events exposes the progress event bus.
func (o *Orchestrator) Events() *jobs.EventBus {
	return o.events
}

// ProcessFiles compiles the drop and, on success, dispatches it. It returns
// as soon as the batch is dispatched; the completion event reaches bridge
// later.
func (o *Orchestrator) ProcessFiles(raw []string, prefs map[string]any, bridge notify.Bridge) domain.BatchResult {
	result, _ := o.Start(raw, prefs, bridge)
	return result
}

// Start is ProcessFiles returning the batch handle as well. The handle is
// nil when nothing was dispatched.
func (o *Orchestrator) Start(raw []string, prefs map[string]any, bridge notify.Bridge) (result domain.BatchResult, handle *jobs.Handle) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Str("panic", fmt.Sprint(r)).Msg("compile phase panicked")
			result = unexpected(r)
			handle = nil
		}
	}()

	compiled, result, err := o.Plan(raw, prefs)
	if err != nil {
		return result, nil
	}

	id := o.newID()
	handle, ctx, err := o.registry.Register(id, result.Label, len(compiled))
	if err != nil {
		return unexpected(err), nil
	}
	result.BatchID = id

	logger := logging.WithBatch("batch", id)
	logger.Info().
		Str("mode", result.Label).
		Int("jobs", len(compiled)).
		Msg("batch dispatched")
	o.events.Publish(jobs.Event{
		BatchID:   id,
		Type:      jobs.EventTypeStatus,
		Status:    domain.BatchStatusQueued,
		Message:   result.Message,
		JobsTotal: len(compiled),
	})

	sink := notify.NewSink(bridge)
	o.wg.Add(1)
	go o.run(ctx, id, compiled, sink, logger)

	return result, handle
}

// Plan runs the synchronous phase without dispatching: normalize the drop,
// validate preferences, resolve tools and compile.
func (o *Orchestrator) Plan(raw []string, prefs map[string]any) ([]domain.Job, domain.BatchResult, error) {
	paths := pathnorm.Normalize(nonBlank(raw))

	// An unparseable mode is reported after the file checks, like an
	// out-of-range one.
	parsed, err := config.ParsePreferences(prefs)
	if err != nil {
		o.logger.Debug().Err(err).Msg("rejecting preferences")
		parsed.Mode = -1
	}

	tools := o.resolver.ResolveAll(parsed)
	compiled, result, err := o.compiler.Compile(paths, parsed.Mode, tools)
	if err != nil {
		o.logger.Info().Err(err).Int("files", len(paths)).Msg("batch rejected")
		return nil, result, err
	}
	return compiled, result, nil
}

// Wait blocks until every dispatched batch has delivered its completion.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// run executes one batch on its own goroutine.
func (o *Orchestrator) run(ctx context.Context, id string, compiled []domain.Job, sink *notify.Sink, logger zerolog.Logger) {
	defer o.wg.Done()

	event, skipped := o.execute(ctx, id, compiled, logger)

	ok := event.OK
	o.events.Publish(jobs.Event{
		BatchID: id,
		Type:    jobs.EventTypeResult,
		Status:  terminalStatus(event, skipped),
		Message: event.Message,
		OK:      &ok,
	})
	sink.Deliver(event)
	o.registry.Finish(id, event, skipped)
}

func (o *Orchestrator) execute(ctx context.Context, id string, compiled []domain.Job, logger zerolog.Logger) (event domain.CompletionEvent, skipped int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("panic", fmt.Sprint(r)).Msg("batch execution panicked")
			event = domain.CompletionEvent{BatchID: id, OK: false, Message: fmt.Sprintf("Unexpected error:\n%v", r)}
		}
	}()

	if err := o.registry.Transition(id, domain.BatchStatusRunning); err != nil {
		logger.Warn().Err(err).Msg("batch transition")
	}
	o.events.Publish(jobs.Event{
		BatchID:   id,
		Type:      jobs.EventTypeStatus,
		Status:    domain.BatchStatusRunning,
		JobsTotal: len(compiled),
	})

	if needsPassLogs(compiled) {
		if err := o.mkdirAll(o.passLogDir, 0o755); err != nil {
			logger.Warn().Err(err).Str("dir", o.passLogDir).Msg("cannot create two-pass log directory")
		}
	}

	summary := o.executor.Execute(ctx, id, compiled, executor.Hooks{
		OnJobStart: func(index int, job domain.Job) {
			o.events.Publish(jobs.Event{
				BatchID:   id,
				Type:      jobs.EventTypeLog,
				Message:   "Encoding started",
				Job:       index + 1,
				JobsTotal: len(compiled),
				Output:    job.Output,
				Note:      job.Note,
			})
		},
		OnInvocation: func(index int, job domain.Job, res executor.InvocationResult) {
			o.events.Publish(jobs.Event{
				BatchID:  id,
				Type:     jobs.EventTypeLog,
				Message:  "Command finished",
				Job:      index + 1,
				Output:   job.Output,
				Command:  res.Command,
				Outcome:  res.Outcome.String(),
				ExitCode: res.ExitCode,
			})
		},
		OnJob: func(report executor.JobReport) {
			o.registry.RecordJob(id, report.Failed())
			if !report.Failed() {
				return
			}
			o.events.Publish(jobs.Event{
				BatchID: id,
				Type:    jobs.EventTypeError,
				Message: report.ErrorLine,
				Job:     report.Index + 1,
				Output:  report.Job.Output,
				Outcome: report.Outcome.String(),
			})
		},
	})

	return summary.Event(id), summary.Skipped
}

func terminalStatus(event domain.CompletionEvent, skipped int) domain.BatchStatus {
	switch {
	case skipped > 0:
		return domain.BatchStatusCancelled
	case !event.OK:
		return domain.BatchStatusFailed
	default:
		return domain.BatchStatusDone
	}
}

func needsPassLogs(compiled []domain.Job) bool {
	for _, job := range compiled {
		if job.Multipass {
			return true
		}
	}
	return false
}

func nonBlank(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, ref := range raw {
		if strings.TrimSpace(ref) != "" {
			out = append(out, ref)
		}
	}
	return out
}

func unexpected(v any) domain.BatchResult {
	return domain.BatchResult{
		OK:       false,
		Message:  fmt.Sprintf("Unexpected error:\n%v", v),
		Commands: []string{},
	}
}
