// Package executor runs compiled jobs sequentially and aggregates their
// outcomes into a single completion event.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"alchemist/internal/domain"
	"alchemist/internal/logging"
)

// DefaultTimeout is the wall-clock limit applied to each invocation.
const DefaultTimeout = time.Hour

// Outcome classifies how one invocation (or job) ended.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeExitError
	OutcomeTimeout
	OutcomeLaunchError
	OutcomeSkipped
)

// String returns the outcome name used in logs and events.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeExitError:
		return "exit-error"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeLaunchError:
		return "launch-error"
	case OutcomeSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// InvocationResult is the classified result of one external process.
type InvocationResult struct {
	Outcome  Outcome
	Command  string
	ExitCode int
	// Diagnostic is the detail recorded against the job on failure.
	Diagnostic string
	Stderr     string
	Duration   time.Duration
	Err        error
}

// JobReport summarizes one job after all its invocations ran.
type JobReport struct {
	Index       int
	Total       int
	Job         domain.Job
	Outcome     Outcome
	Invocations []InvocationResult
	// ErrorLine is "<destination basename>: <detail>" for failed or skipped jobs.
	ErrorLine string
}

// Failed reports whether the job did not complete successfully.
func (r JobReport) Failed() bool {
	return r.Outcome != OutcomeSuccess
}

// Hooks receive progress while a batch executes. Any field may be nil.
type Hooks struct {
	OnJobStart   func(index int, job domain.Job)
	OnInvocation func(index int, job domain.Job, result InvocationResult)
	OnJob        func(report JobReport)
}

// Summary is the aggregated result of one Execute call.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Errors    []string
	Reports   []JobReport
}

// Event builds the completion event for the summary.
func (s Summary) Event(batchID string) domain.CompletionEvent {
	event := Aggregate(s.Errors, s.Succeeded)
	event.BatchID = batchID
	return event
}

// Executor runs jobs one after another through a Runner.
type Executor struct {
	runner  Runner
	timeout time.Duration
}

// New creates an executor. A non-positive timeout selects DefaultTimeout.
func New(runner Runner, timeout time.Duration) *Executor {
	if runner == nil {
		runner = &ExecRunner{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{runner: runner, timeout: timeout}
}

// Timeout returns the per-invocation limit.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Execute runs jobs strictly in order. A failing job never aborts the batch.
// Cancelling ctx stops further jobs from starting; the invocation already
// running is left to finish under its own timeout.
func (e *Executor) Execute(ctx context.Context, batchID string, jobs []domain.Job, hooks Hooks) Summary {
	logger := logging.WithBatch("executor", batchID)
	summary := Summary{Reports: make([]JobReport, 0, len(jobs))}

	for i, job := range jobs {
		var report JobReport
		if ctx.Err() != nil {
			report = skippedReport(i, len(jobs), job)
		} else {
			if hooks.OnJobStart != nil {
				hooks.OnJobStart(i, job)
			}
			report = e.runJob(ctx, i, len(jobs), job, hooks, logger)
		}

		switch report.Outcome {
		case OutcomeSuccess:
			summary.Succeeded++
		case OutcomeSkipped:
			summary.Skipped++
			summary.Errors = append(summary.Errors, report.ErrorLine)
		default:
			summary.Failed++
			summary.Errors = append(summary.Errors, report.ErrorLine)
		}
		summary.Reports = append(summary.Reports, report)

		if hooks.OnJob != nil {
			hooks.OnJob(report)
		}
	}

	logger.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Msg("batch finished")
	return summary
}

// runJob executes the job's invocations in order; the first failure ends the job.
func (e *Executor) runJob(ctx context.Context, index, total int, job domain.Job, hooks Hooks, logger zerolog.Logger) JobReport {
	report := JobReport{Index: index, Total: total, Job: job, Outcome: OutcomeSuccess}
	jobLog := logger.With().
		Int("job", index+1).
		Str("output", job.Output).
		Str("kind", job.Kind.String()).
		Logger()

	for _, inv := range job.Invocations() {
		res := e.runInvocation(ctx, inv)
		report.Invocations = append(report.Invocations, res)
		if hooks.OnInvocation != nil {
			hooks.OnInvocation(index, job, res)
		}

		if res.Outcome != OutcomeSuccess {
			report.Outcome = res.Outcome
			report.ErrorLine = fmt.Sprintf("%s: %s", filepath.Base(job.Output), res.Diagnostic)
			jobLog.Warn().
				Str("outcome", res.Outcome.String()).
				Int("exit_code", res.ExitCode).
				Str("detail", res.Diagnostic).
				Msg("invocation failed")
			return report
		}
		jobLog.Debug().Dur("duration", res.Duration).Str("command", res.Command).Msg("invocation succeeded")
	}

	jobLog.Info().Msg("job complete")
	return report
}

// runInvocation launches one process under the per-invocation deadline.
// The deadline is detached from batch cancellation.
func (e *Executor) runInvocation(ctx context.Context, inv domain.Invocation) InvocationResult {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	started := time.Now()
	out, err := e.runner.Run(runCtx, inv.Path, inv.Args...)
	res := Classify(out, err, runCtx.Err())
	res.Command = inv.String()
	res.Duration = time.Since(started)
	return res
}

// Classify maps a runner result onto an Outcome. deadlineErr is the
// invocation context's error after Run returned.
func Classify(out CommandResult, err error, deadlineErr error) InvocationResult {
	res := InvocationResult{ExitCode: out.ExitCode, Stderr: out.Stderr, Err: err}
	switch {
	case errors.Is(deadlineErr, context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		res.Outcome = OutcomeTimeout
		res.Diagnostic = "timed out"
	case err == nil && out.ExitCode == 0:
		res.Outcome = OutcomeSuccess
	case err == nil || out.ExitCode > 0 || isExitError(err):
		res.Outcome = OutcomeExitError
		res.Diagnostic = LastLine(out.Stderr)
		if res.Diagnostic == "" {
			res.Diagnostic = fmt.Sprintf("exit %d", out.ExitCode)
		}
	default:
		res.Outcome = OutcomeLaunchError
		res.ExitCode = -1
		res.Diagnostic = err.Error()
	}
	return res
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// LastLine returns the last line of the trimmed tool output.
func LastLine(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if i := strings.LastIndexAny(s, "\r\n"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

// Aggregate builds the completion message from collected error lines and
// the count of jobs that completed without error.
func Aggregate(errs []string, succeeded int) domain.CompletionEvent {
	if len(errs) > 0 {
		return domain.CompletionEvent{
			OK:      false,
			Message: "Encoding completed with errors:\n" + strings.Join(errs, "\n"),
		}
	}
	noun := "files"
	if succeeded == 1 {
		noun = "file"
	}
	return domain.CompletionEvent{
		OK:      true,
		Message: fmt.Sprintf("Encoding complete – %d %s written.", succeeded, noun),
	}
}

func skippedReport(index, total int, job domain.Job) JobReport {
	return JobReport{
		Index:     index,
		Total:     total,
		Job:       job,
		Outcome:   OutcomeSkipped,
		ErrorLine: fmt.Sprintf("%s: skipped (batch cancelled)", filepath.Base(job.Output)),
	}
}
