package execlog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/condokit/pkg/logger"
)

// JobFunc is the body of a job. The returned result is stored on the entry.
type JobFunc func(ctx context.Context) (any, error)

// PartialResult is implemented by job results that can carry per-item errors.
type PartialResult interface {
	HasErrors() bool
}

// Report is the outcome of one Runner.Run call.
type Report struct {
	ID     uuid.UUID `json:"id"`
	Status Status    `json:"status"`
	Result any       `json:"result,omitempty"`
	Err    error     `json:"-"`
}

// Skipped reports whether the job did not run because it is paused.
func (r Report) Skipped() bool { return r.Status == StatusSkipped }

// Recorder observes finished runs.
type Recorder interface {
	RecordRun(job string, status string, elapsed time.Duration)
}

// Runner executes jobs under the execution log protocol.
type Runner struct {
	log      *Log
	pauses   PauseStore
	recorder Recorder
	logger   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

func WithRecorder(r Recorder) RunnerOption {
	return func(rn *Runner) { rn.recorder = r }
}

func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(rn *Runner) {
		if l != nil {
			rn.logger = l
		}
	}
}

func NewRunner(log *Log, pauses PauseStore, opts ...RunnerOption) *Runner {
	r := &Runner{log: log, pauses: pauses, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run checks the pause flag, opens an entry, runs fn and closes the entry.
// A failing pause lookup is logged and treated as not paused.
// Cancellation of ctx is not propagated: a started run always reaches its
// final status, so the entry is closed exactly once.
func (r *Runner) Run(ctx context.Context, job, trigger string, fn JobFunc) Report {
	ctx = context.WithoutCancel(ctx)
	attrs := []slog.Attr{logger.JobName(job), logger.Trigger(trigger)}
	start := time.Now()

	if r.paused(ctx, job, attrs) {
		id, err := r.log.Skip(ctx, job, trigger)
		if err != nil {
			r.logger.LogAttrs(ctx, slog.LevelError, "failed to record skipped run", append(attrs, logger.Error(err))...)
		}
		r.logger.LogAttrs(ctx, slog.LevelInfo, "job paused, run skipped", attrs...)
		r.observe(job, StatusSkipped, time.Since(start))
		return Report{ID: id, Status: StatusSkipped, Result: map[string]bool{"skipped": true}}
	}

	id, err := r.log.Begin(ctx, job, trigger)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to open run", append(attrs, logger.Error(err))...)
		r.observe(job, StatusError, time.Since(start))
		return Report{Status: StatusError, Err: err}
	}
	attrs = append(attrs, logger.RunID(id))
	r.logger.LogAttrs(ctx, slog.LevelInfo, "job started", attrs...)

	result, err := r.call(ctx, fn)

	status := StatusSuccess
	errMsg := ""
	switch {
	case err != nil:
		status = StatusError
		errMsg = err.Error()
	case hasErrors(result):
		status = StatusPartial
	}

	if cerr := r.log.Complete(ctx, id, status, result, errMsg); cerr != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to close run", append(attrs, logger.Error(cerr))...)
	}

	elapsed := time.Since(start)
	r.observe(job, status, elapsed)

	level := slog.LevelInfo
	if status == StatusError {
		level = slog.LevelError
	} else if status == StatusPartial {
		level = slog.LevelWarn
	}
	r.logger.LogAttrs(ctx, level, "job finished", append(attrs,
		slog.String("status", string(status)),
		logger.Duration(elapsed),
		logger.Error(err),
	)...)

	return Report{ID: id, Status: status, Result: result, Err: err}
}

func (r *Runner) paused(ctx context.Context, job string, attrs []slog.Attr) bool {
	if r.pauses == nil {
		return false
	}
	paused, err := r.pauses.IsPaused(ctx, job)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "pause flag lookup failed, running anyway", append(attrs, logger.Error(err))...)
		return false
	}
	return paused
}

func (r *Runner) call(ctx context.Context, fn JobFunc) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.LogAttrs(ctx, slog.LevelError, "job panicked",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			result = nil
			err = fmt.Errorf("%w: %v", ErrJobPanicked, rec)
		}
	}()
	return fn(ctx)
}

func (r *Runner) observe(job string, status Status, elapsed time.Duration) {
	if r.recorder != nil {
		r.recorder.RecordRun(job, string(status), elapsed)
	}
}

func hasErrors(result any) bool {
	p, ok := result.(PartialResult)
	return ok && p.HasErrors()
}
