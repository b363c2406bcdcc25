package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/dmitrymomot/condokit/pkg/billing"
	"github.com/dmitrymomot/condokit/pkg/delivery"
	"github.com/dmitrymomot/condokit/pkg/execlog"
	"github.com/dmitrymomot/condokit/pkg/httpserver"
	"github.com/dmitrymomot/condokit/pkg/lifecycle"
	"github.com/dmitrymomot/condokit/pkg/logger"
)

// Job names.
const (
	JobBillingCycle = "billing-cycle"
	JobLogCleanup   = "execution-log-cleanup"
)

// Jobs lists every job the engine knows.
var Jobs = []string{JobBillingCycle, JobLogCleanup}

type (
	// BillingCycle runs one billing pass. *lifecycle.Manager satisfies it.
	BillingCycle interface {
		RunBillingCycle(ctx context.Context, now time.Time, opts lifecycle.RunOptions) (lifecycle.RunResult, error)
	}

	// LogCleaner deletes old execution log entries. *execlog.Log satisfies it.
	LogCleaner interface {
		Cleanup(ctx context.Context, retention time.Duration) (int64, error)
	}

	// DeliveryReconciler applies a delivery callback. *delivery.Reconciler satisfies it.
	DeliveryReconciler interface {
		Apply(ctx context.Context, ev delivery.Event) (delivery.Timestamps, error)
	}

	// DeliveryLister lists delivery records sent since a point in time.
	DeliveryLister interface {
		ListSince(ctx context.Context, since time.Time) ([]delivery.Timestamps, error)
	}

	// PaymentParser verifies and decodes a payment callback.
	// *billing.PaddleCallback satisfies it.
	PaymentParser interface {
		Parse(ctx context.Context, payload []byte, signature string) (billing.PaymentEvent, error)
	}

	// PaymentApplier moves an invoice to the reported status.
	// *billing.Service satisfies it.
	PaymentApplier interface {
		ApplyPayment(ctx context.Context, ev billing.PaymentEvent) (billing.Invoice, error)
	}

	// Metrics is the observability surface the router uses.
	// *metrics.Collector satisfies it.
	Metrics interface {
		Handler() http.Handler
		Middleware(next http.Handler) http.Handler
		RecordDeliveryEvent(provider, kind, outcome string)
	}
)

// JobParams are the optional parameters of a job run.
type JobParams struct {
	DryRun        bool `json:"dry_run,omitempty"`
	RetentionDays int  `json:"retention_days,omitempty"`
}

// Engine runs jobs and serves the engine's HTTP surface.
type Engine struct {
	cfg     Config
	runner  *execlog.Runner
	pauses  execlog.PauseStore
	billing BillingCycle
	cleaner LogCleaner

	reconciler DeliveryReconciler
	deliveries DeliveryLister
	payments   PaymentParser
	invoices   PaymentApplier
	metrics    Metrics
	checks     []httpserver.Check

	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithDeliveries enables the delivery webhook and summary routes.
func WithDeliveries(r DeliveryReconciler, l DeliveryLister) Option {
	return func(e *Engine) {
		e.reconciler = r
		e.deliveries = l
	}
}

// WithPayments enables the payment callback route.
func WithPayments(p PaymentParser, a PaymentApplier) Option {
	return func(e *Engine) {
		e.payments = p
		e.invoices = a
	}
}

func WithMetrics(m Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithReadinessChecks adds dependency checks to /readyz.
func WithReadinessChecks(checks ...httpserver.Check) Option {
	return func(e *Engine) { e.checks = append(e.checks, checks...) }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine. The runner owns the execution log protocol; pauses
// must be the same store the runner consults.
func New(cfg Config, runner *execlog.Runner, pauses execlog.PauseStore, cycle BillingCycle, cleaner LogCleaner, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg.withDefaults(),
		runner:  runner,
		pauses:  pauses,
		billing: cycle,
		cleaner: cleaner,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logger.Component("engine"))
	return e
}

// IsJob reports whether name is a known job.
func IsJob(name string) bool {
	return slices.Contains(Jobs, name)
}

// RunJob runs a job under the execution log. The report carries the job
// result, or the skipped marker when the job is paused.
func (e *Engine) RunJob(ctx context.Context, job, trigger string, params JobParams) (execlog.Report, error) {
	fn, err := e.jobFunc(job, params)
	if err != nil {
		return execlog.Report{}, err
	}
	return e.runner.Run(ctx, job, trigger, fn), nil
}

func (e *Engine) jobFunc(job string, params JobParams) (execlog.JobFunc, error) {
	switch job {
	case JobBillingCycle:
		return func(ctx context.Context) (any, error) {
			res, err := e.billing.RunBillingCycle(ctx, e.now(), lifecycle.RunOptions{DryRun: params.DryRun})
			if err != nil {
				return nil, err
			}
			return res, nil
		}, nil

	case JobLogCleanup:
		if params.RetentionDays < 0 {
			return nil, fmt.Errorf("%w: retention_days must not be negative", ErrInvalidJobParams)
		}
		days := params.RetentionDays
		if days == 0 {
			days = e.cfg.RetentionDays
		}
		return func(ctx context.Context) (any, error) {
			n, err := e.cleaner.Cleanup(ctx, time.Duration(days)*24*time.Hour)
			if err != nil {
				return nil, err
			}
			return map[string]any{"deleted": n, "retention_days": days}, nil
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownJob, job)
}

// SetPaused pauses or resumes a job.
func (e *Engine) SetPaused(ctx context.Context, job string, paused bool) error {
	if !IsJob(job) {
		return fmt.Errorf("%w: %q", ErrUnknownJob, job)
	}
	if err := e.pauses.SetPaused(ctx, job, paused); err != nil {
		return err
	}
	e.logger.LogAttrs(ctx, slog.LevelInfo, "job pause flag changed",
		logger.JobName(job),
		slog.Bool("paused", paused),
	)
	return nil
}
