package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"

	"github.com/dmitrymomot/condokit/pkg/execlog"
	"github.com/dmitrymomot/condokit/pkg/logger"
	"github.com/dmitrymomot/condokit/pkg/requestid"
)

// Schedule registers job on s with a standard five-field crontab. Runs use
// trigger "cron" and never overlap: a tick that fires while the previous run
// is still going is rescheduled. ctx is the parent of every run.
func (e *Engine) Schedule(ctx context.Context, s gocron.Scheduler, job, crontab string) (gocron.Job, error) {
	if !IsJob(job) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, job)
	}

	j, err := s.NewJob(
		gocron.CronJob(crontab, false),
		gocron.NewTask(e.runScheduled, ctx, job),
		gocron.WithName(job),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule %s: %w", job, err)
	}

	e.logger.LogAttrs(ctx, slog.LevelInfo, "job scheduled",
		logger.JobName(job),
		slog.String("crontab", crontab),
	)
	return j, nil
}

func (e *Engine) runScheduled(ctx context.Context, job string) {
	if ctx.Err() != nil {
		return
	}
	ctx = requestid.Ensure(ctx)
	if _, err := e.RunJob(ctx, job, execlog.TriggerCron, JobParams{}); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelError, "scheduled run failed",
			logger.JobName(job),
			logger.Error(err),
		)
	}
}
