// Package execlog records every job run and lets operators pause jobs.
//
// Each run is opened with Begin (status running) and closed exactly once with
// Complete. Runs of a paused job are recorded as skipped and do nothing else.
//
// Runner wraps a job function with the whole protocol:
//
//	runner := execlog.NewRunner(log, pauses)
//	report := runner.Run(ctx, "billing-cycle", execlog.TriggerCron, func(ctx context.Context) (any, error) {
//		return manager.RunBillingCycle(ctx, time.Now(), lifecycle.RunOptions{}), nil
//	})
//
// A job result that implements PartialResult and reports item errors closes the
// run as partial. A returned error or a panic closes it as error.
package execlog
