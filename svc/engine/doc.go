// Package engine is the composition root of the billing engine. It names the
// jobs the engine runs, executes them under the execution log, and exposes
// them together with the delivery and payment webhooks over a chi router.
//
// Jobs:
//
//	billing-cycle           runs one subscription billing pass
//	execution-log-cleanup   deletes finished log entries older than the retention
//
// Routes:
//
//	POST /jobs/{job}                       run a job now (trigger "manual")
//	POST /jobs/{job}/pause                 pause a job
//	POST /jobs/{job}/resume                resume a job
//	POST /webhooks/messaging/{provider}    provider delivery callbacks
//	POST /webhooks/payments                gateway invoice status callbacks
//	GET  /deliveries/summary?since=        aggregate delivery counts
//	GET  /healthz, /readyz, /metrics
//
// Scheduled triggers call Engine.RunJob directly with trigger "cron".
package engine
