// Package dispatch sends templated notifications through the configured
// messaging provider and keeps an append-only log of every attempt.
//
// Dispatch never returns a Go error and never panics: configuration problems
// (missing template, unknown provider, no active provider) and provider
// failures all come back as a failed Result, so a notification problem can
// never abort the caller's batch.
//
// A successful send also opens a delivery record keyed by the provider's
// message id; provider webhooks later move it forward (see package delivery).
package dispatch
