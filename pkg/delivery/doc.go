// Package delivery derives the display status of outbound messages from the
// timestamps providers report back, and keeps those timestamps up to date from
// provider webhooks.
//
// Status is never stored. ResolveStatus recomputes it from the evidence on
// every read:
//
//	read_at set             -> read
//	delivered_at set        -> delivered
//	provider status failed  -> failed
//	provider status sent    -> sent
//	otherwise               -> pending
//
// Tally aggregates a set of messages the way the monitoring views expect:
// a read message also counts as delivered and sent, and a delivered message
// also counts as sent.
//
// Webhook payloads differ per provider. ParseEvent normalizes them into an
// Event and Reconciler.Apply moves the stored timestamps forward, never back.
package delivery
