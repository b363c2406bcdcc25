// Package lifecycle advances subscriptions through trial, paid periods and
// renewals.
//
// RunBillingCycle makes one sequential pass over the active subscriptions.
// Each subscription is evaluated against a small transition table:
//
//	trialing --billing_cycle [trial ended]--> active   (trial end)
//	active   --billing_cycle [period ended]--> active  (renewal)
//
// Both transitions run the same action: open the next period starting on the
// current UTC calendar day, invoice it when the plan has a price, notify the
// owner when a new invoice was created, then persist the new period. Guards
// that reject mean the subscription is not due and is skipped.
//
// Failures are isolated per subscription. An invoice failure stops that
// subscription only and is reported in RunResult.Errors; notification failures
// are counted and never undo billing.
package lifecycle
