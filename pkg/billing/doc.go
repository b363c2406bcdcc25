// Package billing prices subscription plans and issues invoices.
//
// The Generator is idempotent on (subscription, period start): asking twice for
// the same period returns Skipped instead of a second invoice. Stores must back
// this with a uniqueness constraint and report conflicts as ErrInvoiceExists,
// which the Generator also treats as Skipped, so overlapping runs are safe.
//
// Plan prices come from a PlanSource: the built-in table (DefaultPlans), an
// in-memory list, or a YAML file:
//
//	plans:
//	  - slug: essencial
//	    name: Essencial
//	    monthly_price: "49.90"
//	    currency: BRL
//
// Invoice status updates arrive from the payment gateway. PaddleCallback verifies
// and decodes those callbacks and Service.ApplyPayment moves the invoice status.
package billing
