package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/condokit/pkg/money"
)

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
	InvoiceFailed    InvoiceStatus = "failed"
)

// Invoice is the billable record for one subscription period.
type Invoice struct {
	ID             uuid.UUID     `json:"id"`
	SubscriptionID uuid.UUID     `json:"subscription_id"`
	TenantID       uuid.UUID     `json:"tenant_id"`
	Amount         money.Money   `json:"amount"`
	Status         InvoiceStatus `json:"status"`
	DueDate        time.Time     `json:"due_date"`
	PeriodStart    time.Time     `json:"period_start"`
	PeriodEnd      time.Time     `json:"period_end"`
	Description    string        `json:"description"`
	ExternalRef    string        `json:"external_ref,omitempty"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// IsOpen reports whether the invoice still awaits payment.
func (i Invoice) IsOpen() bool {
	return i.Status == InvoicePending || i.Status == InvoiceOverdue
}

// Describe builds the invoice description for a plan period.
func Describe(planName string, start, end time.Time) string {
	return fmt.Sprintf("Assinatura %s - %s a %s", planName, FormatDate(start), FormatDate(end))
}

// FormatDate renders t as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// CalendarDay truncates t to midnight UTC of its UTC calendar day.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
