package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/condokit/pkg/billing"
	"github.com/dmitrymomot/condokit/pkg/dispatch"
	"github.com/dmitrymomot/condokit/pkg/email"
)

// Subscription is a tenant's plan subscription. A trialing subscription is
// due at TrialEndsAt, any other at CurrentPeriodEnd.
type Subscription struct {
	ID                 uuid.UUID        `json:"id"`
	TenantID           uuid.UUID        `json:"tenant_id"`
	PlanSlug           string           `json:"plan"`
	Active             bool             `json:"active"`
	IsTrial            bool             `json:"is_trial"`
	TrialEndsAt        *time.Time       `json:"trial_ends_at,omitempty"`
	CurrentPeriodStart *time.Time       `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time       `json:"current_period_end,omitempty"`
	UsageCounters      map[string]int64 `json:"usage_counters,omitempty"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// Contact is who gets notified about a tenant's billing.
type Contact struct {
	Name  string
	Phone string
	Email string
}

type (
	// Store lists and updates subscriptions.
	Store interface {
		ListActive(ctx context.Context) ([]Subscription, error)
		SavePeriod(ctx context.Context, sub Subscription) error
	}

	// ContactResolver finds the owner contact of a tenant.
	ContactResolver interface {
		OwnerContact(ctx context.Context, tenantID uuid.UUID) (Contact, error)
	}

	// PlanPricer resolves plans by slug; unknown slugs are zero-priced.
	PlanPricer interface {
		Plan(ctx context.Context, slug string) (billing.Plan, bool, error)
	}

	// InvoiceGenerator creates at most one invoice per period.
	InvoiceGenerator interface {
		EnsureInvoice(ctx context.Context, req billing.InvoiceRequest) (billing.EnsureResult, error)
	}

	// Notifier sends a templated message to a phone.
	Notifier interface {
		Notify(ctx context.Context, templateSlug string, vars map[string]string, recipientPhone string) dispatch.Result
	}

	// Mailer e-mails a new invoice to the owner.
	Mailer interface {
		SendInvoice(ctx context.Context, msg email.InvoiceMessage) error
	}

	// Recorder observes invoice outcomes.
	Recorder interface {
		RecordInvoice(outcome string)
	}
)

// Invoice outcomes reported to the Recorder.
const (
	OutcomeCreated = "created"
	OutcomeSkipped = "skipped"
	OutcomeFree    = "free"
	OutcomeFailed  = "failed"
)

// RunOptions tune one billing cycle.
type RunOptions struct {
	// DryRun classifies subscriptions and counts what would happen without
	// writing or sending anything.
	DryRun bool `json:"dry_run"`
}

// Stage names where a per-subscription failure happened.
type Stage string

const (
	StageInvoice Stage = "invoice"
	StagePersist Stage = "persist"
)

// ItemError is a failure isolated to one subscription.
type ItemError struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	Stage          Stage     `json:"stage"`
	Err            error     `json:"-"`
	Message        string    `json:"error"`
}

func newItemError(id uuid.UUID, stage Stage, err error) *ItemError {
	return &ItemError{SubscriptionID: id, Stage: stage, Err: err, Message: err.Error()}
}

func (e *ItemError) Error() string {
	return "subscription " + e.SubscriptionID.String() + ": " + string(e.Stage) + ": " + e.Message
}

func (e *ItemError) Unwrap() error { return e.Err }

// RunResult summarizes a billing cycle.
type RunResult struct {
	DryRun              bool        `json:"dry_run,omitempty"`
	Processed           int         `json:"processed"`
	InvoicesCreated     int         `json:"invoices_created"`
	InvoicesSkipped     int         `json:"invoices_skipped"`
	TrialsEnded         int         `json:"trials_ended"`
	Renewals            int         `json:"renewals"`
	NotificationsSent   int         `json:"notifications_sent"`
	NotificationsFailed int         `json:"notifications_failed"`
	EmailsSent          int         `json:"emails_sent,omitempty"`
	EmailsFailed        int         `json:"emails_failed,omitempty"`
	Errors              []ItemError `json:"errors"`
}

// HasErrors reports per-subscription failures.
func (r RunResult) HasErrors() bool { return len(r.Errors) > 0 }
