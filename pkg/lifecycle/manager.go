package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/condokit/pkg/billing"
	"github.com/dmitrymomot/condokit/pkg/logger"
	"github.com/dmitrymomot/condokit/pkg/statemachine"
)

const (
	StateTrialing statemachine.State = "trialing"
	StateActive   statemachine.State = "active"

	EventBillingCycle statemachine.Event = "billing_cycle"
)

// Defaults for Config.
const (
	DefaultDueDays         = 15
	DefaultPeriodMonths    = 1
	DefaultInvoiceTemplate = "invoice_generated"
)

// DefaultInvoiceMessage is the content seeded for DefaultInvoiceTemplate.
const DefaultInvoiceMessage = "Olá, {name}! A fatura do plano {plan} no valor de {amount} foi gerada " +
	"e vence em {due_date}. Período: {period_start} a {period_end}."

// Config holds the billing calendar.
type Config struct {
	DueDays         int    `env:"BILLING_DUE_DAYS" envDefault:"15"`
	PeriodMonths    int    `env:"BILLING_PERIOD_MONTHS" envDefault:"1"`
	InvoiceTemplate string `env:"BILLING_INVOICE_TEMPLATE" envDefault:"invoice_generated"`
}

func (c Config) withDefaults() Config {
	if c.DueDays <= 0 {
		c.DueDays = DefaultDueDays
	}
	if c.PeriodMonths <= 0 {
		c.PeriodMonths = DefaultPeriodMonths
	}
	if c.InvoiceTemplate == "" {
		c.InvoiceTemplate = DefaultInvoiceTemplate
	}
	return c
}

// cycle is the per-subscription state the transition table works on.
type cycle struct {
	sub    *Subscription
	now    time.Time
	opts   RunOptions
	result *RunResult
}

// Manager runs billing cycles.
type Manager struct {
	store       Store
	plans       PlanPricer
	invoices    InvoiceGenerator
	notifier    Notifier
	contacts    ContactResolver
	mailer      Mailer
	recorder    Recorder
	cfg         Config
	logger      *slog.Logger
	transitions *statemachine.Table[*cycle]
}

// Option configures a Manager.
type Option func(*Manager)

func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.cfg = cfg.withDefaults() }
}

// WithMailer additionally e-mails new invoices to owners with an e-mail address.
func WithMailer(mailer Mailer) Option {
	return func(m *Manager) { m.mailer = mailer }
}

func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func NewManager(store Store, plans PlanPricer, invoices InvoiceGenerator, notifier Notifier, contacts ContactResolver, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		plans:    plans,
		invoices: invoices,
		notifier: notifier,
		contacts: contacts,
		cfg:      Config{}.withDefaults(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.transitions = statemachine.MustNew(
		statemachine.WithTransition[*cycle](StateTrialing, StateActive, EventBillingCycle,
			statemachine.WithGuards[*cycle](trialEnded),
			statemachine.WithActions[*cycle](m.advance),
		),
		statemachine.WithTransition[*cycle](StateActive, StateActive, EventBillingCycle,
			statemachine.WithGuards[*cycle](periodEnded),
			statemachine.WithActions[*cycle](m.advance),
		),
	)
	return m
}

// trialEnded passes once the trial end is at or before now. A trial without
// an end date is treated as ended.
func trialEnded(_ context.Context, _ statemachine.State, _ statemachine.Event, c *cycle) bool {
	return c.sub.TrialEndsAt == nil || !c.sub.TrialEndsAt.After(c.now)
}

func periodEnded(_ context.Context, _ statemachine.State, _ statemachine.Event, c *cycle) bool {
	return c.sub.CurrentPeriodEnd == nil || !c.sub.CurrentPeriodEnd.After(c.now)
}

func stateOf(sub Subscription) statemachine.State {
	if sub.IsTrial {
		return StateTrialing
	}
	return StateActive
}

// RunBillingCycle processes every active subscription once. The returned
// error is reserved for failures that stop the whole run, such as the
// subscription list being unavailable; per-subscription failures go to
// RunResult.Errors. A run ignores cancellation of ctx and always walks the
// full list.
func (m *Manager) RunBillingCycle(ctx context.Context, now time.Time, opts RunOptions) (RunResult, error) {
	ctx = context.WithoutCancel(ctx)
	result := RunResult{DryRun: opts.DryRun, Errors: []ItemError{}}

	subs, err := m.store.ListActive(ctx)
	if err != nil {
		return result, errors.Join(ErrFailedToListSubscriptions, err)
	}

	for i := range subs {
		sub := subs[i]
		if !sub.Active {
			continue
		}
		result.Processed++

		c := &cycle{sub: &sub, now: now, opts: opts, result: &result}
		_, err := m.transitions.Fire(ctx, stateOf(sub), EventBillingCycle, c)
		switch {
		case err == nil:
		case statemachine.IsTransitionRejectedError(err), statemachine.IsNoTransitionAvailableError(err):
			// not due yet
		default:
			var item *ItemError
			if !errors.As(err, &item) {
				item = newItemError(sub.ID, StageInvoice, err)
			}
			result.Errors = append(result.Errors, *item)
			m.logger.LogAttrs(ctx, slog.LevelError, "subscription billing failed",
				logger.SubscriptionID(sub.ID),
				logger.TenantID(sub.TenantID),
				slog.String("stage", string(item.Stage)),
				logger.Error(item.Err),
			)
		}
	}

	m.logger.LogAttrs(ctx, slog.LevelInfo, "billing cycle finished",
		slog.Bool("dry_run", opts.DryRun),
		slog.Int("processed", result.Processed),
		slog.Int("invoices_created", result.InvoicesCreated),
		slog.Int("invoices_skipped", result.InvoicesSkipped),
		slog.Int("trials_ended", result.TrialsEnded),
		slog.Int("renewals", result.Renewals),
		slog.Int("notifications_sent", result.NotificationsSent),
		slog.Int("notifications_failed", result.NotificationsFailed),
		slog.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// period computes the bounds of the period opened at now.
func (m *Manager) period(now time.Time) (start, end, due time.Time) {
	start = billing.CalendarDay(now)
	end = start.AddDate(0, m.cfg.PeriodMonths, 0)
	due = start.AddDate(0, 0, m.cfg.DueDays)
	return start, end, due
}

// advance is the action of both transitions.
func (m *Manager) advance(ctx context.Context, from, _ statemachine.State, _ statemachine.Event, c *cycle) error {
	sub := c.sub
	start, end, due := m.period(c.now)

	plan, _, err := m.plans.Plan(ctx, sub.PlanSlug)
	if err != nil {
		return newItemError(sub.ID, StageInvoice, errors.Join(ErrFailedToPrice, err))
	}

	if c.opts.DryRun {
		if plan.MonthlyPrice.IsPositive() {
			c.result.InvoicesCreated++
		}
		m.countTransition(from, c.result)
		return nil
	}

	if plan.MonthlyPrice.IsPositive() {
		res, err := m.invoices.EnsureInvoice(ctx, billing.InvoiceRequest{
			SubscriptionID: sub.ID,
			TenantID:       sub.TenantID,
			PeriodStart:    start,
			PeriodEnd:      end,
			DueDate:        due,
			Amount:         plan.MonthlyPrice,
			Description:    billing.Describe(plan.DisplayName(), start, end),
		})
		if err != nil {
			m.record(OutcomeFailed)
			return newItemError(sub.ID, StageInvoice, err)
		}
		if res.Skipped {
			m.record(OutcomeSkipped)
			c.result.InvoicesSkipped++
		} else {
			m.record(OutcomeCreated)
			c.result.InvoicesCreated++
			m.notify(ctx, *sub, plan, *res.Invoice, c.result)
		}
	} else {
		m.record(OutcomeFree)
	}

	next := *sub
	next.IsTrial = false
	next.CurrentPeriodStart = &start
	next.CurrentPeriodEnd = &end
	next.UsageCounters = map[string]int64{}
	next.UpdatedAt = c.now.UTC()
	if err := m.store.SavePeriod(ctx, next); err != nil {
		return newItemError(sub.ID, StagePersist, errors.Join(ErrFailedToPersist, err))
	}
	*sub = next

	m.countTransition(from, c.result)
	return nil
}

func (m *Manager) countTransition(from statemachine.State, r *RunResult) {
	if from == StateTrialing {
		r.TrialsEnded++
	} else {
		r.Renewals++
	}
}

// notify tells the owner about a new invoice. Failures are counted only.
func (m *Manager) notify(ctx context.Context, sub Subscription, plan billing.Plan, inv billing.Invoice, r *RunResult) {
	contact, err := m.contacts.OwnerContact(ctx, sub.TenantID)
	if err != nil {
		r.NotificationsFailed++
		m.logger.LogAttrs(ctx, slog.LevelWarn, "owner contact lookup failed",
			logger.SubscriptionID(sub.ID),
			logger.TenantID(sub.TenantID),
			logger.Error(err),
		)
		return
	}

	vars := map[string]string{
		"name":         contact.Name,
		"plan":         plan.DisplayName(),
		"amount":       inv.Amount.FormatBR(),
		"due_date":     billing.FormatDate(inv.DueDate),
		"period_start": billing.FormatDate(inv.PeriodStart),
		"period_end":   billing.FormatDate(inv.PeriodEnd),
		"invoice_id":   inv.ID.String(),
		"description":  inv.Description,
	}

	res := m.notifier.Notify(ctx, m.cfg.InvoiceTemplate, vars, contact.Phone)
	if res.Success {
		r.NotificationsSent++
	} else {
		r.NotificationsFailed++
		m.logger.LogAttrs(ctx, slog.LevelWarn, "invoice notification failed",
			logger.SubscriptionID(sub.ID),
			logger.InvoiceID(inv.ID),
			slog.String("reason", res.Error),
		)
	}

	if m.mailer != nil && contact.Email != "" {
		m.sendEmail(ctx, contact, plan, inv, r)
	}
}

func (m *Manager) record(outcome string) {
	if m.recorder != nil {
		m.recorder.RecordInvoice(outcome)
	}
}
