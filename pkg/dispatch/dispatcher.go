package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/condokit/pkg/delivery"
	"github.com/dmitrymomot/condokit/pkg/logger"
	"github.com/dmitrymomot/condokit/pkg/messaging"
)

// Dispatcher renders templates and sends them through provider adapters.
type Dispatcher struct {
	templates   TemplateStore
	attempts    AttemptStore
	deliveries  delivery.Store
	providers   ProviderResolver
	configs     ProviderConfigSource
	recorder    Recorder
	countryCode string
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDeliveryStore opens a delivery record for every successful send.
func WithDeliveryStore(s delivery.Store) Option {
	return func(d *Dispatcher) { d.deliveries = s }
}

// WithConfigSource sets the provider configuration used by Notify.
func WithConfigSource(s ProviderConfigSource) Option {
	return func(d *Dispatcher) { d.configs = s }
}

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithCountryCode sets the prefix for national phone numbers.
func WithCountryCode(cc string) Option {
	return func(d *Dispatcher) {
		if cc != "" {
			d.countryCode = cc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func New(templates TemplateStore, attempts AttemptStore, providers ProviderResolver, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		templates:   templates,
		attempts:    attempts,
		providers:   providers,
		countryCode: messaging.DefaultCountryCode,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify dispatches using the active provider configuration.
func (d *Dispatcher) Notify(ctx context.Context, templateSlug string, vars map[string]string, recipientPhone string) Result {
	if d.configs == nil {
		return d.configFailure(ctx, templateSlug, ErrNoActiveProvider)
	}
	cfg, err := d.configs.Active(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoActiveProvider) {
			err = errors.Join(ErrConfigUnavailable, err)
		}
		return d.configFailure(ctx, templateSlug, err)
	}
	return d.Dispatch(ctx, templateSlug, vars, recipientPhone, cfg)
}

// Dispatch loads the template, renders it with vars, normalizes the phone and
// sends through the adapter named in cfg. Every attempt past template lookup is
// recorded, successful or not.
func (d *Dispatcher) Dispatch(ctx context.Context, templateSlug string, vars map[string]string, recipientPhone string, cfg messaging.Config) (res Result) {
	start := d.now()
	defer func() {
		if r := recover(); r != nil {
			res = Result{Error: fmt.Sprintf("dispatch panicked: %v", r)}
			d.logger.LogAttrs(ctx, slog.LevelError, "dispatch panicked",
				logger.TemplateSlug(templateSlug),
				slog.Any("panic", r),
			)
		}
		if d.recorder != nil {
			d.recorder.RecordDispatch(string(cfg.Provider), templateSlug, res.Success, d.now().Sub(start))
		}
	}()

	tpl, err := d.templates.GetActive(ctx, templateSlug)
	if err != nil {
		if !errors.Is(err, ErrTemplateNotFound) {
			err = fmt.Errorf("%w: %w", ErrTemplateNotFound, err)
		}
		d.logger.LogAttrs(ctx, slog.LevelWarn, "dispatch aborted",
			logger.TemplateSlug(templateSlug),
			logger.Error(err),
		)
		return Result{Error: fmt.Sprintf("%s: %s", ErrTemplateNotFound, templateSlug)}
	}

	attempt := Attempt{
		ID:             uuid.New(),
		RecipientPhone: recipientPhone,
		TemplateSlug:   templateSlug,
		RenderedBody:   messaging.Render(tpl.Content, vars),
		Provider:       string(cfg.Provider),
	}

	res = d.send(ctx, &attempt, cfg)

	attempt.Success = res.Success
	attempt.ProviderMessageID = res.ProviderMessageID
	attempt.Error = res.Error
	attempt.CreatedAt = d.now().UTC()
	d.record(ctx, attempt)

	return res
}

func (d *Dispatcher) send(ctx context.Context, attempt *Attempt, cfg messaging.Config) Result {
	phone := messaging.NormalizePhone(attempt.RecipientPhone, d.countryCode)
	if phone == "" {
		return Result{Error: fmt.Sprintf("%s: %q", ErrInvalidRecipient, attempt.RecipientPhone)}
	}
	attempt.RecipientPhone = phone

	provider, err := d.providers.Get(cfg.Provider)
	if err != nil {
		return Result{Error: err.Error()}
	}

	out := provider.SendMessage(ctx, phone, attempt.RenderedBody, cfg)
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = ErrProviderFailed.Error()
		}
		return Result{Error: msg}
	}
	return Result{Success: true, ProviderMessageID: out.MessageID}
}

// record persists the attempt and, on success, opens the delivery record.
// Failures are logged and never change the dispatch result.
func (d *Dispatcher) record(ctx context.Context, a Attempt) {
	attrs := []slog.Attr{
		logger.TemplateSlug(a.TemplateSlug),
		logger.Provider(a.Provider),
		logger.MessageID(a.ProviderMessageID),
	}

	if err := d.attempts.Append(ctx, a); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "failed to record dispatch attempt",
			append(attrs, logger.Error(errors.Join(ErrFailedToRecord, err)))...)
	}

	if a.Success && d.deliveries != nil && a.ProviderMessageID != "" {
		err := d.deliveries.Create(ctx, delivery.Timestamps{
			ProviderMessageID: a.ProviderMessageID,
			Provider:          a.Provider,
			SentAt:            a.CreatedAt,
			ProviderStatus:    string(delivery.StatusSent),
			UpdatedAt:         a.CreatedAt,
		})
		if err != nil {
			d.logger.LogAttrs(ctx, slog.LevelError, "failed to open delivery record",
				append(attrs, logger.Error(err))...)
		}
	}

	if a.Success {
		d.logger.LogAttrs(ctx, slog.LevelInfo, "notification sent", attrs...)
	} else {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "notification failed",
			append(attrs, slog.String("reason", a.Error))...)
	}
}

func (d *Dispatcher) configFailure(ctx context.Context, templateSlug string, err error) Result {
	d.logger.LogAttrs(ctx, slog.LevelWarn, "dispatch aborted",
		logger.TemplateSlug(templateSlug),
		logger.Error(err),
	)
	if d.recorder != nil {
		d.recorder.RecordDispatch("", templateSlug, false, 0)
	}
	if errors.Is(err, ErrNoActiveProvider) {
		return Result{Error: ErrNoActiveProvider.Error()}
	}
	return Result{Error: ErrConfigUnavailable.Error()}
}
