// Command billing-engine runs the condominium billing cycle on a schedule and
// serves the job, webhook and monitoring endpoints.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/dmitrymomot/condokit/internal/repository"
	"github.com/dmitrymomot/condokit/pkg/billing"
	"github.com/dmitrymomot/condokit/pkg/config"
	"github.com/dmitrymomot/condokit/pkg/delivery"
	"github.com/dmitrymomot/condokit/pkg/dispatch"
	"github.com/dmitrymomot/condokit/pkg/email"
	"github.com/dmitrymomot/condokit/pkg/execlog"
	"github.com/dmitrymomot/condokit/pkg/httpserver"
	"github.com/dmitrymomot/condokit/pkg/lifecycle"
	"github.com/dmitrymomot/condokit/pkg/logger"
	"github.com/dmitrymomot/condokit/pkg/messaging"
	"github.com/dmitrymomot/condokit/pkg/metrics"
	"github.com/dmitrymomot/condokit/pkg/pg"
	"github.com/dmitrymomot/condokit/pkg/redis"
	"github.com/dmitrymomot/condokit/pkg/requestid"
	"github.com/dmitrymomot/condokit/svc/engine"
)

type appConfig struct {
	Env              string `env:"APP_ENV" envDefault:"development"`
	ServiceName      string `env:"APP_SERVICE_NAME" envDefault:"billing-engine"`
	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"condokit"`

	Currency    string `env:"BILLING_CURRENCY" envDefault:"BRL"`
	PlansFile   string `env:"BILLING_PLANS_FILE"`
	BillingCron string `env:"BILLING_CRON" envDefault:"0 6 * * *"`
	CleanupCron string `env:"EXECLOG_CLEANUP_CRON" envDefault:"30 3 * * *"`

	DispatchTimeout  time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"15s"`
	CountryCode      string        `env:"DISPATCH_COUNTRY_CODE" envDefault:"55"`
	BreakerThreshold int           `env:"DISPATCH_BREAKER_THRESHOLD" envDefault:"5"`
	BreakerRecovery  time.Duration `env:"DISPATCH_BREAKER_RECOVERY" envDefault:"30s"`

	// Used when no provider row is active.
	MessagingProvider   string `env:"MESSAGING_PROVIDER"`
	MessagingAPIURL     string `env:"MESSAGING_API_URL"`
	MessagingAPIKey     string `env:"MESSAGING_API_KEY"`
	MessagingInstanceID string `env:"MESSAGING_INSTANCE_ID"`

	PaddleWebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("billing engine stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return err
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, repository.Migrations, pgCfg, log); err != nil {
		return err
	}

	var redisCfg redis.Config
	if err := config.Load(&redisCfg); err != nil {
		return err
	}
	rdb, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	m := metrics.New(cfg.MetricsNamespace)

	var (
		subscriptions = repository.NewSubscriptions(pool)
		tenants       = repository.NewTenants(pool)
		invoices      = repository.NewInvoices(pool)
		templates     = repository.NewTemplates(pool)
		attempts      = repository.NewAttempts(pool)
		providers     = repository.NewProviders(pool)
		deliveries    = repository.NewDeliveries(pool)
		executionLogs = repository.NewExecutionLogs(pool)
	)

	var lcCfg lifecycle.Config
	if err := config.Load(&lcCfg); err != nil {
		return err
	}
	if lcCfg.InvoiceTemplate == lifecycle.DefaultInvoiceTemplate {
		seeded, err := templates.Seed(ctx, dispatch.Template{
			Slug:    lifecycle.DefaultInvoiceTemplate,
			Content: lifecycle.DefaultInvoiceMessage,
			Active:  true,
		})
		if err != nil {
			return err
		}
		if seeded {
			log.InfoContext(ctx, "default invoice template seeded", logger.TemplateSlug(lifecycle.DefaultInvoiceTemplate))
		}
	}

	plans, err := planSource(cfg)
	if err != nil {
		return err
	}

	envProvider, err := envProviderConfig(cfg)
	if err != nil {
		return err
	}

	registry := messaging.NewDefaultRegistry(
		messaging.WithTimeout(cfg.DispatchTimeout),
		messaging.WithCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerRecovery),
		messaging.WithLogger(log),
	)
	dispatcher := dispatch.New(templates, attempts, registry,
		dispatch.WithConfigSource(dispatch.FallbackConfigSource{providers, envProvider}),
		dispatch.WithDeliveryStore(deliveries),
		dispatch.WithCountryCode(cfg.CountryCode),
		dispatch.WithRecorder(m),
		dispatch.WithLogger(log),
	)

	managerOpts := []lifecycle.Option{
		lifecycle.WithConfig(lcCfg),
		lifecycle.WithRecorder(m),
		lifecycle.WithLogger(log),
	}
	if mailer := invoiceMailer(ctx, log); mailer != nil {
		managerOpts = append(managerOpts, lifecycle.WithMailer(mailer))
	}
	manager := lifecycle.NewManager(
		subscriptions,
		billing.NewPriceTable(plans),
		billing.NewGenerator(invoices, billing.WithGeneratorLogger(log)),
		dispatcher,
		tenants,
		managerOpts...,
	)

	pauses := execlog.NewRedisPauseStore(rdb)
	execLog := execlog.NewLog(executionLogs, execlog.WithLogger(log))
	runner := execlog.NewRunner(execLog, pauses,
		execlog.WithRecorder(m),
		execlog.WithRunnerLogger(log),
	)

	var engineCfg engine.Config
	if err := config.Load(&engineCfg); err != nil {
		return err
	}
	engineOpts := []engine.Option{
		engine.WithDeliveries(delivery.NewReconciler(deliveries, delivery.WithLogger(log)), deliveries),
		engine.WithMetrics(m),
		engine.WithReadinessChecks(
			httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
			httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)},
		),
		engine.WithLogger(log),
	}
	if cfg.PaddleWebhookSecret != "" {
		callback, err := billing.NewPaddleCallback(cfg.PaddleWebhookSecret)
		if err != nil {
			return err
		}
		engineOpts = append(engineOpts, engine.WithPayments(callback, billing.NewService(invoices, billing.WithServiceLogger(log))))
	}
	eng := engine.New(engineCfg, runner, pauses, manager, execLog, engineOpts...)

	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(log),
	)
	if err != nil {
		return err
	}
	if _, err := eng.Schedule(ctx, scheduler, engine.JobBillingCycle, cfg.BillingCron); err != nil {
		return err
	}
	if _, err := eng.Schedule(ctx, scheduler, engine.JobLogCleanup, cfg.CleanupCron); err != nil {
		return err
	}
	scheduler.Start()

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	srv := httpserver.New(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithShutdownHook(func(context.Context) {
			if err := scheduler.Shutdown(); err != nil {
				log.Error("scheduler shutdown failed", logger.Error(err))
			}
		}),
	)
	return srv.Run(ctx, eng.Router())
}

func planSource(cfg appConfig) (billing.PlanSource, error) {
	if cfg.PlansFile == "" {
		return billing.NewInMemPlanSource(billing.DefaultPlans()...), nil
	}
	return billing.LoadYAMLPlanFile(cfg.PlansFile, cfg.Currency)
}

func envProviderConfig(cfg appConfig) (dispatch.StaticConfigSource, error) {
	if cfg.MessagingProvider == "" {
		return dispatch.StaticConfigSource{}, nil
	}
	name, err := messaging.ParseName(cfg.MessagingProvider)
	if err != nil {
		return dispatch.StaticConfigSource{}, err
	}
	return dispatch.StaticConfigSource{
		Provider:   name,
		APIURL:     cfg.MessagingAPIURL,
		APIKey:     cfg.MessagingAPIKey,
		InstanceID: cfg.MessagingInstanceID,
	}, nil
}

// invoiceMailer returns nil when e-mail is not configured.
func invoiceMailer(ctx context.Context, log *slog.Logger) *email.InvoiceMailer {
	var cfg email.Config
	if err := config.Load(&cfg); err != nil {
		log.WarnContext(ctx, "invoice e-mails disabled", logger.Error(err))
		return nil
	}
	sender, err := email.NewSender(cfg)
	if err != nil {
		log.WarnContext(ctx, "invoice e-mails disabled", logger.Error(err))
		return nil
	}
	if !cfg.Enabled() {
		log.InfoContext(ctx, "postmark credentials missing, invoice e-mails written to disk", slog.String("dir", cfg.DevOutputDir))
	}
	return email.NewInvoiceMailer(sender,
		email.WithSupportEmail(cfg.SupportEmail),
		email.WithPaymentURLFormat(cfg.PaymentURLFormat),
		email.WithMailerLogger(log),
	)
}
