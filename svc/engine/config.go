package engine

import "time"

// Defaults for Config.
const (
	DefaultRetentionDays    = 90
	DefaultWebhookMaxAge    = 5 * time.Minute
	DefaultSummaryWindow    = 24 * time.Hour
	DefaultMaxWebhookBody   = 1 << 20
	DefaultReadinessTimeout = 2 * time.Second
)

// Config holds the engine's own settings.
type Config struct {
	// MessagingWebhookSecret signs inbound delivery callbacks. Empty accepts
	// unsigned callbacks.
	MessagingWebhookSecret string        `env:"MESSAGING_WEBHOOK_SECRET"`
	WebhookMaxAge          time.Duration `env:"MESSAGING_WEBHOOK_MAX_AGE" envDefault:"5m"`
	RetentionDays          int           `env:"EXECLOG_RETENTION_DAYS" envDefault:"90"`
}

func (c Config) withDefaults() Config {
	if c.WebhookMaxAge <= 0 {
		c.WebhookMaxAge = DefaultWebhookMaxAge
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = DefaultRetentionDays
	}
	return c
}
