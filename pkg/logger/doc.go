// Package logger builds the structured slog loggers used across the billing
// engine and provides attribute helpers that keep key names consistent.
//
// New creates a *slog.Logger configured by Option values: output format, level,
// static attributes, and ContextExtractor callbacks that pull request-scoped
// values (request id, environment) out of context.Context on every record.
// WithEnvironment selects a profile per deployment environment.
//
// Attribute helpers such as Error, SubscriptionID, InvoiceID, Provider and
// JobName return slog.Attr values; the id helpers return an empty Attr for nil
// input so callers can log without nil checks:
//
//	log := logger.New(logger.WithEnvironment(cfg.Env, "billing-engine"))
//	log.InfoContext(ctx, "invoice created",
//		logger.SubscriptionID(sub.ID),
//		logger.InvoiceID(inv.ID),
//	)
package logger
