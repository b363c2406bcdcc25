// Package httpserver runs the engine's HTTP surface with graceful shutdown
// and provides liveness and readiness handlers.
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	r.Get("/healthz", httpserver.LivenessHandler())
//	r.Get("/readyz", httpserver.ReadinessHandler(log, 2*time.Second,
//		httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
//		httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)},
//	))
//	return srv.Run(ctx, r)
//
// Run returns when ctx is cancelled and in-flight requests have drained, or
// Config.ShutdownTimeout has passed.
package httpserver
