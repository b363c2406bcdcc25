package engine

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/condokit/pkg/httpserver"
	"github.com/dmitrymomot/condokit/pkg/requestid"
)

// Router returns the engine's HTTP handler.
func (e *Engine) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	if e.metrics != nil {
		r.Use(e.metrics.Middleware)
	}

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(e.logger, DefaultReadinessTimeout, e.checks...))
	if e.metrics != nil {
		r.Method(http.MethodGet, "/metrics", e.metrics.Handler())
	}

	r.Route("/jobs/{job}", func(r chi.Router) {
		r.Post("/", e.handleRunJob)
		r.Post("/pause", e.handlePause(true))
		r.Post("/resume", e.handlePause(false))
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/messaging/{provider}", e.handleDeliveryWebhook)
		r.Post("/payments", e.handlePaymentWebhook)
	})

	r.Get("/deliveries/summary", e.handleDeliverySummary)

	return r
}
