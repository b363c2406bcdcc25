package engine

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/condokit/pkg/billing"
	"github.com/dmitrymomot/condokit/pkg/delivery"
	"github.com/dmitrymomot/condokit/pkg/execlog"
	"github.com/dmitrymomot/condokit/pkg/logger"
	"github.com/dmitrymomot/condokit/pkg/messaging"
)

// Delivery webhook outcomes reported to Metrics.
const (
	outcomeApplied  = "applied"
	outcomeUnknown  = "unknown_message"
	outcomeIgnored  = "ignored"
	outcomeInvalid  = "invalid"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

func (e *Engine) handleRunJob(w http.ResponseWriter, r *http.Request) {
	job := chi.URLParam(r, "job")
	if !IsJob(job) {
		writeError(w, http.StatusNotFound, "unknown job")
		return
	}

	var params JobParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, jobResponse{Error: "invalid request body"})
		return
	}

	report, err := e.RunJob(r.Context(), job, execlog.TriggerManual, params)
	if err != nil {
		if errors.Is(err, ErrInvalidJobParams) {
			writeJSON(w, http.StatusBadRequest, jobResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, jobResponse{Error: err.Error()})
		return
	}

	switch {
	case report.Skipped():
		writeJSON(w, http.StatusOK, jobResponse{Success: true, Results: map[string]bool{"skipped": true}})
	case report.Status == execlog.StatusError:
		msg := "job failed"
		if report.Err != nil {
			msg = report.Err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, jobResponse{Error: msg})
	default:
		writeJSON(w, http.StatusOK, jobResponse{Success: true, Results: report.Result})
	}
}

func (e *Engine) handlePause(paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job := chi.URLParam(r, "job")
		if err := e.SetPaused(r.Context(), job, paused); err != nil {
			if errors.Is(err, ErrUnknownJob) {
				writeError(w, http.StatusNotFound, "unknown job")
				return
			}
			e.logger.LogAttrs(r.Context(), slog.LevelError, "failed to change pause flag",
				logger.JobName(job),
				logger.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "failed to change pause flag")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"job": job, "paused": paused})
	}
}

func (e *Engine) handleDeliveryWebhook(w http.ResponseWriter, r *http.Request) {
	provider, err := messaging.ParseName(chi.URLParam(r, "provider"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown provider")
		return
	}
	if e.reconciler == nil {
		writeError(w, http.StatusNotFound, ErrDeliveriesMissing.Error())
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, DefaultMaxWebhookBody))
	if err != nil || len(payload) == 0 {
		e.recordDelivery(provider, "", outcomeInvalid)
		writeError(w, http.StatusBadRequest, "empty payload")
		return
	}

	if e.cfg.MessagingWebhookSecret != "" {
		if err := verifySignature(e.cfg.MessagingWebhookSecret, payload, r.Header, e.cfg.WebhookMaxAge, e.now()); err != nil {
			e.logger.LogAttrs(r.Context(), slog.LevelWarn, "delivery webhook rejected",
				logger.Provider(string(provider)),
				logger.Error(err),
			)
			e.recordDelivery(provider, "", outcomeRejected)
			writeError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	ev, err := delivery.ParseEvent(provider, payload)
	switch {
	case errors.Is(err, delivery.ErrUnsupportedEvent):
		e.recordDelivery(provider, "", outcomeIgnored)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": outcomeIgnored})
		return
	case err != nil:
		e.recordDelivery(provider, "", outcomeInvalid)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ts, err := e.reconciler.Apply(r.Context(), ev)
	switch {
	case errors.Is(err, delivery.ErrNotFound):
		e.recordDelivery(provider, string(ev.Kind), outcomeUnknown)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": outcomeUnknown})
		return
	case err != nil:
		e.logger.LogAttrs(r.Context(), slog.LevelError, "failed to reconcile delivery status",
			logger.Provider(string(provider)),
			logger.MessageID(ev.ProviderMessageID),
			logger.Error(err),
		)
		e.recordDelivery(provider, string(ev.Kind), outcomeError)
		writeError(w, http.StatusInternalServerError, "failed to reconcile delivery status")
		return
	}

	e.recordDelivery(provider, string(ev.Kind), outcomeApplied)
	writeJSON(w, http.StatusOK, map[string]string{
		"provider_message_id": ts.ProviderMessageID,
		"status":              string(ts.Status()),
	})
}

func (e *Engine) recordDelivery(provider messaging.Name, kind, outcome string) {
	if e.metrics == nil {
		return
	}
	if kind == "" {
		kind = "none"
	}
	e.metrics.RecordDeliveryEvent(string(provider), kind, outcome)
}

func (e *Engine) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if e.payments == nil || e.invoices == nil {
		writeError(w, http.StatusNotFound, ErrPaymentsDisabled.Error())
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, DefaultMaxWebhookBody))
	if err != nil || len(payload) == 0 {
		writeError(w, http.StatusBadRequest, "empty payload")
		return
	}

	ev, err := e.payments.Parse(r.Context(), payload, r.Header.Get(billing.SignatureHeader))
	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		e.logger.LogAttrs(r.Context(), slog.LevelWarn, "payment callback rejected", logger.Error(err))
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	case errors.Is(err, billing.ErrUnsupportedCallback):
		writeJSON(w, http.StatusAccepted, map[string]string{"status": outcomeIgnored})
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	inv, err := e.invoices.ApplyPayment(r.Context(), ev)
	switch {
	case errors.Is(err, billing.ErrInvoiceNotFound):
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	case errors.Is(err, billing.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		e.logger.LogAttrs(r.Context(), slog.LevelError, "failed to apply payment",
			logger.InvoiceID(ev.InvoiceID),
			logger.Event(ev.EventType),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to apply payment")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"invoice_id": inv.ID.String(),
		"status":     string(inv.Status),
	})
}

func (e *Engine) handleDeliverySummary(w http.ResponseWriter, r *http.Request) {
	if e.deliveries == nil {
		writeError(w, http.StatusNotFound, ErrDeliveriesMissing.Error())
		return
	}

	since := e.now().UTC().Add(-DefaultSummaryWindow)
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = t.UTC()
	}

	items, err := e.deliveries.ListSince(r.Context(), since)
	if err != nil {
		e.logger.LogAttrs(r.Context(), slog.LevelError, "failed to list deliveries", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list deliveries")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"since":  since,
		"counts": delivery.Tally(items),
	})
}
