package engine_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/condokit/pkg/billing"
	"github.com/dmitrymomot/condokit/pkg/delivery"
	"github.com/dmitrymomot/condokit/pkg/execlog"
	"github.com/dmitrymomot/condokit/pkg/httpserver"
	"github.com/dmitrymomot/condokit/pkg/lifecycle"
	"github.com/dmitrymomot/condokit/pkg/metrics"
	"github.com/dmitrymomot/condokit/pkg/money"
	"github.com/dmitrymomot/condokit/svc/engine"
)

type fakeCycle struct {
	mu     sync.Mutex
	calls  []lifecycle.RunOptions
	result lifecycle.RunResult
	err    error
}

func (f *fakeCycle) RunBillingCycle(_ context.Context, _ time.Time, opts lifecycle.RunOptions) (lifecycle.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, opts)
	res := f.result
	res.DryRun = opts.DryRun
	return res, f.err
}

func (f *fakeCycle) Calls() []lifecycle.RunOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]lifecycle.RunOptions(nil), f.calls...)
}

type stubVerifier struct{ valid bool }

func (v stubVerifier) Verify(*http.Request) (bool, error) { return v.valid, nil }

type fixture struct {
	engine  *engine.Engine
	handler http.Handler
	cycle   *fakeCycle
	logs    *execlog.MemoryStore
}

func newFixture(t *testing.T, cfg engine.Config, opts ...engine.Option) *fixture {
	t.Helper()
	logs := execlog.NewMemoryStore()
	log := execlog.NewLog(logs)
	pauses := execlog.NewMemoryPauseStore()
	runner := execlog.NewRunner(log, pauses)
	cycle := &fakeCycle{result: lifecycle.RunResult{Processed: 2, InvoicesCreated: 1}}

	e := engine.New(cfg, runner, pauses, cycle, log, opts...)
	return &fixture{engine: e, handler: e.Router(), cycle: cycle, logs: logs}
}

func (f *fixture) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRunJob_BillingCycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t, engine.Config{})
	rec := f.do(t, http.MethodPost, "/jobs/billing-cycle", `{"dry_run":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	results := body["results"].(map[string]any)
	assert.InDelta(t, 2, results["processed"], 0)
	assert.Equal(t, true, results["dry_run"])

	require.Len(t, f.cycle.Calls(), 1)
	assert.True(t, f.cycle.Calls()[0].DryRun)

	entries := f.logs.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, engine.JobBillingCycle, entries[0].FunctionName)
	assert.Equal(t, execlog.TriggerManual, entries[0].TriggerType)
	assert.Equal(t, execlog.StatusSuccess, entries[0].Status)
}

func TestRunJob_EmptyBody(t *testing.T) {
	t.Parallel()

	f := newFixture(t, engine.Config{})
	rec := f.do(t, http.MethodPost, "/jobs/billing-cycle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.cycle.Calls()[0].DryRun)
}

func TestRunJob_PauseResume(t *testing.T) {
	t.Parallel()

	f := newFixture(t, engine.Config{})

	rec := f.do(t, http.MethodPost, "/jobs/billing-cycle/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["paused"])

	rec = f.do(t, http.MethodPost, "/jobs/billing-cycle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"results":{"skipped":true}}`, rec.Body.String())
	assert.Empty(t, f.cycle.Calls())

	entries := f.logs.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, execlog.StatusSkipped, entries[0].Status)

	rec = f.do(t, http.MethodPost, "/jobs/billing-cycle/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/jobs/billing-cycle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, f.cycle.Calls(), 1)
}

func TestRunJob_Failure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, engine.Config{})
	f.cycle.err = errors.New("database is down")

	rec := f.do(t, http.MethodPost, "/jobs/billing-cycle", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "database is down")

	entries := f.logs.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, execlog.StatusError, entries[0].Status)
	assert.Contains(t, entries[0].ErrorMessage, "database is down")
}

func TestRunJob_PartialIsSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t, engine.Config{})
	f.cycle.result.Errors = []lifecycle.ItemError{{SubscriptionID: uuid.New(), Stage: lifecycle.StageInvoice, Message: "boom"}}

	rec := f.do(t, http.MethodPost, "/jobs/billing-cycle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])
	assert.Equal(t, execlog.StatusPartial, f.logs.Entries()[0].Status)
}

func TestRunJob_BadRequests(t *testing.T) {
	t.Parallel()

	f := newFixture(t, engine.Config{})

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/jobs/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/jobs/nope/pause", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/jobs/billing-cycle", "{").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/jobs/execution-log-cleanup", `{"retention_days":-1}`).Code)
	assert.Empty(t, f.logs.Entries())
}

func TestRunJob_LogCleanup(t *testing.T) {
	t.Parallel()

	f := newFixture(t, engine.Config{RetentionDays: 90})
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, f.logs.Insert(ctx, execlog.Entry{ID: uuid.New(), FunctionName: engine.JobBillingCycle, Status: execlog.StatusSuccess, StartedAt: now.AddDate(0, 0, -45)}))
	require.NoError(t, f.logs.Insert(ctx, execlog.Entry{ID: uuid.New(), FunctionName: engine.JobBillingCycle, Status: execlog.StatusSuccess, StartedAt: now.AddDate(0, 0, -5)}))

	rec := f.do(t, http.MethodPost, "/jobs/execution-log-cleanup", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"results":{"deleted":0,"retention_days":90}}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/jobs/execution-log-cleanup", `{"retention_days":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"results":{"deleted":1,"retention_days":30}}`, rec.Body.String())
}

func TestRunJob_Direct(t *testing.T) {
	t.Parallel()

	f := newFixture(t, engine.Config{})
	report, err := f.engine.RunJob(context.Background(), engine.JobBillingCycle, execlog.TriggerCron, engine.JobParams{})
	require.NoError(t, err)
	assert.Equal(t, execlog.StatusSuccess, report.Status)
	assert.Equal(t, execlog.TriggerCron, f.logs.Entries()[0].TriggerType)

	_, err = f.engine.RunJob(context.Background(), "unknown", execlog.TriggerCron, engine.JobParams{})
	assert.ErrorIs(t, err, engine.ErrUnknownJob)
}

func zapiStatus(status, id string) string {
	return fmt.Sprintf(`{"type":"MessageStatusCallback","status":%q,"ids":[%q],"momment":1741600000000}`, status, id)
}

func newDeliveryFixture(t *testing.T, cfg engine.Config, opts ...engine.Option) (*fixture, *delivery.MemoryStore) {
	t.Helper()
	store := delivery.NewMemoryStore()
	require.NoError(t, store.Create(context.Background(), delivery.Timestamps{
		ProviderMessageID: "m1",
		Provider:          "zapi",
		SentAt:            time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		ProviderStatus:    "sent",
	}))
	opts = append(opts, engine.WithDeliveries(delivery.NewReconciler(store), store))
	return newFixture(t, cfg, opts...), store
}

func TestDeliveryWebhook(t *testing.T) {
	t.Parallel()

	m := metrics.New("enginetest")
	f, store := newDeliveryFixture(t, engine.Config{}, engine.WithMetrics(m))

	rec := f.do(t, http.MethodPost, "/webhooks/messaging/zapi", zapiStatus("RECEIVED", "m1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"provider_message_id":"m1","status":"delivered"}`, rec.Body.String())

	ts, err := store.GetByMessageID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, delivery.StatusDelivered, ts.Status())

	rec = f.do(t, http.MethodPost, "/webhooks/messaging/zapi", zapiStatus("READ", "unknown"))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = f.do(t, http.MethodPost, "/webhooks/messaging/zapi", `{"type":"ReceivedCallback","phone":"5511"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/webhooks/messaging/zapi", `not json`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/webhooks/messaging/telegram", zapiStatus("READ", "m1")).Code)

	scrape := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, scrape.Code)
	out := scrape.Body.String()
	assert.Contains(t, out, `enginetest_delivery_events_total{kind="delivered",outcome="applied",provider="zapi"} 1`)
	assert.Contains(t, out, `enginetest_delivery_events_total{kind="read",outcome="unknown_message",provider="zapi"} 1`)
	assert.Contains(t, out, `enginetest_delivery_events_total{kind="none",outcome="ignored",provider="zapi"} 1`)
}

func TestDeliveryWebhook_Signature(t *testing.T) {
	t.Parallel()

	const secret = "whsec"
	f, _ := newDeliveryFixture(t, engine.Config{MessagingWebhookSecret: secret})
	payload := zapiStatus("RECEIVED", "m1")

	rec := f.do(t, http.MethodPost, "/webhooks/messaging/zapi", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "unsigned")

	send := func(at time.Time, key string) int {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/messaging/zapi", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		engine.SignRequest(req, key, []byte(payload), at)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, send(time.Now(), "other"), "wrong secret")
	assert.Equal(t, http.StatusUnauthorized, send(time.Now().Add(-time.Hour), secret), "stale")
	assert.Equal(t, http.StatusOK, send(time.Now(), secret))
}

func TestDeliverySummary(t *testing.T) {
	t.Parallel()

	f, store := newDeliveryFixture(t, engine.Config{})
	read := time.Date(2025, 3, 10, 9, 5, 0, 0, time.UTC)
	require.NoError(t, store.Create(context.Background(), delivery.Timestamps{
		ProviderMessageID: "m2", Provider: "zapi", SentAt: read.Add(-time.Minute), DeliveredAt: &read, ReadAt: &read,
	}))
	require.NoError(t, store.Create(context.Background(), delivery.Timestamps{
		ProviderMessageID: "old", Provider: "zapi", SentAt: read.AddDate(0, -1, 0),
	}))

	rec := f.do(t, http.MethodGet, "/deliveries/summary?since=2025-03-10T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Counts delivery.Counts `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, delivery.Counts{Total: 2, Sent: 2, Delivered: 1, Read: 1}, body.Counts)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/deliveries/summary?since=yesterday", "").Code)
}

func TestRoutesDisabledWithoutDependencies(t *testing.T) {
	t.Parallel()

	f := newFixture(t, engine.Config{})
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/webhooks/messaging/zapi", zapiStatus("READ", "m1")).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/webhooks/payments", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/deliveries/summary", "").Code)
}

func paddlePayload(eventType string, invoiceID uuid.UUID) string {
	return fmt.Sprintf(`{
		"event_id": "evt_01",
		"event_type": %q,
		"occurred_at": "2025-03-12T10:00:00Z",
		"data": {"id": "txn_01", "custom_data": {"invoice_id": %q}}
	}`, eventType, invoiceID)
}

func TestPaymentWebhook(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := billing.NewMemoryStore()
	inv := billing.Invoice{
		ID:             uuid.New(),
		SubscriptionID: uuid.New(),
		TenantID:       uuid.New(),
		Amount:         money.New(4990, "BRL"),
		Status:         billing.InvoicePending,
		PeriodStart:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Create(ctx, inv))

	newPayments := func(valid bool) *fixture {
		cb, err := billing.NewPaddleCallback("", billing.WithVerifier(stubVerifier{valid: valid}))
		require.NoError(t, err)
		return newFixture(t, engine.Config{}, engine.WithPayments(cb, billing.NewService(store)))
	}

	rejected := newPayments(false).do(t, http.MethodPost, "/webhooks/payments", paddlePayload("transaction.completed", inv.ID), billing.SignatureHeader, "bad")
	assert.Equal(t, http.StatusUnauthorized, rejected.Code)

	f := newPayments(true)
	rec := f.do(t, http.MethodPost, "/webhooks/payments", paddlePayload("transaction.completed", inv.ID), billing.SignatureHeader, "ts=1;h1=x")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, fmt.Sprintf(`{"invoice_id":%q,"status":"paid"}`, inv.ID), rec.Body.String())

	got, err := store.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoicePaid, got.Status)
	require.NotNil(t, got.PaidAt)

	rec = f.do(t, http.MethodPost, "/webhooks/payments", paddlePayload("transaction.payment_failed", inv.ID), billing.SignatureHeader, "x")
	assert.Equal(t, http.StatusConflict, rec.Code, "paid invoices do not fail")

	rec = f.do(t, http.MethodPost, "/webhooks/payments", paddlePayload("transaction.completed", uuid.New()), billing.SignatureHeader, "x")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/webhooks/payments", paddlePayload("transaction.created", inv.ID), billing.SignatureHeader, "x")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t, engine.Config{}, engine.WithReadinessChecks(
		httpserver.Check{Name: "postgres", Fn: func(context.Context) error { return nil }},
		httpserver.Check{Name: "redis", Fn: func(context.Context) error { return errors.New("refused") }},
	))

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)

	rec := f.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","checks":{"postgres":"ok","redis":"unavailable"}}`, rec.Body.String())
}

func TestRequestIDEchoed(t *testing.T) {
	t.Parallel()

	f := newFixture(t, engine.Config{})
	rec := f.do(t, http.MethodGet, "/healthz", "", "X-Request-ID", "req-123")
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestSign(t *testing.T) {
	t.Parallel()

	at := time.Unix(1741600000, 0)
	sig := engine.Sign("secret", []byte(`{"a":1}`), at)
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, engine.Sign("secret", []byte(`{"a":1}`), at))
	assert.NotEqual(t, sig, engine.Sign("secret", []byte(`{"a":2}`), at))

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(nil))
	engine.SignRequest(req, "secret", []byte(`{"a":1}`), at)
	assert.Equal(t, sig, req.Header.Get(engine.SignatureHeader))
	assert.Equal(t, "1741600000", req.Header.Get(engine.TimestampHeader))
}
