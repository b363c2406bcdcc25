package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/condokit/pkg/metrics"
)

func TestCollector_Records(t *testing.T) {
	t.Parallel()

	c := metrics.New("")
	c.RecordRun("billing-cycle", "success", 2*time.Second)
	c.RecordRun("billing-cycle", "partial", time.Second)
	c.RecordInvoice("created")
	c.RecordInvoice("created")
	c.RecordInvoice("skipped")
	c.RecordDispatch("zapi", "invoice_generated", true, 200*time.Millisecond)
	c.RecordDispatch("", "invoice_generated", false, time.Millisecond)
	c.RecordDeliveryEvent("zapi", "read", "applied")

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, n := range []string{
		"condokit_job_runs_total",
		"condokit_job_duration_seconds",
		"condokit_invoices_total",
		"condokit_dispatches_total",
		"condokit_dispatch_duration_seconds",
		"condokit_delivery_events_total",
	} {
		assert.True(t, names[n], n)
	}

	n, err := testutil.GatherAndCount(c.Registry(), "condokit_invoices_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "two outcome series")
}

func TestCollector_Handler(t *testing.T) {
	t.Parallel()

	c := metrics.New("test")
	c.RecordInvoice("free")

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `test_invoices_total{outcome="free"} 1`)
}

func TestCollector_Middleware(t *testing.T) {
	t.Parallel()

	c := metrics.New("mw")
	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Post("/jobs/{job}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	for range 3 {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/billing-cycle", nil))
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `mw_http_requests_total{method="POST",route="/jobs/{job}",status_code="202"} 3`)
}
