package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/dispatch-recon/internal/jobs"
	"github.com/odyssey-erp/dispatch-recon/internal/observability"
)

func TestMetricsServerExposesJobMetrics(t *testing.T) {
	metrics := observability.NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())
	_ = jobs.Track("dispatch:cache_warmup").End(http.ErrHandlerTimeout)
	jobs.AddWarmed("list", 1)
	metrics.ObservePartial("customers")

	srv := NewMetricsServer(&Config{WorkerMetricsAddr: ":9191", AppReadTimeout: time.Second}, metrics)
	require.Equal(t, ":9191", srv.Addr)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, `dispatch_jobs_failures_total{job="dispatch:cache_warmup"} 1`)
	require.Contains(t, body, `dispatch_cache_warmed_total{view="list"} 1`)
	require.Contains(t, body, `dispatch_remote_partial_reads_total{collection="customers"} 1`)

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
