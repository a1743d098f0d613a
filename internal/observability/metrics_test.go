package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	jobmetrics "github.com/odyssey-erp/dispatch-recon/internal/jobs"
	"github.com/odyssey-erp/dispatch-recon/internal/platform/remote"
)

var _ remote.Observer = (*Metrics)(nil)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesJobMetrics(t *testing.T) {
	metrics := NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())
	_ = jobs.Track("dispatch:cache_warmup").End(errors.New("boom"))

	body := scrape(t, metrics)
	if !strings.Contains(body, `dispatch_jobs_total{job="dispatch:cache_warmup",status="failure"} 1`) {
		t.Fatalf("expected job run to be recorded, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsBody := scrape(t, metrics)
	if !strings.Contains(metricsBody, "dispatch_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "dispatch_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestRemoteObserver(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObservePage("sales_invoices", http.StatusOK, 1000, 20*time.Millisecond)
	metrics.ObservePage("sales_invoices", http.StatusOK, 12, 5*time.Millisecond)
	metrics.ObservePage("customers", http.StatusServiceUnavailable, 0, time.Millisecond)
	metrics.ObservePage("customers", 0, 0, time.Millisecond)
	metrics.ObservePartial("customers")

	body := scrape(t, metrics)
	for _, want := range []string{
		`dispatch_remote_pages_total{collection="sales_invoices",outcome="ok"} 2`,
		`dispatch_remote_pages_total{collection="customers",outcome="503"} 1`,
		`dispatch_remote_pages_total{collection="customers",outcome="error"} 1`,
		`dispatch_remote_records_total{collection="sales_invoices"} 1012`,
		`dispatch_remote_partial_reads_total{collection="customers"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in: %s", want, body)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObservePage("x", 200, 1, time.Millisecond)
	metrics.ObservePartial("x")

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics, got %d", rr.Code)
	}
}
