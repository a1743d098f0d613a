package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/dispatch-recon/internal/observability"
)

// NewMetricsServer serves /metrics and /healthz for processes without the
// main router, such as the worker.
func NewMetricsServer(cfg *Config, metrics *observability.Metrics) *http.Server {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return &http.Server{
		Addr:         cfg.WorkerMetricsAddr,
		Handler:      r,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}
}
