package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// counterValue sums the samples of name whose labels include want.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	samples:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue samples
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	require.NoError(t, metrics.Track("dispatch:cache_warmup").End(nil))
	err := errors.New("boom")
	require.ErrorIs(t, metrics.Track("dispatch:cache_warmup").End(err), err)

	job := map[string]string{"job": "dispatch:cache_warmup"}
	require.Equal(t, 2.0, counterValue(t, reg, "dispatch_jobs_total", job))
	require.Equal(t, 1.0, counterValue(t, reg, "dispatch_jobs_total", map[string]string{"job": "dispatch:cache_warmup", "status": "failure"}))
	require.Equal(t, 1.0, counterValue(t, reg, "dispatch_jobs_failures_total", job))
}

func TestAddWarmed(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	metrics.AddWarmed("list", 1)
	metrics.AddWarmed("list", 0)
	metrics.AddWarmed("summary", 2)

	require.Equal(t, 1.0, counterValue(t, reg, "dispatch_cache_warmed_total", map[string]string{"view": "list"}))
	require.Equal(t, 2.0, counterValue(t, reg, "dispatch_cache_warmed_total", map[string]string{"view": "summary"}))
}

func TestNilMetricsTrackerPassesErrorThrough(t *testing.T) {
	var metrics *Metrics
	err := errors.New("boom")
	require.ErrorIs(t, metrics.Track("x").End(err), err)
	metrics.AddWarmed("list", 3)
}
