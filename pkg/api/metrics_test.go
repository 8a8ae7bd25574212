package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/shortlinks/pkg/shortener"
	"github.com/ssargent/shortlinks/pkg/store"
)

// gatherValue returns the counter or gauge value of the series of name whose
// labels include every pair in labels
func gatherValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if !labelsMatch(m, labels) {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, labels map[string]string) bool {
	for k, v := range labels {
		found := false
		for _, lp := range m.GetLabel() {
			if lp.GetName() == k && lp.GetValue() == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestMetrics_RecordShorten(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordShorten(shortener.OutcomeCreated, time.Microsecond)
	m.RecordShorten(shortener.OutcomeCreated, time.Microsecond)
	m.RecordShorten(shortener.OutcomeHit, time.Microsecond)

	assert.Equal(t, 2.0, gatherValue(t, reg, "shortlinks_shorten_total", map[string]string{"outcome": "created"}))
	assert.Equal(t, 1.0, gatherValue(t, reg, "shortlinks_shorten_total", map[string]string{"outcome": "hit"}))
	assert.Equal(t, 3.0, gatherValue(t, reg, "shortlinks_shorten_duration_seconds", nil))
}

func TestMetrics_RecordResolve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordResolve(true, time.Microsecond)
	m.RecordResolve(false, time.Microsecond)
	m.RecordResolve(false, time.Microsecond)

	assert.Equal(t, 1.0, gatherValue(t, reg, "shortlinks_resolve_total", map[string]string{"result": "found"}))
	assert.Equal(t, 2.0, gatherValue(t, reg, "shortlinks_resolve_total", map[string]string{"result": "not_found"}))
}

func TestMetrics_UpdateEngineStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.UpdateEngineStats(shortener.Stats{Forward: store.ForwardIndexStats{Empty: true}})
	assert.Equal(t, -1.0, gatherValue(t, reg, "shortlinks_forward_high_watermark", nil))

	m.UpdateEngineStats(shortener.Stats{
		Links:     3,
		Remaining: 10,
		Orphaned:  1,
		Forward:   store.ForwardIndexStats{SegmentsMaterialized: 2, HighWatermark: 3},
	})
	assert.Equal(t, 3.0, gatherValue(t, reg, "shortlinks_links", nil))
	assert.Equal(t, 10.0, gatherValue(t, reg, "shortlinks_ids_remaining", nil))
	assert.Equal(t, 1.0, gatherValue(t, reg, "shortlinks_orphaned_ids", nil))
	assert.Equal(t, 2.0, gatherValue(t, reg, "shortlinks_forward_segments", nil))
	assert.Equal(t, 3.0, gatherValue(t, reg, "shortlinks_forward_high_watermark", nil))
}

func TestMetrics_InstrumentHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	handler := m.InstrumentHandler("GET", "/x", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", nil))

	assert.Equal(t, 1.0, gatherValue(t, reg, "shortlinks_http_requests_total",
		map[string]string{"method": "GET", "endpoint": "/x", "status_code": "404"}))
	assert.Equal(t, 0.0, gatherValue(t, reg, "shortlinks_http_requests_in_flight",
		map[string]string{"method": "GET", "endpoint": "/x"}))
}

func TestMetrics_InstrumentAuthMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := m.InstrumentAuthMiddleware(apiKeyMiddleware("k"))(ok)

	for _, key := range []string{"k", "bad", ""} {
		req := httptest.NewRequest("GET", "/", nil)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 1.0, gatherValue(t, reg, "shortlinks_auth_requests_total", map[string]string{"status": "success"}))
	assert.Equal(t, 1.0, gatherValue(t, reg, "shortlinks_auth_requests_total", map[string]string{"status": "error"}))
}

func TestNewMetrics_NilRegisterer(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(nil).RecordHealthCheck(true)
		NewMetrics(nil).RecordHealthCheck(false)
	})
}
