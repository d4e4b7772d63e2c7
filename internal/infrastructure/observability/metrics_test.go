package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findCounter returns the counter value for the series matching labels,
// or false when no such series was recorded.
func findCounter(t *testing.T, m *Metrics, family string, labels map[string]string) (float64, bool) {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != family {
			continue
		}
	series:
		for _, metric := range mf.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if want, ok := labels[pair.GetName()]; ok && want != pair.GetValue() {
					continue series
				}
			}
			return metric.GetCounter().GetValue(), true
		}
	}
	return 0, false
}

// histogramCount returns the observation count for the series matching labels.
func histogramCount(t *testing.T, m *Metrics, family string, labels map[string]string) (uint64, bool) {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != family {
			continue
		}
	series:
		for _, metric := range mf.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if want, ok := labels[pair.GetName()]; ok && want != pair.GetValue() {
					continue series
				}
			}
			return metric.GetHistogram().GetSampleCount(), true
		}
	}
	return 0, false
}

func TestMetrics_ObserveQuery(t *testing.T) {
	m := NewMetrics()

	m.ObserveQuery("student.hydrate", "success", 120*time.Millisecond)
	m.ObserveQuery("student.hydrate", "success", 80*time.Millisecond)
	m.ObserveQuery("student.hydrate", "error", 40*time.Millisecond)

	count, ok := histogramCount(t, m, "eport_warehouse_query_duration_seconds", map[string]string{
		"query":   "student.hydrate",
		"outcome": "success",
	})
	require.True(t, ok)
	assert.Equal(t, uint64(2), count)

	count, ok = histogramCount(t, m, "eport_warehouse_query_duration_seconds", map[string]string{
		"query":   "student.hydrate",
		"outcome": "error",
	})
	require.True(t, ok)
	assert.Equal(t, uint64(1), count)
}

func TestMetrics_AddRetries(t *testing.T) {
	m := NewMetrics()

	m.AddRetries("jd.hydrate", 2)
	m.AddRetries("jd.hydrate", 0)
	m.AddRetries("jd.hydrate", -1)

	value, ok := findCounter(t, m, "eport_warehouse_query_retries_total", map[string]string{
		"query": "jd.hydrate",
	})
	require.True(t, ok)
	assert.Equal(t, 2.0, value, "zero and negative increments must not count")
}

func TestMetrics_ObserveHTTPRequest(t *testing.T) {
	m := NewMetrics()

	m.ObserveHTTPRequest("GET", "/v1/students/{id}/full-profile", 200, 35*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/v1/students/{id}/full-profile", 404, 5*time.Millisecond)

	value, ok := findCounter(t, m, "eport_http_requests_total", map[string]string{
		"method": "GET",
		"route":  "/v1/students/{id}/full-profile",
		"status": "200",
	})
	require.True(t, ok)
	assert.Equal(t, 1.0, value)

	count, ok := histogramCount(t, m, "eport_http_request_duration_seconds", map[string]string{
		"method": "GET",
		"route":  "/v1/students/{id}/full-profile",
	})
	require.True(t, ok)
	assert.Equal(t, uint64(2), count, "latency is observed for every status")
}

func TestMetrics_SchemaRefresh(t *testing.T) {
	m := NewMetrics()

	refreshed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.AddSchemaRefresh("success")
	m.AddSchemaRefresh("error")
	m.AddSchemaRefresh("success")
	m.SetSchemaRefreshedAt(refreshed)

	value, ok := findCounter(t, m, "eport_schema_refreshes_total", map[string]string{"outcome": "success"})
	require.True(t, ok)
	assert.Equal(t, 2.0, value)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var gauge float64
	for _, mf := range families {
		if mf.GetName() == "eport_schema_last_refresh_timestamp_seconds" {
			gauge = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, float64(refreshed.Unix()), gauge)
}

func TestMetrics_HandlerServesExposition(t *testing.T) {
	m := NewMetrics()
	m.ObserveQuery("role.core", "success", 10*time.Millisecond)
	m.AddRequestError("not_found")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "eport_warehouse_query_duration_seconds")
	assert.Contains(t, string(body), "eport_request_errors_total")
	assert.Contains(t, string(body), "go_goroutines")
}
