// Package http implements the REST surface of the e-portfolio data API.
package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eportlabs/eport-data-api/internal/application/query"
	"github.com/eportlabs/eport-data-api/internal/domain/shared"
	"github.com/eportlabs/eport-data-api/internal/infrastructure/persistence/warehouse"
	"github.com/eportlabs/eport-data-api/internal/infrastructure/scheduler"
	"github.com/eportlabs/eport-data-api/internal/interface/http/handlers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST HARNESS
// ══════════════════════════════════════════════════════════════════════════════

type testBackend struct {
	students  *stubStudentRepo
	roles     *stubRoleRepo
	jds       *stubJDRepo
	templates *stubTemplateRepo
	runner    *stubRefreshRunner
}

func testConfig() Config {
	config := DefaultConfig()
	config.RateLimitPerMinute = 0
	config.EnableMetrics = false
	config.AdminToken = "test-admin-token"
	return config
}

// newTestServer builds a server over stub repositories. Mutators adjust the
// config or swap dependencies before construction.
func newTestServer(t *testing.T, mutate ...func(*Config, *Dependencies)) (*Server, *testBackend) {
	t.Helper()

	started := time.Now().UTC()
	backend := &testBackend{
		students:  &stubStudentRepo{profile: fixtureProfile()},
		roles:     &stubRoleRepo{tax: fixtureRole()},
		jds:       &stubJDRepo{tax: fixtureJD()},
		templates: &stubTemplateRepo{md: fixtureTemplate()},
		runner: &stubRefreshRunner{result: &scheduler.JobResult{
			JobName:     "schema_refresh",
			StartedAt:   started,
			CompletedAt: started.Add(12 * time.Millisecond),
			Duration:    12 * time.Millisecond,
			Success:     true,
		}},
	}

	config := testConfig()
	deps := Dependencies{
		Students:  backend.students,
		Roles:     backend.roles,
		JDs:       backend.jds,
		Templates: backend.templates,
		BundleHandler: query.NewGetGenerationBundleHandler(
			backend.students, backend.roles, backend.jds, backend.templates),
		EnrichedJDHandler: query.NewGetEnrichedJDHandler(backend.jds, backend.roles, quietSlog()),
		Logger:            quietLogger(),
		RefreshRunner:     backend.runner,
		Registry: &stubRegistryView{snap: warehouse.Snapshot{
			Schema:         "eport_gold",
			LastRefreshed:  time.Now().UTC(),
			RelationTables: 12,
			AbsentTables:   []string{},
		}},
	}

	for _, m := range mutate {
		m(&config, &deps)
	}

	srv := NewServer(config, deps)
	t.Cleanup(func() {
		if srv.rateLimiter != nil {
			srv.rateLimiter.Stop()
		}
	})
	return srv, backend
}

func doRequest(s *Server, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func envelopeData(t *testing.T, resp JSONResponse) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data must be a JSON object")
	return data
}

// ══════════════════════════════════════════════════════════════════════════════
// INFRASTRUCTURE TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestServer_Root(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	data := envelopeData(t, resp)
	assert.Equal(t, "e-Portfolio Data API", data["name"])
}

func TestServer_UnknownRouteReturns404(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/unknown", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RequestIDPropagation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/students/user-1/core", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	headerID := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, headerID)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, headerID, resp.RequestID, "envelope and header must carry the same request id")

	// A caller-supplied id is echoed instead of replaced.
	rec = doRequest(srv, http.MethodGet, "/v1/students/user-1/core", map[string]string{
		"X-Request-ID": "caller-chosen-id",
	})
	assert.Equal(t, "caller-chosen-id", rec.Header().Get("X-Request-ID"))
}

func TestServer_SecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/health", nil)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestServer_RateLimit(t *testing.T) {
	srv, _ := newTestServer(t, func(config *Config, deps *Dependencies) {
		config.RateLimitPerMinute = 2
	})

	assert.Equal(t, http.StatusOK, doRequest(srv, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(srv, http.MethodGet, "/health", nil).Code)

	rec := doRequest(srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "rate_limit_exceeded", resp.Error.Code)
}

func TestServer_RequestMetricsUseRoutePattern(t *testing.T) {
	metrics := &recordingMetrics{}
	srv, backend := newTestServer(t, func(config *Config, deps *Dependencies) {
		deps.RequestMetrics = metrics
	})

	doRequest(srv, http.MethodGet, "/v1/students/user-1/core", nil)

	require.Len(t, metrics.requests, 1)
	assert.Equal(t, "GET", metrics.requests[0].method)
	assert.Equal(t, "/v1/students/{id}/core", metrics.requests[0].route,
		"metrics must use the route pattern, not the raw path")
	assert.Equal(t, http.StatusOK, metrics.requests[0].status)

	backend.students.err = shared.ErrStudentNotFound
	doRequest(srv, http.MethodGet, "/v1/students/user-2/core", nil)

	require.Len(t, metrics.requests, 2)
	assert.Equal(t, http.StatusNotFound, metrics.requests[1].status)
	assert.Equal(t, []string{"not_found"}, metrics.errors)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	exposition := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# HELP eport_http_requests_total\n"))
	})
	srv, _ := newTestServer(t, func(config *Config, deps *Dependencies) {
		config.EnableMetrics = true
		deps.MetricsHandler = exposition
	})

	rec := doRequest(srv, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eport_http_requests_total")
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestServer_HealthWithoutChecker(t *testing.T) {
	srv, _ := newTestServer(t, func(config *Config, deps *Dependencies) {
		deps.HealthChecker = nil
	})

	rec := doRequest(srv, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
}

func TestServer_HealthUnhealthyReturns503(t *testing.T) {
	srv, _ := newTestServer(t, func(config *Config, deps *Dependencies) {
		deps.HealthChecker = &stubHealthChecker{status: handlers.HealthStatus{
			Healthy: false,
			Ready:   false,
			Message: "checks failed: warehouse",
		}}
	})

	rec := doRequest(srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_ReadyNotReadyReturns503(t *testing.T) {
	srv, _ := newTestServer(t, func(config *Config, deps *Dependencies) {
		deps.HealthChecker = &stubHealthChecker{status: handlers.HealthStatus{
			Healthy: true,
			Ready:   false,
			Message: "schema registry has never been refreshed",
		}}
	})

	rec := doRequest(srv, http.MethodGet, "/ready", nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeEnvelope(t, rec)
	data := envelopeData(t, resp)
	assert.Equal(t, "not_ready", data["status"])
}

func TestServer_Live(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/live", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := envelopeData(t, decodeEnvelope(t, rec))
	assert.Equal(t, "alive", data["status"])
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestServer_AdminRefreshRequiresToken(t *testing.T) {
	srv, backend := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/v1/admin/schema/refresh", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, backend.runner.calls, "an unauthorized request must not trigger a refresh")

	rec = doRequest(srv, http.MethodPost, "/v1/admin/schema/refresh", map[string]string{
		"X-Admin-Token": "wrong-token",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_AdminRefresh(t *testing.T) {
	srv, backend := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/v1/admin/schema/refresh", map[string]string{
		"X-Admin-Token": "test-admin-token",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, backend.runner.calls)
	assert.Equal(t, "schema_refresh", backend.runner.gotJob)

	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)
	data := envelopeData(t, resp)
	assert.Equal(t, "schema_refresh", data["job"])
	assert.Equal(t, true, data["success"])

	registry, ok := data["registry"].(map[string]interface{})
	require.True(t, ok, "refresh response must include the registry snapshot")
	assert.Equal(t, "eport_gold", registry["schema"])
	assert.Equal(t, float64(12), registry["relation_tables"])
}

func TestServer_AdminRouteAbsentWithoutToken(t *testing.T) {
	srv, _ := newTestServer(t, func(config *Config, deps *Dependencies) {
		config.AdminToken = ""
	})

	rec := doRequest(srv, http.MethodPost, "/v1/admin/schema/refresh", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
