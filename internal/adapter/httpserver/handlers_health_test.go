package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/pageswitch/internal/adapter/metrics"
	"github.com/pscheid92/pageswitch/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleLiveness(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cfg := &config.Config{Port: "0", GateServerURL: "http://localhost:6748"}
	srv := NewActivatorServer(cfg, nil, clock, metrics.NewRegistry(), nil)

	clock.Advance(90 * time.Second)
	rec := serve(srv, http.MethodGet, "/health/live", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","uptime":90}`, rec.Body.String())
}

func TestHandleReadiness_AllHealthy(t *testing.T) {
	srv := newTestActivatorServer(t, "http://localhost:6748",
		HealthCheck{Name: "gate", Check: healthOK},
	)

	rec := serve(srv, http.MethodGet, "/health/ready", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestHandleReadiness_NoChecks(t *testing.T) {
	srv := newTestActivatorServer(t, "http://localhost:6748")

	rec := serve(srv, http.MethodGet, "/health/ready", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleReadiness_ReportsFirstFailure(t *testing.T) {
	srv := newTestActivatorServer(t, "http://localhost:6748",
		HealthCheck{Name: "gate", Check: healthOK},
		HealthCheck{Name: "redis", Check: healthErr("connection refused")},
		HealthCheck{Name: "other", Check: healthErr("never reached")},
	)

	rec := serve(srv, http.MethodGet, "/health/ready", "")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unhealthy","failed_check":"redis","error":"connection refused"}`, rec.Body.String())
}

func TestHandleVersion(t *testing.T) {
	srv := newTestActivatorServer(t, "http://localhost:6748")

	rec := serve(srv, http.MethodGet, "/version", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"service":"activator"`)
	assert.Contains(t, body, `"version"`)
	assert.Contains(t, body, `"commit"`)
	assert.Contains(t, body, `"build_time"`)
	assert.Contains(t, body, `"go_version"`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestActivatorServer(t, "http://localhost:6748")

	serve(srv, http.MethodGet, "/version", "")
	rec := serve(srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pageswitch_http_requests_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
