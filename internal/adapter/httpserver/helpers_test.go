package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/pageswitch/internal/activation"
	"github.com/pscheid92/pageswitch/internal/adapter/gateclient"
	"github.com/pscheid92/pageswitch/internal/adapter/metrics"
	"github.com/pscheid92/pageswitch/internal/gate"
	"github.com/pscheid92/pageswitch/internal/platform/config"
	"github.com/stretchr/testify/require"
)

func healthOK(_ context.Context) error { return nil }

func healthErr(msg string) func(context.Context) error {
	return func(_ context.Context) error { return errors.New(msg) }
}

func newTestActivatorServer(t *testing.T, gateURL string, healthChecks ...HealthCheck) *Server {
	t.Helper()

	reg := metrics.NewRegistry()
	clock := clockwork.NewFakeClock()

	client, err := gateclient.NewClient(gateURL, 2*time.Second)
	require.NoError(t, err)

	forwarder := activation.NewForwarder(client, metrics.NewActivationMetrics(reg), clock)
	cfg := &config.Config{Port: "0", GateServerURL: gateURL}
	return NewActivatorServer(cfg, forwarder, clock, reg, healthChecks)
}

type testGate struct {
	srv   *Server
	svc   *gate.Service
	clock *clockwork.FakeClock
}

func newTestGateServer(t *testing.T) testGate {
	t.Helper()

	reg := metrics.NewRegistry()
	clock := clockwork.NewFakeClock()
	observer := metrics.NewGateMetrics(reg)
	svc := gate.NewService(gate.NewInMemoryStore(clock), gate.NewHub(observer), clock, observer, 5*time.Second)
	t.Cleanup(svc.Stop)

	cfg := &config.Config{GatePort: "0", CORSAllowedOrigins: "http://allowed.example"}
	srv, err := NewGateServer(cfg, svc, clock, reg, nil)
	require.NoError(t, err)

	return testGate{srv: srv, svc: svc, clock: clock}
}

func serve(srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

// closedURL returns the URL of a server that is no longer listening.
func closedURL(t *testing.T) string {
	t.Helper()
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()
	return url
}
