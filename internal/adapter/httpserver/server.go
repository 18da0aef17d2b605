package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/pageswitch/internal/adapter/metrics"
)

// Server is the echo server shared by the activator and the gate. Only the
// routes registered on top of the common ones differ.
type Server struct {
	echo    *echo.Echo
	service string
	port    string

	clock        clockwork.Clock
	startTime    time.Time
	healthChecks []HealthCheck
	registry     *prometheus.Registry
	httpMetrics  *metrics.HTTPMetrics
}

func newServer(service, port string, clock clockwork.Clock, reg *prometheus.Registry, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		service:      service,
		port:         port,
		clock:        clock,
		startTime:    clock.Now(),
		healthChecks: healthChecks,
		registry:     reg,
		httpMetrics:  metrics.NewHTTPMetrics(reg, service),
	}

	srv.registerCommonRoutes()

	return srv
}

// Start binds the port, logs the readiness line and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return fmt.Errorf("failed to bind port %s: %w", s.port, err)
	}
	s.echo.Listener = ln

	slog.Info(fmt.Sprintf("Server running on port %s", s.port), "service", s.service)
	if err := s.echo.Start(""); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func renderTemplate(c echo.Context, templates *template.Template, name string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}
