package httpserver

import (
	"context"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/pageswitch/internal/domain"
	"github.com/pscheid92/pageswitch/internal/gate"
	"github.com/pscheid92/pageswitch/internal/platform/config"
	apperrors "github.com/pscheid92/pageswitch/internal/platform/errors"
	"github.com/pscheid92/pageswitch/web"
)

const (
	sessionsPath = "/admin/sessions"
	eventsPath   = "/sse"
)

type gateService interface {
	SetActive(ctx context.Context, req gate.ActivateRequest) error
	Sessions(ctx context.Context) ([]domain.Session, error)
	RecordTraffic(ctx context.Context, sessionID string, requestBytes, responseBytes int64) error
	Subscribe() (uuid.UUID, <-chan domain.SessionEvent, error)
	Unsubscribe(id uuid.UUID)
}

type gateHandlers struct {
	svc       gateService
	templates *template.Template
}

// NewGateServer serves the gate: activation, admin listing, the event stream
// and its landing page, behind CORS and per-session traffic accounting.
func NewGateServer(cfg *config.Config, svc gateService, clock clockwork.Clock, reg *prometheus.Registry, healthChecks []HealthCheck) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	srv := newServer("gate", cfg.GatePort, clock, reg, healthChecks)
	srv.echo.Pre(trafficMiddleware(svc))
	srv.echo.Pre(corsMiddleware(cfg.AllowedOrigins()))

	h := &gateHandlers{svc: svc, templates: templates}
	srv.echo.GET("/", h.handleHome)
	srv.echo.GET("/set_active", h.handleSetActive)
	srv.echo.POST("/set_active", h.handleSetActive)
	srv.echo.GET(sessionsPath, h.handleSessions)
	srv.echo.GET(sessionsPath+"/:id", h.handleSession)
	srv.echo.GET(eventsPath, h.handleEvents)

	return srv, nil
}

func (h *gateHandlers) handleHome(c echo.Context) error {
	return renderTemplate(c, h.templates, "index.html", map[string]string{
		"SessionsPath": sessionsPath,
		"EventsPath":   eventsPath,
	})
}

func (h *gateHandlers) handleSetActive(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return apperrors.ValidationError(domain.ErrSessionIDRequired.Error())
	}

	req := gate.ActivateRequest{
		SessionID: sessionID,
		Page:      c.QueryParam("page"),
		IP:        clientIP(c.Request()),
		Timeout:   parseTimeoutSeconds(c.QueryParam("timeout")),
	}
	if err := h.svc.SetActive(c.Request().Context(), req); err != nil {
		return apperrors.ExternalError("failed to activate page", err).WithContext("session_id", sessionID)
	}

	if err := c.String(http.StatusOK, "Active page updated"); err != nil {
		return fmt.Errorf("failed to write activation response: %w", err)
	}
	return nil
}

func (h *gateHandlers) handleSessions(c echo.Context) error {
	sessions, err := h.svc.Sessions(c.Request().Context())
	if err != nil {
		return apperrors.ExternalError("failed to list sessions", err)
	}
	if err := c.JSON(http.StatusOK, sessions); err != nil {
		return fmt.Errorf("failed to write sessions response: %w", err)
	}
	return nil
}

func (h *gateHandlers) handleSession(c echo.Context) error {
	sessionID := c.Param("id")

	sessions, err := h.svc.Sessions(c.Request().Context())
	if err != nil {
		return apperrors.ExternalError("failed to list sessions", err)
	}
	for _, session := range sessions {
		if session.SessionID != sessionID {
			continue
		}
		if err := c.JSON(http.StatusOK, session); err != nil {
			return fmt.Errorf("failed to write session response: %w", err)
		}
		return nil
	}
	return apperrors.NotFoundError("session not found").WithContext("session_id", sessionID)
}

// parseTimeoutSeconds returns 0, meaning the gate default, for anything that
// is not a positive integer.
func parseTimeoutSeconds(raw string) time.Duration {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
