package httpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/pageswitch/internal/activation"
	"github.com/pscheid92/pageswitch/internal/domain"
	"github.com/pscheid92/pageswitch/internal/platform/config"
)

// NewActivatorServer serves one GET route per entry of the activation
// dispatch table, plus the common health, version and metrics routes.
func NewActivatorServer(cfg *config.Config, activator domain.Activator, clock clockwork.Clock, reg *prometheus.Registry, healthChecks []HealthCheck) *Server {
	srv := newServer("activator", cfg.Port, clock, reg, healthChecks)
	srv.registerActivationRoutes(activator, activation.Routes())
	return srv
}

func (s *Server) registerActivationRoutes(activator domain.Activator, routes []activation.Route) {
	for _, route := range routes {
		s.echo.GET(route.Path, handleActivation(activator, route.Activation))
	}
}

// handleActivation ignores everything about the inbound request except its
// context values. Cancellation is detached so a client hanging up does not
// abort the gate call.
func handleActivation(activator domain.Activator, a domain.PageActivation) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := context.WithoutCancel(c.Request().Context())
		result := activator.Activate(ctx, a)

		if err := c.JSON(activationStatusCode(result), result); err != nil {
			return fmt.Errorf("failed to write activation response: %w", err)
		}
		return nil
	}
}

func activationStatusCode(result domain.ActivationResult) int {
	if result.Succeeded() {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}
