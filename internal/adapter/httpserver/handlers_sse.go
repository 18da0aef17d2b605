package httpserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/pageswitch/internal/platform/errors"
)

// handleEvents streams session events as server-sent events until the client
// disconnects or the gate shuts down. Each frame carries the event message as
// a JSON string.
func (h *gateHandlers) handleEvents(c echo.Context) error {
	id, events, err := h.svc.Subscribe()
	if err != nil {
		return apperrors.InternalError("event stream unavailable", err)
	}
	defer h.svc.Unsubscribe(id)

	ctx := c.Request().Context()
	slog.DebugContext(ctx, "SSE client connected", "subscriber_id", id.String())

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	for {
		select {
		case <-ctx.Done():
			slog.DebugContext(ctx, "SSE client disconnected", "subscriber_id", id.String())
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(event.Message)
			if err != nil {
				return fmt.Errorf("failed to marshal event: %w", err)
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}
			w.Flush()
		}
	}
}
