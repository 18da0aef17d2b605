package activation

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/pageswitch/internal/domain"
)

// Recorder observes forwarded activations.
type Recorder interface {
	ObserveActivation(page string, status domain.ActivationStatus, duration time.Duration)
}

type Forwarder struct {
	gate     domain.GateClient
	recorder Recorder
	clock    clockwork.Clock
}

func NewForwarder(gate domain.GateClient, recorder Recorder, clock clockwork.Clock) *Forwarder {
	return &Forwarder{gate: gate, recorder: recorder, clock: clock}
}

// Activate forwards one activation to the gate. A 200 from the gate is a
// success; anything else is a failure carrying the gate's body or the
// transport error text.
func (f *Forwarder) Activate(ctx context.Context, a domain.PageActivation) domain.ActivationResult {
	slog.InfoContext(ctx, "Marking page as active",
		"page", a.Page,
		"session_id", a.SessionID,
		"timeout_seconds", a.TimeoutSeconds,
	)

	start := f.clock.Now()
	err := f.gate.SetActive(ctx, a)
	elapsed := f.clock.Since(start)

	result := domain.ActivationResult{
		Page:    a.Page,
		Timeout: a.TimeoutSeconds,
		Status:  domain.ActivationSuccess,
	}
	if err != nil {
		result.Status = domain.ActivationFailed
		result.Error = failureText(err)
		slog.WarnContext(ctx, "Page activation failed",
			"page", a.Page,
			"session_id", a.SessionID,
			"error", err,
		)
	}

	f.recorder.ObserveActivation(a.Page, result.Status, elapsed)
	return result
}

// failureText prefers the HTTP client's own message for transport errors so
// callers see it without any local wrapping.
func failureText(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Error()
	}
	return err.Error()
}
