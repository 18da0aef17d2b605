package domain

import "context"

type ActivationStatus string

const (
	ActivationSuccess ActivationStatus = "success"
	ActivationFailed  ActivationStatus = "failed"
)

// PageActivation asks the gate to mark Page active for SessionID until
// TimeoutSeconds have passed.
type PageActivation struct {
	Page           string
	TimeoutSeconds int
	SessionID      string
}

// ActivationResult is what the activator reports back to its caller.
type ActivationResult struct {
	Page    string           `json:"page"`
	Timeout int              `json:"timeout"`
	Status  ActivationStatus `json:"status"`
	Error   string           `json:"error,omitempty"`
}

func (r ActivationResult) Succeeded() bool {
	return r.Status == ActivationSuccess
}

// Activator forwards a page activation and never fails: every outcome is
// folded into the result.
type Activator interface {
	Activate(ctx context.Context, activation PageActivation) ActivationResult
}

// GateClient is the outbound side of the activator.
type GateClient interface {
	SetActive(ctx context.Context, activation PageActivation) error
}
