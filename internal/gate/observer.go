package gate

import "github.com/pscheid92/pageswitch/internal/domain"

// Observer receives gauge and counter updates from the gate.
type Observer interface {
	SessionsActive(n int)
	SubscribersActive(n int)
	EventPublished(kind domain.SessionEventKind)
	EventDropped()
}

// NopObserver discards all observations.
type NopObserver struct{}

func (NopObserver) SessionsActive(int) {}
func (NopObserver) SubscribersActive(int) {}
func (NopObserver) EventPublished(domain.SessionEventKind) {}
func (NopObserver) EventDropped() {}
