package gate

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pscheid92/pageswitch/internal/domain"
)

const subscriberBuffer = 16

// Hub fans session events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]chan domain.SessionEvent
	closed      bool
	observer    Observer
}

func NewHub(observer Observer) *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]chan domain.SessionEvent),
		observer:    observer,
	}
}

// Subscribe registers a new subscriber. The channel is closed by Unsubscribe
// or Close.
func (h *Hub) Subscribe() (uuid.UUID, <-chan domain.SessionEvent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return uuid.Nil, nil, domain.ErrHubClosed
	}

	id := uuid.New()
	ch := make(chan domain.SessionEvent, subscriberBuffer)
	h.subscribers[id] = ch
	h.observer.SubscribersActive(len(h.subscribers))
	return id, ch, nil
}

func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subscribers[id]
	if !ok {
		return
	}
	delete(h.subscribers, id)
	close(ch)
	h.observer.SubscribersActive(len(h.subscribers))
}

func (h *Hub) Publish(event domain.SessionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.observer.EventPublished(event.Kind)
	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.observer.EventDropped()
			slog.Warn("Dropping session event for slow subscriber", "subscriber_id", id.String(), "session_id", event.SessionID)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
	h.observer.SubscribersActive(0)
}
