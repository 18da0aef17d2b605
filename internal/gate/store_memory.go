package gate

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/pageswitch/internal/domain"
)

type memoryEntry struct {
	session  domain.Session
	deadline time.Time
}

// InMemoryStore keeps sessions in process memory for single-instance mode.
// Entries past their ttl are invisible even if nobody deleted them.
type InMemoryStore struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	sessions map[string]memoryEntry
}

func NewInMemoryStore(clock clockwork.Clock) *InMemoryStore {
	return &InMemoryStore{
		clock:    clock,
		sessions: make(map[string]memoryEntry),
	}
}

func (s *InMemoryStore) Put(_ context.Context, session domain.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.RequestSize = 0
	session.ResponseSize = 0
	s.sessions[session.SessionID] = memoryEntry{session: session, deadline: s.clock.Now().Add(ttl)}
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	sessions := make([]domain.Session, 0, len(s.sessions))
	for id, entry := range s.sessions {
		if !now.Before(entry.deadline) {
			delete(s.sessions, id)
			continue
		}
		sessions = append(sessions, entry.session)
	}
	return sessions, nil
}

func (s *InMemoryStore) AddTraffic(_ context.Context, sessionID string, requestBytes, responseBytes int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok || !s.clock.Now().Before(entry.deadline) {
		return false, nil
	}
	entry.session.RequestSize += requestBytes
	entry.session.ResponseSize += responseBytes
	s.sessions[sessionID] = entry
	return true, nil
}
