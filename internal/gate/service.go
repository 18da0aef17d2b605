package gate

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/pageswitch/internal/domain"
)

const (
	// Stores may keep a session this long past its timeout in case the
	// expiry timer never runs (crash, restart).
	storeGrace   = 30 * time.Second
	storeTimeout = 5 * time.Second
)

// ActivateRequest is one inbound /set_active call.
type ActivateRequest struct {
	SessionID string
	Page      string
	IP        string
	// Timeout <= 0 selects the service default.
	Timeout time.Duration
}

type expiry struct {
	timer clockwork.Timer
}

type Service struct {
	store          domain.SessionStore
	hub            *Hub
	clock          clockwork.Clock
	observer       Observer
	defaultTimeout time.Duration

	// mu serializes store writes with timer bookkeeping so an expiry can
	// never delete a session that was re-activated after its timer fired.
	mu       sync.Mutex
	expiries map[string]*expiry
}

func NewService(store domain.SessionStore, hub *Hub, clock clockwork.Clock, observer Observer, defaultTimeout time.Duration) *Service {
	return &Service{
		store:          store,
		hub:            hub,
		clock:          clock,
		observer:       observer,
		defaultTimeout: defaultTimeout,
		expiries:       make(map[string]*expiry),
	}
}

// SetActive marks req.Page active for req.SessionID, resets the session's
// traffic counters and (re)starts its expiry timer.
func (s *Service) SetActive(ctx context.Context, req ActivateRequest) error {
	if req.SessionID == "" {
		return domain.ErrSessionIDRequired
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = s.defaultTimeout
	}

	now := s.clock.Now()
	session := domain.Session{
		SessionID:   req.SessionID,
		Page:        req.Page,
		IP:          req.IP,
		ActivatedAt: now,
		ExpiresAt:   now.Add(timeout),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Put(ctx, session, timeout+storeGrace); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	if prev, ok := s.expiries[req.SessionID]; ok {
		prev.timer.Stop()
	}
	exp := &expiry{}
	exp.timer = s.clock.AfterFunc(timeout, func() { s.expire(req.SessionID, exp) })
	s.expiries[req.SessionID] = exp
	s.observer.SessionsActive(len(s.expiries))

	slog.InfoContext(ctx, "Session activated", "session_id", req.SessionID, "page", req.Page, "ip", req.IP, "timeout", timeout)
	s.hub.Publish(domain.SessionEvent{
		Kind:      domain.SessionUpdated,
		SessionID: req.SessionID,
		Page:      req.Page,
		IP:        req.IP,
		Message:   fmt.Sprintf("Session updated: %s - Page: %s - IP: %s", req.SessionID, req.Page, req.IP),
	})
	return nil
}

func (s *Service) expire(sessionID string, exp *expiry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expiries[sessionID] != exp {
		return
	}
	delete(s.expiries, sessionID)
	s.observer.SessionsActive(len(s.expiries))

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.store.Delete(ctx, sessionID); err != nil {
		slog.Error("Failed to delete expired session", "session_id", sessionID, "error", err)
	}

	slog.Info("Session timed out", "session_id", sessionID)
	s.hub.Publish(domain.SessionEvent{
		Kind:      domain.SessionTimedOut,
		SessionID: sessionID,
		Message:   fmt.Sprintf("Session timed out: %s", sessionID),
	})
}

// Sessions lists live sessions ordered by session ID.
func (s *Service) Sessions(ctx context.Context) ([]domain.Session, error) {
	sessions, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	slices.SortFunc(sessions, func(a, b domain.Session) int {
		return cmp.Compare(a.SessionID, b.SessionID)
	})
	return sessions, nil
}

// RecordTraffic adds request and response bytes to a live session. Traffic
// for unknown sessions is ignored.
func (s *Service) RecordTraffic(ctx context.Context, sessionID string, requestBytes, responseBytes int64) error {
	if _, err := s.store.AddTraffic(ctx, sessionID, requestBytes, responseBytes); err != nil {
		return fmt.Errorf("failed to record traffic: %w", err)
	}
	return nil
}

func (s *Service) Subscribe() (uuid.UUID, <-chan domain.SessionEvent, error) {
	return s.hub.Subscribe()
}

func (s *Service) Unsubscribe(id uuid.UUID) {
	s.hub.Unsubscribe(id)
}

// Stop cancels all pending expiries and disconnects subscribers. Sessions
// already in the store are left to its ttl.
func (s *Service) Stop() {
	s.mu.Lock()
	for id, exp := range s.expiries {
		exp.timer.Stop()
		delete(s.expiries, id)
	}
	s.observer.SessionsActive(0)
	s.mu.Unlock()

	s.hub.Close()
}
