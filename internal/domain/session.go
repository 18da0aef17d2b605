package domain

import (
	"context"
	"time"
)

// Session is one live page activation held by the gate.
type Session struct {
	SessionID    string    `json:"session_id"`
	Page         string    `json:"page"`
	IP           string    `json:"ip"`
	RequestSize  int64     `json:"request_size"`
	ResponseSize int64     `json:"response_size"`
	ActivatedAt  time.Time `json:"-"`
	ExpiresAt    time.Time `json:"-"`
}

type SessionEventKind string

const (
	SessionUpdated  SessionEventKind = "updated"
	SessionTimedOut SessionEventKind = "timed_out"
)

// SessionEvent is published to live subscribers of the gate.
type SessionEvent struct {
	Kind      SessionEventKind
	SessionID string
	Page      string
	IP        string
	Message   string
}

type SessionStore interface {
	// Put replaces the session and resets its traffic counters. ttl bounds
	// how long the store may keep it if the gate never deletes it.
	Put(ctx context.Context, session Session, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]Session, error)

	// AddTraffic adds to the counters of a live session. Returns false when
	// the session does not exist.
	AddTraffic(ctx context.Context, sessionID string, requestBytes, responseBytes int64) (bool, error)
}
