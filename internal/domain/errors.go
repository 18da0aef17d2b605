package domain

import "errors"

var (
	ErrSessionIDRequired = errors.New("session_id is required")
	ErrHubClosed         = errors.New("event hub is closed")
)
