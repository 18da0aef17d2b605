package gateclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pscheid92/pageswitch/internal/domain"
	"github.com/pscheid92/pageswitch/internal/platform/correlation"
)

const (
	setActivePath = "set_active"
	livenessPath  = "health/live"

	// Non-200 bodies are echoed to callers; anything past this is dropped.
	maxErrorBodyBytes = 64 << 10
)

// StatusError reports a gate response other than 200. Its message is the
// response body verbatim.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("gate returned status %d", e.StatusCode)
	}
	return e.Body
}

// Client talks to the gate server over HTTP.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient creates a client for the gate at baseURL. A zero timeout keeps
// the http.Client default of no timeout.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gate URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gate URL %q must be absolute", baseURL)
	}

	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SetActive issues POST /set_active?session_id=..&page=..&timeout=.. with no
// body. Transport failures are returned as the http.Client reported them.
func (c *Client) SetActive(ctx context.Context, activation domain.PageActivation) error {
	u := c.baseURL.JoinPath(setActivePath)
	u.RawQuery = setActiveQuery(activation)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create activation request: %w", err)
	}
	correlation.Propagate(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read gate response (status %d): %w", resp.StatusCode, err)
	}
	return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
}

// Ping reports whether the gate answers HTTP at all. Any response below 500
// counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.JoinPath(livenessPath).String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gate unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("gate returned status %d", resp.StatusCode)
	}
	return nil
}

// setActiveQuery keeps the parameter order session_id, page, timeout;
// url.Values.Encode would sort the keys.
func setActiveQuery(a domain.PageActivation) string {
	params := [][2]string{
		{"session_id", a.SessionID},
		{"page", a.Page},
		{"timeout", strconv.Itoa(a.TimeoutSeconds)},
	}

	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p[0]))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p[1]))
	}
	return sb.String()
}
