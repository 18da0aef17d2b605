package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/pageswitch/internal/platform/correlation"
	apperrors "github.com/pscheid92/pageswitch/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newErrorsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_errors_total"}, []string{"type"})
}

func TestMiddlewareWithStructuredError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	errorsTotal := newErrorsTotal()

	handler := ErrorHandlingMiddleware(errorsTotal)(func(c echo.Context) error {
		return apperrors.ValidationError("invalid input")
	})

	err := handler(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid input", resp.Error)
	assert.Equal(t, apperrors.TypeValidation, resp.Type)
	assert.InDelta(t, 1, testutil.ToFloat64(errorsTotal.WithLabelValues("validation")), 0)
}

func TestMiddlewareWithStandardError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlingMiddleware(newErrorsTotal())(func(c echo.Context) error {
		return errors.New("standard error")
	})

	err := handler(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error)
	assert.Equal(t, apperrors.TypeInternal, resp.Type)
}

func TestMiddlewareWithNoError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlingMiddleware(newErrorsTotal())(func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})

	err := handler(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", rec.Body.String())
}

func TestMiddlewareWithContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlingMiddleware(newErrorsTotal())(func(c echo.Context) error {
		return apperrors.NotFoundError("session not found").WithContext("session_id", "user_325")
	})

	err := handler(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "session not found", resp.Error)
	assert.Equal(t, "user_325", resp.Context["session_id"])
}

func TestMiddlewarePassesThroughHTTPError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	errorsTotal := newErrorsTotal()

	handler := ErrorHandlingMiddleware(errorsTotal)(func(c echo.Context) error {
		return echo.ErrNotFound
	})

	err := handler(c)

	assert.ErrorIs(t, err, echo.ErrNotFound)
	assert.InDelta(t, 1, testutil.ToFloat64(errorsTotal.WithLabelValues("not_found")), 0)
}

func TestWrapHTTPError(t *testing.T) {
	tests := []struct {
		code     int
		wantType apperrors.ErrorType
	}{
		{http.StatusBadRequest, apperrors.TypeValidation},
		{http.StatusMethodNotAllowed, apperrors.TypeValidation},
		{http.StatusNotFound, apperrors.TypeNotFound},
		{http.StatusBadGateway, apperrors.TypeExternal},
		{http.StatusServiceUnavailable, apperrors.TypeExternal},
		{http.StatusTeapot, apperrors.TypeInternal},
	}

	for _, tt := range tests {
		wrapped := WrapHTTPError(echo.NewHTTPError(tt.code, "boom"))
		assert.Equal(t, tt.wantType, wrapped.Type, tt.code)
		assert.Equal(t, "boom", wrapped.Message)
	}

	internal := errors.New("cause")
	wrapped := WrapHTTPError(echo.NewHTTPError(http.StatusInternalServerError).SetInternal(internal))
	assert.Equal(t, internal, wrapped.Cause)
}

func TestCorrelationMiddleware(t *testing.T) {
	e := echo.New()

	var seen string
	handler := correlationMiddleware(func(c echo.Context) error {
		seen, _ = correlation.ID(c.Request().Context())
		return nil
	})

	t.Run("reuses inbound id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(correlation.Header, "abc-123")
		rec := httptest.NewRecorder()

		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get(correlation.Header))
	})

	t.Run("generates id when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(correlation.Header))
	})
}

type trafficCall struct {
	sessionID         string
	request, response int64
}

type recordingTraffic struct {
	mu    sync.Mutex
	calls []trafficCall
	err   error
}

func (r *recordingTraffic) RecordTraffic(_ context.Context, sessionID string, requestBytes, responseBytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, trafficCall{sessionID, requestBytes, responseBytes})
	return r.err
}

func TestTrafficMiddleware(t *testing.T) {
	e := echo.New()
	recorder := &recordingTraffic{}
	handler := trafficMiddleware(recorder)(func(c echo.Context) error {
		return c.String(http.StatusOK, "hello")
	})

	req := httptest.NewRequest(http.MethodPost, "/set_active?session_id=s1", strings.NewReader("abc"))
	require.NoError(t, handler(e.NewContext(req, httptest.NewRecorder())))

	req = httptest.NewRequest(http.MethodGet, "/admin/sessions", nil)
	require.NoError(t, handler(e.NewContext(req, httptest.NewRecorder())))

	assert.Equal(t, []trafficCall{{"s1", 3, 5}}, recorder.calls)
}

func TestTrafficMiddleware_CountsErrorResponses(t *testing.T) {
	e := echo.New()
	recorder := &recordingTraffic{}
	handler := trafficMiddleware(recorder)(func(c echo.Context) error {
		return echo.ErrNotFound
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/sessions/ghost?session_id=s1", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotZero(t, rec.Body.Len())
	assert.Equal(t, []trafficCall{{"s1", 0, int64(rec.Body.Len())}}, recorder.calls)
}

func TestTrafficMiddleware_RecorderErrorDoesNotFailRequest(t *testing.T) {
	e := echo.New()
	recorder := &recordingTraffic{err: errors.New("redis down")}
	handler := trafficMiddleware(recorder)(func(c echo.Context) error {
		return c.String(http.StatusOK, "hello")
	})

	req := httptest.NewRequest(http.MethodGet, "/set_active?session_id=s1", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, recorder.calls, 1)
}

func TestSecureHeaders(t *testing.T) {
	srv := newTestActivatorServer(t, "http://localhost:6748")

	rec := serve(srv, http.MethodGet, "/version", "")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
}
