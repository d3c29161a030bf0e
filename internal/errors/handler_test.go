package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mongosuite/internal/shared/testutil"
)

func newProblemRequest(method, path string) *http.Request {
	r := httptest.NewRequest(method, path, nil)
	ctx := context.WithValue(r.Context(), middleware.RequestIDKey, "req-test-1")
	return r.WithContext(ctx)
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestNewErrorHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	handler := NewErrorHandler(logger, true)
	require.NotNil(t, handler)
	assert.True(t, handler.includeStack)
	assert.NotNil(t, handler.logger)
}

func TestErrorHandler_HandleError(t *testing.T) {
	t.Run("nil error writes nothing", func(t *testing.T) {
		logger, logs := testutil.NewTestLogger(t)
		handler := NewErrorHandler(logger, false)

		w := httptest.NewRecorder()
		handler.HandleError(w, newProblemRequest(http.MethodPost, "/api/insert_one"), nil)

		assert.Empty(t, w.Body.String())
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("api error becomes a problem document", func(t *testing.T) {
		logger, logs := testutil.NewTestLogger(t)
		handler := NewErrorHandler(logger, false)

		w := httptest.NewRecorder()
		r := newProblemRequest(http.MethodPost, "/api/insert_one")
		handler.HandleError(w, r, NewWithDetails(
			http.StatusBadRequest, "VALIDATION_FAILED", "document is required", "document",
		))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeProblem(t, w)
		assert.Equal(t, TypeValidation, body["type"])
		assert.Equal(t, "Bad Request", body["title"])
		assert.Equal(t, float64(http.StatusBadRequest), body["status"])
		assert.Equal(t, "document is required", body["detail"])
		assert.Equal(t, "/api/insert_one", body["instance"])
		assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
		assert.Equal(t, "document", body["details"])
		assert.Equal(t, "req-test-1", body["trace_id"])

		assert.True(t, logs.ContainsMessage("request failed"))
		assert.True(t, logs.ContainsAttr("path", "/api/insert_one"))
	})

	t.Run("stack extension only with includeStack", func(t *testing.T) {
		logger, _ := testutil.NewTestLogger(t)

		w := httptest.NewRecorder()
		NewErrorHandler(logger, false).HandleError(w, newProblemRequest(http.MethodPost, "/api/drop"), errors.New("boom"))
		assert.NotContains(t, decodeProblem(t, w), "stack")

		w = httptest.NewRecorder()
		NewErrorHandler(logger, true).HandleError(w, newProblemRequest(http.MethodPost, "/api/drop"), errors.New("boom"))
		assert.Contains(t, decodeProblem(t, w), "stack")
	})

	t.Run("rate limit problems advertise retry_after", func(t *testing.T) {
		logger, _ := testutil.NewTestLogger(t)
		handler := NewErrorHandler(logger, false)

		w := httptest.NewRecorder()
		handler.HandleError(w, newProblemRequest(http.MethodPost, "/api/insert"), ErrRateLimitExceeded)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		body := decodeProblem(t, w)
		assert.Equal(t, TypeRateLimit, body["type"])
		assert.Equal(t, float64(60), body["retry_after"])
	})
}

func TestErrorHandler_ErrorToProblem(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
	}{
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "canceled",
			err:        context.Canceled,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "unknown operation api error",
			err:        ErrUnknownOperation,
			wantStatus: http.StatusNotFound,
			wantType:   TypeUnknownOperation,
			wantTitle:  "Not Found",
		},
		{
			name:       "run in progress api error",
			err:        ErrRunInProgress,
			wantStatus: http.StatusConflict,
			wantType:   TypeConflict,
			wantTitle:  "Conflict",
		},
		{
			name:       "database unavailable api error",
			err:        ErrDatabaseUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDatabaseUnavailable,
			wantTitle:  "Service Unavailable",
		},
		{
			name:       "unmapped api error code falls back to internal",
			err:        New(http.StatusBadGateway, "UPSTREAM_BROKE", "bad gateway"),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeInternal,
			wantTitle:  "Bad Gateway",
		},
		{
			name:       "server selection error",
			err:        errors.New("server selection error: context deadline exceeded, current topology: ..."),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDatabaseUnavailable,
			wantTitle:  "Database Unavailable",
		},
		{
			name:       "connection refused",
			err:        errors.New("dial tcp 127.0.0.1:27017: connect: connection refused"),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDatabaseUnavailable,
			wantTitle:  "Database Unavailable",
		},
		{
			name:       "duplicate key write error",
			err:        errors.New(`E11000 duplicate key error collection: testdb.test_collection index: _id_`),
			wantStatus: http.StatusConflict,
			wantType:   TypeConflict,
			wantTitle:  "Duplicate Key",
		},
		{
			name:       "not found text",
			err:        errors.New("ns not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantTitle:  "Resource Not Found",
		},
		{
			name:       "anything else is internal",
			err:        errors.New("bson cycle detected"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantTitle:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newProblemRequest(http.MethodPost, "/api/run_all")
			problem := handler.ErrorToProblem(tt.err, r)

			require.NotNil(t, problem)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.wantTitle, problem.Title)
			assert.Equal(t, "/api/run_all", problem.Instance)
		})
	}
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	t.Run("renders a 500 problem", func(t *testing.T) {
		logger, logs := testutil.NewTestLogger(t)
		handler := NewErrorHandler(logger, false)

		w := httptest.NewRecorder()
		handler.HandlePanic(w, newProblemRequest(http.MethodGet, "/api/operations"), "nil map write")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeProblem(t, w)
		assert.Equal(t, TypeInternal, body["type"])
		assert.Equal(t, "req-test-1", body["trace_id"])
		assert.NotContains(t, body, "panic")

		assert.True(t, logs.ContainsMessage("panic recovered"))
	})

	t.Run("exposes the panic value with includeStack", func(t *testing.T) {
		logger, _ := testutil.NewTestLogger(t)
		handler := NewErrorHandler(logger, true)

		w := httptest.NewRecorder()
		handler.HandlePanic(w, newProblemRequest(http.MethodGet, "/api/operations"), errors.New("boom"))

		body := decodeProblem(t, w)
		assert.Equal(t, "boom", body["panic"])
		assert.Contains(t, body, "stack")
	})
}

func TestErrorHandler_NotFound(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	handler.NotFound(w, newProblemRequest(http.MethodGet, "/api/nope"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, TypeNotFound, body["type"])
	assert.Equal(t, "Not Found", body["title"])
	assert.Equal(t, "/api/nope", body["instance"])
	assert.Equal(t, "req-test-1", body["trace_id"])
}

func TestErrorHandler_MethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	handler.MethodNotAllowed(w, newProblemRequest(http.MethodDelete, "/api/insert"))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, "Method Not Allowed", body["title"])
	assert.Equal(t, "Method DELETE is not allowed for this endpoint", body["detail"])
}
