package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mongosuite/internal/mongodb"
	"mongosuite/internal/shared/testutil"
)

// MockOperationService is a mock implementation of OperationService.
type MockOperationService struct {
	mock.Mock
}

func (m *MockOperationService) Execute(ctx context.Context, name string, payload map[string]interface{}) (map[string]interface{}, error) {
	args := m.Called(name, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockOperationService) Stats(ctx context.Context) (map[string]interface{}, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockOperationService) OperationGroups() map[string][]string {
	args := m.Called()
	return args.Get(0).(map[string][]string)
}

// apiRouter mounts a handler's routes under /api the way the server does.
func apiRouter(register func(chi.Router)) chi.Router {
	root := chi.NewRouter()
	root.Route("/api", func(api chi.Router) { register(api) })
	return root
}

// decodeEnvelope parses a recorded JSON response body.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDecodeBody(t *testing.T) {
	t.Run("absent body decodes to empty payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/drop", nil)

		payload, err := decodeBody(req)
		require.NoError(t, err)
		assert.Empty(t, payload)
		assert.NotNil(t, payload)
	})

	t.Run("whitespace body decodes to empty payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/drop", strings.NewReader(" \n\t"))

		payload, err := decodeBody(req)
		require.NoError(t, err)
		assert.Empty(t, payload)
	})

	t.Run("object body decodes to payload map", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/find",
			strings.NewReader(`{"filter": {"department": "Engineering"}, "limit": 10}`))

		payload, err := decodeBody(req)
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"department": "Engineering"}, payload["filter"])
		assert.Equal(t, float64(10), payload["limit"])
	})

	t.Run("truncated JSON is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/find", strings.NewReader(`{"filter":`))

		_, err := decodeBody(req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid JSON body")
	})

	t.Run("non-object JSON is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/find", strings.NewReader(`[1, 2, 3]`))

		_, err := decodeBody(req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid JSON body")
	})
}

func TestExecuteOperationEnvelope(t *testing.T) {
	t.Run("success wraps result in data", func(t *testing.T) {
		svc := new(MockOperationService)
		svc.On("Execute", "insert_one", mock.Anything).
			Return(map[string]interface{}{"acknowledged": true, "inserted_id": "abc123"}, nil)

		logger, _ := testutil.NewTestLogger(t)
		handler := NewDocumentHandler(svc, logger)
		router := apiRouter(handler.RegisterRoutes)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/insert_one",
			testutil.JSONBody(t, map[string]interface{}{"document": testutil.SampleUserDocument()}))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

		body := decodeEnvelope(t, rec)
		assert.Equal(t, true, body["success"])
		data, ok := body["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "abc123", data["inserted_id"])
		svc.AssertExpectations(t)
	})

	t.Run("input sentinel maps to 400", func(t *testing.T) {
		svc := new(MockOperationService)
		svc.On("Execute", "insert_one", mock.Anything).
			Return(nil, fmt.Errorf("insert_one: %w", mongodb.ErrMissingDocument))

		logger, _ := testutil.NewTestLogger(t)
		handler := NewDocumentHandler(svc, logger)
		router := apiRouter(handler.RegisterRoutes)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/insert_one",
			testutil.JSONBody(t, map[string]interface{}{"filter": map[string]interface{}{}}))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "Missing 'document' or 'documents' field")
		assert.NotContains(t, body, "data")
	})

	t.Run("execution failure maps to 500", func(t *testing.T) {
		svc := new(MockOperationService)
		svc.On("Execute", "find", mock.Anything).
			Return(nil, errors.New("server selection timeout"))

		logger, handler := testutil.NewTestLogger(t)
		docs := NewDocumentHandler(svc, logger)
		router := apiRouter(docs.RegisterRoutes)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/find",
			testutil.JSONBody(t, map[string]interface{}{"filter": map[string]interface{}{}}))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "server selection timeout", body["error"])
		assert.True(t, handler.ContainsMessage("operation request failed"))
	})

	t.Run("malformed body maps to 400 without invoking the service", func(t *testing.T) {
		svc := new(MockOperationService)

		logger, handler := testutil.NewTestLogger(t)
		docs := NewDocumentHandler(svc, logger)
		router := apiRouter(docs.RegisterRoutes)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/update_one", strings.NewReader(`{"filter": `))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "invalid JSON body")
		assert.True(t, handler.ContainsMessage("malformed request body"))
		svc.AssertNotCalled(t, "Execute")
	})

	t.Run("empty body reaches the service as an empty payload", func(t *testing.T) {
		svc := new(MockOperationService)
		svc.On("Execute", "delete_many", map[string]interface{}{}).
			Return(map[string]interface{}{"deleted_count": float64(0)}, nil)

		logger, _ := testutil.NewTestLogger(t)
		docs := NewDocumentHandler(svc, logger)
		router := apiRouter(docs.RegisterRoutes)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/delete_many", nil)
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})
}
