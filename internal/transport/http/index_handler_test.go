package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mongosuite/internal/mongodb"
	"mongosuite/internal/shared/testutil"
)

func TestIndexHandlerRegistersEveryOperation(t *testing.T) {
	names := []string{
		"create_index", "create_indexes", "ensure_index",
		"reindex", "drop_index", "drop_indexes",
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			svc := new(MockOperationService)
			svc.On("Execute", name, mock.Anything).
				Return(map[string]interface{}{"index_name": "email_1"}, nil)

			logger, _ := testutil.NewTestLogger(t)
			handler := NewIndexHandler(svc, logger)
			router := apiRouter(handler.RegisterRoutes)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/"+name,
				testutil.JSONBody(t, map[string]interface{}{"keys": []interface{}{[]interface{}{"email", float64(1)}}}))
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			body := decodeEnvelope(t, rec)
			assert.Equal(t, true, body["success"])
			svc.AssertExpectations(t)
		})
	}
}

func TestIndexHandlerEmptySpecsIsBadRequest(t *testing.T) {
	svc := new(MockOperationService)
	svc.On("Execute", "create_indexes", mock.Anything).
		Return(nil, mongodb.ErrNoIndexSpecs)

	logger, _ := testutil.NewTestLogger(t)
	handler := NewIndexHandler(svc, logger)
	router := apiRouter(handler.RegisterRoutes)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/create_indexes",
		testutil.JSONBody(t, map[string]interface{}{"indexes": []interface{}{}}))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "No valid index specifications", body["error"])
}
