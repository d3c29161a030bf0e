package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"mongosuite/internal/services"
	"mongosuite/internal/shared/testutil"
)

type stubHealthService struct {
	health services.HealthStatus
	ready  bool
}

func (s *stubHealthService) Health(ctx context.Context) services.HealthStatus {
	return s.health
}

func (s *stubHealthService) Ready(ctx context.Context) (services.HealthStatus, bool) {
	status := s.health
	if !s.ready {
		status.Status = "not_ready"
	} else {
		status.Status = "ready"
	}
	return status, s.ready
}

func (s *stubHealthService) Live(ctx context.Context) services.HealthStatus {
	return services.HealthStatus{Status: "alive", Timestamp: time.Now().UTC()}
}

func healthRouter(svc HealthService, t *testing.T) chi.Router {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewHealthHandler(svc, logger)
	root := chi.NewRouter()
	handler.RegisterRoutes(root)
	return root
}

func TestHealthEndpointsAnswerBareDocuments(t *testing.T) {
	svc := &stubHealthService{
		health: services.HealthStatus{
			Status:        "healthy",
			Timestamp:     time.Now().UTC(),
			Observability: map[string]interface{}{"opentelemetry": "disabled"},
		},
		ready: true,
	}
	router := healthRouter(svc, t)

	for _, path := range []string{"/health", "/api/health"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "healthy", body["status"], path)
		assert.NotContains(t, body, "success", path)
	}
}

func TestReadinessGatesOnDatabase(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		router := healthRouter(&stubHealthService{ready: true}, t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health/ready", nil)
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "ready", body["status"])
	})

	t.Run("not ready", func(t *testing.T) {
		router := healthRouter(&stubHealthService{ready: false}, t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health/ready", nil)
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "not_ready", body["status"])
	})
}

func TestLivenessAlwaysAnswers(t *testing.T) {
	router := healthRouter(&stubHealthService{ready: false}, t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health/live", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "alive", body["status"])
}
