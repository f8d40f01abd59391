package healthcheck

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	storagemock "gitlab.com/timkado/api/lead-onboarding-gateway/internal/storage/mock"
)

func doGet(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var resp HealthResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	s := NewServer(0, nil, "1.2.3", zaptest.NewLogger(t))

	rec, resp := doGet(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "UP", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestReady_DatabaseUp(t *testing.T) {
	db := new(storagemock.PingerMock)
	db.On("Ping", mock.Anything).Return(nil)
	s := NewServer(0, db, "", zaptest.NewLogger(t))

	rec, resp := doGet(t, s, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "READY", resp.Status)
	assert.Equal(t, "UP", resp.Details["database"])
	assert.NotEmpty(t, resp.Details["timestamp"])
	db.AssertExpectations(t)
}

func TestReady_DatabaseDown(t *testing.T) {
	db := new(storagemock.PingerMock)
	db.On("Ping", mock.Anything).Return(errors.New("connection refused"))
	s := NewServer(0, db, "", zaptest.NewLogger(t))

	rec, resp := doGet(t, s, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "NOT_READY", resp.Status)
	assert.Equal(t, "DOWN", resp.Details["database"])
}

func TestReady_NoDatabase(t *testing.T) {
	s := NewServer(0, nil, "", zaptest.NewLogger(t))

	rec, resp := doGet(t, s, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	_, hasDB := resp.Details["database"]
	assert.False(t, hasDB)
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(0, nil, "", zaptest.NewLogger(t))

	rec, _ := doGet(t, s, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.RegisterMetricsHandler(promhttp.Handler())
	rec, _ = doGet(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
