package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/config"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/service"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
)

func newTestRouter(t *testing.T, rl config.RateLimitConfig) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewCollector("router_test", reg)
	log := zaptest.NewLogger(t)

	svc := service.New(service.Repositories{}, nil, m, log)
	t.Cleanup(svc.Audit.Shutdown)

	return NewRouter(Deps{
		Config: &config.Config{
			App:       config.AppConfig{Name: "router-test", Environment: "test", Version: "1.2.3"},
			RateLimit: rl,
			CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		},
		Services:    svc,
		Metrics:     m,
		Gatherer:    reg,
		RateLimiter: middleware.NewIPRateLimiter(rl),
		Log:         log,
	})
}

func TestHealthAndMetricsBypassRateLimit(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	for range 3 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "router_test_http_requests_total")
}

func TestAPIIsRateLimited(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	// Doctor id is blank in the path so the service rejects before any store call.
	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/doctors/%20/settings", nil))
	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/doctors/%20/settings", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
