package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/config"
	v1 "github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/service"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
)

type Deps struct {
	Config      *config.Config
	Services    *service.Services
	JWT         *auth.JWTManager
	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
	RateLimiter *middleware.IPRateLimiter
	Log         *zap.Logger
}

// NewRouter builds the gin engine. /health and /metrics sit outside the
// auth and rate limit chain.
func NewRouter(d Deps) *gin.Engine {
	if d.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(d.Log),
		middleware.Logger(d.Log),
		middleware.CORS(d.Config.CORS),
		middleware.Metrics(d.Metrics),
	)

	r.GET("/health", v1.Health(d.Config.App.Version))
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler(d.Gatherer)))

	api := r.Group("/api/v1")
	api.Use(
		middleware.RateLimit(d.RateLimiter, d.Metrics),
		middleware.Auth(d.Config.Auth.Enabled, d.JWT),
	)
	v1.NewHandler(d.Services).RegisterRoutes(api)

	return r
}
