package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vetlink/citas-api/config"
	"github.com/vetlink/citas-api/internal/handler"
	appointmenthandler "github.com/vetlink/citas-api/internal/handler/appointment"
	"github.com/vetlink/citas-api/internal/middleware"
	"github.com/vetlink/citas-api/pkg/logger"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citas",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "citas",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		requestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		requestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}

type Dependencies struct {
	Config             *config.Config
	Logger             *logger.Logger
	AuthMiddleware     *middleware.AuthMiddleware
	HealthHandler      *handler.HealthHandler
	AppointmentHandler *appointmenthandler.Handler
}

// New assembles the gin engine: recovery, request id, logging, CORS,
// throttling and timeouts wrap every route; domain routes hang off /api.
func New(deps Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger.Zerolog()))
	r.Use(requestMetrics())

	corsConfig := middleware.DefaultCORSConfig()
	if len(deps.Config.CORS.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = deps.Config.CORS.AllowedOrigins
	}
	r.Use(middleware.CORS(corsConfig))

	if deps.Config.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   deps.Config.RateLimit.RequestsPerSecond,
			Burst: deps.Config.RateLimit.Burst,
		})
		r.Use(limiter.RateLimit())
	}

	r.Use(middleware.Timeout(middleware.DefaultTimeoutConfig()))

	r.GET("/health/live", deps.HealthHandler.LivenessCheck)
	r.GET("/health/ready", deps.HealthHandler.ReadinessCheck)
	r.GET("/metrics", deps.HealthHandler.MetricsHandler)

	api := r.Group("/api")
	deps.AppointmentHandler.RegisterRoutes(api, deps.AuthMiddleware)

	return r
}
