package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shinagawa-clinic/reservation-api/internal/handler/health"
	"github.com/shinagawa-clinic/reservation-api/internal/handler/public"
	"github.com/shinagawa-clinic/reservation-api/internal/handler/staff"
	"github.com/shinagawa-clinic/reservation-api/internal/middleware"
	"github.com/shinagawa-clinic/reservation-api/internal/web"
)

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reservation_api_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_api_requests_total",
			Help: "HTTP requests served.",
		},
		[]string{"method", "path", "status"},
	)
)

type Config struct {
	Production     bool
	RateLimitRPS   float64
	RateLimitBurst int
}

type Router struct {
	engine *gin.Engine
}

func NewRouter(
	publicH *public.Handler,
	staffH *staff.Handler,
	healthH *health.Handler,
	authMW *middleware.AuthMiddleware,
	cfg Config,
) *Router {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.Logger(),
		metricsMiddleware(),
	)
	engine.SetHTMLTemplate(web.Templates())

	engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/reservations/email/")
	})

	// The patient surface is reachable without any credential; rate limit
	// it per client IP.
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	patient := engine.Group("", rateLimiter.RateLimit())
	publicH.RegisterRoutes(patient)

	staffH.RegisterRoutes(engine, authMW)

	healthH.RegisterRoutes(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
