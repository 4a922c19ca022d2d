package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nekogravitycat/parking-booking-backend/internal/auth"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/logger"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/metrics"
	"github.com/nekogravitycat/parking-booking-backend/internal/reservation"
	resvHttp "github.com/nekogravitycat/parking-booking-backend/internal/reservation/http"
	"github.com/nekogravitycat/parking-booking-backend/internal/resource"
	resHttp "github.com/nekogravitycat/parking-booking-backend/internal/resource/http"
	"github.com/nekogravitycat/parking-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/parking-booking-backend/internal/user/http"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	IsProduction bool
	ProdOrigins  string

	UserService        user.Service
	ResService         resource.Service
	ReservationService reservation.Service
	JWTManager         *auth.JWTManager

	Store    Pinger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// Limiter is optional; nil disables rate limiting.
	Limiter Limiter
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - RequestID and RequestLogger: structured access log per request.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	// - Metrics: Prometheus request counters and latency.
	r.Use(RequestID(), RequestLogger(), gin.Recovery(), Metrics(cfg.Metrics))

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		config.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		config.AllowOrigins = []string{
			"http://localhost:8081", // Swagger
			"http://localhost:3000",
		}
	}
	config.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", auth.APIKeyHeader, requestIDHeader}
	config.ExposeHeaders = []string{"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset", requestIDHeader}
	r.Use(cors.New(config))

	r.GET("/healthcheck", healthcheck(cfg.Store))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))

	// protected: authentication, then the per-caller rate limit.
	protected := []gin.HandlerFunc{auth.AuthRequired(cfg.JWTManager, cfg.UserService)}
	if cfg.Limiter != nil {
		protected = append(protected, RateLimit(cfg.Limiter, cfg.Metrics))
	}
	adminMiddleware := auth.RequireAdmin()

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	resHandler := resHttp.NewHandler(cfg.ResService)
	resvHandler := resvHttp.NewHandler(cfg.ReservationService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, adminMiddleware, protected...)
		resHttp.RegisterRoutes(v1, resHandler, adminMiddleware, protected...)
		resvHttp.RegisterRoutes(v1, resvHandler, protected...)
	}

	return r
}

func healthcheck(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			logger.Error("healthcheck failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Service is unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Service is healthy"})
	}
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
