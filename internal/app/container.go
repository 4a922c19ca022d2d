package app

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/parking-booking-backend/internal/api"
	"github.com/nekogravitycat/parking-booking-backend/internal/auth"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/clock"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/metrics"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/ratelimit"
	"github.com/nekogravitycat/parking-booking-backend/internal/reservation"
	"github.com/nekogravitycat/parking-booking-backend/internal/resource"
	"github.com/nekogravitycat/parking-booking-backend/internal/user"
)

// Registry is the Prometheus registry metrics are registered on and served from.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// Config holds the dependencies and settings required to start the application.
// Exactly one of DBPool and SQLite must be set; DBPool wins if both are.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	SQLite       *sql.DB
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int
	// Redis is optional; nil disables rate limiting.
	Redis           *redis.Client
	RateLimitPerMin int
	MaxPageSize     int
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Registry defaults to a fresh registry.
	Registry Registry
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router       *gin.Engine
	JWTManager   *auth.JWTManager
	Users        user.Service
	Resources    resource.Service
	Reservations reservation.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	// Init Components
	keyHasher := auth.NewBcryptKeyHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	m := metrics.NewWithRegistry(cfg.Registry)

	// Storage
	var (
		userRepo  user.Repository
		resRepo   resource.Repository
		resvStore reservation.Store
	)
	if cfg.DBPool != nil {
		userRepo = user.NewPgxRepository(cfg.DBPool)
		resRepo = resource.NewPgxRepository(cfg.DBPool)
		resvStore = reservation.NewPgxStore(cfg.DBPool)
	} else {
		userRepo = user.NewSQLiteRepository(cfg.SQLite, cfg.Clock)
		resRepo = resource.NewSQLiteRepository(cfg.SQLite, cfg.Clock)
		resvStore = reservation.NewSQLiteStore(cfg.SQLite, cfg.Clock)
	}

	// User Module
	userService := user.NewService(userRepo, keyHasher)

	// Resource Module
	resService := resource.NewService(resRepo)

	// Reservation Module
	resvService := reservation.NewService(resvStore, resService, reservation.ServiceConfig{
		Clock:       cfg.Clock,
		Metrics:     m,
		MaxPageSize: cfg.MaxPageSize,
	})

	// API Router Config
	routerParams := api.Config{
		IsProduction:       cfg.IsProduction,
		ProdOrigins:        cfg.ProdOrigins,
		UserService:        userService,
		ResService:         resService,
		ReservationService: resvService,
		JWTManager:         jwtManager,
		Store:              resvStore,
		Metrics:            m,
		Gatherer:           cfg.Registry,
	}
	if cfg.Redis != nil && cfg.RateLimitPerMin > 0 {
		routerParams.Limiter = ratelimit.NewLimiter(cfg.Redis, cfg.RateLimitPerMin, time.Minute)
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:       router,
		JWTManager:   jwtManager,
		Users:        userService,
		Resources:    resService,
		Reservations: resvService,
	}
}
