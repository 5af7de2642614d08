package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jaivikpatel2001/sendme/internal/assignment"
	"github.com/jaivikpatel2001/sendme/internal/booking"
	"github.com/jaivikpatel2001/sendme/internal/catalog"
	"github.com/jaivikpatel2001/sendme/internal/fare"
	"github.com/jaivikpatel2001/sendme/internal/promo"
	"github.com/jaivikpatel2001/sendme/internal/routing"
	"github.com/jaivikpatel2001/sendme/pkg/common"
	"github.com/jaivikpatel2001/sendme/pkg/config"
	"github.com/jaivikpatel2001/sendme/pkg/database"
	"github.com/jaivikpatel2001/sendme/pkg/logger"
	"github.com/jaivikpatel2001/sendme/pkg/middleware"
	"github.com/jaivikpatel2001/sendme/pkg/redis"
	"github.com/jaivikpatel2001/sendme/pkg/validation"
)

const serviceName = "booking"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Connect to PostgreSQL
	pool, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(pool)
	logger.Info("Connected to PostgreSQL database")

	// Connect to Redis
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	// Routing provider (falls back to great-circle without an API key)
	routes, err := routing.NewService(cfg.Routing)
	if err != nil {
		logger.Fatal("Failed to create routing service", zap.Error(err))
	}

	// Wire services
	bookingStore := booking.NewRepository(pool)
	promoEngine := promo.NewEngine(promo.NewRepository(pool))
	bookingService := booking.NewService(
		bookingStore,
		catalog.NewRepository(pool),
		routes,
		fare.NewCalculator(cfg.Booking.PerStopSurcharge),
		promoEngine,
		booking.NewEarningsRepository(pool),
		cfg.Booking,
	)
	broker := assignment.NewService(
		bookingService,
		bookingStore,
		assignment.NewRepository(pool),
		assignment.NewRedisOfferLock(redisClient.Client),
		cfg.Booking.OfferTTL,
	)

	bookingHandler := booking.NewHandler(bookingService)
	assignmentHandler := assignment.NewHandler(broker)

	// Set up Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validation.RegisterGinValidators()
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(serviceName))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"}
	router.Use(cors.New(corsConfig))

	// Health check and metrics
	router.GET("/healthz", common.HealthCheckWithDeps(serviceName, "1.0.0", map[string]func() error{
		"postgres": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(ctx)
		},
		"redis": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx).Err()
		},
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	bookingHandler.RegisterRoutes(api)
	assignmentHandler.RegisterRoutes(api)

	addr := ":" + cfg.Server.Port
	logger.Info("Booking service starting", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
