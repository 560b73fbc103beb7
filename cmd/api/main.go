package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/fisioflow/agenda-api/internal/config"
	"github.com/fisioflow/agenda-api/internal/handler"
	"github.com/fisioflow/agenda-api/internal/handler/appointment"
	"github.com/fisioflow/agenda-api/internal/handler/workinghours"
	"github.com/fisioflow/agenda-api/internal/middleware"
	cacherepo "github.com/fisioflow/agenda-api/internal/repository/cache"
	"github.com/fisioflow/agenda-api/internal/repository/postgres"
	"github.com/fisioflow/agenda-api/internal/router"
	"github.com/fisioflow/agenda-api/internal/service/audit"
	"github.com/fisioflow/agenda-api/internal/service/notification"
	"github.com/fisioflow/agenda-api/internal/service/scheduling"
	"github.com/fisioflow/agenda-api/pkg/auth"
	"github.com/fisioflow/agenda-api/pkg/locker"
	redisbroker "github.com/fisioflow/agenda-api/pkg/messaging/redis"
	"github.com/fisioflow/agenda-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	// Repositories
	appointmentRepo := postgres.NewAppointmentRepository(db)
	hoursRepo := cacherepo.NewWorkingHoursRepository(
		postgres.NewWorkingHoursRepository(db),
		cacherepo.Config{
			TTL:             time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
			CleanupInterval: time.Duration(cfg.Cache.CleanupMinutes) * time.Minute,
		},
	)

	// The booking lock shares the broker's connection pool.
	redisClient := broker.(*redisbroker.RedisBroker).Client()
	bookingLock := locker.NewRedisLocker(redisClient, time.Duration(cfg.Locker.TTLSeconds)*time.Second)

	auditTrail, err := audit.NewProductionService()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize audit trail")
	}
	defer auditTrail.Sync()

	m := metrics.NewMetrics(cfg.Metrics.Namespace)
	notifier := notification.NewService(broker, &log.Logger, m)

	schedulingSvc := scheduling.NewService(
		appointmentRepo,
		hoursRepo,
		notifier,
		bookingLock,
		auditTrail,
		m,
		&log.Logger,
	)

	// Handlers
	h := handler.NewHandler(db)
	appointmentHandler := appointment.NewHandler(schedulingSvc)
	hoursHandler := workinghours.NewHandler(hoursRepo)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	r := router.NewRouter(authMiddleware, appointmentHandler, hoursHandler, h, router.Config{
		RateLimit:     rate.Limit(cfg.Server.RateLimitRPS),
		RateBurst:     cfg.Server.RateLimitBurst,
		CORSConfig:    middleware.DefaultCORSConfig(),
		MetricsPrefix: cfg.Metrics.Namespace + "_http",
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("scheduling API started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
