package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eventscout-backend/attendance"
	"eventscout-backend/config"
	"eventscout-backend/handlers"
	"eventscout-backend/logging"
	"eventscout-backend/middleware"
	"eventscout-backend/search"
	"eventscout-backend/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Info().Msg(".env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	pool, err := store.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logging.Fatal().Err(err).Msg("unable to connect to database")
	}
	defer pool.Close()
	logging.Info().Msg("connected to the database")

	db := store.New(pool, cfg.Database.QueryTimeout)
	if cfg.Database.MigrateOnStart {
		if err := db.Migrate(ctx); err != nil {
			logging.Fatal().Err(err).Msg("schema migration failed")
		}
	}

	engine := search.NewEngine(db, search.Options{
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
		MaxRadiusMeters: cfg.Search.MaxRadiusKm * 1000,
	})
	ledger := attendance.NewLedger(db)

	if cfg.Attendance.ReconcileSchedule != "" {
		reconciler, err := attendance.NewReconciler(db, cfg.Attendance.ReconcileSchedule, time.Minute)
		if err != nil {
			logging.Fatal().Err(err).Msg("invalid reconcile schedule")
		}
		reconciler.Start()
		defer reconciler.Stop()
	}

	// Create handlers
	eventHandler := handlers.NewEventHandler(engine)
	checkinHandler := handlers.NewCheckinHandler(ledger)
	statsHandler := handlers.NewStatsHandler(ledger)
	healthHandler := handlers.NewHealthHandler(db)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	// ClientIP keys the rate limiter, so forwarded headers are honoured only from known proxies.
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logging.Fatal().Err(err).Msg("invalid trusted proxies")
	}
	router.Use(gin.Recovery(), middleware.RequestLogger())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader, "X-Next-Cursor"}
	router.Use(cors.New(corsConfig))

	if cfg.Server.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
		defer limiter.Stop()
		router.Use(limiter.Middleware())
	}

	if cfg.Auth.JWTSecret == "" {
		logging.Warn().Msg("JWT_SECRET not set, check-ins are accepted without authentication")
	}
	handlers.SetupRoutes(router, eventHandler, checkinHandler, statsHandler, healthHandler,
		middleware.ParticipantAuth(cfg.Auth.JWTSecret))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Int("port", cfg.Server.Port).Str("environment", cfg.Server.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}
