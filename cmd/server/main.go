package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/metrorail/induction-planner/internal/adapter"
	"github.com/metrorail/induction-planner/internal/common/cache"
	"github.com/metrorail/induction-planner/internal/common/config"
	"github.com/metrorail/induction-planner/internal/common/database"
	"github.com/metrorail/induction-planner/internal/common/health"
	"github.com/metrorail/induction-planner/internal/common/logging"
	"github.com/metrorail/induction-planner/internal/common/middleware"
	"github.com/metrorail/induction-planner/internal/common/ratelimit"
	"github.com/metrorail/induction-planner/internal/httpapi"
	"github.com/metrorail/induction-planner/internal/plan"
	"github.com/metrorail/induction-planner/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()

	loggerConfig := &logging.LoggerConfig{
		Level:      logging.LogLevel(cfg.LogLevel),
		Format:     "json",
		Output:     os.Stdout,
		AddSource:  true,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	logger := logging.NewLogger(loggerConfig)
	logging.InitDefaultLogger(loggerConfig)

	logger.Info("Starting induction planning engine", "version", "1.0.0")

	logger.Info("Connecting to database...")
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close(db)
	logger.Info("Database connected successfully")

	sqlDB, _ := db.DB()
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	slowQueryLogger := logging.NewSlowQueryLogger(logger, 100*time.Millisecond)
	db.Logger = slowQueryLogger

	logger.Info("Connecting to Redis...")
	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connected successfully")

	if err := db.AutoMigrate(&repository.TrainRecord{}, &repository.PlanRecord{}); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		log.Fatal("Failed to migrate database:", err)
	}
	logger.Info("Database schema migrated")

	trainRepo := repository.NewGormTrainRepository(db)
	planRepo := repository.NewGormPlanRepository(db)

	optimizerAdapter := adapter.New(adapter.Config{
		BaseURL: cfg.ExternalOptimizerURL,
		Timeout: cfg.OptimizerTimeout,
	}, slog.Default())

	planCache := cache.NewRedisCache(redisClient, "induction")

	planService := plan.New(trainRepo, planRepo, optimizerAdapter, planCache, logger.Logger, time.Now)

	auditLogger := logging.NewAuditLogger(logger, db)
	logger.Info("Audit logging initialized")

	healthChecker := health.NewHealthChecker(db, redisClient, "induction-planning-engine", "1.0.0")
	healthHandler := health.NewHandler(healthChecker)
	metricsHandler := health.NewMetricsHandler(healthChecker)
	logger.Info("Health check system initialized")

	r := gin.New()

	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(logging.RequestLoggingMiddleware(logger))
	r.Use(logging.PerformanceLoggingMiddleware(logger, 1*time.Second))
	r.Use(logging.ErrorLoggingMiddleware(logger))
	r.Use(logging.RecoveryLoggingMiddleware(logger))
	r.Use(middleware.ErrorHandler())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.SecurityHeaders())

	apiVersionConfig := middleware.DefaultAPIVersionConfig()
	r.Use(middleware.APIVersionMiddleware(apiVersionConfig))

	r.Use(logging.AuditMiddleware(auditLogger))

	limiter := ratelimit.New(60, 10)
	responseCache := middleware.NewCacheMiddleware(redisClient, "induction")

	handler := httpapi.NewHandler(planService)
	httpapi.SetupRoutes(r, handler, cfg.JWTSecret, limiter, responseCache)

	health.SetupHealthRoutes(r, healthHandler)
	health.SetupMetricsRoutes(r, metricsHandler)
	logger.Info("Health check endpoints configured")

	srv := &http.Server{
		Addr:    cfg.HTTPBind,
		Handler: r,
	}

	go func() {
		logger.Info("Induction planning engine starting",
			"bind", cfg.HTTPBind,
			"health_check", "http://localhost"+cfg.HTTPBind+"/health",
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Warn("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited gracefully")
}
