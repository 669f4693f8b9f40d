package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/codearena/judge/internal/data"
	"github.com/codearena/judge/internal/handler"
	"github.com/codearena/judge/internal/infrastructure"
	"github.com/codearena/judge/internal/judge"
	"github.com/codearena/judge/internal/middleware"
	"github.com/codearena/judge/internal/repository"
	"github.com/codearena/judge/internal/service"
)

func main() {
	// Load configuration
	config := infrastructure.LoadConfig()

	// Initialize logger
	logger, err := infrastructure.NewLogger(config.Server.Environment)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer infrastructure.SyncLogger(logger)

	logger.Info("Starting CodeArena judge API",
		zap.String("environment", config.Server.Environment),
		zap.Int("port", config.Server.Port),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize telemetry
	telemetry, err := infrastructure.NewTelemetry(ctx, &config.Telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		telemetry.Shutdown(shutdownCtx)
	}()

	metrics, err := telemetry.CreateMetrics()
	if err != nil {
		logger.Error("Failed to create metrics", zap.Error(err))
		os.Exit(1)
	}

	// Catalog database holds problems and contests; judge state lives in Redis
	database, err := infrastructure.NewDatabase(&config.Database, logger)
	if err != nil {
		logger.Error("Failed to connect to catalog database", zap.Error(err))
		os.Exit(1)
	}
	defer database.Close()

	if err := database.AutoMigrate(); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		os.Exit(1)
	}

	seeder := data.NewSeeder(database.DB, logger)
	if err := seeder.SeedCatalog(); err != nil {
		logger.Error("Failed to seed catalog", zap.Error(err))
		os.Exit(1)
	}

	kv, err := infrastructure.NewRedisStore(ctx, &config.Redis, logger)
	if err != nil {
		logger.Error("Failed to connect to Redis", zap.Error(err))
		os.Exit(1)
	}
	defer kv.Close()

	// Initialize repositories
	problemRepo := repository.NewProblemRepository(database.DB)
	contestRepo := repository.NewContestRepository(database.DB)
	submissionRepo := repository.NewSubmissionRepository(kv, config.Judge.SubmissionHistoryLimit)
	statsRepo := repository.NewStatsRepository(kv)
	leaderboardRepo := repository.NewLeaderboardRepository(kv, config.Judge.LeaderboardLimit)
	participantRepo := repository.NewParticipantRepository(kv)
	discussionRepo := repository.NewDiscussionRepository(kv)

	// Initialize judge engine and services
	engine := judge.NewEngine(judge.NewSimulatedExecutor(), telemetry.Tracer, logger).
		WithCaseTimeout(config.Judge.CaseTimeout)
	judgeService := service.NewJudgeService(engine, problemRepo, submissionRepo, statsRepo, leaderboardRepo, metrics, telemetry.Tracer, logger)
	contestService := service.NewContestService(contestRepo, participantRepo, statsRepo, telemetry.Tracer, logger)
	discussionService := service.NewDiscussionService(discussionRepo, telemetry.Tracer, logger)

	// Initialize handlers
	judgeHandler := handler.NewJudgeHandler(judgeService)
	contestHandler := handler.NewContestHandler(contestService)
	discussionHandler := handler.NewDiscussionHandler(discussionService)

	// Setup Gin router
	if config.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add global middleware
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig()))
	router.Use(middleware.TracingMiddleware(telemetry.Tracer))
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.OptionalAuthMiddleware(&config.JWT))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "catalog database connection failed",
			})
			return
		}
		if err := kv.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "key-value store connection failed",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": config.Telemetry.ServiceVersion,
		})
	})

	// Metrics endpoint for Prometheus
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Judge routes
	router.POST("/execute-code", judgeHandler.ExecuteCode)
	router.POST("/submit-code", judgeHandler.SubmitCode)
	router.GET("/submissions/:problemId", judgeHandler.GetSubmissions)
	router.GET("/leaderboard/:type/:id", judgeHandler.GetLeaderboard)
	router.GET("/user-stats", judgeHandler.GetUserStats)

	// Contest routes
	router.GET("/contests", contestHandler.GetContests)
	router.POST("/contests/:id/join", contestHandler.JoinContest)

	// Discussion routes
	router.GET("/discussions/:problemId", discussionHandler.GetDiscussions)
	router.POST("/discussions/:problemId", discussionHandler.PostDiscussion)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server starting",
			zap.String("address", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
