package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/yourusername/studyjams-leaderboard/internal/app"
	"github.com/yourusername/studyjams-leaderboard/internal/config"
	"github.com/yourusername/studyjams-leaderboard/internal/domain/repository"
	"github.com/yourusername/studyjams-leaderboard/internal/handler"
	"github.com/yourusername/studyjams-leaderboard/internal/middleware"
	redisRepo "github.com/yourusername/studyjams-leaderboard/internal/repository/redis"
	"github.com/yourusername/studyjams-leaderboard/internal/service"
	"github.com/yourusername/studyjams-leaderboard/pkg/database"
	"github.com/yourusername/studyjams-leaderboard/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("configuration loaded",
		zap.String("path", configPath),
		zap.String("source_mode", cfg.Source.Mode),
		zap.String("formula", cfg.Ranking.Formula),
	)

	// Контекст приложения: отменяется при получении сигнала завершения
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis опционален: без него нет кеша снимков и rate limit
	var (
		redisClient redis.UniversalClient
		cacheRepo   repository.CacheRepository
	)
	if cfg.Redis.Enabled() {
		redisClient, err = database.NewUniversalRedisClient(ctx, cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisClient.Close()

		repo, err := redisRepo.NewCacheRepo(redisClient)
		if err != nil {
			return fmt.Errorf("failed to initialize CacheRepo: %w", err)
		}
		cacheRepo = repo
		log.Info("successfully connected to Redis")
	} else {
		log.Warn("redis is not configured, snapshot cache and rate limiting are disabled")
	}

	pipeline, err := app.NewPipeline(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build ingestion pipeline: %w", err)
	}

	generator, err := app.NewInsightGenerator(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize insights: %w", err)
	}
	digest, err := app.NewDigestSender(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize digest sender: %w", err)
	}

	leaderboardService := service.NewLeaderboardService(pipeline, cacheRepo, cfg.Cache.TTL, cfg.Cache.KeyPrefix, log.Named("leaderboard"))
	insightService := service.NewInsightService(leaderboardService, generator, digest, log.Named("insights"))

	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService, log)
	insightHandler := handler.NewInsightHandler(insightService, log)
	pageHandler := handler.NewPageHandler(leaderboardService, log)

	rateLimiter := middleware.NewRateLimiter(redisClient, log.Named("ratelimit"))

	isProduction := gin.Mode() == gin.ReleaseMode

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log.Named("http")))

	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Warn("failed to set trusted proxies", zap.Error(err))
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Warn("failed to set trusted proxies", zap.Error(err))
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	tmpl, err := handler.LoadTemplates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	router.GET("/", pageHandler.Index)
	router.GET("/participant/:id", middleware.ExtractParticipantID("id"), pageHandler.Participant)
	router.GET("/healthz", leaderboardHandler.Health)

	refreshLimit := rateLimiter.Limit(middleware.RefreshRateLimitConfig(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window))
	insightsLimit := rateLimiter.Limit(middleware.InsightsRateLimitConfig(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window))

	api := router.Group("/api")
	{
		api.GET("/participants", leaderboardHandler.ListParticipants)
		api.GET("/participants/:id", middleware.ExtractParticipantID("id"), leaderboardHandler.GetParticipant)
		api.GET("/stats", leaderboardHandler.GetStats)
		api.GET("/export", leaderboardHandler.Export)
		api.POST("/refresh", refreshLimit, leaderboardHandler.Refresh)

		insights := api.Group("/insights")
		insights.Use(insightsLimit)
		{
			insights.POST("", insightHandler.GenerateInsights)
			insights.POST("/digest", insightHandler.SendDigest)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited properly")
	return nil
}
