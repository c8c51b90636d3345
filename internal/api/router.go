package api

import (
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/repo-analyzer/analyzer-gateway/internal/api/handlers"
	"github.com/repo-analyzer/analyzer-gateway/internal/api/middleware"
	"github.com/repo-analyzer/analyzer-gateway/internal/config"
	"github.com/repo-analyzer/analyzer-gateway/internal/service"
	"github.com/repo-analyzer/analyzer-gateway/internal/websocket"
	"github.com/repo-analyzer/analyzer-gateway/pkg/analyzer"
	"github.com/repo-analyzer/analyzer-gateway/pkg/logger"
	"github.com/repo-analyzer/analyzer-gateway/pkg/ratelimit"
)

// SetupRouter API 라우터 설정. 반환된 PollService는 종료 시 StopAll로 정리한다.
func SetupRouter(cfg *config.Config) (*gin.Engine, *service.PollService) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadSize

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Analyzer 클라이언트 초기화
	analyzerClient, err := analyzer.NewClient(cfg.AnalyzerURL, cfg.SubmitTimeout)
	if err != nil {
		panic("Failed to create analyzer client: " + err.Error())
	}

	// WebSocket Hub 초기화 및 시작
	wsHub := websocket.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Service 초기화
	submissionService := service.NewSubmissionService(analyzerClient)
	pollService := service.NewPollService(analyzerClient, wsHub, cfg.PollInterval, cfg.RequestTimeout)

	// 제출 Rate Limit: Redis가 설정되면 분산 버전 사용
	submissionLimit := middleware.SubmissionRateLimit()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("Invalid REDIS_URL, falling back to in-memory rate limit", "error", err)
		} else {
			redisLimiter := ratelimit.NewRedisRateLimiter(redis.NewClient(opts), "ratelimit:")
			submissionLimit = middleware.RedisSubmissionRateLimit(redisLimiter)
			logger.Info("Using Redis rate limiter", "url", cfg.RedisURL)
		}
	}

	// Handler 초기화
	submissionHandler := handlers.NewSubmissionHandler(submissionService, pollService, analyzerClient)
	wsHandler := handlers.NewWebSocketHandler(wsHub, pollService)

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// 정적 뷰 서빙
	router.StaticFile("/", filepath.Join(cfg.StaticDir, "index.html"))
	router.StaticFile("/index.html", filepath.Join(cfg.StaticDir, "index.html"))
	router.StaticFile("/verify.html", filepath.Join(cfg.StaticDir, "verify.html"))

	// API v1
	v1 := router.Group("/api/v1")
	{
		submissions := v1.Group("/submissions")
		{
			submissions.POST("", submissionLimit, submissionHandler.CreateSubmission)
			submissions.GET("/:jobId", submissionHandler.GetJobStatus)
			submissions.GET("/:jobId/ws", wsHandler.HandleWebSocket)
		}
	}

	return router, pollService
}
