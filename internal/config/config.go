package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Analyzer (외부 평가 서비스)
	AnalyzerURL    string
	SubmitTimeout  time.Duration
	PollInterval   time.Duration
	RequestTimeout time.Duration

	// Redis (설정 시 분산 Rate Limit 사용)
	RedisURL string

	// Upload
	MaxUploadSize int64

	// Static views
	StaticDir string

	// CORS
	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	// .env 파일 로드 (있는 경우)
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AnalyzerURL:    getEnv("ANALYZER_URL", "http://localhost:8000"),
		SubmitTimeout:  parseDuration(getEnv("SUBMIT_TIMEOUT", "2m"), 2*time.Minute),
		PollInterval:   parseDuration(getEnv("POLL_INTERVAL", "3s"), 3*time.Second),
		RequestTimeout: parseDuration(getEnv("REQUEST_TIMEOUT", "15s"), 15*time.Second),
		RedisURL:       getEnv("REDIS_URL", ""),
		MaxUploadSize:  parseInt64(getEnv("MAX_UPLOAD_SIZE", "52428800"), 50<<20),
		StaticDir:      getEnv("STATIC_DIR", "./web"),
		CORSAllowedOrigins: splitAndTrim(getEnv(
			"CORS_ALLOWED_ORIGINS",
			"http://localhost:3000,http://localhost:5173",
		)),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func parseInt64(s string, defaultValue int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
