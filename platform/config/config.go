// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// LedgerConfig provides settings for the upstream ledger API client.
type LedgerConfig interface {
	GetLedgerBaseURL() string
	GetLedgerTimeout() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// StoreConfig provides settings for the case store poller.
type StoreConfig interface {
	GetRefreshInterval() time.Duration
}

// BatchConfig provides settings for the scoring batch orchestrator.
type BatchConfig interface {
	GetBatchConcurrency() int
	GetAnalyzeTimeout() time.Duration
	GetAnalyzeRate() float64
}

// BridgeConfig provides settings for the voice call bridge.
type BridgeConfig interface {
	GetSignalingURL() string
	GetCallerID() string
	GetResyncDelay() time.Duration
}

// SchedulerConfig provides settings for the asynq task scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetSchedulerQueue() string
}

// SessionConfig provides settings for session state persistence.
type SessionConfig interface {
	GetRedisURL() string
}

// =============================================================================
// Concrete Config
// =============================================================================

// Config holds all application settings, loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool
	RateLimitRPS   float64
	RateLimitBurst int

	LedgerBaseURL string
	LedgerTimeout time.Duration

	RefreshInterval time.Duration

	BatchConcurrency int
	AnalyzeTimeout   time.Duration
	AnalyzeRate      float64

	SignalingURL string
	CallerID     string
	ResyncDelay  time.Duration

	RedisURL       string
	SchedulerQueue string
}

// Load reads configuration from the environment, with .env support for
// local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		CORSAllowAll:   getBool("CORS_ALLOW_ALL", false),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		CORSAllowCreds: getBool("CORS_ALLOW_CREDS", true),
		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 40),

		LedgerBaseURL: getEnv("LEDGER_BASE_URL", "http://127.0.0.1:8000"),
		LedgerTimeout: getDuration("LEDGER_TIMEOUT", 10*time.Second),

		RefreshInterval: getDuration("REFRESH_INTERVAL", 10*time.Second),

		BatchConcurrency: getInt("BATCH_CONCURRENCY", 4),
		AnalyzeTimeout:   getDuration("ANALYZE_TIMEOUT", 20*time.Second),
		AnalyzeRate:      getFloat("ANALYZE_RATE", 10),

		SignalingURL: getEnv("SIGNALING_URL", ""),
		CallerID:     getEnv("CALLER_ID", ""),
		ResyncDelay:  getDuration("RESYNC_DELAY", 15*time.Second),

		RedisURL:       getEnv("REDIS_URL", ""),
		SchedulerQueue: getEnv("SCHEDULER_QUEUE", "console"),
	}

	if containsWildcard(cfg.CORSOrigins) {
		cfg.CORSAllowAll = true
	}

	if cfg.LedgerBaseURL == "" {
		return nil, fmt.Errorf("LEDGER_BASE_URL is required")
	}
	if cfg.RefreshInterval <= 0 {
		return nil, fmt.Errorf("REFRESH_INTERVAL must be positive")
	}
	if cfg.BatchConcurrency < 1 {
		return nil, fmt.Errorf("BATCH_CONCURRENCY must be at least 1")
	}

	return cfg, nil
}

// Interface implementations.

func (c *Config) GetLedgerBaseURL() string          { return c.LedgerBaseURL }
func (c *Config) GetLedgerTimeout() time.Duration   { return c.LedgerTimeout }
func (c *Config) GetHTTPAddr() string               { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool             { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string          { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool           { return c.CORSAllowCreds }
func (c *Config) GetRateLimitRPS() float64          { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int            { return c.RateLimitBurst }
func (c *Config) GetRefreshInterval() time.Duration { return c.RefreshInterval }
func (c *Config) GetBatchConcurrency() int          { return c.BatchConcurrency }
func (c *Config) GetAnalyzeTimeout() time.Duration  { return c.AnalyzeTimeout }
func (c *Config) GetAnalyzeRate() float64           { return c.AnalyzeRate }
func (c *Config) GetSignalingURL() string           { return c.SignalingURL }
func (c *Config) GetCallerID() string               { return c.CallerID }
func (c *Config) GetResyncDelay() time.Duration     { return c.ResyncDelay }
func (c *Config) GetRedisURL() string               { return c.RedisURL }
func (c *Config) GetSchedulerQueue() string         { return c.SchedulerQueue }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func getInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
