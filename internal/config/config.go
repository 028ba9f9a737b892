package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

var (
	ErrMissingDB         = errors.New("DATABASE_URL is required")
	ErrInvalidMultiplier = errors.New("backoff multiplier must be greater than 1")
)

type Config struct {
	Database  DatabaseConfig
	HTTP      HTTPConfig
	ITunes    ITunesConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Worker    WorkerConfig
	Log       LogConfig
}

type DatabaseConfig struct {
	URL string
}

type HTTPConfig struct {
	Port int
}

type ITunesConfig struct {
	BaseURL             string
	Timeout             time.Duration
	RetryAttempts       int
	RetryDelay          time.Duration
	RateLimitAttempts   int
	RateLimitBaseDelay  time.Duration
	RateLimitMultiplier float64
	RateLimitMaxDelay   time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond int
}

type CacheConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type WorkerConfig struct {
	PollInterval   time.Duration
	BatchSize      int
	JobMaxAttempts int
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		HTTP: HTTPConfig{
			Port: getEnvIntOrDefault("PORT", 8080),
		},
		ITunes: ITunesConfig{
			BaseURL:             getEnvOrDefault("ITUNES_API_URL", "https://itunes.apple.com"),
			Timeout:             time.Duration(getEnvIntOrDefault("ITUNES_API_TIMEOUT_MS", 10000)) * time.Millisecond,
			RetryAttempts:       getEnvIntOrDefault("ITUNES_API_RETRY_ATTEMPTS", 3),
			RetryDelay:          time.Duration(getEnvIntOrDefault("ITUNES_API_RETRY_DELAY_MS", 1000)) * time.Millisecond,
			RateLimitAttempts:   getEnvIntOrDefault("ITUNES_API_RATE_LIMIT_ATTEMPTS", 5),
			RateLimitBaseDelay:  time.Duration(getEnvIntOrDefault("ITUNES_API_RATE_LIMIT_BASE_DELAY_MS", 1000)) * time.Millisecond,
			RateLimitMultiplier: getEnvFloatOrDefault("ITUNES_API_RATE_LIMIT_MULTIPLIER", 2),
			RateLimitMaxDelay:   time.Duration(getEnvIntOrDefault("ITUNES_API_RATE_LIMIT_MAX_DELAY_MS", 60000)) * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvIntOrDefault("RATE_LIMIT_PER_SECOND", 20),
		},
		Cache: CacheConfig{
			TTL:           time.Duration(getEnvIntOrDefault("CACHE_TTL_SEC", 300)) * time.Second,
			SweepInterval: time.Duration(getEnvIntOrDefault("CACHE_SWEEP_INTERVAL_SEC", 600)) * time.Second,
		},
		Worker: WorkerConfig{
			PollInterval:   time.Duration(getEnvIntOrDefault("WORKER_POLL_INTERVAL_SEC", 10)) * time.Second,
			BatchSize:      getEnvIntOrDefault("WORKER_BATCH_SIZE", 10),
			JobMaxAttempts: getEnvIntOrDefault("JOB_MAX_ATTEMPTS", 3),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return ErrMissingDB
	}
	if c.ITunes.RateLimitMultiplier <= 1 {
		return ErrInvalidMultiplier
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
