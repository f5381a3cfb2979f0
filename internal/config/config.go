package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const ProcessingWebhookPath = "/api/v1/webhooks/processing"

type Config struct {
	// Supabase
	SupabaseURL            string `env:"SUPABASE_URL"`
	SupabaseServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`
	SupabaseJWTSecret      string `env:"SUPABASE_JWT_SECRET"`
	SupabaseStorageBucket  string `env:"SUPABASE_STORAGE_BUCKET" env-default:"user-files"`

	// Database
	DatabaseURL   string `env:"DATABASE_URL"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" env-default:"false"`

	// FAL webhook verification
	FalJWKSURL                string        `env:"FAL_JWKS_URL" env-default:"https://rest.alpha.fal.ai/.well-known/jwks.json"`
	FalJWKSCacheTTL           time.Duration `env:"FAL_JWKS_CACHE_TTL" env-default:"24h"`
	WebhookTimestampTolerance time.Duration `env:"WEBHOOK_TIMESTAMP_TOLERANCE" env-default:"300s"`
	WebhookDedupWindow        time.Duration `env:"WEBHOOK_DEDUP_WINDOW" env-default:"60s"`
	RedisURL                  string        `env:"REDIS_URL"`

	// Artifact materialization
	DownloadTimeout        time.Duration `env:"DOWNLOAD_TIMEOUT" env-default:"120s"`
	MaterializeConcurrency int           `env:"MATERIALIZE_CONCURRENCY" env-default:"4"`

	// FFmpeg post-processing
	FFmpegServiceURL         string        `env:"FFMPEG_SERVICE_URL"`
	EnableFFmpegProcessing   bool          `env:"ENABLE_FFMPEG_PROCESSING" env-default:"false"`
	UseEdgeFunctionEndpoints bool          `env:"USE_EDGE_FUNCTION_ENDPOINTS" env-default:"false"`
	ProcessingWebhookURL     string        `env:"PROCESSING_WEBHOOK_URL"`
	DispatchTimeout          time.Duration `env:"DISPATCH_TIMEOUT" env-default:"15s"`

	// Events
	RabbitMQURL      string `env:"RABBITMQ_URL"`
	RabbitMQExchange string `env:"RABBITMQ_EXCHANGE" env-default:"generation_events"`

	// Logging
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	LogEncoding string `env:"LOG_ENCODING" env-default:"json"`

	// Server
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	BaseURL     string `env:"BASE_URL" env-default:"http://localhost:8080"`
}

func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.ProcessingWebhookURL == "" {
		cfg.ProcessingWebhookURL = strings.TrimSuffix(cfg.BaseURL, "/") + ProcessingWebhookPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceRoleKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.WebhookTimestampTolerance <= 0 {
		return fmt.Errorf("WEBHOOK_TIMESTAMP_TOLERANCE must be positive")
	}
	if c.MaterializeConcurrency <= 0 {
		return fmt.Errorf("MATERIALIZE_CONCURRENCY must be positive")
	}
	if c.EnableFFmpegProcessing && c.FFmpegServiceURL == "" {
		return fmt.Errorf("FFMPEG_SERVICE_URL is required when ENABLE_FFMPEG_PROCESSING is set")
	}
	return nil
}

// PostProcessingEnabled reports whether video outputs should be handed to the
// processing service.
func (c *Config) PostProcessingEnabled() bool {
	return c.EnableFFmpegProcessing && c.FFmpegServiceURL != ""
}
