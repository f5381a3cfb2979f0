package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genmedia-backend/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")
	t.Setenv("SUPABASE_JWT_SECRET", "jwt-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/db")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BASE_URL", "https://api.example.com/")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "user-files", cfg.SupabaseStorageBucket)
	assert.Equal(t, 24*time.Hour, cfg.FalJWKSCacheTTL)
	assert.Equal(t, 300*time.Second, cfg.WebhookTimestampTolerance)
	assert.Equal(t, 60*time.Second, cfg.WebhookDedupWindow)
	assert.Equal(t, "https://api.example.com/api/v1/webhooks/processing", cfg.ProcessingWebhookURL)
	assert.False(t, cfg.PostProcessingEnabled())
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestValidate_FFmpegNeedsURL(t *testing.T) {
	cfg := &config.Config{
		SupabaseURL:               "https://project.supabase.co",
		SupabaseServiceRoleKey:    "key",
		SupabaseJWTSecret:         "secret",
		DatabaseURL:               "postgres://localhost/db",
		WebhookTimestampTolerance: time.Minute,
		MaterializeConcurrency:    1,
		EnableFFmpegProcessing:    true,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FFMPEG_SERVICE_URL")

	cfg.FFmpegServiceURL = "https://ffmpeg.example.com"
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.PostProcessingEnabled())
}
