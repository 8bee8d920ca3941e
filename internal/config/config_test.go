package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "GOOGLE_API_KEY", "DB_DRIVER", "DB_DSN", "TOKEN_TTL_MINUTES",
		"AI_PROVIDER", "WORKER_CONCURRENCY", "HISTORY_ASYNC"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Contains(t, cfg.DBDSN, "/focusbot?")
	assert.Equal(t, 60*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "gemini", cfg.AIProvider)
	assert.Equal(t, 2, cfg.WorkerConcurrency)
	assert.False(t, cfg.HistoryAsync)
}

func TestLoad_SQLiteDefaultDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_DSN", "")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "focusbot.db", cfg.DBDSN)
}

func TestLoad_LegacySecretAndKeys(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("HF_API_KEY", "")
	t.Setenv("HF_TOKEN", "hf-token")
	t.Setenv("WORKER_CONCURRENCY", "500")
	t.Setenv("HISTORY_ASYNC", "yes")

	cfg := Load()
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "hf-token", cfg.HFAPIKey)
	assert.Equal(t, 50, cfg.WorkerConcurrency)
	assert.True(t, cfg.HistoryAsync)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Port:         "8000",
			Mode:         "debug",
			DBDriver:     "sqlite",
			JWTSecret:    "secret",
			TokenTTL:     time.Hour,
			AIProvider:   "gemini",
			GeminiAPIKey: "key",
		}
	}

	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"unknown driver", func(c *Config) { c.DBDriver = "mongo" }},
		{"dev secret in release", func(c *Config) { c.Mode = "release"; c.JWTSecret = devSecret }},
		{"gemini without key", func(c *Config) { c.GeminiAPIKey = "" }},
		{"openrouter without key", func(c *Config) { c.AIProvider = "openrouter" }},
		{"huggingface without key", func(c *Config) { c.AIProvider = "huggingface" }},
		{"unknown provider", func(c *Config) { c.AIProvider = "skynet" }},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	ollama := base()
	ollama.AIProvider = "ollama"
	ollama.GeminiAPIKey = ""
	assert.NoError(t, ollama.Validate())
}
