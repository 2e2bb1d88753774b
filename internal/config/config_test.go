package config

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{"STORE_URL": "data/tracker.db"}))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "data/tracker.db", cfg.StoreURL)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, DefaultRateLimitPerMinute, cfg.RateLimitPerMinute)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.Production)
}

func TestFromLookup_AllSet(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"STORE_URL":             "postgres://localhost/tracker",
		"PORT":                  "8080",
		"REDIS_URL":             "redis://localhost:6379/0",
		"LOG_LEVEL":             "debug",
		"LOG_FORMAT":            "JSON",
		"RATE_LIMIT_PER_MINUTE": "0",
		"CORS_ORIGINS":          "https://a.example, https://b.example,",
		"ENV":                   "Production",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 0, cfg.RateLimitPerMinute)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.Production)
}

func TestFromLookup_LegacyMongoURL(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{"MONGO_URL": "sqlite://old.db"}))
	require.NoError(t, err)
	assert.Equal(t, "sqlite://old.db", cfg.StoreURL)

	cfg, err = FromLookup(lookupFrom(map[string]string{"MONGO_URL": "old.db", "STORE_URL": "new.db"}))
	require.NoError(t, err)
	assert.Equal(t, "new.db", cfg.StoreURL, "STORE_URL takes precedence")
}

func TestFromLookup_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"no store", map[string]string{}},
		{"bad port", map[string]string{"STORE_URL": "x.db", "PORT": "http"}},
		{"port out of range", map[string]string{"STORE_URL": "x.db", "PORT": "70000"}},
		{"negative rate", map[string]string{"STORE_URL": "x.db", "RATE_LIMIT_PER_MINUTE": "-1"}},
		{"bad level", map[string]string{"STORE_URL": "x.db", "LOG_LEVEL": "loud"}},
		{"bad format", map[string]string{"STORE_URL": "x.db", "LOG_FORMAT": "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLookup(lookupFrom(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: slog.LevelWarn, LogFormat: "json"}
	logger := cfg.NewLogger()
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}
