// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing or malformed, Load returns an
// error and the process exits before opening any connection.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultPort               = 3000
	DefaultRateLimitPerMinute = 300
)

// Config holds all runtime configuration for the tracker server.
type Config struct {
	Port               int
	StoreURL           string // postgres://… selects Postgres, anything else SQLite
	RedisURL           string // optional; empty disables remark events
	LogLevel           slog.Level
	LogFormat          string // "text" or "json"
	RateLimitPerMinute int    // 0 disables the limiter
	CORSOrigins        []string
	Production         bool // ENV=production turns request logging off
}

// LoadDotEnv reads a .env file from the working directory if there is one.
// Values already present in the environment win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from any lookup function with the signature of
// os.LookupEnv. Tests pass a map-backed lookup.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	storeURL := get("STORE_URL")
	if storeURL == "" {
		storeURL = get("MONGO_URL") // legacy name from the first deployment
	}
	if storeURL == "" {
		return nil, fmt.Errorf("STORE_URL is required")
	}

	port, err := intVar(get("PORT"), DefaultPort)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", get("PORT"))
	}

	rateLimit, err := intVar(get("RATE_LIMIT_PER_MINUTE"), DefaultRateLimitPerMinute)
	if err != nil || rateLimit < 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %q", get("RATE_LIMIT_PER_MINUTE"))
	}

	var level slog.Level
	if raw := get("LOG_LEVEL"); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q", raw)
		}
	}

	format := strings.ToLower(get("LOG_FORMAT"))
	switch format {
	case "":
		format = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (want text or json)", format)
	}

	origins := []string{"*"}
	if raw := get("CORS_ORIGINS"); raw != "" {
		origins = origins[:0]
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		Port:               port,
		StoreURL:           storeURL,
		RedisURL:           get("REDIS_URL"),
		LogLevel:           level,
		LogFormat:          format,
		RateLimitPerMinute: rateLimit,
		CORSOrigins:        origins,
		Production:         strings.EqualFold(get("ENV"), "production"),
	}, nil
}

// NewLogger builds the process logger described by the config.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func intVar(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw) // Atoi = ASCII to Integer
}
