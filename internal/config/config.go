package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Search  SearchConfig
	Store   StoreConfig
	Push    PushConfig
	Pricing PricingConfig
	Rooms   RoomsConfig
	View    ViewConfig
	CORS    CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// SearchConfig holds provider fan-out, cache and rate limit settings
type SearchConfig struct {
	ProviderTimeout   time.Duration
	ProviderCurrency  string
	ProviderURLs      []string
	CacheTTL          time.Duration
	RateLimitCapacity int
	RateLimitRefill   time.Duration
}

type StoreConfig struct {
	Driver      string
	SQLitePath  string
	DatabaseURL string
	// Seed loads the demo quote and option details on start.
	Seed bool
}

type PushConfig struct {
	Transport string
	RedisURL  string
	Channel   string
}

type PricingConfig struct {
	DisplayCurrency string
	MarkupPercent   float64
}

// RoomsConfig caps occupants per room; zero disables a cap
type RoomsConfig struct {
	MaxAdults   int
	MaxChildren int
	MaxInfants  int
}

type ViewConfig struct {
	DestinationLimit int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		slog.Warn(".env file could not be read", "error", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			RequestTimeout:  getDurationEnv("REQUEST_TIMEOUT", 20*time.Second),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		Search: SearchConfig{
			ProviderTimeout:   getDurationEnv("PROVIDER_TIMEOUT", 2*time.Second),
			ProviderCurrency:  getEnv("PROVIDER_CURRENCY", "ZAR"),
			ProviderURLs:      getStringSliceEnv("PROVIDER_URLS", nil),
			CacheTTL:          getDurationEnv("SEARCH_CACHE_TTL", 30*time.Second),
			RateLimitCapacity: getIntEnv("RATE_LIMIT_CAPACITY", 10),
			RateLimitRefill:   getDurationEnv("RATE_LIMIT_REFILL", time.Minute),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
			SQLitePath:  getEnv("SQLITE_PATH", "data/quotes.db"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
			Seed:        getBoolEnv("STORE_SEED", true),
		},
		Push: PushConfig{
			Transport: strings.ToLower(getEnv("PUSH_TRANSPORT", "memory")),
			RedisURL:  getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Channel:   getEnv("PUSH_CHANNEL", "availability"),
		},
		Pricing: PricingConfig{
			DisplayCurrency: getEnv("DISPLAY_CURRENCY", ""),
			MarkupPercent:   getFloatEnv("MARKUP_PERCENT", 0),
		},
		Rooms: RoomsConfig{
			MaxAdults:   getIntEnv("MAX_ADULTS_PER_ROOM", 4),
			MaxChildren: getIntEnv("MAX_CHILDREN_PER_ROOM", 3),
			MaxInfants:  getIntEnv("MAX_INFANTS_PER_ROOM", 2),
		},
		View: ViewConfig{
			DestinationLimit: getIntEnv("DESTINATION_SUMMARY_LIMIT", 2),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods:   getStringSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getStringSliceEnv("CORS_ALLOWED_HEADERS", []string{"*"}),
			AllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.Push.Transport {
	case "memory", "none":
	case "redis":
		if c.Push.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis push transport")
		}
	default:
		return fmt.Errorf("unknown PUSH_TRANSPORT %q", c.Push.Transport)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.Log.Format)
	}
	if c.Search.RateLimitCapacity < 1 {
		return fmt.Errorf("RATE_LIMIT_CAPACITY must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var parts []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return defaultValue
	}
	return parts
}
