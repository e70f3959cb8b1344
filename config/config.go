package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	SerpAPI   SerpAPIConfig
	Gemini    GeminiConfig
	Crawler   CrawlerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SerpAPIConfig holds SerpAPI search configuration
type SerpAPIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// GeminiConfig holds Gemini completion service configuration
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// CrawlerConfig holds headless render service configuration
type CrawlerConfig struct {
	RenderURL        string        `mapstructure:"render_url"`
	PrimaryTimeout   time.Duration `mapstructure:"primary_timeout"`
	SecondaryTimeout time.Duration `mapstructure:"secondary_timeout"`
	SyncBudget       time.Duration `mapstructure:"sync_budget"`
}

// DatabaseConfig holds the optional Postgres snapshot store configuration
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// CacheConfig holds search result cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute per client IP
}

// AuthConfig holds API key authentication configuration. An empty key list
// disables authentication.
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/infinitum/")

	v.SetEnvPrefix("INFINITUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional - env vars and defaults cover everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// SerpAPI defaults
	v.SetDefault("serpapi.api_key", "")
	v.SetDefault("serpapi.base_url", "https://serpapi.com/search")

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")

	// Database defaults (empty disables the snapshot store)
	v.SetDefault("database.url", "")

	// Auth defaults (no keys means an open instance)
	v.SetDefault("auth.api_keys", []string{})

	// Crawler defaults
	v.SetDefault("crawler.render_url", "http://localhost:11235/crawl")
	v.SetDefault("crawler.primary_timeout", "40s")
	v.SetDefault("crawler.secondary_timeout", "20s")
	v.SetDefault("crawler.sync_budget", "60s")

	// Cache defaults
	v.SetDefault("cache.ttl", "30m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Gemini.APIKey == "" {
		return fmt.Errorf("Gemini API key is required (set INFINITUM_GEMINI_API_KEY)")
	}

	if config.Crawler.RenderURL == "" {
		return fmt.Errorf("crawler render URL is required")
	}

	if config.Crawler.PrimaryTimeout <= 0 || config.Crawler.SecondaryTimeout <= 0 {
		return fmt.Errorf("crawler timeouts must be positive")
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("ratelimit.per_ip must be positive, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
