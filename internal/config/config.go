package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// AppConfig is the environment-provided configuration. The API key is the
// only external credential; its absence must not crash anything — queries
// made without it simply fail at the provider and callers fall back to the
// demo dataset.
type AppConfig struct {
	OpenWeatherAPIKey string

	WeatherBaseURL string `validate:"required,url"`
	GeoBaseURL     string `validate:"required,url"`
	Lang           string `validate:"required"`

	HTTPTimeout time.Duration `validate:"gt=0"`

	// Query cache policy.
	WeatherTTL  time.Duration `validate:"gt=0"`
	SearchTTL   time.Duration `validate:"gt=0"`
	MaxRetries  int           `validate:"gte=0"`
	BackoffBase time.Duration `validate:"gt=0"`
	BackoffMax  time.Duration `validate:"gt=0"`

	// Outbound rate limiting.
	RateLimit float64 `validate:"gt=0"`
	RateBurst int     `validate:"gte=1"`

	// Geolocation.
	GeoTimeout time.Duration `validate:"gt=0"`
	GeoMaxAge  time.Duration `validate:"gt=0"`

	// Cache eviction sweep.
	JanitorInterval time.Duration `validate:"gt=0"`
}

// Load reads configuration from environment with product defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		WeatherBaseURL:    getenvDefault("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		GeoBaseURL:        getenvDefault("GEO_BASE_URL", "https://api.openweathermap.org/geo/1.0"),
		Lang:              getenvDefault("WEATHER_LANG", "vi"),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.WeatherTTL, err = getenvDuration("WEATHER_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SearchTTL, err = getenvDuration("SEARCH_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	cfg.MaxRetries = getenvInt("MAX_RETRIES", 3)
	if cfg.BackoffBase, err = getenvDuration("BACKOFF_BASE", time.Second); err != nil {
		return nil, err
	}
	if cfg.BackoffMax, err = getenvDuration("BACKOFF_MAX", 30*time.Second); err != nil {
		return nil, err
	}
	cfg.RateLimit = getenvFloat("RATE_LIMIT_RPS", 5)
	cfg.RateBurst = getenvInt("RATE_LIMIT_BURST", 5)
	if cfg.GeoTimeout, err = getenvDuration("GEOLOCATION_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.GeoMaxAge, err = getenvDuration("GEOLOCATION_MAX_AGE", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.JanitorInterval, err = getenvDuration("JANITOR_INTERVAL", time.Minute); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
