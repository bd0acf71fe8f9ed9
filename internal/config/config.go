package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
// Values come from environment variables, optionally seeded by a .env file.
// Environment variables take precedence over the file.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Stock API
	StockAPIURL string
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Observability
	OTLPEndpoint string

	// Session
	SessionFile string
	SessionKey  string // optional; when set the session file is encrypted

	// Service credential for POST /companies and POST /users
	ServiceToken       string
	ServiceTokenFile   string // takes precedence over ServiceToken, re-read on every call
	ServiceTokenHeader string

	// Views
	CompanyType       string
	LowStockThreshold int
	PlaceholderImage  string
	Currency          string
	Locale            string
}

var defaults = map[string]any{
	"PORT":                        8080,
	"LOG_LEVEL":                   "info",
	"STOCK_API_URL":               "https://stock-admin-backend.vercel.app",
	"HTTP_TIMEOUT":                "30s",
	"MAX_RETRIES":                 2,
	"INITIAL_BACKOFF":             "200ms",
	"MAX_CONCURRENCY":             16,
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"SESSION_FILE":                ".stock-admin/session.json",
	"SESSION_KEY":                 "",
	"SERVICE_TOKEN":               "",
	"SERVICE_TOKEN_FILE":          "",
	"SERVICE_TOKEN_HEADER":        "token",
	"COMPANY_TYPE":                "DEMO",
	"LOW_STOCK_THRESHOLD":         10,
	"PLACEHOLDER_IMAGE_URL":       "https://via.placeholder.com/150",
	"CURRENCY":                    "BRL",
	"LOCALE":                      "pt-BR",
}

// Load reads ./.env (if present) and the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile reads envFile (skipped when missing) and the environment, then
// validates the result.
func LoadFile(envFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		Port:     v.GetInt("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		StockAPIURL: v.GetString("STOCK_API_URL"),
		HTTPTimeout: v.GetDuration("HTTP_TIMEOUT"),

		MaxRetries:     v.GetInt("MAX_RETRIES"),
		InitialBackoff: v.GetDuration("INITIAL_BACKOFF"),
		MaxConcurrency: v.GetInt("MAX_CONCURRENCY"),

		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),

		SessionFile: v.GetString("SESSION_FILE"),
		SessionKey:  v.GetString("SESSION_KEY"),

		ServiceToken:       v.GetString("SERVICE_TOKEN"),
		ServiceTokenFile:   v.GetString("SERVICE_TOKEN_FILE"),
		ServiceTokenHeader: v.GetString("SERVICE_TOKEN_HEADER"),

		CompanyType:       v.GetString("COMPANY_TYPE"),
		LowStockThreshold: v.GetInt("LOW_STOCK_THRESHOLD"),
		PlaceholderImage:  v.GetString("PLACEHOLDER_IMAGE_URL"),
		Currency:          v.GetString("CURRENCY"),
		Locale:            v.GetString("LOCALE"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: out of range: %d", c.Port))
	}
	if u, err := url.Parse(c.StockAPIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("STOCK_API_URL: must be an absolute http(s) URL, got %q", c.StockAPIURL))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT: must be a positive duration"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("MAX_RETRIES: must not be negative"))
	}
	if c.SessionFile == "" {
		errs = append(errs, errors.New("SESSION_FILE: required"))
	}
	if c.ServiceTokenHeader == "" {
		errs = append(errs, errors.New("SERVICE_TOKEN_HEADER: required"))
	}
	if c.LowStockThreshold < 0 {
		errs = append(errs, errors.New("LOW_STOCK_THRESHOLD: must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
