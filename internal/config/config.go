// Package config loads newsdesk runtime configuration from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	env "newsdesk/pkg/config"
)

// Source kinds.
const (
	SourceNewsAPI = "newsapi"
	SourceRSS     = "rss"
)

// Store drivers.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the complete runtime configuration.
type Config struct {
	NewsAPI      NewsAPIConfig      `yaml:"newsapi"`
	Source       string             `yaml:"source"`
	RSSFeedURL   string             `yaml:"rss_feed_url"`
	Store        StoreConfig        `yaml:"store"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	// RefreshSchedule reloads headlines periodically. Empty disables it.
	RefreshSchedule string `yaml:"refresh_schedule"`
	// RefreshTimezone is the IANA zone the refresh schedule is evaluated in.
	RefreshTimezone string        `yaml:"refresh_timezone"`
	RefreshTimeout  time.Duration `yaml:"refresh_timeout"`
	HTTPAddr        string        `yaml:"http_addr"`
	LogLevel        string        `yaml:"log_level"`
}

// NewsAPIConfig configures the NewsAPI client.
type NewsAPIConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Country       string        `yaml:"country"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSec    float64       `yaml:"rate_per_sec"`
	RetryAttempts int           `yaml:"retry_attempts"`
}

// StoreConfig selects the local store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite and a connection URL for postgres.
	DSN string `yaml:"dsn"`
}

// ConnectivityConfig configures the network probe.
type ConnectivityConfig struct {
	ProbeURL string `yaml:"probe_url"`
	Schedule string `yaml:"schedule"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		NewsAPI: NewsAPIConfig{
			BaseURL:       "https://newsapi.org/v2",
			Country:       "us",
			Timeout:       10 * time.Second,
			RatePerSec:    1,
			RetryAttempts: 3,
		},
		Source: SourceNewsAPI,
		Store: StoreConfig{
			Driver: StoreSQLite,
			DSN:    "newsdesk.db",
		},
		Connectivity: ConnectivityConfig{
			ProbeURL: "https://newsapi.org",
			Schedule: "@every 15s",
		},
		RefreshTimezone: "UTC",
		RefreshTimeout:  2 * time.Minute,
		HTTPAddr:        ":8080",
		LogLevel:        "info",
	}
}

// Load builds the configuration: defaults, then the YAML file named by NEWSDESK_CONFIG
// (if any), then environment overrides. The result is validated.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("NEWSDESK_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.NewsAPI.BaseURL = env.String("NEWSAPI_BASE_URL", c.NewsAPI.BaseURL)
	c.NewsAPI.APIKey = env.String("NEWSAPI_KEY", c.NewsAPI.APIKey)
	c.NewsAPI.Country = env.String("NEWSAPI_COUNTRY", c.NewsAPI.Country)
	c.NewsAPI.Timeout = env.Duration("NEWSAPI_TIMEOUT", c.NewsAPI.Timeout)
	c.NewsAPI.RatePerSec = env.Float("NEWSAPI_RATE_PER_SEC", c.NewsAPI.RatePerSec)
	c.NewsAPI.RetryAttempts = env.Int("NEWSAPI_RETRY_ATTEMPTS", c.NewsAPI.RetryAttempts)

	c.Source = env.Choice("NEWS_SOURCE", c.Source, SourceNewsAPI, SourceRSS)
	c.RSSFeedURL = env.String("RSS_FEED_URL", c.RSSFeedURL)

	c.Store.Driver = env.Choice("STORE_DRIVER", c.Store.Driver, StoreSQLite, StorePostgres, StoreMemory)
	c.Store.DSN = env.String("DATABASE_URL", c.Store.DSN)

	c.Connectivity.ProbeURL = env.String("CONNECTIVITY_PROBE_URL", c.Connectivity.ProbeURL)
	c.Connectivity.Schedule = env.String("CONNECTIVITY_SCHEDULE", c.Connectivity.Schedule)

	c.RefreshSchedule = env.String("REFRESH_SCHEDULE", c.RefreshSchedule)
	c.RefreshTimezone = env.String("REFRESH_TIMEZONE", c.RefreshTimezone)
	c.RefreshTimeout = env.Duration("REFRESH_TIMEOUT", c.RefreshTimeout)
	c.HTTPAddr = env.String("HTTP_ADDR", c.HTTPAddr)
	c.CORSOrigins = env.List("CORS_ALLOWED_ORIGINS", c.CORSOrigins)
	c.LogLevel = env.String("LOG_LEVEL", c.LogLevel)
}

// Validate checks configuration correctness. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	switch c.Source {
	case SourceNewsAPI:
		if err := validateHTTPURL(c.NewsAPI.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("NEWSAPI_BASE_URL: %w", err))
		}
		if c.NewsAPI.APIKey == "" {
			errs = append(errs, errors.New("NEWSAPI_KEY cannot be empty"))
		}
		if c.NewsAPI.Country == "" {
			errs = append(errs, errors.New("NEWSAPI_COUNTRY cannot be empty"))
		}
	case SourceRSS:
		if err := validateHTTPURL(c.RSSFeedURL); err != nil {
			errs = append(errs, fmt.Errorf("RSS_FEED_URL: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("NEWS_SOURCE must be %q or %q, got %q", SourceNewsAPI, SourceRSS, c.Source))
	}

	if err := env.ValidateDurationRange(c.NewsAPI.Timeout, 100*time.Millisecond, 5*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("NEWSAPI_TIMEOUT: %w", err))
	}
	if c.NewsAPI.RatePerSec <= 0 {
		errs = append(errs, errors.New("NEWSAPI_RATE_PER_SEC must be positive"))
	}
	if c.NewsAPI.RetryAttempts < 1 || c.NewsAPI.RetryAttempts > 10 {
		errs = append(errs, errors.New("NEWSAPI_RETRY_ATTEMPTS must be between 1 and 10"))
	}

	switch c.Store.Driver {
	case StoreSQLite, StorePostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("DATABASE_URL cannot be empty"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not supported", c.Store.Driver))
	}

	if c.Connectivity.ProbeURL != "" {
		if err := validateHTTPURL(c.Connectivity.ProbeURL); err != nil {
			errs = append(errs, fmt.Errorf("CONNECTIVITY_PROBE_URL: %w", err))
		}
		if err := env.ValidateSchedule(c.Connectivity.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("CONNECTIVITY_SCHEDULE: %w", err))
		}
	}
	if c.RefreshSchedule != "" {
		if err := env.ValidateSchedule(c.RefreshSchedule); err != nil {
			errs = append(errs, fmt.Errorf("REFRESH_SCHEDULE: %w", err))
		}
		if _, err := time.LoadLocation(c.RefreshTimezone); err != nil {
			errs = append(errs, fmt.Errorf("REFRESH_TIMEZONE: %w", err))
		}
		if err := env.ValidatePositiveDuration(c.RefreshTimeout); err != nil {
			errs = append(errs, fmt.Errorf("REFRESH_TIMEOUT: %w", err))
		}
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR cannot be empty"))
	}

	return errors.Join(errs...)
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return errors.New("cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is missing")
	}
	return nil
}
