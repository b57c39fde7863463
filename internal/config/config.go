// Package config loads the YAML configuration file and resolves
// secrets from the environment. Tunables (endpoints, limits, cadence)
// live in the file; credentials never do.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingCredentials is returned when an operation needs broadcast
// credentials that are not configured. Surfaced before any fetch work
// starts.
var ErrMissingCredentials = errors.New("missing ConvertKit credentials (CONVERTKIT_API_KEY, CONVERTKIT_API_SECRET, CONVERTKIT_FORM_ID)")

// Config is the full application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Sources     SourcesConfig     `yaml:"sources"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Newsletter  NewsletterConfig  `yaml:"newsletter"`
	Cache       CacheConfig       `yaml:"cache"`
	Advertiser  AdvertiserConfig  `yaml:"advertiser"`
	LogLevel    string            `yaml:"log_level"`

	Secrets Secrets `yaml:"-"`
}

type ServerConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	ReadTimeoutSecs  int    `yaml:"read_timeout_secs"`
	WriteTimeoutSecs int    `yaml:"write_timeout_secs"`
	IdleTimeoutSecs  int    `yaml:"idle_timeout_secs"`
}

type SourceConfig struct {
	BaseURL     string  `yaml:"base_url"`
	RPS         float64 `yaml:"rps"`
	Burst       int     `yaml:"burst"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	PageSize    int     `yaml:"page_size"`
}

type SourcesConfig struct {
	CoinGecko     SourceConfig `yaml:"coingecko"`
	CoinMarketCap SourceConfig `yaml:"coinmarketcap"`
	DexScreener   SourceConfig `yaml:"dexscreener"`
	// FetchTimeoutSecs bounds each adapter independently so one slow
	// upstream cannot stall the whole run.
	FetchTimeoutSecs int `yaml:"fetch_timeout_secs"`
}

type AggregationConfig struct {
	NoiseThreshold    float64 `yaml:"noise_threshold"`
	WebGainers        int     `yaml:"web_gainers"`
	WebLosers         int     `yaml:"web_losers"`
	NewsletterGainers int     `yaml:"newsletter_gainers"`
	NewsletterLosers  int     `yaml:"newsletter_losers"`
}

type NewsletterConfig struct {
	BaseURL       string `yaml:"base_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	// SendWeekday and SendHour define the weekly schedule
	// (0=Sunday ... 6=Saturday, hour in the local timezone).
	SendWeekday int `yaml:"send_weekday"`
	SendHour    int `yaml:"send_hour"`
}

type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend   string `yaml:"backend"`
	TTLSecs   int    `yaml:"ttl_secs"`
	RedisAddr string `yaml:"redis_addr"`
}

type AdvertiserConfig struct {
	// Store is "memory" or "postgres". The memory store resets on
	// process restart; acceptable for a single-process deployment and
	// called out in the README.
	Store          string `yaml:"store"`
	WeeksAhead     int    `yaml:"weeks_ahead"`
	SlotPriceCents int    `yaml:"slot_price_cents"`
}

// Secrets are resolved from the environment only.
type Secrets struct {
	ConvertKitAPIKey    string
	ConvertKitAPISecret string
	ConvertKitFormID    string
	CoinMarketCapAPIKey string
	StripeSecretKey     string
	PostgresDSN         string
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:             "127.0.0.1",
			Port:             8080,
			ReadTimeoutSecs:  10,
			WriteTimeoutSecs: 30,
			IdleTimeoutSecs:  60,
		},
		Sources: SourcesConfig{
			CoinGecko:        SourceConfig{RPS: 0.5, Burst: 2, TimeoutSecs: 15, PageSize: 250},
			CoinMarketCap:    SourceConfig{RPS: 0.5, Burst: 2, TimeoutSecs: 15, PageSize: 1000},
			DexScreener:      SourceConfig{RPS: 1, Burst: 2, TimeoutSecs: 10},
			FetchTimeoutSecs: 30,
		},
		Aggregation: AggregationConfig{
			NoiseThreshold:    0.1,
			WebGainers:        500,
			WebLosers:         100,
			NewsletterGainers: 50,
			NewsletterLosers:  10,
		},
		Newsletter: NewsletterConfig{
			BaseURL:       "https://cryptomonth.info",
			SubjectPrefix: "CryptoMonth Weekly Newsletter",
			SendWeekday:   0, // Sunday
			SendHour:      9,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTLSecs: 7200,
		},
		Advertiser: AdvertiserConfig{
			Store:          "memory",
			WeeksAhead:     12,
			SlotPriceCents: 50000,
		},
		LogLevel: "info",
	}
}

// Load reads the optional YAML file at path (empty path means
// defaults only), overlays it on the defaults, pulls secrets from the
// environment and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.Secrets = Secrets{
		ConvertKitAPIKey:    os.Getenv("CONVERTKIT_API_KEY"),
		ConvertKitAPISecret: os.Getenv("CONVERTKIT_API_SECRET"),
		ConvertKitFormID:    os.Getenv("CONVERTKIT_FORM_ID"),
		CoinMarketCapAPIKey: os.Getenv("COINMARKETCAP_API_KEY"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		PostgresDSN:         os.Getenv("DATABASE_URL"),
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise fail deep inside a
// run.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.Aggregation.NoiseThreshold < 0 {
		return fmt.Errorf("noise_threshold must be >= 0, got %f", c.Aggregation.NoiseThreshold)
	}
	if c.Aggregation.WebGainers <= 0 || c.Aggregation.NewsletterGainers <= 0 {
		return fmt.Errorf("gainer limits must be positive")
	}
	if c.Newsletter.SendWeekday < 0 || c.Newsletter.SendWeekday > 6 {
		return fmt.Errorf("send_weekday must be 0-6, got %d", c.Newsletter.SendWeekday)
	}
	if c.Newsletter.SendHour < 0 || c.Newsletter.SendHour > 23 {
		return fmt.Errorf("send_hour must be 0-23, got %d", c.Newsletter.SendHour)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache backend must be memory or redis, got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache backend redis requires redis_addr or REDIS_ADDR")
	}
	switch c.Advertiser.Store {
	case "memory", "postgres":
	default:
		return fmt.Errorf("advertiser store must be memory or postgres, got %q", c.Advertiser.Store)
	}
	return nil
}

// RequireConvertKit fails fast when broadcast credentials are absent.
func (s Secrets) RequireConvertKit() error {
	if s.ConvertKitAPIKey == "" || s.ConvertKitAPISecret == "" || s.ConvertKitFormID == "" {
		return ErrMissingCredentials
	}
	return nil
}

// ReadTimeout converts the server read timeout.
func (c ServerConfig) ReadTimeout() time.Duration {
	if c.ReadTimeoutSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ReadTimeoutSecs) * time.Second
}

// WriteTimeout converts the server write timeout.
func (c ServerConfig) WriteTimeout() time.Duration {
	if c.WriteTimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.WriteTimeoutSecs) * time.Second
}

// IdleTimeout converts the server idle timeout.
func (c ServerConfig) IdleTimeout() time.Duration {
	if c.IdleTimeoutSecs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.IdleTimeoutSecs) * time.Second
}

// FetchTimeout is the per-adapter deadline.
func (c SourcesConfig) FetchTimeout() time.Duration {
	if c.FetchTimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

// Timeout converts the per-source HTTP timeout.
func (c SourceConfig) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// TTL converts the cache TTL.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSecs <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.TTLSecs) * time.Second
}
