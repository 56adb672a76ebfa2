package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	Fetcher    FetcherConfig    `yaml:"fetcher"`
	Crawler    CrawlerConfig    `yaml:"crawler"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
	Validation ValidationConfig `yaml:"validation"`
	OCR        OCRConfig        `yaml:"ocr"`
	PDF        PDFConfig        `yaml:"pdf"`
	Retention  RetentionConfig  `yaml:"retention"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabaseConfig holds the Postgres connection settings. An empty URL runs
// the process without persistence.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// CacheConfig selects and tunes the discovery result cache backend.
type CacheConfig struct {
	Backend    string `yaml:"backend"` // "memory" (default) or "redis"
	RedisURL   string `yaml:"redis_url"`
	TTLMinutes int    `yaml:"ttl_minutes"` // 0 keeps entries until purge
}

// TTL returns the configured entry lifetime as a duration
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// FetcherConfig holds HTTP fetching configuration
type FetcherConfig struct {
	UserAgent       string `yaml:"user_agent"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	RateLimitMillis int    `yaml:"rate_limit_millis"` // min interval between same-origin requests
	MaxBodyBytes    int64  `yaml:"max_body_bytes"`
}

// Timeout returns the configured timeout as a duration
func (c FetcherConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RateLimit returns the per-origin minimum request interval as a duration
func (c FetcherConfig) RateLimit() time.Duration {
	return time.Duration(c.RateLimitMillis) * time.Millisecond
}

// CrawlerConfig bounds the same-origin crawl.
type CrawlerConfig struct {
	MaxLinksPerPage int `yaml:"max_links_per_page"`
	MaxPages        int `yaml:"max_pages"`
}

// DiscoveryConfig supplies the process-wide defaults for discovery runs.
// Per-request options override any of these.
type DiscoveryConfig struct {
	Language            string `yaml:"language"`
	CulturalContext     string `yaml:"cultural_context"`
	MaxDepth            int    `yaml:"max_depth"`
	Concurrency         int    `yaml:"concurrency"`
	EnableCrawling      bool   `yaml:"enable_crawling"`
	EnableValidation    bool   `yaml:"enable_validation"`
	RespectRobots       bool   `yaml:"respect_robots"`
	ConfidenceThreshold string `yaml:"confidence_threshold"` // high, medium, low, or empty
	ValidationLevel     string `yaml:"validation_level"`     // basic, standard, comprehensive
}

// ValidationConfig tunes the external contact checks
type ValidationConfig struct {
	ProbeFrom          string `yaml:"probe_from"`
	RateLimitMillis    int    `yaml:"rate_limit_millis"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds"`
}

// RateLimit returns the global minimum interval between external checks
func (c ValidationConfig) RateLimit() time.Duration {
	return time.Duration(c.RateLimitMillis) * time.Millisecond
}

// HTTPTimeout returns the reachability request timeout as a duration
func (c ValidationConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// OCRConfig enables image text extraction. Requires a local Tesseract
// installation.
type OCRConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Languages []string `yaml:"languages"`
}

// DefaultLanguages returns the OCR language list, defaulting to German plus
// English.
func (c OCRConfig) DefaultLanguages() []string {
	if len(c.Languages) > 0 {
		return c.Languages
	}
	return []string{"deu", "eng"}
}

// PDFConfig enables PDF text extraction
type PDFConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RetentionConfig tunes the periodic contact cleanup
type RetentionConfig struct {
	Days            int `yaml:"days"`
	IntervalMinutes int `yaml:"interval_minutes"`
	BatchSize       int `yaml:"batch_size"`
}

// Window returns the retention window as a duration
func (c RetentionConfig) Window() time.Duration {
	return time.Duration(c.Days) * 24 * time.Hour
}

// Interval returns the cleanup cycle interval as a duration
func (c RetentionConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// LoggingConfig holds zap construction settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Fetcher.UserAgent == "" {
		cfg.Fetcher.UserAgent = "ContactDiscoveryBot/1.0 (+https://immoleads.de/bot)"
	}
	if cfg.Fetcher.TimeoutSeconds == 0 {
		cfg.Fetcher.TimeoutSeconds = 30
	}
	if cfg.Fetcher.RateLimitMillis == 0 {
		cfg.Fetcher.RateLimitMillis = 500
	}
	if cfg.Fetcher.MaxBodyBytes == 0 {
		cfg.Fetcher.MaxBodyBytes = 2 << 20
	}
	if cfg.Crawler.MaxLinksPerPage == 0 {
		cfg.Crawler.MaxLinksPerPage = 25
	}
	if cfg.Crawler.MaxPages == 0 {
		cfg.Crawler.MaxPages = 50
	}
	if cfg.Discovery.Language == "" {
		cfg.Discovery.Language = "de"
	}
	if cfg.Discovery.CulturalContext == "" {
		cfg.Discovery.CulturalContext = "german"
	}
	if cfg.Discovery.MaxDepth == 0 {
		cfg.Discovery.MaxDepth = 2
	}
	if cfg.Discovery.Concurrency == 0 {
		cfg.Discovery.Concurrency = 5
	}
	if cfg.Discovery.ValidationLevel == "" {
		cfg.Discovery.ValidationLevel = "standard"
	}
	if cfg.Validation.ProbeFrom == "" {
		cfg.Validation.ProbeFrom = "verify@immoleads.de"
	}
	if cfg.Validation.RateLimitMillis == 0 {
		cfg.Validation.RateLimitMillis = 200
	}
	if cfg.Validation.HTTPTimeoutSeconds == 0 {
		cfg.Validation.HTTPTimeoutSeconds = 10
	}
	if cfg.Retention.Days == 0 {
		cfg.Retention.Days = 90
	}
	if cfg.Retention.IntervalMinutes == 0 {
		cfg.Retention.IntervalMinutes = 60
	}
	if cfg.Retention.BatchSize == 0 {
		cfg.Retention.BatchSize = 500
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on the host.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("parsing HTTP_ADDR: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("parsing HTTP_ADDR port: %w", err)
		}
		cfg.Server.Host = host
		cfg.Server.Port = p
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	// A Redis URL in the environment implies the redis backend unless the
	// file already pinned one.
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Cache.RedisURL = redisURL
		if cfg.Cache.Backend == "" {
			cfg.Cache.Backend = "redis"
		}
	}
	if ua := os.Getenv("DISCOVERY_USER_AGENT"); ua != "" {
		cfg.Fetcher.UserAgent = ua
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	return cfg, nil
}
