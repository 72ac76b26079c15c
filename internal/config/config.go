package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the hockey service. Defaults live in the env tags so
// that an empty environment still yields a working local setup.
type Config struct {
	// Storage
	DataDir  string `env:"HOCKEY_DATA_DIR" envDefault:"${HOME}/.hockey" envExpand:"true"`
	DbPath   string `env:"HOCKEY_DB_PATH"`
	CacheDir string `env:"HOCKEY_CACHE_DIR"`

	// Feed
	FeedBaseURL    string        `env:"HOCKEY_FEED_BASE_URL" envDefault:"https://api-web.nhle.com/v1"`
	FeedRetries    uint          `env:"HOCKEY_FEED_RETRIES" envDefault:"4"`
	FeedTimeout    time.Duration `env:"HOCKEY_FEED_TIMEOUT" envDefault:"30s"`
	FeedParallel   int           `env:"HOCKEY_FEED_PARALLEL" envDefault:"4"`
	FeedCacheGames bool          `env:"HOCKEY_FEED_CACHE" envDefault:"true"`
	FeedRecapURL   string        `env:"HOCKEY_FEED_RECAP_URL"`
	CABundle       string        `env:"HOCKEY_CA_BUNDLE"`

	// Surfaces
	HTTPAddr string `env:"HOCKEY_HTTP_ADDR" envDefault:":8080"`

	// Bulk import approval gate
	ApprovalThreshold int           `env:"HOCKEY_APPROVAL_THRESHOLD" envDefault:"50"`
	PendingTTL        time.Duration `env:"HOCKEY_PENDING_TTL" envDefault:"30m"`
	RedisURL          string        `env:"HOCKEY_REDIS_URL"`

	// Scheduling
	HealthCron string `env:"HOCKEY_HEALTH_CRON" envDefault:"@every 6h"`

	// Logging
	LogLevel  string `env:"HOCKEY_LOG_LEVEL" envDefault:"info"`
	LogOutput string `env:"HOCKEY_LOG_OUTPUT" envDefault:"f"`
	LogFile   string `env:"HOCKEY_LOG_FILE" envDefault:"/tmp/hockey.log"`
}

// Load reads an optional .env file and then the process environment
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return Parse()
}

// Parse builds a Config from the current environment only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.DbPath == "" {
		cfg.DbPath = filepath.Join(cfg.DataDir, "hockey.db")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(cfg.DataDir, "cache")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures all configuration values are within reasonable ranges
func (c *Config) Validate() error {
	if c.DbPath == "" {
		return fmt.Errorf("DbPath must be set")
	}
	if !strings.HasPrefix(c.FeedBaseURL, "http://") && !strings.HasPrefix(c.FeedBaseURL, "https://") {
		return fmt.Errorf("FeedBaseURL must be an http(s) url, got: %q", c.FeedBaseURL)
	}
	if c.FeedRecapURL != "" && strings.Count(c.FeedRecapURL, "%s") != 1 {
		return fmt.Errorf("FeedRecapURL must contain one %%s for the game id, got: %q", c.FeedRecapURL)
	}
	if c.FeedParallel < 1 || c.FeedParallel > 32 {
		return fmt.Errorf("FeedParallel should be between 1 and 32, got: %d", c.FeedParallel)
	}
	if c.ApprovalThreshold < 1 {
		return fmt.Errorf("ApprovalThreshold must be positive, got: %d", c.ApprovalThreshold)
	}
	if c.PendingTTL < time.Minute {
		return fmt.Errorf("PendingTTL should be at least a minute, got: %s", c.PendingTTL)
	}
	switch c.LogOutput {
	case "c", "f", "b":
	default:
		return fmt.Errorf("LogOutput must be one of c, f or b, got: %q", c.LogOutput)
	}
	return nil
}

// LogOutputRune returns the output selector understood by logger.SetLogOutput
func (c *Config) LogOutputRune() rune {
	return rune(c.LogOutput[0])
}

// EnsureDirs creates the data and cache directories
func (c *Config) EnsureDirs() error {
	for _, d := range []string{filepath.Dir(c.DbPath), c.CacheDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}
	return nil
}
