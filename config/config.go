package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full process configuration.
type Config struct {
	Ingest     IngestConfig     `yaml:"ingest"`
	Feed       FeedConfig       `yaml:"feed"`
	Settlement SettlementConfig `yaml:"settlement"`
	Storage    StorageConfig    `yaml:"storage"`
	HTTP       HTTPConfig       `yaml:"http"`
	Redis      RedisConfig      `yaml:"redis"`
	AMQP       AMQPConfig       `yaml:"amqp"`
	Log        LogConfig        `yaml:"log"`
}

// IngestConfig controls the quote ingestion loop.
type IngestConfig struct {
	Leagues             []string       `yaml:"leagues"`
	IntervalSeconds     int            `yaml:"interval_seconds"`
	LeagueDelaySeconds  float64        `yaml:"league_delay_seconds"`
	CycleTimeoutSeconds int            `yaml:"cycle_timeout_seconds"`
	StartBufferMinutes  int            `yaml:"start_buffer_minutes"`
	PriceCeiling        int            `yaml:"price_ceiling"`
	SportCeilings       map[string]int `yaml:"sport_ceilings"` // sport key or family → max |price|
	FetchWorkers        int            `yaml:"fetch_workers"`
}

// FeedConfig points at the sportsbook data feed.
type FeedConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// SettlementConfig controls the reconciliation loop.
type SettlementConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	LookbackHours   int `yaml:"lookback_hours"`
}

// StorageConfig selects the database. A postgres:// DSN uses Postgres,
// anything else is a SQLite path (or ":memory:").
type StorageConfig struct {
	DSN string `yaml:"dsn"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// RedisConfig enables settlement publication when URL is set.
type RedisConfig struct {
	URL    string `yaml:"url"`
	Stream string `yaml:"stream"`
}

// AMQPConfig enables the pushed slip consumer when URL is set.
type AMQPConfig struct {
	URL      string `yaml:"url"`
	Queue    string `yaml:"queue"`
	Prefetch int    `yaml:"prefetch"`
}

// LogConfig controls log format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file, then the .env file if present, then env
// overrides, then fills defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

func (c *Config) IngestInterval() time.Duration {
	return time.Duration(c.Ingest.IntervalSeconds) * time.Second
}

func (c *Config) LeagueDelay() time.Duration {
	return time.Duration(c.Ingest.LeagueDelaySeconds * float64(time.Second))
}

func (c *Config) CycleTimeout() time.Duration {
	return time.Duration(c.Ingest.CycleTimeoutSeconds) * time.Second
}

func (c *Config) StartBuffer() time.Duration {
	return time.Duration(c.Ingest.StartBufferMinutes) * time.Minute
}

func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.Feed.TimeoutSeconds) * time.Second
}

func (c *Config) SettlementInterval() time.Duration {
	return time.Duration(c.Settlement.IntervalSeconds) * time.Second
}

func (c *Config) SettlementLookback() time.Duration {
	return time.Duration(c.Settlement.LookbackHours) * time.Hour
}

// UsesPostgres reports whether the DSN names a Postgres database.
func (c *Config) UsesPostgres() bool {
	dsn := strings.ToLower(c.Storage.DSN)
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("FEED_API_KEY"); v != "" {
		cfg.Feed.APIKey = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.AMQP.URL = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Ingest.IntervalSeconds <= 0 {
		cfg.Ingest.IntervalSeconds = 300
	}
	if cfg.Ingest.LeagueDelaySeconds <= 0 {
		cfg.Ingest.LeagueDelaySeconds = 2
	}
	if cfg.Ingest.CycleTimeoutSeconds <= 0 {
		cfg.Ingest.CycleTimeoutSeconds = 120
	}
	if cfg.Ingest.StartBufferMinutes <= 0 {
		cfg.Ingest.StartBufferMinutes = 5
	}
	if cfg.Ingest.PriceCeiling <= 0 {
		cfg.Ingest.PriceCeiling = 9999
	}
	if cfg.Ingest.FetchWorkers <= 0 {
		cfg.Ingest.FetchWorkers = 4
	}
	if cfg.Feed.BaseURL == "" {
		cfg.Feed.BaseURL = "https://api.sportsfeed.example.com"
	}
	if cfg.Feed.RatePerSecond <= 0 {
		cfg.Feed.RatePerSecond = 5
	}
	if cfg.Feed.TimeoutSeconds <= 0 {
		cfg.Feed.TimeoutSeconds = 10
	}
	if cfg.Settlement.IntervalSeconds <= 0 {
		cfg.Settlement.IntervalSeconds = 60
	}
	if cfg.Settlement.LookbackHours <= 0 {
		cfg.Settlement.LookbackHours = 72
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "betsync.db"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Redis.Stream == "" {
		cfg.Redis.Stream = "wagers.settled"
	}
	if cfg.AMQP.Queue == "" {
		cfg.AMQP.Queue = "settlement.slips"
	}
	if cfg.AMQP.Prefetch <= 0 {
		cfg.AMQP.Prefetch = 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
