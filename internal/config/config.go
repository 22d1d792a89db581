package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/trogers1052/stock-analytics-engine/internal/analytics"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "ANALYTICS"

// Data source kinds
const (
	SourcePostgres  = "postgres"
	SourceDirectory = "directory"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `envconfig:"SERVER"`
	Database  DatabaseConfig  `envconfig:"DB"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	Kafka     KafkaConfig     `envconfig:"KAFKA"`
	Cache     CacheConfig     `envconfig:"CACHE"`
	Scheduler SchedulerConfig `envconfig:"SCHEDULER"`
	Data      DataConfig      `envconfig:"DATA"`
	Logging   LoggingConfig   `envconfig:"LOG"`
	Engine    EngineConfig    `envconfig:"ENGINE"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     string `envconfig:"PORT" default:"5432"`
	User     string `envconfig:"USER" default:"postgres"`
	Password string `envconfig:"PASSWORD" default:"postgres"`
	DBName   string `envconfig:"NAME" default:"stockanalytics"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
	Migrate  bool   `envconfig:"MIGRATE" default:"true"`
}

// RedisConfig holds the optional shared cache tier
type RedisConfig struct {
	Enabled  bool   `envconfig:"ENABLED" default:"false"`
	Addr     string `envconfig:"ADDR" default:"localhost:6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled bool     `envconfig:"ENABLED" default:"false"`
	Brokers []string `envconfig:"BROKERS" default:"localhost:9092"`
	Topic   string   `envconfig:"TOPIC" default:"price-bars"`
	GroupID string   `envconfig:"GROUP_ID" default:"stock-analytics-engine"`
}

// CacheConfig bounds the in-process result cache
type CacheConfig struct {
	TTL            time.Duration `envconfig:"TTL" default:"1h"`
	MaxEntries     int           `envconfig:"MAX_ENTRIES" default:"1000"`
	ComputeTimeout time.Duration `envconfig:"COMPUTE_TIMEOUT" default:"2m"`
	Parallelism    int           `envconfig:"PARALLELISM" default:"8"`
}

// SchedulerConfig drives the cache warm-up job
type SchedulerConfig struct {
	Enabled    bool     `envconfig:"ENABLED" default:"false"`
	WarmCron   string   `envconfig:"WARM_CRON" default:"0 30 6 * * 1-5"`
	Watchlist  []string `envconfig:"WATCHLIST"`
	RunOnStart bool     `envconfig:"RUN_ON_START" default:"false"`
}

// DataConfig selects where price history is loaded from
type DataConfig struct {
	Source string `envconfig:"SOURCE" default:"postgres"`
	Dir    string `envconfig:"DIR" default:"data"`
}

// LoggingConfig holds zerolog settings
type LoggingConfig struct {
	Level   string `envconfig:"LEVEL" default:"info"`
	Console bool   `envconfig:"CONSOLE" default:"false"`
}

// EngineConfig holds the numeric policies of the analytics engine. File
// is an optional YAML document overriding the other fields.
type EngineConfig struct {
	File                string  `envconfig:"FILE" yaml:"-"`
	SMAWindows          []int   `envconfig:"SMA_WINDOWS" default:"5,10,20,50" yaml:"sma_windows"`
	RSIPeriod           int     `envconfig:"RSI_PERIOD" default:"14" yaml:"rsi_period"`
	AnnualizationFactor float64 `envconfig:"ANNUALIZATION_FACTOR" default:"252" yaml:"annualization_factor"`
	RiskFreeRate        float64 `envconfig:"RISK_FREE_RATE" default:"0" yaml:"risk_free_rate"`
	Alignment           string  `envconfig:"ALIGNMENT" default:"inner_join" yaml:"alignment"`
}

// Load reads configuration from an optional .env file, the environment
// and the optional engine YAML file, in that order
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if cfg.Engine.File != "" {
		if err := cfg.Engine.loadFile(cfg.Engine.File); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFile overlays the fields present in the YAML document at path
func (e *EngineConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read engine config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, e); err != nil {
		return fmt.Errorf("failed to parse engine config %s: %w", path, err)
	}
	return nil
}

// Analytics converts the section into the engine's configuration
func (e EngineConfig) Analytics() analytics.Config {
	return analytics.Config{
		SMAWindows:          analytics.NormalizeWindows(e.SMAWindows),
		RSIPeriod:           e.RSIPeriod,
		AnnualizationFactor: e.AnnualizationFactor,
		RiskFreeRate:        e.RiskFreeRate,
		Alignment:           analytics.AlignmentPolicy(e.Alignment),
	}
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	if err := c.Engine.Analytics().Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	switch c.Data.Source {
	case SourcePostgres:
	case SourceDirectory:
		if c.Data.Dir == "" {
			return fmt.Errorf("data: directory source requires a directory")
		}
	default:
		return fmt.Errorf("data: unknown source %q", c.Data.Source)
	}
	if c.Kafka.Enabled && c.Data.Source != SourcePostgres {
		return fmt.Errorf("kafka: ingest requires the postgres data source")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka: brokers and topic are required")
	}
	if c.Cache.TTL < 0 || c.Cache.MaxEntries < 0 || c.Cache.ComputeTimeout < 0 {
		return fmt.Errorf("cache: ttl, max entries and compute timeout must not be negative")
	}
	return nil
}

// Addr returns host:port for the HTTP listener
func (s *ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}
