// Package config loads and validates the WebDex build configuration from a
// YAML file, an optional .env file and WEBDEX_* environment overrides. It
// provides typed structs for every subsystem (crawl input, page output, the
// index build, logging, metrics and the optional publish sinks).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/webdex/pkg/errors"
)

// Config is the top-level build configuration.
type Config struct {
	Crawl    CrawlConfig    `yaml:"crawl"`
	Output   OutputConfig   `yaml:"output"`
	Build    BuildConfig    `yaml:"build"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Publish  PublishConfig  `yaml:"publish"`
}

// CrawlConfig locates the webref crawl. BaseDir defaults to the directory
// holding IndexPath; fragment paths in the index are relative to it.
type CrawlConfig struct {
	IndexPath   string `yaml:"indexPath"`
	BaseDir     string `yaml:"baseDir"`
	Concurrency int    `yaml:"concurrency"`
}

// Dir returns the directory fragment paths are resolved against.
func (c CrawlConfig) Dir() string {
	if c.BaseDir != "" {
		return c.BaseDir
	}
	return filepath.Dir(c.IndexPath)
}

// OutputConfig controls where and how pages are written.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Layout      string `yaml:"layout"`
	TopTerms    int    `yaml:"topTerms"`
	IndexScript string `yaml:"indexScript"`
}

// BuildConfig tunes the index build and scope resolution.
type BuildConfig struct {
	ResolverCacheSize int      `yaml:"resolverCacheSize"`
	MultipagePrefixes []string `yaml:"multipagePrefixes"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls whether the per-phase span tree is logged at the
// end of a build.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus metrics server and the textfile
// export written when a build finishes.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Port     int    `yaml:"port"`
	Textfile string `yaml:"textfile"`
}

// RedisConfig holds Redis connection parameters for the term export.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	PoolSize  int           `yaml:"poolSize"`
	KeyPrefix string        `yaml:"keyPrefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters for build snapshots.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds the brokers and topic for build-completed events.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// PublishConfig switches the publish sinks on and sets their retry policy.
type PublishConfig struct {
	Redis    bool          `yaml:"redis"`
	Postgres bool          `yaml:"postgres"`
	Kafka    bool          `yaml:"kafka"`
	Timeout  time.Duration `yaml:"timeout"`
	Retry    RetryConfig   `yaml:"retry"`
}

// RetryConfig mirrors resilience.RetryConfig so it can be set from YAML.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
}

// DefaultMultipagePrefixes are the specifications published both as one
// page and as many pages; their multipage hrefs are also indexed under the
// single-page URL.
var DefaultMultipagePrefixes = []string{
	"https://html.spec.whatwg.org/multipage/",
	"https://tc39.es/ecma262/multipage/",
}

// Load reads a YAML config file (if provided), loads a .env file from the
// working directory when present and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidConfig, "reading config file "+path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidConfig, "parsing config file "+path, err)
		}
	}
	_ = godotenv.Load()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config for a build run from a webref checkout in the
// working directory.
func Default() *Config {
	return &Config{
		Crawl: CrawlConfig{
			IndexPath:   "webref/ed/index.json",
			Concurrency: 8,
		},
		Output: OutputConfig{
			Dir:      ".",
			Layout:   "base",
			TopTerms: 30,
		},
		Build: BuildConfig{
			ResolverCacheSize: 4096,
			MultipagePrefixes: append([]string(nil), DefaultMultipagePrefixes...),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Redis: RedisConfig{
			PoolSize:  10,
			KeyPrefix: "webdex:",
		},
		Postgres: PostgresConfig{
			Port:            5432,
			Database:        "webdex",
			User:            "webdex",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Topic: "webdex.build.completed",
		},
		Publish: PublishConfig{
			Timeout: 30 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:  3,
				InitialDelay: 200 * time.Millisecond,
				MaxDelay:     5 * time.Second,
			},
		},
	}
}

// Validate reports the first configuration problem that would make a build
// impossible.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Crawl.IndexPath) == "" {
		return apperrors.New(apperrors.ErrInvalidConfig, "validate", "crawl.indexPath is required")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return apperrors.New(apperrors.ErrInvalidConfig, "validate", "output.dir is required")
	}
	if c.Crawl.Concurrency < 0 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "validate", "crawl.concurrency must be >= 0, got %d", c.Crawl.Concurrency)
	}
	if c.Output.TopTerms < 0 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "validate", "output.topTerms must be >= 0, got %d", c.Output.TopTerms)
	}
	if c.Publish.Redis && c.Redis.Addr == "" {
		return apperrors.New(apperrors.ErrInvalidConfig, "validate", "publish.redis requires redis.addr")
	}
	if c.Publish.Postgres && c.Postgres.Host == "" {
		return apperrors.New(apperrors.ErrInvalidConfig, "validate", "publish.postgres requires postgres.host")
	}
	if c.Publish.Kafka && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return apperrors.New(apperrors.ErrInvalidConfig, "validate", "publish.kafka requires kafka.brokers and kafka.topic")
	}
	return nil
}

// applyEnvOverrides reads WEBDEX_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WEBDEX_CRAWL_INDEX"); v != "" {
		cfg.Crawl.IndexPath = v
	}
	if v := os.Getenv("WEBDEX_CRAWL_BASE_DIR"); v != "" {
		cfg.Crawl.BaseDir = v
	}
	if v := os.Getenv("WEBDEX_CRAWL_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Crawl.Concurrency = n
		}
	}
	if v := os.Getenv("WEBDEX_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("WEBDEX_OUTPUT_TOP_TERMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Output.TopTerms = n
		}
	}
	if v := os.Getenv("WEBDEX_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WEBDEX_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("WEBDEX_TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tracing.Enabled = b
		}
	}
	if v := os.Getenv("WEBDEX_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("WEBDEX_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
	if v := os.Getenv("WEBDEX_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := os.Getenv("WEBDEX_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("WEBDEX_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("WEBDEX_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("WEBDEX_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("WEBDEX_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("WEBDEX_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("WEBDEX_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("WEBDEX_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("WEBDEX_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("WEBDEX_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("WEBDEX_PUBLISH_REDIS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Publish.Redis = b
		}
	}
	if v := os.Getenv("WEBDEX_PUBLISH_POSTGRES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Publish.Postgres = b
		}
	}
	if v := os.Getenv("WEBDEX_PUBLISH_KAFKA"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Publish.Kafka = b
		}
	}
}
