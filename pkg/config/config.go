// Package config loads the scraper configuration from transcripts.yaml, an
// optional .env file and TRANSCRIPTS_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"transcripts/pkg/db"
	"transcripts/pkg/httpclient"
	"transcripts/pkg/pagination"
	"transcripts/pkg/sites"
)

// FileName is the optional config file read from the working directory.
const FileName = "transcripts.yaml"

const envPrefix = "TRANSCRIPTS_"

var ErrInvalid = errors.New("invalid configuration")

// Config is the full scraper configuration.
type Config struct {
	ListingURL        string        `yaml:"listing_url"`
	Channel           string        `yaml:"channel"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
	UserAgentPreset   string        `yaml:"user_agent_preset"`
	RespectRobots     bool          `yaml:"respect_robots"`

	Pagination PaginationConfig `yaml:"pagination"`
	Log        LogConfig        `yaml:"log"`
	Sinks      SinksConfig      `yaml:"sinks"`
}

// PaginationConfig tunes the last-page search.
type PaginationConfig struct {
	UpperBound       int  `yaml:"upper_bound"`
	FallbackLastPage int  `yaml:"fallback_last_page"`
	ProbeAttempts    int  `yaml:"probe_attempts"`
	ConfirmEmpty     bool `yaml:"confirm_empty"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// SinksConfig lists the optional mirrors. A mirror is enabled when its
// connection setting is non-empty.
type SinksConfig struct {
	Mongo    MongoConfig    `yaml:"mongo"`
	Postgres PostgresConfig `yaml:"postgres"`
	Supabase SupabaseConfig `yaml:"supabase"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type PostgresConfig struct {
	DSN   string     `yaml:"dsn"`
	Table string     `yaml:"table"`
	Pool  PoolConfig `yaml:"pool"`
}

type SupabaseConfig struct {
	URL              string     `yaml:"url"`
	Key              string     `yaml:"key"`
	Password         string     `yaml:"password"`
	ConnectionString string     `yaml:"connection_string"`
	Table            string     `yaml:"table"`
	Pool             PoolConfig `yaml:"pool"`
}

// PoolConfig limits a SQL mirror's connection pool. Zero keeps the
// database/sql default.
type PoolConfig struct {
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnMaxIdle  time.Duration `yaml:"conn_max_idle"`
	ConnMaxLife  time.Duration `yaml:"conn_max_life"`
}

// DBPool converts the section for the db package.
func (p PoolConfig) DBPool() db.PoolConfig {
	return db.PoolConfig{
		MaxOpenConns: p.MaxOpenConns,
		MaxIdleConns: p.MaxIdleConns,
		ConnMaxIdle:  p.ConnMaxIdle,
		ConnMaxLife:  p.ConnMaxLife,
	}
}

func (p PoolConfig) validate(name string) []error {
	var errs []error
	if p.MaxOpenConns < 0 || p.MaxIdleConns < 0 {
		errs = append(errs, fmt.Errorf("%s.pool connection counts must not be negative", name))
	}
	if p.ConnMaxIdle < 0 || p.ConnMaxLife < 0 {
		errs = append(errs, fmt.Errorf("%s.pool durations must not be negative", name))
	}
	return errs
}

type SQLiteConfig struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

// Default returns the configuration used when nothing is configured.
func Default() Config {
	return Config{
		ListingURL:        sites.DefaultListingURL,
		Channel:           "MSNBC",
		RequestsPerMinute: 60,
		Timeout:           30 * time.Second,
		UserAgentPreset:   string(httpclient.BrowserClient),
		Pagination: PaginationConfig{
			UpperBound:       pagination.DefaultUpperBound,
			FallbackLastPage: pagination.DefaultFallbackLastPage,
			ProbeAttempts:    pagination.DefaultProbeAttempts,
			ConfirmEmpty:     true,
		},
		Log: LogConfig{
			File:  "msnbc.log",
			Level: "info",
		},
		Sinks: SinksConfig{
			Mongo: MongoConfig{
				Database:   "transcripts",
				Collection: "transcripts",
			},
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path if it
// exists, then .env and the environment. A missing file is not an error; a
// malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := loadDotEnv(".env"); err != nil {
		return cfg, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(envPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(envPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("LISTING_URL", &cfg.ListingURL)
	str("CHANNEL", &cfg.Channel)
	num("REQUESTS_PER_MINUTE", &cfg.RequestsPerMinute)
	if v, ok := lookup(envPrefix + "TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIMEOUT: %w", envPrefix, err))
		} else {
			cfg.Timeout = d
		}
	}
	str("USER_AGENT_PRESET", &cfg.UserAgentPreset)
	flag("RESPECT_ROBOTS", &cfg.RespectRobots)

	num("UPPER_BOUND", &cfg.Pagination.UpperBound)
	num("FALLBACK_LAST_PAGE", &cfg.Pagination.FallbackLastPage)
	num("PROBE_ATTEMPTS", &cfg.Pagination.ProbeAttempts)
	flag("CONFIRM_EMPTY", &cfg.Pagination.ConfirmEmpty)

	str("LOG_FILE", &cfg.Log.File)
	str("LOG_LEVEL", &cfg.Log.Level)

	str("MONGO_URI", &cfg.Sinks.Mongo.URI)
	str("POSTGRES_DSN", &cfg.Sinks.Postgres.DSN)
	str("SUPABASE_URL", &cfg.Sinks.Supabase.URL)
	str("SUPABASE_KEY", &cfg.Sinks.Supabase.Key)
	str("SUPABASE_PASSWORD", &cfg.Sinks.Supabase.Password)
	str("SUPABASE_CONNECTION_STRING", &cfg.Sinks.Supabase.ConnectionString)
	str("SQLITE_PATH", &cfg.Sinks.SQLite.Path)

	return errors.Join(errs...)
}

// Validate checks values that would otherwise fail later in confusing ways.
func (c Config) Validate() error {
	var errs []error

	if strings.Count(c.ListingURL, "%d") != 1 {
		errs = append(errs, fmt.Errorf("listing_url must contain exactly one %%d placeholder: %q", c.ListingURL))
	}
	if c.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("requests_per_minute must not be negative"))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative"))
	}
	switch httpclient.ClientType(c.UserAgentPreset) {
	case httpclient.BrowserClient, httpclient.CloudflareClient:
	default:
		errs = append(errs, fmt.Errorf("user_agent_preset must be %q or %q, got %q",
			httpclient.BrowserClient, httpclient.CloudflareClient, c.UserAgentPreset))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	errs = append(errs, c.Sinks.Postgres.Pool.validate("sinks.postgres")...)
	errs = append(errs, c.Sinks.Supabase.Pool.validate("sinks.supabase")...)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// PaginationOptions converts the pagination section for the bound finder.
func (c Config) PaginationOptions(logger zerolog.Logger) pagination.Options {
	return pagination.Options{
		UpperBound:       c.Pagination.UpperBound,
		FallbackLastPage: c.Pagination.FallbackLastPage,
		ProbeAttempts:    c.Pagination.ProbeAttempts,
		ConfirmEmpty:     c.Pagination.ConfirmEmpty,
		Logger:           logger,
	}
}

// HTTPConfig converts the fetch settings for the HTTP client.
func (c Config) HTTPConfig(logger zerolog.Logger) httpclient.Config {
	return httpclient.Config{
		ClientType:        httpclient.ClientType(c.UserAgentPreset),
		RequestsPerMinute: c.RequestsPerMinute,
		Timeout:           c.Timeout,
		RespectRobots:     c.RespectRobots,
		Logger:            logger,
	}
}
