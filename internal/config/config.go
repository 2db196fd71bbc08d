package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvLocal = "local"
	EnvDev   = "development"
	EnvProd  = "production"

	DriverPostgREST = "postgrest"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite3"
)

// Env overrides applied after the file is read.
const (
	envConfigPath  = "CONFIG_PATH"
	envStorageURL  = "EVENTBOARD_STORAGE_URL"
	envStorageKey  = "EVENTBOARD_STORAGE_KEY"
	envStorageDSN  = "EVENTBOARD_STORAGE_DSN"
	envHTTPAddress = "EVENTBOARD_HTTP_ADDRESS"
)

type Config struct {
	Env      string        `yaml:"env"`
	Timezone string        `yaml:"timezone"`
	HTTP     HTTPConfig    `yaml:"http"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Storage  StorageConfig `yaml:"storage"`
	Redis    RedisConfig   `yaml:"redis"`
	Kafka    KafkaConfig   `yaml:"kafka"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type MetricsConfig struct {
	// Port 0 disables the metrics listener.
	Port int `yaml:"port"`
}

// StorageConfig selects the data service backend. URL and Key are used by
// postgrest; DSN by postgres and sqlite3.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
	Key    string `yaml:"key"`
	DSN    string `yaml:"dsn"`
}

// RedisConfig enables the snapshot mirror when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// KafkaConfig enables notifications when Brokers is not empty.
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	OutboxSize    int           `yaml:"outbox_size"`
	BatchLimit    int           `yaml:"batch_limit"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// MustLoad loads the config at path, falling back to CONFIG_PATH, and panics
// on any error including missing data service credentials.
func MustLoad(path string) *Config {
	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path == "" {
		panic("config path is empty")
	}

	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}

	return cfg, nil
}

// Parse decodes data, applies env overrides and defaults, and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envStorageURL); v != "" {
		c.Storage.URL = v
	}
	if v := os.Getenv(envStorageKey); v != "" {
		c.Storage.Key = v
	}
	if v := os.Getenv(envStorageDSN); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv(envHTTPAddress); v != "" {
		c.HTTP.Address = v
	}
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	if c.Env == "" {
		c.Env = EnvLocal
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 5 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.HTTP.IdleTimeout <= 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverPostgREST
	}
	if c.Redis.TTL <= 0 {
		c.Redis.TTL = 10 * time.Minute
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "eventboard"
	}
	if c.Kafka.OutboxSize <= 0 {
		c.Kafka.OutboxSize = 1024
	}
	if c.Kafka.BatchLimit <= 0 {
		c.Kafka.BatchLimit = 100
	}
	if c.Kafka.FlushInterval <= 0 {
		c.Kafka.FlushInterval = time.Second
	}
}

func (c *Config) Validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown env %q", c.Env)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	switch c.Storage.Driver {
	case DriverPostgREST:
		if c.Storage.URL == "" || c.Storage.Key == "" {
			return errors.New("storage: url and key are required for the postgrest driver")
		}
	case DriverPostgres, DriverSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage: dsn is required for the %s driver", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("storage: unknown driver %q", c.Storage.Driver)
	}

	return nil
}

// Location returns the configured timezone; Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}

	return loc
}
