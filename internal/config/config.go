package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"

	TransportLog  = "log"
	TransportAMQP = "amqp"
)

type Config struct {
	App          AppConfig          `yaml:"app"`
	Storage      StorageConfig      `yaml:"storage"`
	API          APIConfig          `yaml:"api"`
	Monitoring   MonitoringConfig   `yaml:"monitoring"`
	Logging      LoggingConfig      `yaml:"logging"`
	Notification NotificationConfig `yaml:"notification"`
	Booking      BookingConfig      `yaml:"booking"`
	Events       EventsConfig       `yaml:"events"`
	Exports      ExportConfig       `yaml:"exports"`
	Backup       BackupConfig       `yaml:"backup"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type StorageConfig struct {
	Driver string       `yaml:"driver"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	Redis  RedisConfig  `yaml:"redis"`
	// Fallback keeps flow sessions writable in memory when redis drops.
	// Bookings and the site config never fail over.
	Fallback bool `yaml:"fallback"`
	// SessionTTL expires abandoned flow sessions on every driver.
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	PoolSize  int    `yaml:"pool_size"`
	KeyPrefix string `yaml:"key_prefix"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
	// Caller adds file:line to every entry.
	Caller bool `yaml:"caller"`
}

type NotificationConfig struct {
	Transport string      `yaml:"transport"`
	AMQP      AMQPConfig  `yaml:"amqp"`
	Retry     RetryConfig `yaml:"retry"`
	QueueSize int         `yaml:"queue_size"`
}

type AMQPConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}

type BookingConfig struct {
	// CloseDelay is how long the UI keeps the success screen open.
	CloseDelay  time.Duration `yaml:"close_delay"`
	StrictPhone bool          `yaml:"strict_phone"`
	DefaultLang string        `yaml:"default_lang"`
}

type EventsConfig struct {
	ForwardAMQP bool       `yaml:"forward_amqp"`
	AMQP        AMQPConfig `yaml:"amqp"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// BackupConfig schedules online copies of the sqlite document database.
type BackupConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      time.Duration `yaml:"interval"`
	Path          string        `yaml:"path"`
	RetentionDays int           `yaml:"retention_days"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; real environment wins.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLite.Path == "" {
			return errors.New("storage.sqlite.path is required")
		}
	case DriverRedis:
		if c.Storage.Redis.Address == "" {
			return errors.New("storage.redis.address is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Storage.SessionTTL < 0 {
		return errors.New("storage.session_ttl must not be negative")
	}

	switch c.Notification.Transport {
	case TransportLog:
	case TransportAMQP:
		if c.Notification.AMQP.URL == "" {
			return errors.New("notification.amqp.url is required for amqp transport")
		}
	default:
		return fmt.Errorf("unknown notification transport %q", c.Notification.Transport)
	}

	if c.Events.ForwardAMQP && c.Events.AMQP.URL == "" {
		return errors.New("events.amqp.url is required when forwarding is enabled")
	}

	return ValidateAPIKeys(c.API.Auth.APIKeys)
}

func ValidateAPIKeys(keys []APIClientKey) error {
	seen := make(map[string]bool)
	for _, k := range keys {
		if strings.TrimSpace(k.Key) == "" {
			return fmt.Errorf("api key %q has empty key", k.Name)
		}
		if seen[k.Key] {
			return fmt.Errorf("duplicate api key for client %q", k.Name)
		}
		seen[k.Key] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "viona"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = "data/viona.db"
	}
	if c.Storage.Redis.KeyPrefix == "" {
		c.Storage.Redis.KeyPrefix = "viona:"
	}
	if c.Storage.SessionTTL == 0 {
		c.Storage.SessionTTL = 24 * time.Hour
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	// admin endpoints are always key-protected
	if !c.API.Auth.Enabled {
		c.API.Auth.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Notification.Transport == "" {
		c.Notification.Transport = TransportLog
	}
	if c.Notification.AMQP.Queue == "" {
		c.Notification.AMQP.Queue = "viona.notifications.email"
	}
	if c.Notification.QueueSize == 0 {
		c.Notification.QueueSize = 128
	}
	if c.Events.AMQP.Queue == "" {
		c.Events.AMQP.Queue = "viona.events"
	}

	if c.Booking.CloseDelay == 0 {
		c.Booking.CloseDelay = 3 * time.Second
	}
	if c.Booking.DefaultLang == "" {
		c.Booking.DefaultLang = "tr"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Backup.Interval == 0 {
		c.Backup.Interval = 24 * time.Hour
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "backups"
	}
}
