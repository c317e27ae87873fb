package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"tripseat/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Events     EventsConfig     `yaml:"events"`
}

// EventsConfig controls forwarding of booking events to Redis.
type EventsConfig struct {
	RelayEnabled bool   `yaml:"relay_enabled"`
	QueueKey     string `yaml:"queue_key"`
	MaxRetries   int    `yaml:"max_retries"`
}

type BookingConfig struct {
	MaxSeatsPerBooking int    `yaml:"max_seats_per_booking"`
	Locale             string `yaml:"locale"`
	LockTTLSeconds     int    `yaml:"lock_ttl_seconds"`
	LockWaitSeconds    int    `yaml:"lock_wait_seconds"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
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
}

func Load(configPath string) (*Config, error) {
	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Подставляем переменные окружения в YAML
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
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.API.Auth.Enabled && (c.API.Auth.JWTSecret == "" || c.API.Auth.JWTSecret == "CHANGE_ME") {
		return errors.New("api.auth.jwt_secret is required when auth is enabled")
	}

	if c.Booking.MaxSeatsPerBooking < 1 {
		return fmt.Errorf("booking.max_seats_per_booking must be positive, got %d", c.Booking.MaxSeatsPerBooking)
	}

	if c.Events.RelayEnabled && c.Redis.Address == "" {
		return errors.New("events.relay_enabled requires redis.address")
	}

	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		return errors.New("backup.storage_path is required when backups are enabled")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.Issuer == "" {
		c.API.Auth.Issuer = "tripseat"
	}

	// Booking defaults
	if c.Booking.MaxSeatsPerBooking == 0 {
		c.Booking.MaxSeatsPerBooking = models.DefaultMaxSeatsPerBooking
	}
	c.Booking.Locale = strings.ToLower(strings.TrimSpace(c.Booking.Locale))
	if c.Booking.Locale == "" {
		c.Booking.Locale = models.DefaultLocale
	}
	if c.Booking.LockTTLSeconds == 0 {
		c.Booking.LockTTLSeconds = models.DefaultLockTTL
	}
	if c.Booking.LockWaitSeconds == 0 {
		c.Booking.LockWaitSeconds = models.DefaultLockWait
	}
}
