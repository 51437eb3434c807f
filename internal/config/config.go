// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pitchside/pitchside/clients"
)

// Config holds all application configuration.
type Config struct {
	Provider      ProviderConfig      `mapstructure:"provider"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	NATS          NATSConfig          `mapstructure:"nats"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Delivery      DeliveryConfig      `mapstructure:"delivery"`
	Email         EmailConfig         `mapstructure:"email"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Workers       WorkersConfig       `mapstructure:"workers"`
}

// ProviderConfig holds the cricket data provider settings. Source names
// the registered snapshot provider to run with.
type ProviderConfig struct {
	Source             string `mapstructure:"source"`
	BaseURL            string `mapstructure:"base_url"`
	APIKey             string `mapstructure:"api_key"`
	UpcomingWindowDays int    `mapstructure:"upcoming_window_days"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
}

// RedisConfig holds the snapshot cache connection configuration.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

// NATSConfig holds the job queue connection configuration.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// SchedulerConfig holds the cadence of each recurring job.
type SchedulerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	LiveInterval     time.Duration `mapstructure:"live_interval"`
	UpcomingInterval time.Duration `mapstructure:"upcoming_interval"`
	DeliveryInterval time.Duration `mapstructure:"delivery_interval"`
	ReferenceSyncAt  string        `mapstructure:"reference_sync_at"`
}

// DeliveryConfig holds email drain settings.
type DeliveryConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

// EmailConfig holds the transactional email sender settings.
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// NotificationsConfig gates notification materialization.
type NotificationsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// WorkersConfig holds the job consumer pool size.
type WorkersConfig struct {
	Count int `mapstructure:"count"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. PROVIDER_API_KEY, DATABASE_HOST, NATS_URL.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not found is OK; env vars can provide all config.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first missing required setting. The process must
// refuse to start on incomplete config rather than limp along.
func (c *Config) Validate() error {
	if !clients.ValidateExternalSource(clients.ExternalSource(c.Provider.Source)) {
		return fmt.Errorf("provider.source %q is not a registered snapshot provider", c.Provider.Source)
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required")
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		return fmt.Errorf("database.host and database.name are required")
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	if c.Email.ResendAPIKey == "" {
		return fmt.Errorf("email.resend_api_key is required")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.source", string(clients.ExternalSourceCricketData))
	v.SetDefault("provider.base_url", "https://api.cricketdata.org/v1")
	v.SetDefault("provider.upcoming_window_days", 7)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "pitchside")
	v.SetDefault("database.name", "pitchside")
	v.SetDefault("database.pool_size", 20)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snapshot_ttl", "6h")

	v.SetDefault("nats.url", "nats://localhost:4222")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.live_interval", "30s")
	v.SetDefault("scheduler.upcoming_interval", "15m")
	v.SetDefault("scheduler.delivery_interval", "20s")
	v.SetDefault("scheduler.reference_sync_at", "04:00")

	v.SetDefault("delivery.batch_size", 50)

	v.SetDefault("email.from", "Pitchside <updates@pitchside.app>")

	v.SetDefault("notifications.enabled", true)

	v.SetDefault("workers.count", 5)
}
