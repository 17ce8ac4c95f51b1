// Package config loads and validates the server's configuration, the way
// the teacher project's config.go does it: viper-backed, with defaults,
// environment overrides, and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds every tunable of the running server.
type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	MaxClients int           `mapstructure:"max_clients"`
	Timeout    time.Duration `mapstructure:"timeout"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// DatabaseCount is validated and reported; the server serves a single
	// keyspace whatever its value.
	DatabaseCount int `mapstructure:"database_count"`
	// ActiveExpireCycleMs is the delay before the active-expire cron first
	// runs; later runs are rescheduled every ActiveExpireCycleMs/1000 whole
	// seconds, i.e. on every loop pass when it is below 1000.
	ActiveExpireCycleMs int `mapstructure:"active_expire_cycle_ms"`
	// ListenBacklog is handed to the listener as an accept-queue depth hint;
	// Go's net package chooses the actual backlog.
	ListenBacklog int `mapstructure:"listen_backlog"`
	// EventLoopPollMs is reported only; the reactor's readiness poll always
	// uses a 1000 ms timeout.
	EventLoopPollMs int `mapstructure:"event_loop_poll_ms"`

	TCPKeepAlive bool          `mapstructure:"tcp_keepalive"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Host:                "localhost",
		Port:                6379,
		MaxClients:          10000,
		Timeout:             30 * time.Second,
		LogLevel:            "info",
		LogFormat:           "text",
		DatabaseCount:       16,
		ActiveExpireCycleMs: 100,
		ListenBacklog:       3,
		EventLoopPollMs:     1000,
		TCPKeepAlive:        true,
		ReadTimeout:         30 * time.Second,
		WriteTimeout:        30 * time.Second,
	}
}

// LoadConfig loads configuration from environment variables, an optional
// config file, and defaults, in viper's usual precedence order.
func LoadConfig() (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigName("goredis")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/goredis/")
	viper.AddConfigPath("$HOME/.goredis")

	viper.SetEnvPrefix("GOREDIS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("host", config.Host)
	viper.SetDefault("port", config.Port)
	viper.SetDefault("max_clients", config.MaxClients)
	viper.SetDefault("timeout", config.Timeout)
	viper.SetDefault("log_level", config.LogLevel)
	viper.SetDefault("log_format", config.LogFormat)
	viper.SetDefault("database_count", config.DatabaseCount)
	viper.SetDefault("active_expire_cycle_ms", config.ActiveExpireCycleMs)
	viper.SetDefault("listen_backlog", config.ListenBacklog)
	viper.SetDefault("event_loop_poll_ms", config.EventLoopPollMs)
	viper.SetDefault("tcp_keepalive", config.TCPKeepAlive)
	viper.SetDefault("read_timeout", config.ReadTimeout)
	viper.SetDefault("write_timeout", config.WriteTimeout)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return config, nil
}

// WatchLogLevel re-reads log_level on every config-file write, invoking
// onChange with the new value. Only the log level is hot-reloaded;
// everything else requires a restart, matching the teacher's mostly
// static configuration model.
func WatchLogLevel(onChange func(newLevel string)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		onChange(viper.GetString("log_level"))
	})
	viper.WatchConfig()
}

var validLogLevels = []string{"trace", "debug", "info", "warn", "error", "fatal"}

// Validate checks the configuration for internally-consistent values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}
	if c.MaxClients < 1 {
		return fmt.Errorf("max_clients must be at least 1")
	}
	if c.DatabaseCount < 1 {
		return fmt.Errorf("database_count must be at least 1")
	}
	valid := false
	for _, level := range validLogLevels {
		if c.LogLevel == level {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid log_level: %s (must be one of: %s)",
			c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	return nil
}

// String renders a short human-readable summary.
func (c *Config) String() string {
	return fmt.Sprintf("goredis config: %s:%d, databases: %d, log_level: %s",
		c.Host, c.Port, c.DatabaseCount, c.LogLevel)
}
