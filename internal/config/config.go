package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Client ClientConfig `mapstructure:"client" validate:"required"`
	Notify NotifyConfig `mapstructure:"notify" validate:"required"`
	Runner RunnerConfig `mapstructure:"runner" validate:"required"`
	Log    LogConfig    `mapstructure:"log" validate:"required"`
}

// ClientConfig contains the settings of the dashboard API client.
type ClientConfig struct {
	// BaseURL is the root of the dashboard, e.g. http://localhost:5000
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// RequestedWith is the value of the X-Requested-With marker header
	// that identifies programmatic requests to the server.
	RequestedWith string `mapstructure:"requested_with" validate:"required"`
}

// NotifyConfig controls how long notifications stay on screen.
type NotifyConfig struct {
	// DismissAfter is the time a notification stays visible before it starts
	// its dismiss phase.
	DismissAfter time.Duration `mapstructure:"dismiss_after" validate:"gt=0"`

	// RemovalDelay is the time between the start of the dismiss phase and
	// removal from the stack.
	RemovalDelay time.Duration `mapstructure:"removal_delay" validate:"gte=0"`
}

// RunnerConfig holds task runner settings.
type RunnerConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize   int `mapstructure:"queue_size" validate:"gt=0"`
}

// LogConfig defines logger settings. An empty File means stderr.
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with default values. BaseURL has no
// default and must be provided.
func Default() Config {
	return Config{
		Client: ClientConfig{
			RequestedWith: "XMLHttpRequest",
		},
		Notify: NotifyConfig{
			DismissAfter: 5000 * time.Millisecond,
			RemovalDelay: 150 * time.Millisecond,
		},
		Runner: RunnerConfig{
			WorkerCount: 2,
			QueueSize:   100,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}
