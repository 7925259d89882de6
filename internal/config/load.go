package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "SYNCDASH"

// Load configuration from environment variables and optionally a YAML file.
// Environment variables take precedence over values from the config file.
// If path is empty, the SYNCDASH_CONFIG environment variable is consulted; a
// missing file is not an error when no path was given explicitly.
// Overrides run after decoding and before validation, so command-line flags
// can supply required values.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	def := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	v.SetDefault("client.base_url", def.Client.BaseURL)
	v.SetDefault("client.requested_with", def.Client.RequestedWith)
	v.SetDefault("notify.dismiss_after", def.Notify.DismissAfter)
	v.SetDefault("notify.removal_delay", def.Notify.RemovalDelay)
	v.SetDefault("runner.worker_count", def.Runner.WorkerCount)
	v.SetDefault("runner.queue_size", def.Runner.QueueSize)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.max_size_mb", def.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
	v.SetDefault("log.max_age_days", def.Log.MaxAgeDays)
	v.SetDefault("log.compress", def.Log.Compress)

	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	for _, override := range overrides {
		override(&cfg)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
