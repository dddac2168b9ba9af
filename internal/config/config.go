// Package config loads archid CLI settings.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds CLI configuration.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Output OutputConfig `toml:"output"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// OutputConfig holds result presentation settings.
type OutputConfig struct {
	Format string `toml:"format"` // text or json
	Hints  bool   `toml:"hints"`  // Print near-miss signature keys for unsupported models
}

// Load reads configuration from file and env. Env var overrides use prefix ARCHID_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("output.format", "text")
	v.SetDefault("output.hints", true)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("ARCHID_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "archid"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("ARCHID")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// A missing default config is fine; an explicit one must load.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgPath != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if !oneOf(c.Log.Format, "text", "json") {
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if !oneOf(c.Output.Format, "text", "json") {
		return fmt.Errorf("output.format: unknown format %q", c.Output.Format)
	}
	return nil
}

// SlogLevel converts Level to a slog level.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if strings.EqualFold(s, o) {
			return true
		}
	}
	return false
}
