// Package config loads git-attrib settings from defaults, an optional
// config file and GIT_ATTRIB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration settings.
type Config struct {
	// NotesRef is the short notes ref name; logs live in refs/notes/<NotesRef>.
	NotesRef      string `mapstructure:"notes_ref"`
	DefaultRemote string `mapstructure:"default_remote"`
	PushRetries   int    `mapstructure:"push_retries"`
	// MarkUnknown makes blame behave as if --mark-unknown was given.
	MarkUnknown bool `mapstructure:"mark_unknown"`
	Debug       bool `mapstructure:"debug"`
	// Index enables the sqlite cache of decoded authorship logs.
	Index bool `mapstructure:"index"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		NotesRef:      "attrib",
		DefaultRemote: "origin",
		PushRetries:   3,
		Index:         true,
	}
}

// NotesRefName returns the fully qualified notes ref.
func (c *Config) NotesRefName() string {
	return "refs/notes/" + c.NotesRef
}

// Load reads configuration. An empty path searches ~/.git-attrib/config.yaml.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("notes_ref", cfg.NotesRef)
	v.SetDefault("default_remote", cfg.DefaultRemote)
	v.SetDefault("push_retries", cfg.PushRetries)
	v.SetDefault("mark_unknown", cfg.MarkUnknown)
	v.SetDefault("debug", cfg.Debug)
	v.SetDefault("index", cfg.Index)

	v.SetEnvPrefix("GIT_ATTRIB")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".git-attrib"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would break note addressing.
func (c *Config) Validate() error {
	if c.NotesRef == "" {
		return fmt.Errorf("notes_ref must not be empty")
	}
	if c.PushRetries < 0 {
		return fmt.Errorf("push_retries must be >= 0, got %d", c.PushRetries)
	}
	return nil
}
