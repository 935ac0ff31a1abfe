// Package config loads host configuration for the foundry workspace tools
// from foundry.yml, with environment-variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/foundry-lang/foundry/workspace"
)

// Config represents the foundry host configuration.
type Config struct {
	Load  LoadConfig  `mapstructure:"load"`
	Apply ApplyConfig `mapstructure:"apply"`
	Watch WatchConfig `mapstructure:"watch"`
	Text  TextConfig  `mapstructure:"text"`
}

// LoadConfig controls solution loading.
type LoadConfig struct {
	// Strict raises load failures instead of recording diagnostics.
	Strict bool `mapstructure:"strict"`

	// MetadataFallback substitutes artifact references for unloadable
	// project references.
	MetadataFallback bool `mapstructure:"metadata_fallback"`
}

// ApplyConfig controls change application.
type ApplyConfig struct {
	// DisabledChanges lists change kinds the host rejects, by name
	// (e.g. "AddAdditionalDocument").
	DisabledChanges []string `mapstructure:"disabled_changes"`
}

// WatchConfig controls the file watcher.
type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms"`
}

// TextConfig controls the filesystem text source.
type TextConfig struct {
	RetryDelayMS int `mapstructure:"retry_delay_ms"`
}

// Load loads configuration from foundry.yml in the given directory, falling
// back to defaults when the file does not exist.
func Load(dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("load.strict", false)
	v.SetDefault("load.metadata_fallback", true)
	v.SetDefault("watch.debounce_ms", 100)
	v.SetDefault("text.retry_delay_ms", 50)

	v.SetConfigName("foundry")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("FOUNDRY")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file: defaults apply.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func validate(c *Config) error {
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative")
	}
	if c.Text.RetryDelayMS < 0 {
		return fmt.Errorf("text.retry_delay_ms must not be negative")
	}
	for _, name := range c.Apply.DisabledChanges {
		if _, ok := workspace.ChangeKindFromName(name); !ok {
			return fmt.Errorf("unknown change kind %q in apply.disabled_changes", name)
		}
	}
	return nil
}

// Capabilities builds the workspace capability table from the configured
// disabled change kinds.
func (c *Config) Capabilities() workspace.Capabilities {
	caps := workspace.DefaultCapabilities()
	var kinds []workspace.ChangeKind
	for _, name := range c.Apply.DisabledChanges {
		if kind, ok := workspace.ChangeKindFromName(name); ok {
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) > 0 {
		caps = caps.Disable(kinds...)
	}
	return caps
}

// Debounce returns the watch debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// RetryDelay returns the text read retry delay as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Text.RetryDelayMS) * time.Millisecond
}
