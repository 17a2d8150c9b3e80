// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Environment selects which override section applies.
type Environment string

const (
	// Development is a local API server.
	Development Environment = "development"
	// Staging is a shared pre-production server.
	Staging Environment = "staging"
	// Production is the live tracker.
	Production Environment = "production"
)

// Config is the complete bugdesk configuration.
type Config struct {
	// Environment identifies the deployment (development, staging, production).
	Environment Environment `yaml:"environment"`

	// API configures the tracker server connection.
	API APIConfig `yaml:"api"`

	// Session configures where the session token is kept.
	Session SessionConfig `yaml:"session"`

	// Signals configures the hand-off file used by "bugdesk open".
	Signals SignalsConfig `yaml:"signals"`

	// Log configures diagnostic logging.
	Log LogConfig `yaml:"log"`

	// UI configures the terminal interface.
	UI UIConfig `yaml:"ui"`

	// Per-environment overrides, applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	API     *APIConfig     `yaml:"api,omitempty"`
	Session *SessionConfig `yaml:"session,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

// APIConfig configures the tracker server connection.
type APIConfig struct {
	// BaseURL is the API root, including the /api prefix.
	// Default: http://localhost:5000/api
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each request, as a Go duration string.
	// Default: 30s
	Timeout string `yaml:"timeout"`
}

// SessionConfig configures token persistence.
type SessionConfig struct {
	// File is the token file. Empty means the token store's default
	// location.
	File string `yaml:"file"`

	// IdentityFile is an age identity used to seal the token at rest.
	// Empty stores the token unsealed (still mode 0600). The file is
	// generated on first use if missing.
	IdentityFile string `yaml:"identity_file"`
}

// SignalsConfig configures the cross-process hand-off file.
type SignalsConfig struct {
	// File is the hand-off file. Empty means the default under
	// $XDG_STATE_HOME.
	File string `yaml:"file"`

	// TTL is how long an unread hand-off stays valid.
	// Default: 10m
	TTL string `yaml:"ttl"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: info (warn in production)
	Level string `yaml:"level"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	// Theme is auto, dark or light.
	// Default: auto
	Theme string `yaml:"theme"`
}

// Default returns the default configuration, used as the base before a
// file is loaded.
func Default() *Config {
	return &Config{
		Environment: Development,
		API: APIConfig{
			BaseURL: "http://localhost:5000/api",
			Timeout: "30s",
		},
		Signals: SignalsConfig{
			TTL: "10m",
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme: "auto",
		},
	}
}

// DefaultPath returns the config file consulted when BUGDESK_CONFIG is
// unset.
func DefaultPath() string {
	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return filepath.Join(configDirectory, "bugdesk", "config.yaml")
}

// Load loads configuration from the BUGDESK_CONFIG file if set, which
// must exist, or else from DefaultPath, which may be absent.
func Load() (*Config, error) {
	if configPath := os.Getenv("BUGDESK_CONFIG"); configPath != "" {
		return LoadFile(configPath)
	}

	configPath := DefaultPath()
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return LoadFile(configPath)
		}
	}

	cfg := Default()
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current
// config. JSON is a subset of YAML, so JSONC files only need their
// comments stripped.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &ConfigOverrides{
				Log: &LogConfig{Level: "warn"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.API != nil {
		if overrides.API.BaseURL != "" {
			c.API.BaseURL = overrides.API.BaseURL
		}
		if overrides.API.Timeout != "" {
			c.API.Timeout = overrides.API.Timeout
		}
	}

	if overrides.Session != nil {
		if overrides.Session.File != "" {
			c.Session.File = overrides.Session.File
		}
		if overrides.Session.IdentityFile != "" {
			c.Session.IdentityFile = overrides.Session.IdentityFile
		}
	}

	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths
// and the API URL.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.API.BaseURL = expandVars(c.API.BaseURL, vars)
	c.Session.File = expandVars(c.Session.File, vars)
	c.Session.IdentityFile = expandVars(c.Session.IdentityFile, vars)
	c.Signals.File = expandVars(c.Signals.File, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.API.BaseURL == "" {
		errs = append(errs, fmt.Errorf("api.base_url is required"))
	} else if parsed, err := url.Parse(c.API.BaseURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an http or https URL: %q", c.API.BaseURL))
	}

	if timeout, err := time.ParseDuration(c.API.Timeout); err != nil || timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be a positive duration: %q", c.API.Timeout))
	}

	if ttl, err := time.ParseDuration(c.Signals.TTL); err != nil || ttl <= 0 {
		errs = append(errs, fmt.Errorf("signals.ttl must be a positive duration: %q", c.Signals.TTL))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error: %q", c.Log.Level))
	}

	themes := []string{"auto", "dark", "light"}
	if !slices.Contains(themes, c.UI.Theme) {
		errs = append(errs, fmt.Errorf("ui.theme must be one of: %v", themes))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// APITimeout returns api.timeout parsed. Call Validate first; an
// unparseable value yields 0, which the client treats as its default.
func (c *Config) APITimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.API.Timeout)
	return timeout
}

// SignalTTL returns signals.ttl parsed, or 0 if unparseable.
func (c *Config) SignalTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Signals.TTL)
	return ttl
}

// LogLevel returns log.level parsed, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
