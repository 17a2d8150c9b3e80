// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}

	if cfg.API.BaseURL != "http://localhost:5000/api" {
		t.Errorf("expected base_url=http://localhost:5000/api, got %s", cfg.API.BaseURL)
	}

	if cfg.APITimeout() != 30*time.Second {
		t.Errorf("expected timeout=30s, got %s", cfg.APITimeout())
	}

	if cfg.SignalTTL() != 10*time.Minute {
		t.Errorf("expected ttl=10m, got %s", cfg.SignalTTL())
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_BugdeskConfig(t *testing.T) {
	configPath := writeConfig(t, "bugdesk.yaml", `
environment: staging
api:
  base_url: https://bugs.staging.example.com/api
`)
	t.Setenv("BUGDESK_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}

	if cfg.API.BaseURL != "https://bugs.staging.example.com/api" {
		t.Errorf("expected staging base_url, got %s", cfg.API.BaseURL)
	}
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	t.Setenv("BUGDESK_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for a missing BUGDESK_CONFIG file")
	}
}

func TestLoad_MissingDefaultFileMeansDefaults(t *testing.T) {
	t.Setenv("BUGDESK_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.API.BaseURL != Default().API.BaseURL {
		t.Errorf("expected default base_url, got %s", cfg.API.BaseURL)
	}
}

func TestLoad_DefaultPath(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("BUGDESK_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", configHome)

	if err := os.MkdirAll(filepath.Join(configHome, "bugdesk"), 0755); err != nil {
		t.Fatal(err)
	}
	content := "log:\n  level: debug\n"
	if err := os.WriteFile(filepath.Join(configHome, "bugdesk", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("expected level=debug, got %s", cfg.LogLevel())
	}
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, "bugdesk.yaml", `
environment: staging

api:
  base_url: http://tracker.internal:8080/api
  timeout: 5s

session:
  file: /custom/session.json
  identity_file: /custom/identity.txt

signals:
  ttl: 2m

ui:
  theme: light
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.APITimeout() != 5*time.Second {
		t.Errorf("expected timeout=5s, got %s", cfg.APITimeout())
	}

	if cfg.Session.File != "/custom/session.json" || cfg.Session.IdentityFile != "/custom/identity.txt" {
		t.Errorf("unexpected session config: %+v", cfg.Session)
	}

	if cfg.SignalTTL() != 2*time.Minute {
		t.Errorf("expected ttl=2m, got %s", cfg.SignalTTL())
	}

	if cfg.UI.Theme != "light" {
		t.Errorf("expected theme=light, got %s", cfg.UI.Theme)
	}

	// Unset keys keep their defaults.
	if cfg.Log.Level != "info" {
		t.Errorf("expected level=info, got %s", cfg.Log.Level)
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	configPath := writeConfig(t, "bugdesk.jsonc", `{
  // Point at the shared staging tracker.
  "environment": "staging",
  "api": {
    "base_url": "https://bugs.example.com/api",
    "timeout": "10s", // slow VPN
  },
}`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Environment != Staging || cfg.API.BaseURL != "https://bugs.example.com/api" || cfg.APITimeout() != 10*time.Second {
		t.Errorf("unexpected config: %+v", cfg.API)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Run("explicit section", func(t *testing.T) {
		configPath := writeConfig(t, "bugdesk.yaml", `
environment: production

api:
  base_url: http://localhost:5000/api

production:
  api:
    base_url: https://bugs.example.com/api
    timeout: 15s
  log:
    level: error
`)
		cfg, err := LoadFile(configPath)
		if err != nil {
			t.Fatalf("LoadFile failed: %v", err)
		}

		if cfg.API.BaseURL != "https://bugs.example.com/api" {
			t.Errorf("expected production base_url, got %s", cfg.API.BaseURL)
		}
		if cfg.APITimeout() != 15*time.Second {
			t.Errorf("expected timeout=15s, got %s", cfg.APITimeout())
		}
		if cfg.Log.Level != "error" {
			t.Errorf("expected level=error, got %s", cfg.Log.Level)
		}
	})

	t.Run("production defaults", func(t *testing.T) {
		cfg, err := LoadFile(writeConfig(t, "bugdesk.yaml", "environment: production\n"))
		if err != nil {
			t.Fatalf("LoadFile failed: %v", err)
		}
		if cfg.Log.Level != "warn" {
			t.Errorf("expected level=warn in production, got %s", cfg.Log.Level)
		}
	})

	t.Run("other sections ignored", func(t *testing.T) {
		cfg, err := LoadFile(writeConfig(t, "bugdesk.yaml", `
environment: development
staging:
  api:
    base_url: https://staging.example.com/api
`))
		if err != nil {
			t.Fatalf("LoadFile failed: %v", err)
		}
		if cfg.API.BaseURL != "http://localhost:5000/api" {
			t.Errorf("staging override leaked into development: %s", cfg.API.BaseURL)
		}
	})
}

func TestPathExpansion(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("BUGDESK_API_HOST", "")

	cfg, err := LoadFile(writeConfig(t, "bugdesk.yaml", `
api:
  base_url: http://${BUGDESK_API_HOST:-localhost:5000}/api
session:
  file: ${HOME}/.bugdesk/session.json
`))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:5000/api" {
		t.Errorf("expected default host, got %s", cfg.API.BaseURL)
	}
	if cfg.Session.File != "/home/tester/.bugdesk/session.json" {
		t.Errorf("expected expanded session file, got %s", cfg.Session.File)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/bugdesk",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/bugdesk",
		},
		{
			input:    "${BUGDESK_TEST_MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid environment",
			modify:  func(c *Config) { c.Environment = "invalid" },
			wantErr: true,
		},
		{
			name:    "empty base url",
			modify:  func(c *Config) { c.API.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "non-http base url",
			modify:  func(c *Config) { c.API.BaseURL = "ftp://bugs.example.com" },
			wantErr: true,
		},
		{
			name:    "bad timeout",
			modify:  func(c *Config) { c.API.Timeout = "soon" },
			wantErr: true,
		},
		{
			name:    "negative ttl",
			modify:  func(c *Config) { c.Signals.TTL = "-1m" },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "unknown theme",
			modify:  func(c *Config) { c.UI.Theme = "solarized" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
