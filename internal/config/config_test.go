package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, UserConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, UserConfigFile), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	l := NewLoader(nil)
	l.home = t.TempDir()

	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BackendURL != Default().BackendURL {
		t.Errorf("BackendURL = %q, want default", cfg.BackendURL)
	}
	if time.Duration(cfg.Timeout) != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", time.Duration(cfg.Timeout))
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	home := t.TempDir()
	writeConfig(t, home, `
backend_url: https://boards.example.com/api
timeout: 30s
cache_ttl: 2m
page_size: 50
user:
  id: u-42
  role: admin
`)

	l := NewLoader(nil)
	l.home = home

	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BackendURL != "https://boards.example.com/api" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if time.Duration(cfg.Timeout) != 30*time.Second {
		t.Errorf("Timeout = %v", time.Duration(cfg.Timeout))
	}
	if time.Duration(cfg.CacheTTL) != 2*time.Minute {
		t.Errorf("CacheTTL = %v", time.Duration(cfg.CacheTTL))
	}
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d", cfg.PageSize)
	}
	if cfg.User.ID != "u-42" || cfg.User.Role != "admin" {
		t.Errorf("User = %+v", cfg.User)
	}
}

func TestLoad_PartialFileKeepsOtherDefaults(t *testing.T) {
	home := t.TempDir()
	writeConfig(t, home, "backend_url: https://boards.example.com/api\n")

	l := NewLoader(nil)
	l.home = home

	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PageSize != Default().PageSize {
		t.Errorf("PageSize = %d, want default", cfg.PageSize)
	}
	if time.Duration(cfg.CacheTTL) != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want default", time.Duration(cfg.CacheTTL))
	}
}

func TestLoad_ExplicitZeroCacheTTLDisablesCaching(t *testing.T) {
	home := t.TempDir()
	writeConfig(t, home, "cache_ttl: 0s\n")

	l := NewLoader(nil)
	l.home = home

	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	// An explicit zero is a setting, not an absent key.
	if time.Duration(cfg.CacheTTL) != 0 {
		t.Errorf("CacheTTL = %v, want 0", time.Duration(cfg.CacheTTL))
	}
	if time.Duration(cfg.Timeout) != 15*time.Second {
		t.Errorf("Timeout = %v, want untouched default", time.Duration(cfg.Timeout))
	}
}

func TestLoad_TokenEnvOverride(t *testing.T) {
	t.Setenv(TokenEnv, "env-token")

	l := NewLoader(nil)
	l.home = t.TempDir()

	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Token != "env-token" {
		t.Errorf("Token = %q, want env override", cfg.Token)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing url", func(c *Config) { c.BackendURL = "" }, "backend_url is required"},
		{"relative url", func(c *Config) { c.BackendURL = "/api" }, "not an absolute URL"},
		{"negative timeout", func(c *Config) { c.Timeout = Duration(-time.Second) }, "timeout"},
		{"zero page size", func(c *Config) { c.PageSize = 0 }, "page_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("timeout: fifteen\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected parse error for invalid duration")
	}
}
