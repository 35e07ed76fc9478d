// Package config loads boardctl's client configuration.
//
// Precedence: built-in defaults, then the user config file
// (~/.boardctl/config.yaml), then environment variables for the secrets that
// don't belong in a file (BOARDCTL_TOKEN).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// UserConfigDir is the directory under $HOME holding client state.
const UserConfigDir = ".boardctl"

// UserConfigFile is the config file name inside UserConfigDir.
const UserConfigFile = "config.yaml"

// TokenEnv overrides the configured auth token.
const TokenEnv = "BOARDCTL_TOKEN"

// Duration wraps time.Duration for YAML values like "15s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the full client configuration.
type Config struct {
	BackendURL string   `yaml:"backend_url"`
	Token      string   `yaml:"token,omitempty"`
	Timeout    Duration `yaml:"timeout"`
	CacheTTL   Duration `yaml:"cache_ttl"`
	PageSize   int      `yaml:"page_size"`

	// CommentsPath is the SQLite side-store for comment threads. Empty means
	// the default under ~/.boardctl.
	CommentsPath string `yaml:"comments_path,omitempty"`

	User struct {
		ID   string `yaml:"id"`
		Role string `yaml:"role"`
	} `yaml:"user"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		BackendURL: "http://localhost:8080/api",
		Timeout:    Duration(15 * time.Second),
		CacheTTL:   Duration(5 * time.Minute),
		PageSize:   25,
	}
	cfg.User.Role = "member"
	return cfg
}

// File is the user config file shape. Pointer fields distinguish a key that
// is absent (keep the default) from one explicitly set to its zero value, so
// cache_ttl: 0s turns caching off instead of falling back to the default.
type File struct {
	BackendURL   *string   `yaml:"backend_url"`
	Token        *string   `yaml:"token"`
	Timeout      *Duration `yaml:"timeout"`
	CacheTTL     *Duration `yaml:"cache_ttl"`
	PageSize     *int      `yaml:"page_size"`
	CommentsPath *string   `yaml:"comments_path"`

	User struct {
		ID   *string `yaml:"id"`
		Role *string `yaml:"role"`
	} `yaml:"user"`
}

// Merge overlays the keys present in the file.
func (c *Config) Merge(f *File) {
	if f.BackendURL != nil {
		c.BackendURL = *f.BackendURL
	}
	if f.Token != nil {
		c.Token = *f.Token
	}
	if f.Timeout != nil {
		c.Timeout = *f.Timeout
	}
	if f.CacheTTL != nil {
		c.CacheTTL = *f.CacheTTL
	}
	if f.PageSize != nil {
		c.PageSize = *f.PageSize
	}
	if f.CommentsPath != nil {
		c.CommentsPath = *f.CommentsPath
	}
	if f.User.ID != nil {
		c.User.ID = *f.User.ID
	}
	if f.User.Role != nil {
		c.User.Role = *f.User.Role
	}
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return errors.New("backend_url is required")
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend_url %q is not an absolute URL", c.BackendURL)
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if c.CacheTTL < 0 {
		return errors.New("cache_ttl must not be negative")
	}
	if c.PageSize < 1 {
		return errors.New("page_size must be at least 1")
	}
	return nil
}

// LoadFromFile reads one YAML config file.
func LoadFromFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &f, nil
}

// Loader applies the layered precedence.
type Loader struct {
	logger *slog.Logger

	// home overrides $HOME in tests.
	home string
}

// NewLoader creates a configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load resolves the effective configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	path := l.userConfigPath()
	if path != "" {
		if userCfg, err := LoadFromFile(path); err == nil {
			l.logger.Debug("loaded user config", slog.String("path", path))
			cfg.Merge(userCfg)
		} else if !os.IsNotExist(err) {
			l.logger.Warn("failed to load user config", slog.String("path", path), slog.Any("error", err))
		}
	}

	if token := os.Getenv(TokenEnv); token != "" {
		cfg.Token = token
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) userConfigPath() string {
	home := l.home
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		home = h
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}
