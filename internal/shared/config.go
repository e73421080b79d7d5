package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	API      APIConfig      `toml:"api"`
	Auth     AuthConfig     `toml:"auth"`
}

// ServerConfig contains HTTP server and browser session settings.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	LogLevel        string `toml:"log_level"`
	SessionCookie   string `toml:"session_cookie"`
	SessionTTLHours int    `toml:"session_ttl_hours"`
	SecureCookies   bool   `toml:"secure_cookies"`
	MemorySessions  bool   `toml:"memory_sessions"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// APIConfig describes the remote roast API.
type APIConfig struct {
	BaseURL        string   `toml:"base_url"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	RateLimit      float64  `toml:"rate_limit"`
	ForwardCookies []string `toml:"forward_cookies"`
	CSRFCookie     string   `toml:"csrf_cookie"`
	Paths          APIPaths `toml:"paths"`
}

// APIPaths holds every remote endpoint path, relative to [APIConfig.BaseURL].
type APIPaths struct {
	AuthStatus    string `toml:"auth_status"`
	AuthURL       string `toml:"auth_url"`
	CSRFToken     string `toml:"csrf_token"`
	Login         string `toml:"login"`
	Signup        string `toml:"signup"`
	Logout        string `toml:"logout"`
	DeleteAccount string `toml:"delete_account"`
	Username      string `toml:"username"`
	CheckUsername string `toml:"check_username"`
	UpdateUser    string `toml:"update_user"`
	AddWrapped    string `toml:"add_wrapped"`
	AddDuo        string `toml:"add_duo"`
	Display       string `toml:"display"`
	History       string `toml:"history"`
	Requests      string `toml:"requests"`
}

// AuthConfig controls where unauthenticated visitors are sent.
type AuthConfig struct {
	LoginURL string        `toml:"login_url"`
	Spotify  SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the public OAuth client settings used to build the authorize URL.
//
// The token exchange happens on the remote API, so no secret is stored here.
type SpotifyConfig struct {
	ClientID    string   `toml:"client_id"`
	RedirectURI string   `toml:"redirect_uri"`
	Scopes      []string `toml:"scopes"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SessionTTL returns the browser session lifetime.
func (s ServerConfig) SessionTTL() time.Duration {
	if s.SessionTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.SessionTTLHours) * time.Hour
}

// Timeout returns the per-request timeout for remote API calls.
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Validate reports the first configuration value that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d", ErrInvalidConfig, c.Server.Port)
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("%w: api.base_url must be an http(s) URL, got %q", ErrInvalidConfig, c.API.BaseURL)
	}
	if c.Server.SessionCookie == "" {
		return fmt.Errorf("%w: server.session_cookie is empty", ErrInvalidConfig)
	}
	if _, err := ParseLogLevel(c.Server.LogLevel); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// LoadOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	return LoadConfig(path)
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
