package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./roastx.db" {
			t.Errorf("expected database path ./roastx.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.API.BaseURL != "http://localhost:8000" {
			t.Errorf("expected api base url http://localhost:8000, got %s", config.API.BaseURL)
		}

		if config.API.Paths.AddWrapped != "/spotify_data/addwrapped/" {
			t.Errorf("expected add_wrapped path, got %s", config.API.Paths.AddWrapped)
		}

		if len(config.API.ForwardCookies) != 2 {
			t.Errorf("expected 2 forwarded cookies, got %v", config.API.ForwardCookies)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[api]
base_url = "https://roast.example.com"

[api.paths]
add_duo = "/v2/duo/"

[auth]
login_url = "https://roast.example.com/login"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.API.Paths.AddDuo != "/v2/duo/" {
			t.Errorf("expected overridden add_duo path, got %s", config.API.Paths.AddDuo)
		}

		if config.API.Paths.AddWrapped != "/spotify_data/addwrapped/" {
			t.Errorf("expected add_wrapped to keep its default, got %s", config.API.Paths.AddWrapped)
		}

		if config.Server.SessionCookie != "roastx_session" {
			t.Errorf("expected session cookie default to survive, got %s", config.Server.SessionCookie)
		}

		if config.Auth.LoginURL != "https://roast.example.com/login" {
			t.Errorf("expected login url, got %s", config.Auth.LoginURL)
		}
	})

	t.Run("LoadOrDefault", func(t *testing.T) {
		t.Run("Missing File", func(t *testing.T) {
			config, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.Server.Port != 3000 {
				t.Errorf("expected defaults, got port %d", config.Server.Port)
			}
		})

		t.Run("Invalid TOML", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			if err := os.WriteFile(path, []byte("[server\nport ="), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadOrDefault(path); err == nil {
				t.Error("expected parse error")
			}
		})
	})

	t.Run("SaveConfig", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "saved.toml")
		config := DefaultConfig()
		config.Server.Port = 4242

		if err := SaveConfig(path, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		if loaded.Server.Port != 4242 {
			t.Errorf("expected port 4242, got %d", loaded.Server.Port)
		}

		if err := SaveConfig(path, nil); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for nil config, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{"bad port", func(c *Config) { c.Server.Port = 0 }},
			{"bad base url", func(c *Config) { c.API.BaseURL = "localhost:8000" }},
			{"empty cookie name", func(c *Config) { c.Server.SessionCookie = "" }},
			{"bad log level", func(c *Config) { c.Server.LogLevel = "loud" }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("Durations", func(t *testing.T) {
		config := DefaultConfig()
		if got := config.Server.SessionTTL(); got != 24*time.Hour {
			t.Errorf("expected 24h session ttl, got %v", got)
		}
		if got := config.API.Timeout(); got != 30*time.Second {
			t.Errorf("expected 30s timeout, got %v", got)
		}

		config.Server.SessionTTLHours = 0
		config.API.TimeoutSeconds = -1
		if got := config.Server.SessionTTL(); got != 24*time.Hour {
			t.Errorf("expected fallback ttl, got %v", got)
		}
		if got := config.API.Timeout(); got != 30*time.Second {
			t.Errorf("expected fallback timeout, got %v", got)
		}
	})
}
