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

		if config.Database.Path != "./latte.db" {
			t.Errorf("expected database path ./latte.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if len(config.Sync.TimeRanges) != 3 {
			t.Errorf("expected 3 sync time ranges, got %v", config.Sync.TimeRanges)
		}

		if config.Auth.TokenTTL() != 168*time.Hour {
			t.Errorf("expected token ttl 168h, got %v", config.Auth.TokenTTL())
		}

		if config.HasSpotifyCredentials() {
			t.Error("placeholder credentials should not count as configured")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
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

[auth]
jwt_secret = "s3cret"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"
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

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.Cache.TTLSeconds != 600 {
			t.Errorf("missing keys should keep defaults, got cache ttl %d", config.Cache.TTLSeconds)
		}

		if !config.HasSpotifyCredentials() {
			t.Error("expected spotify credentials to be configured")
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "default secret", mutate: func(c *Config) {}},
			{name: "empty database path", mutate: func(c *Config) { c.Auth.JWTSecret = "x"; c.Database.Path = "" }},
			{name: "bad port", mutate: func(c *Config) { c.Auth.JWTSecret = "x"; c.Server.Port = 0 }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				c := DefaultConfig()
				tc.mutate(c)
				if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		content := "LATTE_JWT_SECRET=from-file\nSPOTIFY_CLIENT_ID=file-id\n"
		if err := os.WriteFile(envPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		t.Setenv("SPOTIFY_CLIENT_ID", "process-id")
		t.Setenv("LATTE_PORT", "9090")

		c := DefaultConfig()
		if err := ApplyEnv(c, envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("ApplyEnv failed: %v", err)
		}

		if c.Auth.JWTSecret != "from-file" {
			t.Errorf("expected secret from .env, got %q", c.Auth.JWTSecret)
		}
		if c.Credentials.Spotify.ClientID != "process-id" {
			t.Errorf("process env should win, got %q", c.Credentials.Spotify.ClientID)
		}
		if c.Server.Port != 9090 {
			t.Errorf("expected port 9090, got %d", c.Server.Port)
		}
	})

	t.Run("ApplyEnv invalid port", func(t *testing.T) {
		t.Setenv("LATTE_PORT", "abc")
		if err := ApplyEnv(DefaultConfig()); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
