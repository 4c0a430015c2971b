package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brightday.toml")

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.DBPath != "brightday.db" {
		t.Errorf("db_path = %q, want brightday.db", cfg.DBPath)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file was not written: %v", err)
	}
}

func TestLoadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brightday.toml")
	content := `port = "9000"
db_path = "custom.db"
timezone = "America/Los_Angeles"

[remote]
base_url = "https://sync.example.com"
token = "device-token"

[weather]
latitude = 47.6
longitude = -122.3
unit = "celsius"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("port = %q, want 9000", cfg.Port)
	}
	if cfg.Remote.BaseURL != "https://sync.example.com" {
		t.Errorf("remote base_url = %q", cfg.Remote.BaseURL)
	}
	if cfg.Weather.Latitude != 47.6 || cfg.Weather.Longitude != -122.3 {
		t.Errorf("weather coords = %v,%v", cfg.Weather.Latitude, cfg.Weather.Longitude)
	}
	if cfg.Weather.Unit != "celsius" {
		t.Errorf("weather unit = %q, want celsius", cfg.Weather.Unit)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brightday.toml")
	t.Setenv("BRIGHTDAY_PORT", "7000")
	t.Setenv("BRIGHTDAY_REMOTE_URL", "https://env.example.com")

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.Port != "7000" {
		t.Errorf("port = %q, want env override 7000", cfg.Port)
	}
	if cfg.Remote.BaseURL != "https://env.example.com" {
		t.Errorf("remote base_url = %q, want env override", cfg.Remote.BaseURL)
	}
}

func TestMissingDBPathDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brightday.toml")
	if err := os.WriteFile(path, []byte("port = \"8080\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.DBPath != "brightday.db" {
		t.Errorf("db_path = %q, want default", cfg.DBPath)
	}
}
