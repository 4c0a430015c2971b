// Package config loads the agent's TOML configuration file, creating it
// with defaults on first run. A handful of env vars override the file
// for containerized deployments.
package config

import (
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

const DefaultConfigFileName = "brightday.toml"

type Remote struct {
	// BaseURL of the remote service; empty means guest/local-only mode.
	BaseURL string `toml:"base_url"`
	// Token is the device bearer token issued at pairing.
	Token string `toml:"token"`
}

type Push struct {
	VAPIDPublicKey  string `toml:"vapid_public_key"`
	VAPIDPrivateKey string `toml:"vapid_private_key"`
	Subscriber      string `toml:"subscriber"`
	DeviceName      string `toml:"device_name"`
	// Pre-provisioned device subscription for kiosk-style devices;
	// browsers register theirs through the API instead.
	Endpoint  string `toml:"endpoint"`
	P256dhKey string `toml:"p256dh_key"`
	AuthKey   string `toml:"auth_key"`
}

type Weather struct {
	// Zero coordinates leave the weather panel off.
	Latitude  float64 `toml:"latitude"`
	Longitude float64 `toml:"longitude"`
	// Unit is "fahrenheit" (default) or "celsius".
	Unit string `toml:"unit"`
}

type Config struct {
	Port     string  `toml:"port"`
	DBPath   string  `toml:"db_path"`
	LogLevel string  `toml:"log_level"`
	Timezone string  `toml:"timezone"`
	Remote   Remote  `toml:"remote"`
	Push     Push    `toml:"push"`
	Weather  Weather `toml:"weather"`
}

// LoadOrCreate reads the config at path, writing the default config
// there first if it doesn't exist yet.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		applyEnv(&cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "brightday.db"
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	for env, target := range map[string]*string{
		"BRIGHTDAY_PORT":         &cfg.Port,
		"BRIGHTDAY_DB_PATH":      &cfg.DBPath,
		"BRIGHTDAY_LOG_LEVEL":    &cfg.LogLevel,
		"BRIGHTDAY_REMOTE_URL":   &cfg.Remote.BaseURL,
		"BRIGHTDAY_REMOTE_TOKEN": &cfg.Remote.Token,
	} {
		if v := os.Getenv(env); v != "" {
			*target = v
		}
	}
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		Port:     "8080",
		DBPath:   "brightday.db",
		LogLevel: "info",
		Timezone: "Local",
		Push: Push{
			DeviceName: "brightday-agent",
		},
	}
}
