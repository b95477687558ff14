package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"
)

// Config holds all interviewd configuration.
// Priority: env vars > config file > defaults.
type Config struct {
	ListenAddr  string `json:"listen_addr"`
	DefsDir     string `json:"defs_dir"`
	TokenSecret string `json:"token_secret"`
	TokenTTL    string `json:"token_ttl"`
	LogLevel    string `json:"log_level"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr: ":4200",
		DefsDir:    "definitions",
		TokenTTL:   "24h",
		LogLevel:   "info",
	}
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: config file (ignore if missing).
	if path := os.Getenv("INTAKE_CONFIG"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			_ = json.Unmarshal(data, &cfg)
		}
	}

	// Layer 3: env vars override.
	if v := os.Getenv("INTAKE_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("INTAKE_DEFS_DIR"); v != "" {
		cfg.DefsDir = v
	}
	if v := os.Getenv("INTAKE_TOKEN_SECRET"); v != "" {
		cfg.TokenSecret = v
	}
	if v := os.Getenv("INTAKE_TOKEN_TTL"); v != "" {
		cfg.TokenTTL = v
	}
	if v := os.Getenv("INTAKE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg
}

// tokenTTL parses the configured TTL, falling back to the default on a
// malformed value.
func (c Config) tokenTTL() time.Duration {
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

func (c Config) slogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
