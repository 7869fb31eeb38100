// Package config loads service configuration from an optional YAML file with
// environment-variable overrides. A .env file, if present, is folded into the
// environment before loading.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all chartd configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	Feed struct {
		BaseURL      string `yaml:"base_url"`
		WSURL        string `yaml:"ws_url"`
		HistoryLimit int    `yaml:"history_limit"`
	} `yaml:"feed"`

	Backend struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"backend"`

	Chart struct {
		Symbol    string `yaml:"symbol"`
		Interval  string `yaml:"interval"`
		Theme     string `yaml:"theme"`
		Precision int    `yaml:"precision"`
	} `yaml:"chart"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	PrefsPath string `yaml:"prefs_path"`

	// Cron spec for the periodic overlay refresh.
	OverlayRefresh string `yaml:"overlay_refresh"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// Defaults returns the baseline configuration.
func Defaults() *Config {
	cfg := &Config{}
	cfg.ListenAddr = ":8080"
	cfg.Feed.BaseURL = "https://api.binance.com"
	cfg.Feed.WSURL = "wss://stream.binance.com:9443"
	cfg.Feed.HistoryLimit = 500
	cfg.Backend.BaseURL = "http://localhost:8000"
	cfg.Chart.Symbol = "BTCUSDT"
	cfg.Chart.Interval = "1m"
	cfg.Chart.Theme = "dark"
	cfg.Chart.Precision = 2
	cfg.Redis.Addr = "localhost:6379"
	cfg.PrefsPath = "data/prefs.db"
	cfg.OverlayRefresh = "@every 1m"
	cfg.Log.Level = "info"
	return cfg
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then environment overrides. Loads .env first so overrides can come
// from either place.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Feed.HistoryLimit <= 0 || cfg.Feed.HistoryLimit > 1000 {
		return nil, fmt.Errorf("config: history_limit must be in (0,1000], got %d", cfg.Feed.HistoryLimit)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setStr(&c.ListenAddr, "CHARTD_LISTEN_ADDR")
	setStr(&c.Feed.BaseURL, "CHARTD_FEED_BASE_URL")
	setStr(&c.Feed.WSURL, "CHARTD_FEED_WS_URL")
	setInt(&c.Feed.HistoryLimit, "CHARTD_HISTORY_LIMIT")
	setStr(&c.Backend.BaseURL, "CHARTD_BACKEND_URL")
	setStr(&c.Chart.Symbol, "CHARTD_SYMBOL")
	setStr(&c.Chart.Interval, "CHARTD_INTERVAL")
	setStr(&c.Chart.Theme, "CHARTD_THEME")
	setBool(&c.Redis.Enabled, "CHARTD_REDIS_ENABLED")
	setStr(&c.Redis.Addr, "CHARTD_REDIS_ADDR")
	setStr(&c.Redis.Password, "CHARTD_REDIS_PASSWORD")
	setInt(&c.Redis.DB, "CHARTD_REDIS_DB")
	setStr(&c.PrefsPath, "CHARTD_PREFS_PATH")
	setStr(&c.OverlayRefresh, "CHARTD_OVERLAY_REFRESH")
	setStr(&c.Log.Level, "CHARTD_LOG_LEVEL")
	setStr(&c.Log.File, "CHARTD_LOG_FILE")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}
