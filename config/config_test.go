package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chart.Symbol != "BTCUSDT" || cfg.Feed.HistoryLimit != 500 {
		t.Errorf("defaults wrong: %+v", cfg)
	}
}

func TestLoad_YAMLThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chartd.yaml")
	yaml := `
chart:
  symbol: ETHUSDT
  interval: 5m
redis:
  enabled: true
  addr: redis:6379
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHARTD_SYMBOL", "SOLUSDT")
	t.Setenv("CHARTD_HISTORY_LIMIT", "250")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chart.Symbol != "SOLUSDT" {
		t.Errorf("env must override yaml: got %s", cfg.Chart.Symbol)
	}
	if cfg.Chart.Interval != "5m" {
		t.Errorf("yaml value lost: got %s", cfg.Chart.Interval)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "redis:6379" {
		t.Errorf("redis config wrong: %+v", cfg.Redis)
	}
	if cfg.Feed.HistoryLimit != 250 {
		t.Errorf("env int override: got %d", cfg.Feed.HistoryLimit)
	}
}

func TestLoad_RejectsBadHistoryLimit(t *testing.T) {
	t.Setenv("CHARTD_HISTORY_LIMIT", "5000")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for out-of-range history limit")
	}
}
