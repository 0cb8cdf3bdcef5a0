package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad_MinimalValid(t *testing.T) {
	path := writeTempConfig(t, `
exchange:
  name: okx
  metadata:
    url: https://www.okx.com/api/v5/public/instruments?instType=SPOT
  ws:
    url: wss://ws.okx.com:8443/ws/v5/public
symbols:
  base_assets: ["BTC", "ETH", "USDT"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Name != "triarb" {
		t.Errorf("App.Name default = %q, want triarb", cfg.App.Name)
	}
	if cfg.Symbols.DepthLevels != 20 {
		t.Errorf("Symbols.DepthLevels default = %d, want 20", cfg.Symbols.DepthLevels)
	}
	if cfg.Fees.Rate != "0.00075" {
		t.Errorf("Fees.Rate default = %q, want 0.00075", cfg.Fees.Rate)
	}
	if cfg.Dispatch.ChannelCapacity != 64 {
		t.Errorf("Dispatch.ChannelCapacity default = %d, want 64", cfg.Dispatch.ChannelCapacity)
	}
}

func TestLoad_MissingBaseAssets(t *testing.T) {
	path := writeTempConfig(t, `
exchange:
  name: okx
  metadata:
    url: https://example.com
  ws:
    url: wss://example.com
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing base_assets, got nil")
	}
}

func TestLoad_UnknownExchange(t *testing.T) {
	path := writeTempConfig(t, `
exchange:
  name: kraken
  metadata:
    url: https://example.com
  ws:
    url: wss://example.com
symbols:
  base_assets: ["BTC"]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown exchange, got nil")
	}
}

func TestLoad_InvalidDecimalField(t *testing.T) {
	path := writeTempConfig(t, `
exchange:
  name: okx
  metadata:
    url: https://example.com
  ws:
    url: wss://example.com
symbols:
  base_assets: ["BTC"]
fees:
  rate: "not-a-number"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid fees.rate, got nil")
	}
}

func TestLoad_RedisEnabledWithoutAddr(t *testing.T) {
	path := writeTempConfig(t, `
exchange:
  name: binance
  metadata:
    url: https://example.com
  ws:
    url: wss://example.com
symbols:
  base_assets: ["BTC"]
redis:
  enabled: true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for redis.enabled without addr, got nil")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "invalid: yaml: content:")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml, got nil")
	}
}

func TestLoad_VolumeBandsParsed(t *testing.T) {
	path := writeTempConfig(t, `
exchange:
  name: okx
  metadata:
    url: https://example.com
  ws:
    url: wss://example.com
symbols:
  base_assets: ["BTC"]
volume:
  min:
    BTC: "0.001"
  max:
    BTC: "5"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Volume.Min["BTC"] != "0.001" {
		t.Errorf("Volume.Min[BTC] = %q, want 0.001", cfg.Volume.Min["BTC"])
	}
	if cfg.Volume.Max["BTC"] != "5" {
		t.Errorf("Volume.Max[BTC] = %q, want 5", cfg.Volume.Max["BTC"])
	}
}
