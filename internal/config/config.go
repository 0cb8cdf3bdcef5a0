// Package config loads and validates the YAML configuration file that
// drives a triarb process: which exchange to connect to, the base-asset
// set C2 compiles over, volume bands, fee rate, profit thresholds, and the
// dispatcher's gating knobs.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the application's root configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Exchange  ExchangeConfig  `yaml:"exchange"`
	Symbols   SymbolsConfig   `yaml:"symbols"`
	Volume    VolumeConfig    `yaml:"volume"`
	Fees      FeesConfig      `yaml:"fees"`
	Profit    ProfitConfig    `yaml:"profit"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Output    OutputConfig    `yaml:"output"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Redis     RedisConfig     `yaml:"redis"`
	Shutdown  ShutdownConfig  `yaml:"shutdown"`
}

// AppConfig holds process-wide identification and logging knobs.
type AppConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
}

// ExchangeConfig selects and configures the single exchange this process
// connects to. Name picks the VenueClient implementation ("okx" or
// "binance"); WS and Metadata configure its transport.
type ExchangeConfig struct {
	Name     string           `yaml:"name"`
	Metadata MetadataConfig   `yaml:"metadata"`
	WS       ExchangeWSConfig `yaml:"ws"`
}

// MetadataConfig configures the exchangeInfo-style rules fetch and the
// optional 24h-ticker-stats fetch that feeds the chain compiler's liquidity
// pre-filter.
type MetadataConfig struct {
	URL       string `yaml:"url"`
	TickerURL string `yaml:"ticker_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ExchangeWSConfig configures a venue's websocket transport.
type ExchangeWSConfig struct {
	URL            string `yaml:"url"`
	PingIntervalMs int    `yaml:"ping_interval_ms"`
	PongTimeoutMs  int    `yaml:"pong_timeout_ms"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
}

// SymbolsConfig drives C1 filtering and C2's base-asset set.
type SymbolsConfig struct {
	BaseAssets  []string `yaml:"base_assets"`
	Allowlist   []string `yaml:"allowlist"`
	Denylist    []string `yaml:"denylist"`
	DepthLevels int      `yaml:"depth_levels"`
}

// VolumeConfig sets v_min/v_max per base asset, keyed by asset code. Values
// are decimal strings in the YAML file; consumers parse them into
// decimal.Decimal when building the evaluator's per-asset volume bands.
// MinTicker24h additionally sets a trailing-24h-volume floor per base
// asset, in that asset's units, for the chain compiler's startup liquidity
// pre-filter (chain.FilterBy24hVolume) — separate from Min/Max, which gate
// live order-book walking rather than a symbol's 24h ticker stats. An asset
// absent from MinTicker24h is not filtered at all.
type VolumeConfig struct {
	Min          map[string]string `yaml:"min"`
	Max          map[string]string `yaml:"max"`
	MinTicker24h map[string]string `yaml:"min_ticker_24h"`
}

// FeesConfig is the per-leg taker fee rate, as a decimal string (e.g.
// "0.00075").
type FeesConfig struct {
	Rate string `yaml:"rate"`
}

// ProfitConfig is the minimum-profit gating thresholds applied after a
// chain's legs are sized and rounded.
type ProfitConfig struct {
	MinAbs string `yaml:"min_abs"`
	MinRel string `yaml:"min_rel"`
}

// EvaluatorConfig sizes the evaluator pool and its soft per-evaluation
// deadline.
type EvaluatorConfig struct {
	Workers       int `yaml:"workers"`
	EvalBudgetUs  int `yaml:"eval_budget_us"`
	MaxAgeMs      int `yaml:"max_age_ms"`
	QueueCapacity int `yaml:"queue_capacity"`
}

// DispatchConfig configures C6.
type DispatchConfig struct {
	CooldownMs      int  `yaml:"cool_down_ms"`
	ChannelCapacity int  `yaml:"channel_capacity"`
	DedupWindowMs   int  `yaml:"dedup_window_ms"`
	SendOrders      bool `yaml:"send_orders"`
}

// OutputConfig configures the dry-run JSONL sink.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	BufferSize int    `yaml:"buffer_size"`
}

// MetricsConfig configures the Prometheus pull endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// RedisConfig configures the optional durable-handoff publisher.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Stream  string `yaml:"stream"`
}

// ShutdownConfig bounds the cooperative drain on shutdown.
type ShutdownConfig struct {
	GraceMs int `yaml:"grace_ms"`
}

// Load reads, parses, defaults, and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.App.Name == "" {
		c.App.Name = "triarb"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Exchange.Name == "" {
		c.Exchange.Name = "okx"
	}
	if c.Exchange.Metadata.TimeoutMs == 0 {
		c.Exchange.Metadata.TimeoutMs = 10000
	}
	if c.Exchange.WS.PingIntervalMs == 0 {
		c.Exchange.WS.PingIntervalMs = 25000
	}
	if c.Exchange.WS.PongTimeoutMs == 0 {
		c.Exchange.WS.PongTimeoutMs = 10000
	}
	if c.Exchange.WS.ReadTimeoutMs == 0 {
		c.Exchange.WS.ReadTimeoutMs = 30000
	}
	if c.Symbols.DepthLevels == 0 {
		c.Symbols.DepthLevels = 20
	}
	if c.Fees.Rate == "" {
		c.Fees.Rate = "0.00075"
	}
	if c.Profit.MinAbs == "" {
		c.Profit.MinAbs = "0"
	}
	if c.Profit.MinRel == "" {
		c.Profit.MinRel = "0"
	}
	if c.Evaluator.Workers == 0 {
		c.Evaluator.Workers = runtime.NumCPU() - 1
		if c.Evaluator.Workers < 1 {
			c.Evaluator.Workers = 1
		}
	}
	if c.Evaluator.EvalBudgetUs == 0 {
		c.Evaluator.EvalBudgetUs = 500
	}
	if c.Evaluator.MaxAgeMs == 0 {
		c.Evaluator.MaxAgeMs = 250
	}
	if c.Evaluator.QueueCapacity == 0 {
		c.Evaluator.QueueCapacity = 4096
	}
	if c.Dispatch.CooldownMs == 0 {
		c.Dispatch.CooldownMs = 250
	}
	if c.Dispatch.ChannelCapacity == 0 {
		c.Dispatch.ChannelCapacity = 64
	}
	if c.Dispatch.DedupWindowMs == 0 {
		c.Dispatch.DedupWindowMs = 1000
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if c.Output.BufferSize == 0 {
		c.Output.BufferSize = 1000
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	if c.Shutdown.GraceMs == 0 {
		c.Shutdown.GraceMs = 5000
	}
}

// Validate aggregates every configuration error into one combined error,
// rather than failing fast on the first bad field.
func (c *Config) Validate() error {
	var errs []string

	if len(c.Symbols.BaseAssets) == 0 {
		errs = append(errs, "symbols.base_assets: at least one base asset is required")
	}
	validExchanges := map[string]bool{"okx": true, "binance": true}
	if !validExchanges[strings.ToLower(c.Exchange.Name)] {
		errs = append(errs, fmt.Sprintf("exchange.name: unknown exchange %q, valid values: okx, binance", c.Exchange.Name))
	}
	if c.Exchange.Metadata.URL == "" {
		errs = append(errs, "exchange.metadata.url: must not be empty")
	}
	if c.Exchange.WS.URL == "" {
		errs = append(errs, "exchange.ws.url: must not be empty")
	}
	if c.Symbols.DepthLevels <= 0 {
		errs = append(errs, "symbols.depth_levels: must be positive")
	}
	if err := validateDecimalString(c.Fees.Rate, "fees.rate"); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDecimalString(c.Profit.MinAbs, "profit.min_abs"); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDecimalString(c.Profit.MinRel, "profit.min_rel"); err != nil {
		errs = append(errs, err.Error())
	}
	for asset, v := range c.Volume.Min {
		if err := validateDecimalString(v, fmt.Sprintf("volume.min[%s]", asset)); err != nil {
			errs = append(errs, err.Error())
		}
	}
	for asset, v := range c.Volume.Max {
		if err := validateDecimalString(v, fmt.Sprintf("volume.max[%s]", asset)); err != nil {
			errs = append(errs, err.Error())
		}
	}
	for asset, v := range c.Volume.MinTicker24h {
		if err := validateDecimalString(v, fmt.Sprintf("volume.min_ticker_24h[%s]", asset)); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Evaluator.Workers <= 0 {
		errs = append(errs, "evaluator.workers: must be positive")
	}
	if c.Evaluator.EvalBudgetUs <= 0 {
		errs = append(errs, "evaluator.eval_budget_us: must be positive")
	}
	if c.Dispatch.CooldownMs < 0 {
		errs = append(errs, "dispatch.cool_down_ms: must not be negative")
	}
	if c.Dispatch.ChannelCapacity <= 0 {
		errs = append(errs, "dispatch.channel_capacity: must be positive")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis.addr: required when redis.enabled is true")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		errs = append(errs, fmt.Sprintf("app.log_level: invalid level %q, valid values: debug, info, warn, error", c.App.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateDecimalString(s, field string) error {
	if s == "" {
		return nil
	}
	if _, err := decimal.NewFromString(s); err != nil {
		return fmt.Errorf("%s: invalid decimal %q", field, s)
	}
	return nil
}
