// Package main is the entry point for the triangular-arbitrage detector:
// it compiles the symbol graph and chain set for one spot exchange, streams
// its order book, re-evaluates affected chains on every update, and hands
// profitable opportunities to a sender.
//
// This process only detects and reports opportunities. It never submits
// orders itself.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"triarb/internal/book"
	"triarb/internal/chain"
	"triarb/internal/config"
	"triarb/internal/dispatch"
	"triarb/internal/evaluator"
	"triarb/internal/exchange/binance"
	"triarb/internal/exchange/okx"
	"triarb/internal/ingest"
	"triarb/internal/metadata"
	"triarb/internal/metrics"
	"triarb/internal/redisq"
	"triarb/internal/sched"
	"triarb/internal/symbol"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.App.LogLevel)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	ossignal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	reg, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		logger.Error("build symbol registry failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("symbol registry built", zap.Int("symbols", reg.NumSymbols()), zap.Int("assets", reg.NumAssets()))

	bases, err := baseAssetIDs(reg, cfg.Symbols.BaseAssets)
	if err != nil {
		logger.Error("resolve base assets failed", zap.Error(err))
		os.Exit(1)
	}

	chains, err := chain.Compile(reg, bases)
	if err != nil {
		logger.Error("compile chains failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("chains compiled", zap.Int("count", len(chains)))

	chains, err = applyLiquidityFilter(ctx, cfg, reg, chains, logger)
	if err != nil {
		logger.Error("apply 24h volume liquidity filter failed", zap.Error(err))
		os.Exit(1)
	}

	bandByAsset, err := buildVolumeBands(reg, cfg.Volume)
	if err != nil {
		logger.Error("parse volume config failed", zap.Error(err))
		os.Exit(1)
	}

	feeRate, err := decimal.NewFromString(cfg.Fees.Rate)
	if err != nil {
		logger.Error("parse fee rate failed", zap.Error(err))
		os.Exit(1)
	}
	minProfitAbs, err := decimal.NewFromString(cfg.Profit.MinAbs)
	if err != nil {
		logger.Error("parse profit.min_abs failed", zap.Error(err))
		os.Exit(1)
	}
	minProfitRel, err := decimal.NewFromString(cfg.Profit.MinRel)
	if err != nil {
		logger.Error("parse profit.min_rel failed", zap.Error(err))
		os.Exit(1)
	}
	th := evaluator.Thresholds{
		MinProfitAbs: minProfitAbs,
		MinProfitRel: minProfitRel,
		MaxAgeMs:     int64(cfg.Evaluator.MaxAgeMs),
		EvalBudgetUs: int64(cfg.Evaluator.EvalBudgetUs),
	}

	bookStore := book.NewStore(reg.NumSymbols())

	venueClient, err := buildVenueClient(cfg, reg, logger)
	if err != nil {
		logger.Error("build venue client failed", zap.Error(err))
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := venueClient.Connect(startCtx); err != nil {
		startCancel()
		logger.Error("venue connect failed", zap.Error(err))
		os.Exit(1)
	}
	if err := venueClient.Subscribe(); err != nil {
		startCancel()
		logger.Error("venue subscribe failed", zap.Error(err))
		os.Exit(1)
	}
	startCancel()
	go venueClient.Run(ctx)

	sender, closeSender, err := buildSender(ctx, cfg, logger)
	if err != nil {
		logger.Error("build sender failed", zap.Error(err))
		os.Exit(1)
	}

	dispatcher := dispatch.NewDispatcher(cfg.Dispatch.ChannelCapacity, cfg.Dispatch.CooldownMs, cfg.Dispatch.DedupWindowMs, logger)
	go dispatcher.Run(ctx, sender)

	scheduler := sched.New(chains, reg, bookStore, feeRate, bandByAsset, th, dispatcher, cfg.Evaluator.QueueCapacity, logger)
	go scheduler.Run(ctx, cfg.Evaluator.Workers)

	ingestor := ingest.NewIngestor(bookStore, logger)

	if cfg.Metrics.Enabled {
		metrics.Serve(ctx, cfg.Metrics.Addr, logger)
	}

	logger.Info("triarb running", zap.String("exchange", cfg.Exchange.Name))
	ingestor.Run(ctx, venueClient, scheduler.Notify)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Shutdown.GraceMs)*time.Millisecond)
	defer shutdownCancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = venueClient.Close()
		if closeSender != nil {
			_ = closeSender()
		}
	}()
	select {
	case <-shutdownCtx.Done():
		logger.Warn("shutdown grace period exceeded, exiting")
	case <-done:
		logger.Info("shutdown complete")
	}
}

// buildRegistry fetches trading rules for the configured exchange and
// builds the interned symbol graph.
func buildRegistry(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*symbol.Registry, error) {
	httpFetcher := metadata.NewHTTPFetcher(cfg.Exchange.Metadata.TimeoutMs)

	var rulesFetcher symbol.RulesFetcher
	switch cfg.Exchange.Name {
	case "okx":
		rulesFetcher = metadata.NewOKXRulesFetcher(httpFetcher, cfg.Exchange.Metadata.URL)
	case "binance":
		rulesFetcher = metadata.NewBinanceRulesFetcher(httpFetcher, cfg.Exchange.Metadata.URL)
	default:
		return nil, fmt.Errorf("unknown exchange %q", cfg.Exchange.Name)
	}

	rows, err := rulesFetcher.FetchRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch trading rules: %w", err)
	}

	allow := toSet(cfg.Symbols.Allowlist)
	deny := toSet(cfg.Symbols.Denylist)
	reg, err := symbol.BuildRegistry(rows, allow, deny)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	return reg, nil
}

func toSet(codes []string) map[string]bool {
	if len(codes) == 0 {
		return nil
	}
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}

func baseAssetIDs(reg *symbol.Registry, codes []string) ([]symbol.AssetID, error) {
	ids := make([]symbol.AssetID, 0, len(codes))
	for _, code := range codes {
		id, ok := reg.Asset(code)
		if !ok {
			return nil, fmt.Errorf("base asset %q not found in registry", code)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// applyLiquidityFilter drops chains that can't clear the configured 24h
// ticker-volume floor before they're ever handed to the evaluator. It is a
// no-op when volume.min_ticker_24h is unconfigured, so a deployment that
// doesn't set it pays no extra startup fetch.
func applyLiquidityFilter(ctx context.Context, cfg *config.Config, reg *symbol.Registry, chains []chain.Chain, logger *zap.Logger) ([]chain.Chain, error) {
	if len(cfg.Volume.MinTicker24h) == 0 {
		return chains, nil
	}

	floors := make(map[symbol.AssetID]decimal.Decimal, len(cfg.Volume.MinTicker24h))
	for code, floorStr := range cfg.Volume.MinTicker24h {
		assetID, ok := reg.Asset(code)
		if !ok {
			continue
		}
		floor, err := decimal.NewFromString(floorStr)
		if err != nil {
			return nil, fmt.Errorf("volume.min_ticker_24h[%s]: %w", code, err)
		}
		floors[assetID] = floor
	}

	httpFetcher := metadata.NewHTTPFetcher(cfg.Exchange.Metadata.TimeoutMs)
	var statsFetcher metadata.TickerStatsFetcher
	switch cfg.Exchange.Name {
	case "okx":
		statsFetcher = metadata.NewOKXTickerStatsFetcher(httpFetcher, cfg.Exchange.Metadata.TickerURL)
	case "binance":
		statsFetcher = metadata.NewBinanceTickerStatsFetcher(httpFetcher, cfg.Exchange.Metadata.TickerURL)
	default:
		return nil, fmt.Errorf("unknown exchange %q", cfg.Exchange.Name)
	}

	byCode, err := statsFetcher.FetchTickerStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch ticker stats: %w", err)
	}

	statsBySymbol := make(map[symbol.SymbolID]metadata.TickerStats, len(byCode))
	for _, sym := range reg.Symbols() {
		if st, ok := byCode[sym.ExchangeCode]; ok {
			statsBySymbol[sym.ID] = st
		}
	}

	filtered := chain.FilterBy24hVolume(chains, statsBySymbol, floors)
	logger.Info("24h volume liquidity filter applied",
		zap.Int("before", len(chains)), zap.Int("after", len(filtered)))
	if len(filtered) == 0 {
		return nil, chain.ErrNoChains
	}
	return filtered, nil
}

func buildVolumeBands(reg *symbol.Registry, cfg config.VolumeConfig) (map[symbol.AssetID]evaluator.VolumeBand, error) {
	bands := make(map[symbol.AssetID]evaluator.VolumeBand, len(cfg.Max))
	for code, maxStr := range cfg.Max {
		assetID, ok := reg.Asset(code)
		if !ok {
			continue // asset not registered for this exchange; no chain can use it
		}
		max, err := decimal.NewFromString(maxStr)
		if err != nil {
			return nil, fmt.Errorf("volume.max[%s]: %w", code, err)
		}
		min := decimal.Zero
		if minStr, ok := cfg.Min[code]; ok {
			min, err = decimal.NewFromString(minStr)
			if err != nil {
				return nil, fmt.Errorf("volume.min[%s]: %w", code, err)
			}
		}
		bands[assetID] = evaluator.VolumeBand{Min: min, Max: max}
	}
	return bands, nil
}

func buildVenueClient(cfg *config.Config, reg *symbol.Registry, logger *zap.Logger) (ingest.VenueClient, error) {
	depth := cfg.Symbols.DepthLevels
	switch cfg.Exchange.Name {
	case "okx":
		instToSymbol := okx.BuildInstIndex(reg)
		return okx.NewClient(&cfg.Exchange.WS, instToSymbol, depth, logger), nil
	case "binance":
		symbolToID := binance.BuildSymbolIndex(reg)
		return binance.NewClient(&cfg.Exchange.WS, symbolToID, depth, logger), nil
	default:
		return nil, fmt.Errorf("unknown exchange %q", cfg.Exchange.Name)
	}
}

// buildSender picks the dispatcher's sender. With send_orders disabled
// (the default), every opportunity goes to the dry-run JSONL sink
// regardless of Redis config, so a misconfigured redis.enabled=true can
// never leak a live dispatch out of a dry run. With send_orders enabled and
// Redis configured, opportunities go to the durable Redis publisher
// instead. The returned close func flushes and releases the chosen
// sender's resources; it is nil only on error.
func buildSender(ctx context.Context, cfg *config.Config, logger *zap.Logger) (dispatch.Sender, func() error, error) {
	if cfg.Dispatch.SendOrders && cfg.Redis.Enabled {
		pub := redisq.NewPublisher(cfg.Redis.Addr, cfg.Redis.Stream)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pub.Ping(pingCtx); err != nil {
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info("dispatching via redis stream", zap.String("addr", cfg.Redis.Addr), zap.String("stream", cfg.Redis.Stream))
		return pub, pub.Close, nil
	}

	path := fmt.Sprintf("%s/opportunities.jsonl", cfg.Output.Dir)
	sink, err := dispatch.NewDryRunSink(path, cfg.Output.BufferSize)
	if err != nil {
		return nil, nil, fmt.Errorf("open dry-run sink: %w", err)
	}
	logger.Info("dispatching via dry-run jsonl sink", zap.String("path", path))
	return sink, sink.Close, nil
}

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
