package metadata

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// TickerStats is a symbol's trailing 24h base/quote volume and last traded
// price, as reported by a venue's ticker endpoint. It feeds the chain
// compiler's liquidity pre-filter, which drops chains that a configured
// 24h-volume floor says can't be filled at all before they're ever walked
// against live order-book depth.
type TickerStats struct {
	Volume      decimal.Decimal // base-asset 24h volume
	QuoteVolume decimal.Decimal // quote-asset 24h volume
	LastPrice   decimal.Decimal
}

// TickerStatsFetcher pulls a venue's 24h ticker stats, keyed by its native
// exchange symbol code (e.g. "BTCUSDT", "BTC-USDT") rather than an interned
// symbol.SymbolID, so callers resolve the mapping through the same registry
// used to build the symbol graph.
type TickerStatsFetcher interface {
	FetchTickerStats(ctx context.Context) (map[string]TickerStats, error)
}

// OKXTickerStatsFetcher implements TickerStatsFetcher against OKX's public
// spot tickers endpoint.
type OKXTickerStatsFetcher struct {
	f   Fetcher
	url string
}

// NewOKXTickerStatsFetcher builds an OKXTickerStatsFetcher pulling tickers
// from url using f.
func NewOKXTickerStatsFetcher(f Fetcher, url string) *OKXTickerStatsFetcher {
	return &OKXTickerStatsFetcher{f: f, url: url}
}

// FetchTickerStats implements TickerStatsFetcher.
func (r *OKXTickerStatsFetcher) FetchTickerStats(ctx context.Context) (map[string]TickerStats, error) {
	tickers, err := r.f.FetchOKXTickers(ctx, r.url)
	if err != nil {
		return nil, err
	}

	out := make(map[string]TickerStats, len(tickers))
	for _, t := range tickers {
		vol, err := decimal.NewFromString(t.Vol24h)
		if err != nil {
			return nil, fmt.Errorf("okx %s: invalid vol24h %q: %w", t.InstId, t.Vol24h, err)
		}
		qvol, err := decimal.NewFromString(t.VolCcy24h)
		if err != nil {
			return nil, fmt.Errorf("okx %s: invalid volCcy24h %q: %w", t.InstId, t.VolCcy24h, err)
		}
		last, err := decimal.NewFromString(t.Last)
		if err != nil {
			return nil, fmt.Errorf("okx %s: invalid last %q: %w", t.InstId, t.Last, err)
		}
		out[t.InstId] = TickerStats{Volume: vol, QuoteVolume: qvol, LastPrice: last}
	}
	return out, nil
}

// BinanceTickerStatsFetcher implements TickerStatsFetcher against Binance's
// public 24hr ticker endpoint.
type BinanceTickerStatsFetcher struct {
	f   Fetcher
	url string
}

// NewBinanceTickerStatsFetcher builds a BinanceTickerStatsFetcher pulling
// tickers from url using f.
func NewBinanceTickerStatsFetcher(f Fetcher, url string) *BinanceTickerStatsFetcher {
	return &BinanceTickerStatsFetcher{f: f, url: url}
}

// FetchTickerStats implements TickerStatsFetcher.
func (r *BinanceTickerStatsFetcher) FetchTickerStats(ctx context.Context) (map[string]TickerStats, error) {
	tickers, err := r.f.FetchBinanceTickers(ctx, r.url)
	if err != nil {
		return nil, err
	}

	out := make(map[string]TickerStats, len(tickers))
	for _, t := range tickers {
		vol, err := decimal.NewFromString(t.Volume)
		if err != nil {
			return nil, fmt.Errorf("binance %s: invalid volume %q: %w", t.Symbol, t.Volume, err)
		}
		qvol, err := decimal.NewFromString(t.QuoteVolume)
		if err != nil {
			return nil, fmt.Errorf("binance %s: invalid quoteVolume %q: %w", t.Symbol, t.QuoteVolume, err)
		}
		last, err := decimal.NewFromString(t.LastPrice)
		if err != nil {
			return nil, fmt.Errorf("binance %s: invalid lastPrice %q: %w", t.Symbol, t.LastPrice, err)
		}
		out[t.Symbol] = TickerStats{Volume: vol, QuoteVolume: qvol, LastPrice: last}
	}
	return out, nil
}
