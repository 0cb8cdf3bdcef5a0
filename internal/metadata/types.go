// Package metadata fetches each venue's spot trading rules
// (price tick, quantity step, minimum order size/notional) over HTTP and
// flattens them into symbol.RuleRow for the registry builder.
package metadata

// OKXResponse is OKX's instruments response.
// API: GET /api/v5/public/instruments?instType=SPOT
type OKXResponse struct {
	Code string          `json:"code"`
	Data []OKXInstrument `json:"data"`
}

// OKXInstrument is one spot instrument as OKX reports it.
type OKXInstrument struct {
	InstId   string `json:"instId"`   // e.g. "BTC-USDT"
	InstType string `json:"instType"` // "SPOT"
	BaseCcy  string `json:"baseCcy"`
	QuoteCcy string `json:"quoteCcy"`
	TickSz   string `json:"tickSz"`
	LotSz    string `json:"lotSz"`
	MinSz    string `json:"minSz"`
	State    string `json:"state"` // "live", "suspend", "preopen"
}

// IsSpot reports whether this instrument is a spot pair. Its state is not
// checked here; status() carries it through to the registry's filter.
func (i *OKXInstrument) IsSpot() bool {
	return i.InstType == "SPOT"
}

// status maps OKX's instrument state to the registry's TRADING sentinel.
func (i *OKXInstrument) status() string {
	if i.State == "live" {
		return "TRADING"
	}
	return i.State
}

// BinanceResponse is Binance's spot exchangeInfo response.
// API: GET /api/v3/exchangeInfo
type BinanceResponse struct {
	Timezone string          `json:"timezone"`
	Symbols  []BinanceSymbol `json:"symbols"`
}

// BinanceSymbol is one spot symbol as Binance reports it.
type BinanceSymbol struct {
	Symbol     string          `json:"symbol"` // e.g. "BTCUSDT"
	Status     string          `json:"status"` // "TRADING", "BREAK"
	BaseAsset  string          `json:"baseAsset"`
	QuoteAsset string          `json:"quoteAsset"`
	IsSpotTradingAllowed bool  `json:"isSpotTradingAllowed"`
	Filters    []BinanceFilter `json:"filters"`
}

// BinanceFilter is one entry of a symbol's filter list.
type BinanceFilter struct {
	FilterType  string `json:"filterType"`
	TickSize    string `json:"tickSize,omitempty"`    // PRICE_FILTER
	StepSize    string `json:"stepSize,omitempty"`    // LOT_SIZE
	MinQty      string `json:"minQty,omitempty"`      // LOT_SIZE
	MinNotional string `json:"minNotional,omitempty"` // NOTIONAL / MIN_NOTIONAL
	ApplyMinToMarket bool `json:"applyMinNotionalToMarket,omitempty"`
}

// tickSize returns the PRICE_FILTER tick size, or "" if absent.
func (s *BinanceSymbol) tickSize() string {
	for _, f := range s.Filters {
		if f.FilterType == "PRICE_FILTER" {
			return f.TickSize
		}
	}
	return ""
}

// lotSize returns the LOT_SIZE step and minimum quantity, or "" if absent.
func (s *BinanceSymbol) lotSize() (step, minQty string) {
	for _, f := range s.Filters {
		if f.FilterType == "LOT_SIZE" {
			return f.StepSize, f.MinQty
		}
	}
	return "", ""
}

// minNotional returns the NOTIONAL/MIN_NOTIONAL filter's floor, and whether
// that filter was declared at all.
func (s *BinanceSymbol) minNotional() (value string, declared bool) {
	for _, f := range s.Filters {
		if f.FilterType == "NOTIONAL" || f.FilterType == "MIN_NOTIONAL" {
			return f.MinNotional, true
		}
	}
	return "", false
}

// OKXTickersResponse is OKX's 24h tickers response.
// API: GET /api/v5/market/tickers?instType=SPOT
type OKXTickersResponse struct {
	Code string      `json:"code"`
	Data []OKXTicker `json:"data"`
}

// OKXTicker is one instrument's trailing 24h stats as OKX reports them.
type OKXTicker struct {
	InstId    string `json:"instId"`
	Last      string `json:"last"`
	Vol24h    string `json:"vol24h"`    // base-currency volume
	VolCcy24h string `json:"volCcy24h"` // quote-currency volume
}

// BinanceTicker24hr is one symbol's trailing 24h stats as Binance reports
// them. API: GET /api/v3/ticker/24hr
type BinanceTicker24hr struct {
	Symbol      string `json:"symbol"`
	LastPrice   string `json:"lastPrice"`
	Volume      string `json:"volume"`      // base-asset volume
	QuoteVolume string `json:"quoteVolume"` // quote-asset volume
}
