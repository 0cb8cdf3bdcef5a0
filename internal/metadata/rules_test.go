package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

type fakeFetcher struct {
	okx     []OKXInstrument
	okxErr  error
	bnb     []BinanceSymbol
	bnbErr  error
}

func (f *fakeFetcher) FetchOKX(ctx context.Context, url string) ([]OKXInstrument, error) {
	return f.okx, f.okxErr
}

func (f *fakeFetcher) FetchBinance(ctx context.Context, url string) ([]BinanceSymbol, error) {
	return f.bnb, f.bnbErr
}

func (f *fakeFetcher) FetchOKXTickers(ctx context.Context, url string) ([]OKXTicker, error) {
	return nil, nil
}

func (f *fakeFetcher) FetchBinanceTickers(ctx context.Context, url string) ([]BinanceTicker24hr, error) {
	return nil, nil
}

func TestOKXRulesFetcher_FetchRules_FiltersNonSpot(t *testing.T) {
	f := &fakeFetcher{okx: []OKXInstrument{
		{InstId: "BTC-USDT", InstType: "SPOT", BaseCcy: "BTC", QuoteCcy: "USDT", TickSz: "0.1", LotSz: "0.00001", MinSz: "0.00001", State: "live"},
		{InstId: "BTC-USDT-SWAP", InstType: "SWAP", BaseCcy: "BTC", QuoteCcy: "USDT", TickSz: "0.1", LotSz: "1", MinSz: "1", State: "live"},
		{InstId: "ETH-USDT", InstType: "SPOT", BaseCcy: "ETH", QuoteCcy: "USDT", TickSz: "0.01", LotSz: "0.0001", MinSz: "0.0001", State: "suspend"},
	}}

	rows, err := NewOKXRulesFetcher(f, "https://okx.example/instruments").FetchRules(context.Background())
	if err != nil {
		t.Fatalf("FetchRules() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 (swap excluded, suspended kept for registry to filter)", len(rows))
	}
	if rows[0].ExchangeCode != "BTC-USDT" || rows[0].Status != "TRADING" {
		t.Errorf("rows[0] = %+v, want TRADING BTC-USDT", rows[0])
	}
	if rows[1].Status != "suspend" {
		t.Errorf("rows[1].Status = %q, want \"suspend\"", rows[1].Status)
	}
}

func TestOKXRulesFetcher_FetchRules_PropagatesFetchError(t *testing.T) {
	wantErr := errors.New("network down")
	f := &fakeFetcher{okxErr: wantErr}

	_, err := NewOKXRulesFetcher(f, "https://okx.example/instruments").FetchRules(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("FetchRules() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestOKXRulesFetcher_FetchRules_RejectsMalformedTick(t *testing.T) {
	f := &fakeFetcher{okx: []OKXInstrument{
		{InstId: "BTC-USDT", InstType: "SPOT", BaseCcy: "BTC", QuoteCcy: "USDT", TickSz: "not-a-number", LotSz: "1", MinSz: "1", State: "live"},
	}}

	if _, err := NewOKXRulesFetcher(f, "url").FetchRules(context.Background()); err == nil {
		t.Fatal("FetchRules() error = nil, want error for malformed tickSz")
	}
}

func TestBinanceRulesFetcher_FetchRules_FiltersNonSpot(t *testing.T) {
	f := &fakeFetcher{bnb: []BinanceSymbol{
		{
			Symbol: "BTCUSDT", Status: "TRADING", BaseAsset: "BTC", QuoteAsset: "USDT",
			IsSpotTradingAllowed: true,
			Filters: []BinanceFilter{
				{FilterType: "PRICE_FILTER", TickSize: "0.01"},
				{FilterType: "LOT_SIZE", StepSize: "0.00001", MinQty: "0.00001"},
				{FilterType: "NOTIONAL", MinNotional: "5"},
			},
		},
		{
			Symbol: "BTCUSD_PERP", Status: "TRADING", BaseAsset: "BTC", QuoteAsset: "USD",
			IsSpotTradingAllowed: false,
		},
	}}

	rows, err := NewBinanceRulesFetcher(f, "https://binance.example/exchangeInfo").FetchRules(context.Background())
	if err != nil {
		t.Fatalf("FetchRules() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	row := rows[0]
	if !row.PriceTick.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("PriceTick = %s, want 0.01", row.PriceTick)
	}
	if !row.MinNotional.Equal(decimal.RequireFromString("5")) || !row.HasNotionalFilter {
		t.Errorf("MinNotional = %s, HasNotionalFilter = %v, want 5 true", row.MinNotional, row.HasNotionalFilter)
	}
}

func TestBinanceRulesFetcher_FetchRules_NoNotionalFilterDeclared(t *testing.T) {
	f := &fakeFetcher{bnb: []BinanceSymbol{
		{
			Symbol: "ETHUSDT", Status: "TRADING", BaseAsset: "ETH", QuoteAsset: "USDT",
			IsSpotTradingAllowed: true,
			Filters: []BinanceFilter{
				{FilterType: "PRICE_FILTER", TickSize: "0.01"},
				{FilterType: "LOT_SIZE", StepSize: "0.0001", MinQty: "0.0001"},
			},
		},
	}}

	rows, err := NewBinanceRulesFetcher(f, "url").FetchRules(context.Background())
	if err != nil {
		t.Fatalf("FetchRules() error = %v", err)
	}
	if rows[0].HasNotionalFilter {
		t.Errorf("HasNotionalFilter = true, want false when no NOTIONAL filter present")
	}
}

// TestBinanceRulesFetcher_TickStepAlwaysParse checks that any well-formed
// decimal tick/step string round-trips through FetchRules without error,
// across a range of realistic magnitudes.
func TestBinanceRulesFetcher_TickStepAlwaysParse(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("any positive exponent-of-ten tick size parses", prop.ForAll(
		func(exp int) bool {
			tick := tickForExponent(exp)
			f := &fakeFetcher{bnb: []BinanceSymbol{
				{
					Symbol: "XUSDT", Status: "TRADING", BaseAsset: "X", QuoteAsset: "USDT",
					IsSpotTradingAllowed: true,
					Filters: []BinanceFilter{
						{FilterType: "PRICE_FILTER", TickSize: tick},
						{FilterType: "LOT_SIZE", StepSize: tick, MinQty: tick},
					},
				},
			}}
			rows, err := NewBinanceRulesFetcher(f, "url").FetchRules(context.Background())
			return err == nil && len(rows) == 1 && rows[0].PriceTick.String() != ""
		},
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

func tickForExponent(exp int) string {
	if exp == 0 {
		return "1"
	}
	out := "0."
	for i := 1; i < exp; i++ {
		out += "0"
	}
	return out + "1"
}
