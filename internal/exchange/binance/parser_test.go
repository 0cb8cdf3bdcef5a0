package binance

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"triarb/internal/symbol"
)

func testSymbolIndex() map[string]symbol.SymbolID {
	return map[string]symbol.SymbolID{
		"BTCUSDT": symbol.SymbolID(0),
		"ETHUSDT": symbol.SymbolID(1),
	}
}

func decimalString(s string) string {
	return decimal.RequireFromString(s).String()
}

// Property 1: parsing preserves the price, quantity, and event time of a
// depth5 push, since Binance ships them as decimal strings end to end.
func TestParser_RoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	parser := NewParser(testSymbolIndex(), 5)

	properties.Property("parse preserves price, quantity, and event time", prop.ForAll(
		func(bidPx, bidQty, askPx, askQty float64, ts int64) bool {
			msg := DepthUpdate{
				EventType:   "depthUpdate",
				EventTimeMs: ts,
				Symbol:      "BTCUSDT",
				Bids:        [][]string{{fmt.Sprintf("%.8f", bidPx), fmt.Sprintf("%.8f", bidQty)}},
				Asks:        [][]string{{fmt.Sprintf("%.8f", askPx), fmt.Sprintf("%.8f", askQty)}},
			}

			data, err := json.Marshal(msg)
			if err != nil {
				return false
			}

			updates, err := parser.Parse(data)
			if err != nil || len(updates) != 1 {
				return false
			}

			u := updates[0]
			if u.Symbol != symbol.SymbolID(0) || u.Top.LastUpdateID != ts {
				return false
			}
			return u.Top.Bids[0].Price.String() == decimalString(fmt.Sprintf("%.8f", bidPx)) &&
				u.Top.Bids[0].Qty.String() == decimalString(fmt.Sprintf("%.8f", bidQty)) &&
				u.Top.Asks[0].Price.String() == decimalString(fmt.Sprintf("%.8f", askPx)) &&
				u.Top.Asks[0].Qty.String() == decimalString(fmt.Sprintf("%.8f", askQty))
		},
		gen.Float64Range(10000, 100000),
		gen.Float64Range(0.001, 100),
		gen.Float64Range(10000, 100000),
		gen.Float64Range(0.001, 100),
		gen.Int64Range(1700000000000, 1800000000000),
	))

	properties.TestingRun(t)
}

func TestParser_SpecificMessages(t *testing.T) {
	parser := NewParser(testSymbolIndex(), 5)

	tests := []struct {
		name        string
		message     string
		wantUpdates int
		wantBidPx   string
		wantAskPx   string
		wantTs      int64
	}{
		{
			name: "standard depthUpdate message",
			message: `{
				"e":"depthUpdate",
				"E":1700000000000,
				"s":"BTCUSDT",
				"b":[["50000.5","1.5"]],
				"a":[["50001.0","2.0"]]
			}`,
			wantUpdates: 1,
			wantBidPx:   "50000.5",
			wantAskPx:   "50001",
			wantTs:      1700000000000,
		},
		{
			name:        "non-depthUpdate event is ignored",
			message:     `{"e":"aggTrade","E":1700000000000}`,
			wantUpdates: 0,
		},
		{
			name:        "unconfigured symbol is skipped",
			message:     `{"e":"depthUpdate","E":1700000000000,"s":"SOLUSDT","b":[["1","1"]],"a":[["2","2"]]}`,
			wantUpdates: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates, err := parser.Parse([]byte(tt.message))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(updates) != tt.wantUpdates {
				t.Fatalf("updates = %d, want %d", len(updates), tt.wantUpdates)
			}
			if tt.wantUpdates == 0 {
				return
			}

			u := updates[0]
			if u.Top.Bids[0].Price.String() != decimalString(tt.wantBidPx) {
				t.Errorf("bid price = %s, want %s", u.Top.Bids[0].Price.String(), tt.wantBidPx)
			}
			if u.Top.Asks[0].Price.String() != decimalString(tt.wantAskPx) {
				t.Errorf("ask price = %s, want %s", u.Top.Asks[0].Price.String(), tt.wantAskPx)
			}
			if u.Top.LastUpdateID != tt.wantTs {
				t.Errorf("LastUpdateID = %d, want %d", u.Top.LastUpdateID, tt.wantTs)
			}
		})
	}
}

func TestParser_InvalidJSON(t *testing.T) {
	parser := NewParser(testSymbolIndex(), 5)

	_, err := parser.Parse([]byte(`{invalid json}`))
	if err == nil {
		t.Fatalf("expected an error, got nil")
	}
}
