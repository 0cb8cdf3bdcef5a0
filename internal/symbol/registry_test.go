package symbol

import (
	"testing"

	"github.com/shopspring/decimal"
)

func row(exch, base, quote string) RuleRow {
	return RuleRow{
		ExchangeCode: exch,
		Base:         base,
		Quote:        quote,
		Status:       "TRADING",
		PriceTick:    decimal.NewFromFloat(0.01),
		QtyStep:      decimal.NewFromFloat(0.0001),
		MinQty:       decimal.NewFromFloat(0.0001),
		MinNotional:  decimal.NewFromFloat(5),
	}
}

func TestBuildRegistry_Basic(t *testing.T) {
	rows := []RuleRow{
		row("ETHBTC", "ETH", "BTC"),
		row("BTCUSDT", "BTC", "USDT"),
		row("BTCQTUM", "BTC", "QTUM"),
		row("QTUMETH", "QTUM", "ETH"),
	}

	reg, err := BuildRegistry(rows, nil, nil)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if reg.NumSymbols() != 4 {
		t.Fatalf("NumSymbols() = %d, want 4", reg.NumSymbols())
	}
	if reg.NumAssets() != 4 {
		t.Fatalf("NumAssets() = %d, want 4", reg.NumAssets())
	}

	eth, ok := reg.Asset("ETH")
	if !ok {
		t.Fatalf("ETH not interned")
	}
	btc, ok := reg.Asset("BTC")
	if !ok {
		t.Fatalf("BTC not interned")
	}
	if _, ok := reg.Pair(eth, btc); !ok {
		t.Fatalf("ETH:BTC pair not found")
	}
}

func TestBuildRegistry_DropsNonTrading(t *testing.T) {
	r1 := row("ETHBTC", "ETH", "BTC")
	r2 := row("BTCUSDT", "BTC", "USDT")
	r2.Status = "BREAK"

	reg, err := BuildRegistry([]RuleRow{r1, r2}, nil, nil)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if reg.NumSymbols() != 1 {
		t.Fatalf("NumSymbols() = %d, want 1", reg.NumSymbols())
	}
}

func TestBuildRegistry_Allowlist(t *testing.T) {
	rows := []RuleRow{row("ETHBTC", "ETH", "BTC"), row("BTCUSDT", "BTC", "USDT")}
	reg, err := BuildRegistry(rows, map[string]bool{"ETHBTC": true}, nil)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if reg.NumSymbols() != 1 {
		t.Fatalf("NumSymbols() = %d, want 1", reg.NumSymbols())
	}
}

func TestBuildRegistry_ZeroTickRejected(t *testing.T) {
	bad := row("ETHBTC", "ETH", "BTC")
	bad.PriceTick = decimal.Zero
	if _, err := BuildRegistry([]RuleRow{bad}, nil, nil); err == nil {
		t.Fatalf("expected error for zero price_tick")
	}
}

func TestBuildRegistry_DuplicatePairRejected(t *testing.T) {
	rows := []RuleRow{row("ETHBTC", "ETH", "BTC"), row("ETHBTC2", "ETH", "BTC")}
	if _, err := BuildRegistry(rows, nil, nil); err == nil {
		t.Fatalf("expected error for duplicate pair")
	}
}

func TestBuildRegistry_MissingNotionalRejected(t *testing.T) {
	bad := row("ETHBTC", "ETH", "BTC")
	bad.HasNotionalFilter = true
	bad.MinNotional = decimal.Zero
	if _, err := BuildRegistry([]RuleRow{bad}, nil, nil); err == nil {
		t.Fatalf("expected error for missing min_notional")
	}
}

func TestBuildRegistry_EmptyRejected(t *testing.T) {
	if _, err := BuildRegistry(nil, nil, nil); err == nil {
		t.Fatalf("expected error for empty rule set")
	}
}
