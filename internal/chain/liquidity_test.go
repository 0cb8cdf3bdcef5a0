package chain

import (
	"testing"

	"github.com/shopspring/decimal"

	"triarb/internal/metadata"
	"triarb/internal/symbol"
)

func liquidityTestChain(t *testing.T) (*symbol.Registry, Chain) {
	t.Helper()
	rows := []symbol.RuleRow{
		testRow("ETH", "BTC"),
		testRow("BTC", "USDT"),
		testRow("BTC", "QTUM"),
		testRow("QTUM", "ETH"),
	}
	reg, err := symbol.BuildRegistry(rows, nil, nil)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	eth, _ := reg.Asset("ETH")

	chains, err := Compile(reg, []symbol.AssetID{eth})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	// The triangle closes both ways; chains[0] is the all-ASC direction
	// (ETH:BTC, BTC:QTUM, QTUM:ETH) the tests below are written against.
	if len(chains) != 2 {
		t.Fatalf("len(chains) = %d, want 2", len(chains))
	}
	return reg, chains[0]
}

func ts(volume, quoteVolume, last string) metadata.TickerStats {
	return metadata.TickerStats{
		Volume:      decimal.RequireFromString(volume),
		QuoteVolume: decimal.RequireFromString(quoteVolume),
		LastPrice:   decimal.RequireFromString(last),
	}
}

// TestFilterBy24hVolume_PassesWhenEveryLegClearsThePropagatedFloor mirrors
// filter_chains_by_24h_vol: a floor of 1 ETH on the entry leg propagates
// leg by leg (all three legs here are ASC, so each propagation multiplies
// by that leg's last price: 1 -> 1*20=20 -> 20*20=400), and every leg
// reports enough 24h base-asset volume to clear the floor by the time it's
// walked.
func TestFilterBy24hVolume_PassesWhenEveryLegClearsThePropagatedFloor(t *testing.T) {
	reg, ch := liquidityTestChain(t)
	eth, _ := reg.Asset("ETH")

	stats := map[symbol.SymbolID]metadata.TickerStats{
		ch.Legs[0].Symbol: ts("100", "2000", "20"),    // ETH:BTC: 100 ETH >= 1 ETH floor
		ch.Legs[1].Symbol: ts("5000", "100000", "20"), // BTC:QTUM: floor becomes 20 BTC; 5000 BTC clears
		ch.Legs[2].Symbol: ts("500", "2500", "5"),     // QTUM:ETH: floor becomes 400 QTUM; 500 QTUM clears
	}
	floors := map[symbol.AssetID]decimal.Decimal{eth: decimal.RequireFromString("1")}

	out := FilterBy24hVolume([]Chain{ch}, stats, floors)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1 (chain should clear every leg's floor)", len(out))
	}
}

// TestFilterBy24hVolume_DropsWhenALegCannotClearTheFloor mirrors the
// filtered-out branch: the second leg's 24h volume falls short of the
// floor propagated from the first leg, so the whole chain is dropped.
func TestFilterBy24hVolume_DropsWhenALegCannotClearTheFloor(t *testing.T) {
	reg, ch := liquidityTestChain(t)
	eth, _ := reg.Asset("ETH")

	stats := map[symbol.SymbolID]metadata.TickerStats{
		ch.Legs[0].Symbol: ts("100", "2000", "20"),
		ch.Legs[1].Symbol: ts("5", "100", "20"), // only 5 BTC 24h volume, floor needs 20
		ch.Legs[2].Symbol: ts("500", "2500", "5"),
	}
	floors := map[symbol.AssetID]decimal.Decimal{eth: decimal.RequireFromString("1")}

	out := FilterBy24hVolume([]Chain{ch}, stats, floors)
	if len(out) != 0 {
		t.Fatalf("len(out) = %d, want 0 (leg 2 can't clear the propagated floor)", len(out))
	}
}

// TestFilterBy24hVolume_NoFloorConfiguredKeepsChain mirrors the source's
// behavior for an entry asset outside the configured floor set: nothing to
// filter against, so the chain passes through untouched.
func TestFilterBy24hVolume_NoFloorConfiguredKeepsChain(t *testing.T) {
	_, ch := liquidityTestChain(t)

	out := FilterBy24hVolume([]Chain{ch}, nil, nil)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1 (no floor configured)", len(out))
	}
}

// TestFilterBy24hVolume_MissingStatsDropsChain mirrors the source's
// continue 'outer on a missing ticker_prices entry: a leg's symbol absent
// from stats makes the chain unfillable by this filter's own logic, not
// an error to surface.
func TestFilterBy24hVolume_MissingStatsDropsChain(t *testing.T) {
	reg, ch := liquidityTestChain(t)
	eth, _ := reg.Asset("ETH")

	stats := map[symbol.SymbolID]metadata.TickerStats{
		ch.Legs[0].Symbol: ts("100", "2000", "20"),
		// leg 1 and leg 2 deliberately absent
	}
	floors := map[symbol.AssetID]decimal.Decimal{eth: decimal.RequireFromString("1")}

	out := FilterBy24hVolume([]Chain{ch}, stats, floors)
	if len(out) != 0 {
		t.Fatalf("len(out) = %d, want 0 (missing ticker stats for a leg)", len(out))
	}
}
