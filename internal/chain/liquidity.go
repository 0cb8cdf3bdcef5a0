package chain

import (
	"github.com/shopspring/decimal"

	"triarb/internal/metadata"
	"triarb/internal/symbol"
)

// FilterBy24hVolume drops any compiled chain whose legs, walked in the
// chain's own order, can't clear floors's configured 24h-volume floor for
// the chain's entry asset. This is a liquidity pre-filter applied once at
// startup (or on a slow refresh cycle) against trailing 24h ticker
// statistics, entirely separate from the live order-book depth the
// evaluator walks on every tick: a chain can pass this filter and still be
// unfillable on a given snapshot, and vice versa on a temporarily thin book.
//
// A chain whose entry asset has no configured floor is kept unfiltered. A
// chain is dropped, rather than assumed fillable, if any leg's symbol is
// missing from stats or reports a zero volume or price.
func FilterBy24hVolume(chains []Chain, stats map[symbol.SymbolID]metadata.TickerStats, floors map[symbol.AssetID]decimal.Decimal) []Chain {
	out := make([]Chain, 0, len(chains))
outer:
	for _, ch := range chains {
		floor, ok := floors[ch.EntryBase]
		if !ok || floor.Sign() <= 0 {
			out = append(out, ch)
			continue
		}

		limit := floor
		for _, leg := range ch.Legs {
			st, ok := stats[leg.Symbol]
			if !ok {
				continue outer
			}
			volume := st.Volume
			if leg.Side == SideDESC {
				volume = st.QuoteVolume
			}
			if volume.Sign() <= 0 || st.LastPrice.Sign() <= 0 {
				continue outer
			}
			if volume.LessThan(limit) {
				continue outer
			}
			limit = propagateFloor(leg.Side, limit, st.LastPrice)
		}
		out = append(out, ch)
	}
	return out
}

// propagateFloor converts a volume floor from the asset it's expressed in
// through one leg's price, into the asset the next leg needs it expressed
// in, applied here to a 24h ticker statistic instead of order-book depth.
// ASC sells base into quote, so the floor scales up by price; DESC buys
// base with quote, so it scales down. This is the forward single-level
// conversion; evaluator.invertLeg applies its inverse when it back-solves a
// live shortfall.
func propagateFloor(side Side, floor, price decimal.Decimal) decimal.Decimal {
	if side == SideASC {
		return floor.Mul(price)
	}
	return floor.Div(price)
}
