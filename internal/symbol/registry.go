package symbol

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// RuleRow is one row of an exchange's exchangeInfo-shaped trading rules
// snapshot, already flattened out of whatever wire format the exchange uses.
type RuleRow struct {
	ExchangeCode string
	Base, Quote  string
	Status       string
	PriceTick    decimal.Decimal
	QtyStep      decimal.Decimal
	MinQty       decimal.Decimal
	MinNotional  decimal.Decimal
	// HasNotionalFilter is true when the exchange declares a MIN_NOTIONAL
	// filter for this symbol at all; BuildRegistry requires MinNotional to
	// be set in that case, even if the exchange's declared value is zero.
	HasNotionalFilter bool
}

// RulesFetcher pulls a trading-rules snapshot. Transport (HTTP, file,
// canned test data) is external to this package; only the resulting rows
// matter here.
type RulesFetcher interface {
	FetchRules(ctx context.Context) ([]RuleRow, error)
}

type pairKey struct {
	base, quote AssetID
}

// Registry is the immutable, interned symbol graph built once at startup.
type Registry struct {
	assetCodes []string
	assetIndex map[string]AssetID

	symbols []Symbol
	byPair  map[pairKey]SymbolID
	byAsset map[AssetID][]SymbolID
}

// BuildRegistry normalizes rows into a Registry. Rows are kept only if
// status == TRADING and, when allow/deny are non-empty, the exchange code
// passes the allowlist/denylist filter (allow takes precedence: if non-empty,
// only listed codes survive; deny then removes any that remain).
func BuildRegistry(rows []RuleRow, allow, deny map[string]bool) (*Registry, error) {
	r := &Registry{
		assetIndex: make(map[string]AssetID),
		byPair:     make(map[pairKey]SymbolID),
		byAsset:    make(map[AssetID][]SymbolID),
	}

	for _, row := range rows {
		if row.Status != "TRADING" {
			continue
		}
		if len(allow) > 0 && !allow[row.ExchangeCode] {
			continue
		}
		if deny[row.ExchangeCode] {
			continue
		}
		if row.PriceTick.Sign() <= 0 {
			return nil, fmt.Errorf("%w: %s: price_tick must be positive", ErrInvalidRules, row.ExchangeCode)
		}
		if row.QtyStep.Sign() <= 0 {
			return nil, fmt.Errorf("%w: %s: qty_step must be positive", ErrInvalidRules, row.ExchangeCode)
		}
		if row.HasNotionalFilter && row.MinNotional.Sign() <= 0 {
			return nil, fmt.Errorf("%w: %s: min_notional declared but not positive", ErrInvalidRules, row.ExchangeCode)
		}

		base := r.intern(row.Base)
		quote := r.intern(row.Quote)
		key := pairKey{base: base, quote: quote}
		if _, dup := r.byPair[key]; dup {
			return nil, fmt.Errorf("%w: duplicate pair %s:%s", ErrInvalidRules, row.Base, row.Quote)
		}

		id := SymbolID(len(r.symbols))
		r.symbols = append(r.symbols, Symbol{
			ID:           id,
			ExchangeCode: row.ExchangeCode,
			Base:         base,
			Quote:        quote,
			PriceTick:    row.PriceTick,
			QtyStep:      row.QtyStep,
			MinQty:       row.MinQty,
			MinNotional:  row.MinNotional,
			Status:       StatusTrading,
		})
		r.byPair[key] = id
		r.byAsset[base] = append(r.byAsset[base], id)
		r.byAsset[quote] = append(r.byAsset[quote], id)
	}

	if len(r.symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols survived filtering", ErrInvalidRules)
	}

	return r, nil
}

func (r *Registry) intern(code string) AssetID {
	if id, ok := r.assetIndex[code]; ok {
		return id
	}
	id := AssetID(len(r.assetCodes))
	r.assetCodes = append(r.assetCodes, code)
	r.assetIndex[code] = id
	return id
}

// Asset looks up the interned id for an asset code.
func (r *Registry) Asset(code string) (AssetID, bool) {
	id, ok := r.assetIndex[code]
	return id, ok
}

// AssetCode returns the original code for an interned asset id.
func (r *Registry) AssetCode(id AssetID) string {
	if int(id) >= len(r.assetCodes) {
		return ""
	}
	return r.assetCodes[id]
}

// NumAssets reports how many distinct assets were interned.
func (r *Registry) NumAssets() int {
	return len(r.assetCodes)
}

// Symbol returns the Symbol for an interned id.
func (r *Registry) Symbol(id SymbolID) (Symbol, bool) {
	if int(id) >= len(r.symbols) {
		return Symbol{}, false
	}
	return r.symbols[id], true
}

// NumSymbols reports how many symbols survived filtering.
func (r *Registry) NumSymbols() int {
	return len(r.symbols)
}

// Pair looks up the symbol trading base against quote, in that order.
func (r *Registry) Pair(base, quote AssetID) (SymbolID, bool) {
	id, ok := r.byPair[pairKey{base: base, quote: quote}]
	return id, ok
}

// SymbolsOf returns every symbol touching asset, in registration order.
func (r *Registry) SymbolsOf(asset AssetID) []SymbolID {
	return r.byAsset[asset]
}

// Symbols returns every registered symbol, in registration order. Callers
// must not mutate the returned slice.
func (r *Registry) Symbols() []Symbol {
	return r.symbols
}
