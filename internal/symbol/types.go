// Package symbol normalizes an exchange's trading-rules snapshot into an
// interned symbol graph: assets and symbols as small integer ids, queryable
// by pair and by adjacency. This is C1 of the detection pipeline.
package symbol

import (
	"github.com/shopspring/decimal"
)

// AssetID is an interned currency code, assigned at registration time.
type AssetID uint32

// SymbolID is an interned trading pair, assigned at registration time.
type SymbolID uint32

// Status mirrors the exchange's trading-status filter.
type Status int

const (
	// StatusTrading marks a symbol as tradable; only these survive
	// registry construction.
	StatusTrading Status = iota
	// StatusOther covers BREAK/HALT/SETTLING/etc — anything not TRADING.
	StatusOther
)

// Symbol is a trading pair with the attributes the evaluator needs to round
// and gate a leg plan.
type Symbol struct {
	ID           SymbolID
	ExchangeCode string
	Base, Quote  AssetID
	PriceTick    decimal.Decimal
	QtyStep      decimal.Decimal
	MinQty       decimal.Decimal
	MinNotional  decimal.Decimal
	Status       Status
}
