// Package evaluator implements C5: given a compiled chain and the current
// order-book snapshots for its three legs, it walks the book leg by leg and
// decides whether a realizable, profitable execution plan exists.
package evaluator

import (
	"github.com/shopspring/decimal"

	"triarb/internal/chain"
	"triarb/internal/symbol"
)

// VolumeBand bounds the quantity, denominated in a chain's entry asset,
// the evaluator is willing to size the first leg at.
type VolumeBand struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Thresholds are the profit-gating and staleness knobs applied after a
// chain's legs are walked and rounded.
type Thresholds struct {
	MinProfitAbs decimal.Decimal
	MinProfitRel decimal.Decimal
	MaxAgeMs     int64
	// EvalBudgetUs is the soft wall-clock budget for a single evaluation,
	// in microseconds. Zero disables the deadline-exceeded counter. An
	// evaluation that runs past it still completes and returns its result;
	// the budget is observability, not an abort signal.
	EvalBudgetUs int64
}

// LegPlan is one leg of a realized execution plan: the price and quantity
// actually to be sent, already rounded to the symbol's tick/step.
type LegPlan struct {
	Symbol symbol.SymbolID
	Side   chain.Side
	Price  decimal.Decimal
	// BaseQty is the order quantity as the exchange denominates it: base
	// units, before the fee deduction that only applies to whichever side
	// of the trade is received.
	BaseQty      decimal.Decimal
	InQty        decimal.Decimal
	OutQty       decimal.Decimal
	LevelsUsed   int
	DepthVersion uint64
}

// Opportunity is a fully realized, profitable three-leg plan ready for C6.
type Opportunity struct {
	ChainID       chain.ID
	EntryBase     symbol.AssetID
	Legs          [3]LegPlan
	NetProfit     decimal.Decimal
	NetProfitRel  decimal.Decimal
	DetectedAtNs  int64
	DepthVersions [3]uint64
}
