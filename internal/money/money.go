// Package money provides the fixed-point decimal helpers shared by every
// component that touches prices or quantities. Nothing downstream of parsing
// is allowed to hold a float64 that feeds a decision; this package is the
// single seam where exchange rules (ticks, steps) are applied to raw values.
package money

import (
	"github.com/shopspring/decimal"
)

func init() {
	// 38-digit-safe division precision; the widest quantity we ever divide
	// (quote amount / price) needs more than the library's 16-digit default.
	decimal.DivisionPrecision = 36
}

// Zero is the canonical zero value, used instead of decimal.Decimal{}.
var Zero = decimal.Zero

// RoundDownStep rounds v down to the nearest multiple of step. Used for ASC
// (sell) leg prices and for quantities on every leg. A non-positive step is
// treated as "no rounding" since a symbol with a zero step would otherwise
// divide by zero.
func RoundDownStep(v, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return v
	}
	return v.Div(step).Floor().Mul(step)
}

// RoundUpStep rounds v up to the nearest multiple of step. Used for DESC
// (buy) leg prices, where rounding toward the consumed side means rounding
// the price the taker must pay upward.
func RoundUpStep(v, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return v
	}
	return v.Div(step).Ceil().Mul(step)
}

// VWAP accumulates (price, qty) pairs and reports the volume-weighted
// average price plus the total quantity accumulated. Callers stop feeding
// levels once the target quantity is reached; Weighted() reflects only what
// was fed.
type VWAP struct {
	notional decimal.Decimal
	qty      decimal.Decimal
}

// Add records consumption of qty units at price.
func (v *VWAP) Add(price, qty decimal.Decimal) {
	v.notional = v.notional.Add(price.Mul(qty))
	v.qty = v.qty.Add(qty)
}

// Qty returns the total quantity accumulated so far.
func (v *VWAP) Qty() decimal.Decimal {
	return v.qty
}

// Price returns the volume-weighted average price, or zero if nothing has
// been accumulated.
func (v *VWAP) Price() decimal.Decimal {
	if v.qty.Sign() == 0 {
		return Zero
	}
	return v.notional.Div(v.qty)
}
