package evaluator

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"triarb/internal/book"
	"triarb/internal/chain"
	"triarb/internal/symbol"
)

// Property 3 (determinism): Evaluate is a pure function of its arguments —
// calling it twice with identical inputs always yields bit-identical
// results, independent of call order or any other chain's evaluation
// happening in between.
func TestEvaluate_Deterministic_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("repeated evaluation of the same inputs is identical", prop.ForAll(
		func(bidPx, bidQty, askPx, askQty float64, vMax float64) bool {
			ch, reg, snaps, th := s1s2ChainForProperty(t, bidPx, bidQty, askPx, askQty)
			band := VolumeBand{Min: decimal.NewFromFloat(0.00001), Max: decimal.NewFromFloat(vMax)}

			op1, err1 := Evaluate(ch, reg, snaps, decimal.NewFromFloat(0.001), band, th, 0)
			op2, err2 := Evaluate(ch, reg, snaps, decimal.NewFromFloat(0.001), band, th, 0)

			if (err1 == nil) != (err2 == nil) {
				return false
			}
			if (op1 == nil) != (op2 == nil) {
				return false
			}
			if op1 == nil {
				return true
			}
			return op1.NetProfit.Equal(op2.NetProfit) && op1.NetProfitRel.Equal(op2.NetProfitRel)
		},
		gen.Float64Range(100, 120000),
		gen.Float64Range(0.001, 10),
		gen.Float64Range(100, 120000),
		gen.Float64Range(0.001, 10),
		gen.Float64Range(0.0001, 0.001),
	))

	properties.TestingRun(t)
}

// Property 5: whenever Evaluate returns Some(op), its net profit clears both
// configured thresholds.
func TestEvaluate_ProfitableImpliesAboveThreshold_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Some(op) implies op clears both profit thresholds", prop.ForAll(
		func(bidPx, bidQty, askPx, askQty, vMax, minAbs float64) bool {
			ch, reg, snaps, _ := s1s2ChainForProperty(t, bidPx, bidQty, askPx, askQty)
			band := VolumeBand{Min: decimal.NewFromFloat(0.00001), Max: decimal.NewFromFloat(vMax)}
			th := Thresholds{MinProfitAbs: decimal.NewFromFloat(minAbs), MinProfitRel: decimal.Zero}

			op, err := Evaluate(ch, reg, snaps, decimal.NewFromFloat(0.0005), band, th, 0)
			if err != nil || op == nil {
				return true
			}
			return !op.NetProfit.LessThan(th.MinProfitAbs) && !op.NetProfitRel.LessThan(th.MinProfitRel)
		},
		gen.Float64Range(100, 120000),
		gen.Float64Range(0.001, 10),
		gen.Float64Range(100, 120000),
		gen.Float64Range(0.001, 10),
		gen.Float64Range(0.0001, 0.001),
		gen.Float64Range(-1, 1),
	))

	properties.TestingRun(t)
}

// s1s2ChainForProperty builds the same three-symbol chain shape as the
// scenario tests but with caller-supplied top-of-book prices/quantities, so
// the property tests can range over the input space without hand-writing a
// registry per case.
func s1s2ChainForProperty(t *testing.T, bidPx, bidQty, askPx, askQty float64) (chain.Chain, *symbol.Registry, [3]*book.Snapshot, Thresholds) {
	t.Helper()
	reg, syms := buildTestRegistry(t)
	btc, _ := reg.Asset("BTC")

	ch := chain.Chain{
		Legs: [3]chain.Leg{
			{Symbol: syms["BTC:USDT"], Side: chain.SideASC},
			{Symbol: syms["ETH:USDT"], Side: chain.SideDESC},
			{Symbol: syms["ETH:BTC"], Side: chain.SideASC},
		},
		EntryBase: btc,
	}

	var snaps [3]*book.Snapshot
	snaps[0] = &book.Snapshot{Version: 1, Top: &book.Top{
		Bids: []book.Level{{Price: decimal.NewFromFloat(bidPx), Qty: decimal.NewFromFloat(bidQty)}},
	}}
	snaps[1] = &book.Snapshot{Version: 1, Top: &book.Top{
		Asks: []book.Level{{Price: decimal.NewFromFloat(askPx), Qty: decimal.NewFromFloat(askQty)}},
	}}
	snaps[2] = &book.Snapshot{Version: 1, Top: &book.Top{
		Bids: []book.Level{{Price: decimal.NewFromFloat(0.0236), Qty: decimal.NewFromFloat(1000)}},
	}}

	th := Thresholds{MinProfitAbs: decimal.Zero, MinProfitRel: decimal.Zero}
	return ch, reg, snaps, th
}
