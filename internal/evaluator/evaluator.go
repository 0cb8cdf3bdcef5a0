package evaluator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"triarb/internal/book"
	"triarb/internal/chain"
	"triarb/internal/money"
	"triarb/internal/symbol"
)

// Evaluate walks a chain's three legs against their current
// snapshots, back-solving upstream sizing when a downstream leg can't
// absorb what an upstream leg would otherwise produce, then round and gate
// the result. It is a pure function of its arguments.
//
// Returns (nil, nil) when the chain is fillable but not profitable enough
// to clear the configured thresholds — that is the ordinary "no
// opportunity this tick" outcome, not an error. Errors are reserved for
// snapshots too stale to trust or a chain that cannot be sized at all
// within the volume band.
func Evaluate(ch chain.Chain, reg *symbol.Registry, snaps [3]*book.Snapshot, feeRate decimal.Decimal, band VolumeBand, th Thresholds, nowNs int64) (*Opportunity, error) {
	for i, s := range snaps {
		if s == nil || s.Top == nil {
			return nil, fmt.Errorf("%w: leg %d has no snapshot", ErrStaleSnapshot, i)
		}
		if th.MaxAgeMs > 0 {
			ageMs := (nowNs - s.Top.ReceivedAtNs) / 1_000_000
			if ageMs > th.MaxAgeMs {
				return nil, fmt.Errorf("%w: leg %d age %dms", ErrStaleSnapshot, i, ageMs)
			}
		}
	}

	feeMult := decimal.NewFromInt(1).Sub(feeRate)

	q1 := band.Max
	if q1.LessThan(band.Min) {
		q1 = band.Min
	}

	r1 := walkLeg(ch.Legs[0], snaps[0].Top, q1)
	if r1.served.LessThan(band.Min) {
		return nil, ErrUnfillable
	}
	out1 := r1.outRaw.Mul(feeMult)
	vwap1 := r1.vwap

	r2 := walkLeg(ch.Legs[1], snaps[1].Top, out1)
	if r2.served.LessThan(out1) {
		// Case B: leg 2 can't absorb everything leg 1 would produce.
		// Back-solve leg 1's sizing down to what leg 2 can actually serve.
		cap2 := r2.served
		newQ1 := invertLeg(ch.Legs[0].Side, vwap1, cap2.Div(feeMult))
		if newQ1.LessThan(band.Min) {
			return nil, ErrUnfillable
		}
		r1 = walkLeg(ch.Legs[0], snaps[0].Top, newQ1)
		if r1.served.LessThan(band.Min) {
			return nil, ErrUnfillable
		}
		vwap1 = r1.vwap
		out1 = r1.outRaw.Mul(feeMult)
		r2 = walkLeg(ch.Legs[1], snaps[1].Top, out1)
	}
	vwap2 := r2.vwap
	out2 := r2.outRaw.Mul(feeMult)

	r3 := walkLeg(ch.Legs[2], snaps[2].Top, out2)
	if r3.served.LessThan(out2) {
		// Case B again, one level deeper: leg 3 can't absorb what leg 2
		// would produce. Back-solve leg 2's target, then propagate that
		// back through leg 1.
		cap3 := r3.served
		newQ2 := invertLeg(ch.Legs[1].Side, vwap2, cap3.Div(feeMult))
		newQ1 := invertLeg(ch.Legs[0].Side, vwap1, newQ2.Div(feeMult))
		if newQ1.LessThan(band.Min) {
			return nil, ErrUnfillable
		}
		r1 = walkLeg(ch.Legs[0], snaps[0].Top, newQ1)
		if r1.served.LessThan(band.Min) {
			return nil, ErrUnfillable
		}
		vwap1 = r1.vwap
		out1 = r1.outRaw.Mul(feeMult)

		r2 = walkLeg(ch.Legs[1], snaps[1].Top, out1)
		vwap2 = r2.vwap
		out2 = r2.outRaw.Mul(feeMult)

		r3 = walkLeg(ch.Legs[2], snaps[2].Top, out2)
	}

	if r1.served.LessThan(band.Min) {
		return nil, ErrUnfillable
	}

	leg1 := buildLegPlan(reg, ch.Legs[0], r1.served, vwap1, feeMult, r1.levelsUsed, snaps[0].Version)
	leg2 := buildLegPlan(reg, ch.Legs[1], r2.served, vwap2, feeMult, r2.levelsUsed, snaps[1].Version)
	leg3 := buildLegPlan(reg, ch.Legs[2], r3.served, r3.vwap, feeMult, r3.levelsUsed, snaps[2].Version)

	for _, lp := range [3]LegPlan{leg1, leg2, leg3} {
		sym, _ := reg.Symbol(lp.Symbol)
		if lp.BaseQty.LessThan(sym.MinQty) {
			return nil, ErrUnfillable
		}
		notional := lp.BaseQty.Mul(lp.Price)
		if sym.MinNotional.Sign() > 0 && notional.LessThan(sym.MinNotional) {
			return nil, ErrUnfillable
		}
	}

	netProfit := leg3.OutQty.Sub(leg1.InQty)
	netProfitRel := money.Zero
	if leg1.InQty.Sign() > 0 {
		netProfitRel = netProfit.Div(leg1.InQty)
	}

	if netProfit.LessThan(th.MinProfitAbs) || netProfitRel.LessThan(th.MinProfitRel) {
		return nil, nil
	}

	return &Opportunity{
		ChainID:       ch.ID,
		EntryBase:     ch.EntryBase,
		Legs:          [3]LegPlan{leg1, leg2, leg3},
		NetProfit:     netProfit,
		NetProfitRel:  netProfitRel,
		DetectedAtNs:  nowNs,
		DepthVersions: [3]uint64{snaps[0].Version, snaps[1].Version, snaps[2].Version},
	}, nil
}

// buildLegPlan rounds a leg's achieved (baseQty, price) to the symbol's
// tick/step and recomputes the asset flows from the rounded values, so a
// plan's InQty/OutQty are always exactly price*qty rather than drifting
// from the unrounded book-walk numbers.
func buildLegPlan(reg *symbol.Registry, l chain.Leg, rawServed, price, feeMult decimal.Decimal, levelsUsed int, depthVersion uint64) LegPlan {
	sym, _ := reg.Symbol(l.Symbol)

	var roundedPrice decimal.Decimal
	var rawBaseQty decimal.Decimal
	if l.Side == chain.SideASC {
		roundedPrice = money.RoundDownStep(price, sym.PriceTick)
		rawBaseQty = rawServed // ASC input is already base units sold
	} else {
		roundedPrice = money.RoundUpStep(price, sym.PriceTick)
		if price.Sign() > 0 {
			rawBaseQty = rawServed.Div(price) // DESC input is quote spent; convert to base
		}
	}
	baseQty := money.RoundDownStep(rawBaseQty, sym.QtyStep)

	var inQty, outQty decimal.Decimal
	if l.Side == chain.SideASC {
		inQty = baseQty
		outQty = baseQty.Mul(roundedPrice).Mul(feeMult)
	} else {
		inQty = baseQty.Mul(roundedPrice)
		outQty = baseQty.Mul(feeMult)
	}

	return LegPlan{
		Symbol:       l.Symbol,
		Side:         l.Side,
		Price:        roundedPrice,
		BaseQty:      baseQty,
		InQty:        inQty,
		OutQty:       outQty,
		LevelsUsed:   levelsUsed,
		DepthVersion: depthVersion,
	}
}
