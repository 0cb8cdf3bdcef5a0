package evaluator

import (
	"github.com/shopspring/decimal"

	"triarb/internal/book"
	"triarb/internal/chain"
	"triarb/internal/money"
)

// walkResult is the outcome of walking one leg's book against a target
// input quantity: how much of that input was actually served by the levels
// on hand, the resulting raw (pre-fee) output, and the volume-weighted price
// actually paid — the "price" a single-level walk would report had the
// whole request landed on one level.
type walkResult struct {
	served     decimal.Decimal // input actually consumed, in InAsset(leg) units
	outRaw     decimal.Decimal // output before fee, in OutAsset(leg) units
	vwap       decimal.Decimal
	levelsUsed int
}

// levelsFor returns the side of the book a leg consumes: bids for ASC
// (selling base into the bid), asks for DESC (buying base from the ask).
func levelsFor(l chain.Leg, top *book.Top) []book.Level {
	if l.Side == chain.SideASC {
		return top.Bids
	}
	return top.Asks
}

// walkLeg generalizes the single-level pricing formula across consecutive
// book levels: it keeps consuming levels until wantInput is served or the
// book runs out.
func walkLeg(l chain.Leg, top *book.Top, wantInput decimal.Decimal) walkResult {
	levels := levelsFor(l, top)
	if l.Side == chain.SideASC {
		return walkASC(levels, wantInput)
	}
	return walkDESC(levels, wantInput)
}

// walkASC sells wantBaseQty of base into consecutive bid levels.
func walkASC(levels []book.Level, wantBaseQty decimal.Decimal) walkResult {
	remaining := wantBaseQty
	var vw money.VWAP
	outRaw := money.Zero
	used := 0
	for _, lvl := range levels {
		if remaining.Sign() <= 0 {
			break
		}
		take := lvl.Qty
		if take.GreaterThan(remaining) {
			take = remaining
		}
		vw.Add(lvl.Price, take)
		outRaw = outRaw.Add(take.Mul(lvl.Price))
		remaining = remaining.Sub(take)
		used++
	}
	return walkResult{
		served:     wantBaseQty.Sub(remaining),
		outRaw:     outRaw,
		vwap:       vw.Price(),
		levelsUsed: used,
	}
}

// walkDESC buys base with wantQuoteQty of quote against consecutive ask
// levels.
func walkDESC(levels []book.Level, wantQuoteQty decimal.Decimal) walkResult {
	remaining := wantQuoteQty
	var vw money.VWAP
	outRaw := money.Zero
	used := 0
	for _, lvl := range levels {
		if remaining.Sign() <= 0 {
			break
		}
		levelQuoteCap := lvl.Qty.Mul(lvl.Price)
		var quoteSpent, baseBought decimal.Decimal
		if levelQuoteCap.LessThanOrEqual(remaining) {
			quoteSpent = levelQuoteCap
			baseBought = lvl.Qty
		} else {
			quoteSpent = remaining
			baseBought = remaining.Div(lvl.Price)
		}
		vw.Add(lvl.Price, baseBought)
		outRaw = outRaw.Add(baseBought)
		remaining = remaining.Sub(quoteSpent)
		used++
	}
	return walkResult{
		served:     wantQuoteQty.Sub(remaining),
		outRaw:     outRaw,
		vwap:       vw.Price(),
		levelsUsed: used,
	}
}

// invertLeg computes the input quantity that would have produced
// targetOutRaw (pre-fee) at price, i.e. the inverse of the single-level
// pricing formula. Used by the back-solve cascade, which propagates a
// capacity shortfall discovered downstream back onto an upstream leg's
// sizing.
func invertLeg(side chain.Side, price, targetOutRaw decimal.Decimal) decimal.Decimal {
	if price.Sign() <= 0 {
		return money.Zero
	}
	if side == chain.SideASC {
		// forward: outRaw = q * price  =>  q = outRaw / price
		return targetOutRaw.Div(price)
	}
	// forward: outRaw = q / price  =>  q = outRaw * price
	return targetOutRaw.Mul(price)
}
