package evaluator

import (
	"github.com/shopspring/decimal"

	"triarb/internal/book"
	"triarb/internal/chain"
	"triarb/internal/metrics"
	"triarb/internal/symbol"
	"triarb/internal/util/timeutil"
)

// EvaluateFromStore fetches the current snapshot for each of ch's three
// legs from store and evaluates the chain. Returns ErrStaleSnapshot if any
// leg has never been published to.
//
// This is the instrumented entry point the evaluator pool calls: it times
// the evaluation, records it against the deadline-exceeded counter if
// th.EvalBudgetUs is set and exceeded, and counts profitable outcomes.
// Evaluate itself stays a pure function with no metrics side effects.
func EvaluateFromStore(ch chain.Chain, reg *symbol.Registry, store *book.Store, feeRate decimal.Decimal, band VolumeBand, th Thresholds, nowNs int64) (*Opportunity, error) {
	var snaps [3]*book.Snapshot
	for i, leg := range ch.Legs {
		snap, ok := store.Get(leg.Symbol)
		if !ok {
			return nil, ErrStaleSnapshot
		}
		snaps[i] = snap
	}

	startNs := timeutil.NowNano()
	metrics.Evaluations.Inc()
	opp, err := Evaluate(ch, reg, snaps, feeRate, band, th, nowNs)
	elapsedUs := float64(timeutil.NowNano()-startNs) / 1000

	metrics.EvalLatencyUs.Observe(elapsedUs)
	if th.EvalBudgetUs > 0 && elapsedUs > float64(th.EvalBudgetUs) {
		metrics.EvalDeadlineExceeded.Inc()
	}
	if err == nil && opp != nil {
		metrics.Profitable.Inc()
		metrics.UpdateToOpportunityUs.Observe(float64(opp.DetectedAtNs-minDepthReceivedAtNs(snaps)) / 1000)
	}
	return opp, err
}

// minDepthReceivedAtNs returns the oldest ReceivedAtNs among snaps, the
// starting point for the update-to-opportunity latency measurement.
func minDepthReceivedAtNs(snaps [3]*book.Snapshot) int64 {
	min := snaps[0].Top.ReceivedAtNs
	for _, s := range snaps[1:] {
		if s.Top.ReceivedAtNs < min {
			min = s.Top.ReceivedAtNs
		}
	}
	return min
}
