// Package dispatch implements C6: the opportunity dispatcher. It applies a
// per-chain cooldown, de-duplicates identical (chain, leg plan) tuples
// within a sliding window, and publishes the survivors onto a bounded
// channel that drops the oldest pending opportunity rather than ever
// blocking the evaluator pool.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"triarb/internal/evaluator"
	"triarb/internal/metrics"
)

// Sender is the order-submission collaborator a Dispatcher drains into.
// The dry-run JSONL sink and the optional Redis publisher both implement
// this; downstream order submission itself is out of scope here.
type Sender interface {
	Send(op *evaluator.Opportunity) error
}

// Dispatcher is the C6 gate: cooldown + dedup + drop-oldest bounded
// channel. The per-chain cooldown clock generalizes a per-symbol stop-loss
// cooldown clock to a per-chain one, keyed by (chain_id, leg_plans) for
// dedup rather than by symbol alone.
type Dispatcher struct {
	cooldownNs int64
	dedupNs    int64
	out        chan evaluator.Opportunity
	logger     *zap.Logger

	mu              sync.Mutex
	cooldownUntilNs map[uint32]int64
	recentKeys      map[string]int64

	dropped    atomic.Int64
	published  atomic.Int64
	suppressed atomic.Int64
}

// NewDispatcher builds a Dispatcher with a channel of the given capacity.
func NewDispatcher(capacity int, cooldownMs, dedupWindowMs int, logger *zap.Logger) *Dispatcher {
	if capacity <= 0 {
		capacity = 64
	}
	return &Dispatcher{
		cooldownNs:      int64(cooldownMs) * 1_000_000,
		dedupNs:         int64(dedupWindowMs) * 1_000_000,
		out:             make(chan evaluator.Opportunity, capacity),
		logger:          logger,
		cooldownUntilNs: make(map[uint32]int64),
		recentKeys:      make(map[string]int64),
	}
}

// Dispatch offers op for publication at nowNs. Returns false if the chain
// is still in cooldown or op is a duplicate within the dedup window —
// those are ordinary suppressions, not drops. A true return means op was
// enqueued, though it may have evicted the oldest pending opportunity to
// make room.
func (d *Dispatcher) Dispatch(op *evaluator.Opportunity, nowNs int64) bool {
	d.mu.Lock()
	chainKey := uint32(op.ChainID)
	if until, ok := d.cooldownUntilNs[chainKey]; ok && nowNs < until {
		d.mu.Unlock()
		d.suppressed.Add(1)
		return false
	}

	key := dedupKey(op)
	if until, ok := d.recentKeys[key]; ok && nowNs < until {
		d.mu.Unlock()
		d.suppressed.Add(1)
		return false
	}

	d.cooldownUntilNs[chainKey] = nowNs + d.cooldownNs
	d.recentKeys[key] = nowNs + d.dedupNs
	d.gcLocked(nowNs)
	d.mu.Unlock()

	d.publish(*op)
	d.published.Add(1)
	metrics.Dispatched.Inc()
	return true
}

// publish enqueues v, dropping the oldest pending entry if the channel is
// full rather than blocking the caller.
func (d *Dispatcher) publish(v evaluator.Opportunity) {
	select {
	case d.out <- v:
		return
	default:
	}

	select {
	case <-d.out:
		d.dropped.Add(1)
		metrics.DispatchDropped.Inc()
	default:
	}

	select {
	case d.out <- v:
	default:
		// Another goroutine raced us for the freed slot; count this as a
		// drop too rather than spin.
		d.dropped.Add(1)
		metrics.DispatchDropped.Inc()
	}
}

// gcLocked evicts expired cooldown/dedup entries. Called with mu held.
func (d *Dispatcher) gcLocked(nowNs int64) {
	for k, until := range d.cooldownUntilNs {
		if until < nowNs {
			delete(d.cooldownUntilNs, k)
		}
	}
	for k, until := range d.recentKeys {
		if until < nowNs {
			delete(d.recentKeys, k)
		}
	}
}

// Run drains the dispatch channel into sender until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, sender Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case op, ok := <-d.out:
			if !ok {
				return
			}
			if err := sender.Send(&op); err != nil && d.logger != nil {
				d.logger.Warn("dispatch send failed", zap.Error(err), zap.Uint32("chain_id", uint32(op.ChainID)))
			}
		}
	}
}

// Dropped reports how many opportunities were evicted for channel
// capacity.
func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

// Published reports how many opportunities cleared cooldown+dedup and
// were enqueued (including any that subsequently evicted another).
func (d *Dispatcher) Published() int64 { return d.published.Load() }

// Suppressed reports how many offers were rejected by cooldown or dedup.
func (d *Dispatcher) Suppressed() int64 { return d.suppressed.Load() }

func dedupKey(op *evaluator.Opportunity) string {
	s := fmt.Sprintf("%d", op.ChainID)
	for _, lp := range op.Legs {
		s += fmt.Sprintf("|%d:%s:%s", lp.Symbol, lp.Price.String(), lp.BaseQty.String())
	}
	return s
}
