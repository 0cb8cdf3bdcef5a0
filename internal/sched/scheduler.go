// Package sched implements the evaluator worker pool: it coalesces
// per-chain dirty bits raised by depth updates and re-evaluates each dirty
// chain at most once per pass across a small pool of workers, rather than
// evaluating inline on the ingestor goroutine.
package sched

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"triarb/internal/book"
	"triarb/internal/chain"
	"triarb/internal/dispatch"
	"triarb/internal/evaluator"
	"triarb/internal/ingest"
	"triarb/internal/metrics"
	"triarb/internal/symbol"
	"triarb/internal/util/timeutil"
)

// sweepInterval bounds how long a dirty chain can wait when the queue is
// momentarily full before the sweep loop retries enqueuing it.
const sweepInterval = 25 * time.Millisecond

// Scheduler owns the compiled chain set and re-evaluates a chain whenever a
// depth update lands on one of its three symbols. Re-evaluation runs on a
// worker pool sized independently of the ingestion goroutines so a burst of
// updates on one venue never blocks the ticker store's writer.
type Scheduler struct {
	chains []chain.Chain
	reg    *symbol.Registry
	store  *book.Store

	symbolChains map[symbol.SymbolID][]chain.ID

	feeRate     decimal.Decimal
	bandByAsset map[symbol.AssetID]evaluator.VolumeBand
	th          evaluator.Thresholds

	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger

	mu    sync.Mutex
	dirty map[chain.ID]struct{}
	queue chan chain.ID
}

// New builds a Scheduler over chains, routing evaluations into dispatcher.
// bandByAsset supplies the volume band keyed by each chain's entry asset;
// a chain whose entry asset has no configured band is skipped.
func New(chains []chain.Chain, reg *symbol.Registry, store *book.Store, feeRate decimal.Decimal, bandByAsset map[symbol.AssetID]evaluator.VolumeBand, th evaluator.Thresholds, dispatcher *dispatch.Dispatcher, queueCapacity int, logger *zap.Logger) *Scheduler {
	symbolChains := make(map[symbol.SymbolID][]chain.ID)
	for _, ch := range chains {
		for _, leg := range ch.Legs {
			symbolChains[leg.Symbol] = append(symbolChains[leg.Symbol], ch.ID)
		}
	}

	if queueCapacity <= 0 {
		queueCapacity = 4096
	}

	s := &Scheduler{
		chains:       chains,
		reg:          reg,
		store:        store,
		symbolChains: symbolChains,
		feeRate:      feeRate,
		bandByAsset:  bandByAsset,
		th:           th,
		dispatcher:   dispatcher,
		logger:       logger,
		dirty:        make(map[chain.ID]struct{}),
		queue:        make(chan chain.ID, queueCapacity),
	}
	metrics.ChainsCompiled.Set(float64(len(chains)))
	return s
}

// Notify has the shape of ingest.Notify: it marks every chain touching the
// updated symbol dirty and offers it to the work queue. A chain already
// marked dirty is not re-enqueued — it is either already queued or being
// evaluated, and the sweep loop will pick it back up if the evaluation
// that's about to run reads a snapshot older than this update.
func (s *Scheduler) Notify(update ingest.Update) {
	for _, id := range s.symbolChains[update.Symbol] {
		s.markDirty(id)
	}
}

func (s *Scheduler) markDirty(id chain.ID) {
	s.mu.Lock()
	_, alreadyDirty := s.dirty[id]
	s.dirty[id] = struct{}{}
	s.mu.Unlock()

	if alreadyDirty {
		return
	}
	metrics.ChainsDirty.Inc()

	select {
	case s.queue <- id:
		metrics.QueueDepth.Set(float64(len(s.queue)))
	default:
		// Queue momentarily full; the chain stays marked dirty and the
		// sweep loop will offer it again once a slot frees up.
	}
}

// Run starts numWorkers evaluator goroutines plus the sweep loop, and
// blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, numWorkers int) {
	if numWorkers <= 0 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}

	go s.sweepLoop(ctx)

	<-ctx.Done()
	wg.Wait()
}

func (s *Scheduler) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-s.queue:
			if !ok {
				return
			}
			s.evalOne(id)
		}
	}
}

func (s *Scheduler) evalOne(id chain.ID) {
	s.mu.Lock()
	delete(s.dirty, id)
	s.mu.Unlock()
	metrics.ChainsDirty.Dec()
	metrics.QueueDepth.Set(float64(len(s.queue)))

	ch := s.chains[id]
	band, ok := s.bandByAsset[ch.EntryBase]
	if !ok {
		return
	}

	nowNs := timeutil.NowNano()
	opp, err := evaluator.EvaluateFromStore(ch, s.reg, s.store, s.feeRate, band, s.th, nowNs)
	if err != nil {
		if !errors.Is(err, evaluator.ErrUnfillable) && !errors.Is(err, evaluator.ErrStaleSnapshot) {
			s.logger.Warn("chain evaluation error", zap.Uint32("chain_id", uint32(id)), zap.Error(err))
		}
		return
	}
	if opp == nil {
		return
	}
	s.dispatcher.Dispatch(opp, nowNs)
}

// sweepLoop periodically re-offers any chain that is still marked dirty
// but didn't make it onto the queue when it was first raised, so a burst
// that fills the queue never permanently strands a dirty chain.
func (s *Scheduler) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			ids := make([]chain.ID, 0, len(s.dirty))
			for id := range s.dirty {
				ids = append(ids, id)
			}
			s.mu.Unlock()

			for _, id := range ids {
				select {
				case s.queue <- id:
				default:
				}
			}
			metrics.QueueDepth.Set(float64(len(s.queue)))
		}
	}
}
