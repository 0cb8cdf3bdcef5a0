package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"triarb/internal/book"
	"triarb/internal/metrics"
	"triarb/internal/util/timeutil"
)

// Notify is called once per symbol after a successful publish to the
// store, so the evaluator scheduler can mark chains touching that symbol
// dirty. It must not block.
type Notify func(update Update)

// Ingestor drains one VenueClient's decoded updates into a Store. One
// Ingestor per websocket shard; it is the exclusive writer for the symbols
// its client subscribes to.
type Ingestor struct {
	store  *book.Store
	logger *zap.Logger

	updatesIn        atomic.Int64
	malformedUpdates atomic.Int64

	parseErrSampleCount uint64
	lastParseErrLogNs   int64
}

// NewIngestor constructs an Ingestor writing into store.
func NewIngestor(store *book.Store, logger *zap.Logger) *Ingestor {
	return &Ingestor{store: store, logger: logger}
}

// Run drains client.BookCh() until ctx is cancelled or the channel closes,
// publishing each update and invoking notify on success. It does not start
// the client itself — the caller is responsible for Connect/Subscribe/Run.
func (in *Ingestor) Run(ctx context.Context, client VenueClient, notify Notify) {
	ch := client.BookCh()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-ch:
			if !ok {
				return
			}
			in.updatesIn.Add(1)
			metrics.UpdatesIn.Inc()

			if err := in.store.Update(update.Symbol, update.Top); err != nil {
				in.malformedUpdates.Add(1)
				metrics.MalformedUpdates.Inc()
				in.maybeLogMalformed(err)
				continue
			}

			if notify != nil {
				notify(update)
			}
		}
	}
}

// UpdatesIn reports the total number of updates observed, accepted or not.
func (in *Ingestor) UpdatesIn() int64 {
	return in.updatesIn.Load()
}

// MalformedUpdates reports how many updates failed validation and were
// dropped.
func (in *Ingestor) MalformedUpdates() int64 {
	return in.malformedUpdates.Load()
}

// maybeLogMalformed samples malformed-update logging: one line per 100
// occurrences, rate-limited to once a minute, so a sustained stream of bad
// frames from a misbehaving venue doesn't flood the log.
func (in *Ingestor) maybeLogMalformed(err error) {
	count := atomic.AddUint64(&in.parseErrSampleCount, 1)
	if count%100 != 0 {
		return
	}

	nowNs := timeutil.NowNano()
	last := atomic.LoadInt64(&in.lastParseErrLogNs)
	if last > 0 && nowNs-last < int64(time.Minute) {
		return
	}
	atomic.StoreInt64(&in.lastParseErrLogNs, nowNs)

	if in.logger != nil {
		in.logger.Warn("malformed depth update (sampled)", zap.Error(err), zap.Uint64("count", count))
	}
}
