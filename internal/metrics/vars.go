package metrics

import "github.com/prometheus/client_golang/prometheus"

// Counters and gauges mirror the pipeline's observability surface: how
// many updates and evaluations flow through, how many opportunities clear
// each gate, and how deep the work queues sit at any moment.
var (
	UpdatesIn = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triarb_updates_in_total",
		Help: "Depth updates observed from all venue clients, accepted or not",
	})

	MalformedUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triarb_malformed_updates_total",
		Help: "Depth updates rejected by the ticker store's monotonicity/crossing check",
	})

	ChainsCompiled = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "triarb_chains_compiled",
		Help: "Number of closed 3-cycles compiled from the current symbol registry",
	})

	Evaluations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triarb_evaluations_total",
		Help: "Chain evaluations performed",
	})

	Profitable = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triarb_profitable_total",
		Help: "Evaluations that cleared both profit thresholds",
	})

	Dispatched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triarb_dispatched_total",
		Help: "Opportunities published to the sender after cooldown and dedup",
	})

	DispatchDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triarb_dispatch_dropped_total",
		Help: "Opportunities evicted from the outbound channel by drop-oldest",
	})

	EvalDeadlineExceeded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triarb_eval_deadline_exceeded_total",
		Help: "Evaluations that ran past their soft per-evaluation budget",
	})

	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "triarb_queue_depth",
		Help: "Pending dirty-chain notifications awaiting an evaluator worker",
	})

	ChainsDirty = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "triarb_chains_dirty",
		Help: "Chains currently marked dirty and not yet re-evaluated",
	})

	EvalLatencyUs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "triarb_eval_latency_us",
		Help:    "Wall-clock time spent inside a single chain evaluation",
		Buckets: prometheus.ExponentialBuckets(5, 2, 14), // 5us .. ~40ms
	})

	UpdateToOpportunityUs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "triarb_update_to_opportunity_us",
		Help:    "Time from a depth update landing in the store to its opportunity being dispatched",
		Buckets: prometheus.ExponentialBuckets(50, 2, 16), // 50us .. ~1.6s
	})
)

func init() {
	prometheus.MustRegister(
		UpdatesIn,
		MalformedUpdates,
		ChainsCompiled,
		Evaluations,
		Profitable,
		Dispatched,
		DispatchDropped,
		EvalDeadlineExceeded,
		QueueDepth,
		ChainsDirty,
		EvalLatencyUs,
		UpdateToOpportunityUs,
	)
}
