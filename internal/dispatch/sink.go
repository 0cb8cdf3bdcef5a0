package dispatch

import (
	"triarb/internal/evaluator"
	"triarb/internal/output/jsonl"
)

// legPlanRecord is the JSONL-serializable shape of one leg of a dispatched
// opportunity.
type legPlanRecord struct {
	Symbol     uint32 `json:"symbol_id"`
	Side       string `json:"side"`
	Price      string `json:"price"`
	BaseQty    string `json:"base_qty"`
	InQty      string `json:"in_qty"`
	OutQty     string `json:"out_qty"`
	LevelsUsed int    `json:"levels_used"`
}

// opportunityRecord is the JSONL-serializable shape of a dispatched
// opportunity, written one per line by the dry-run sink.
type opportunityRecord struct {
	ChainID      uint32          `json:"chain_id"`
	EntryBase    uint32          `json:"entry_base"`
	Legs         [3]legPlanRecord `json:"legs"`
	NetProfit    string          `json:"net_profit"`
	NetProfitRel string          `json:"net_profit_rel"`
	DetectedAtNs int64           `json:"detected_at_ns"`
}

// DryRunSink is the default Sender when send_orders is false: it writes
// each dispatched opportunity to a JSONL file instead of submitting real
// orders, via the async jsonl.Writer.
type DryRunSink struct {
	w *jsonl.Writer
}

// NewDryRunSink opens (creating if needed) the JSONL file at path.
func NewDryRunSink(path string, bufferSize int) (*DryRunSink, error) {
	w, err := jsonl.NewWriter(path, bufferSize)
	if err != nil {
		return nil, err
	}
	return &DryRunSink{w: w}, nil
}

// Send implements Sender by enqueueing op for the background writer.
func (s *DryRunSink) Send(op *evaluator.Opportunity) error {
	rec := opportunityRecord{
		ChainID:      uint32(op.ChainID),
		EntryBase:    uint32(op.EntryBase),
		NetProfit:    op.NetProfit.String(),
		NetProfitRel: op.NetProfitRel.String(),
		DetectedAtNs: op.DetectedAtNs,
	}
	for i, lp := range op.Legs {
		rec.Legs[i] = legPlanRecord{
			Symbol:     uint32(lp.Symbol),
			Side:       lp.Side.String(),
			Price:      lp.Price.String(),
			BaseQty:    lp.BaseQty.String(),
			InQty:      lp.InQty.String(),
			OutQty:     lp.OutQty.String(),
			LevelsUsed: lp.LevelsUsed,
		}
	}
	return s.w.Write(rec)
}

// Close flushes and closes the underlying writer.
func (s *DryRunSink) Close() error { return s.w.Close() }
