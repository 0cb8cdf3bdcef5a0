package okx

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"triarb/internal/book"
	"triarb/internal/ingest"
	"triarb/internal/symbol"
	"triarb/internal/util/timeutil"
)

// BuildInstIndex maps every registered symbol's exchange code (OKX's instId,
// e.g. "BTC-USDT") to its interned SymbolID, so Parser can resolve incoming
// books5 frames with a map lookup instead of a linear scan.
func BuildInstIndex(reg *symbol.Registry) map[string]symbol.SymbolID {
	idx := make(map[string]symbol.SymbolID, reg.NumSymbols())
	for _, s := range reg.Symbols() {
		idx[s.ExchangeCode] = s.ID
	}
	return idx
}

// Parser decodes OKX books5 push frames into ingest.Updates. It is
// stateless aside from the instId index and depth cap, and safe for use
// from a single reader goroutine.
type Parser struct {
	instToSymbol map[string]symbol.SymbolID
	depth        int
}

// NewParser builds a Parser. depth truncates each side to at most that many
// levels (OKX's books5 channel already caps at 5, so this only matters if
// a narrower depth_levels is configured).
func NewParser(instToSymbol map[string]symbol.SymbolID, depth int) *Parser {
	if depth <= 0 || depth > 5 {
		depth = 5
	}
	return &Parser{instToSymbol: instToSymbol, depth: depth}
}

// IsSubscribeResponse reports whether data is a subscribe ack/error rather
// than a books5 push, so the caller can log and skip it.
func IsSubscribeResponse(data []byte) (SubscribeResponse, bool) {
	var resp SubscribeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return SubscribeResponse{}, false
	}
	if resp.Event != "subscribe" && resp.Event != "error" {
		return SubscribeResponse{}, false
	}
	return resp, true
}

// IsPong reports whether data is OKX's bare "pong" text frame.
func IsPong(data []byte) bool {
	return string(data) == "pong"
}

// Parse decodes a books5 push message into zero or more updates, one per
// instrument the frame carries. Instruments absent from the instId index
// are silently skipped rather than treated as an error: OKX may push depth
// for an instId this registry chose not to track.
func (p *Parser) Parse(data []byte) ([]ingest.Update, error) {
	var msg Books5Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: decode books5 message: %v", book.ErrDecode, err)
	}
	if msg.Arg.Channel != "books5" || len(msg.Data) == 0 {
		return nil, nil
	}

	updates := make([]ingest.Update, 0, len(msg.Data))
	for _, d := range msg.Data {
		id, ok := p.instToSymbol[d.InstId]
		if !ok {
			continue
		}

		top, err := p.buildTop(d)
		if err != nil {
			return nil, err
		}
		updates = append(updates, ingest.Update{Symbol: id, Top: top})
	}
	return updates, nil
}

func (p *Parser) buildTop(d Books5Data) (*book.Top, error) {
	bids, err := p.parseLevels(d.Bids)
	if err != nil {
		return nil, fmt.Errorf("%w: bids: %v", book.ErrDecode, err)
	}
	asks, err := p.parseLevels(d.Asks)
	if err != nil {
		return nil, fmt.Errorf("%w: asks: %v", book.ErrDecode, err)
	}

	return &book.Top{
		Bids:         bids,
		Asks:         asks,
		LastUpdateID: d.SeqId,
		ReceivedAtNs: timeutil.NowNano(),
	}, nil
}

// parseLevels converts OKX's [price, qty, deprecated, orderCount] string
// quadruples into decimal-exact Levels, truncated to p.depth. Price and qty
// always go through decimal.NewFromString rather than fastparse: OKX sends
// them as strings precisely so a float64 round trip doesn't corrupt a
// tick-exact value, and fastparse's helpers all bottom out in float64.
func (p *Parser) parseLevels(raw [][]string) ([]book.Level, error) {
	n := len(raw)
	if n > p.depth {
		n = p.depth
	}
	levels := make([]book.Level, 0, n)
	for i := 0; i < n; i++ {
		row := raw[i]
		if len(row) < 2 {
			return nil, fmt.Errorf("level %d: expected at least [price, qty], got %d fields", i, len(row))
		}
		price, err := decimal.NewFromString(row[0])
		if err != nil {
			return nil, fmt.Errorf("level %d: price: %w", i, err)
		}
		qty, err := decimal.NewFromString(row[1])
		if err != nil {
			return nil, fmt.Errorf("level %d: qty: %w", i, err)
		}
		levels = append(levels, book.Level{Price: price, Qty: qty})
	}
	return levels, nil
}
