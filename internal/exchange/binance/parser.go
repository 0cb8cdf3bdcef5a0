package binance

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"triarb/internal/book"
	"triarb/internal/ingest"
	"triarb/internal/symbol"
	"triarb/internal/util/timeutil"
)

// BuildSymbolIndex maps every registered symbol's exchange code (Binance's
// uppercase stream symbol, e.g. "BTCUSDT") to its interned SymbolID.
func BuildSymbolIndex(reg *symbol.Registry) map[string]symbol.SymbolID {
	idx := make(map[string]symbol.SymbolID, reg.NumSymbols())
	for _, s := range reg.Symbols() {
		idx[s.ExchangeCode] = s.ID
	}
	return idx
}

// Parser decodes Binance depthUpdate push frames into ingest.Updates.
type Parser struct {
	symbolToID map[string]symbol.SymbolID
	depth      int
}

// NewParser builds a Parser. depth truncates each side to at most that
// many levels (the depth5 stream already caps at 5).
func NewParser(symbolToID map[string]symbol.SymbolID, depth int) *Parser {
	if depth <= 0 || depth > 5 {
		depth = 5
	}
	return &Parser{symbolToID: symbolToID, depth: depth}
}

// Parse decodes one depth5 push into zero or one updates. A stream symbol
// absent from the index is silently skipped, matching the registry's
// allow/deny filtering rather than treating it as an error.
func (p *Parser) Parse(data []byte) ([]ingest.Update, error) {
	var msg DepthUpdate
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: decode depthUpdate message: %v", book.ErrDecode, err)
	}
	if msg.EventType != "depthUpdate" {
		return nil, nil
	}

	code := strings.ToUpper(msg.Symbol)
	if code == "" {
		return nil, nil
	}
	id, ok := p.symbolToID[code]
	if !ok {
		return nil, nil
	}

	bids, err := p.parseLevels(msg.Bids)
	if err != nil {
		return nil, fmt.Errorf("%w: bids: %v", book.ErrDecode, err)
	}
	asks, err := p.parseLevels(msg.Asks)
	if err != nil {
		return nil, fmt.Errorf("%w: asks: %v", book.ErrDecode, err)
	}

	top := &book.Top{
		Bids:         bids,
		Asks:         asks,
		LastUpdateID: msg.EventTimeMs,
		ReceivedAtNs: timeutil.NowNano(),
	}
	return []ingest.Update{{Symbol: id, Top: top}}, nil
}

// parseLevels converts Binance's [price, qty] string pairs into
// decimal-exact Levels, truncated to p.depth. Always decimal.NewFromString,
// never a float64-backed parse: a price/qty field feeds a rounding
// decision downstream and a float round trip would corrupt it.
func (p *Parser) parseLevels(raw [][]string) ([]book.Level, error) {
	n := len(raw)
	if n > p.depth {
		n = p.depth
	}
	levels := make([]book.Level, 0, n)
	for i := 0; i < n; i++ {
		row := raw[i]
		if len(row) < 2 {
			return nil, fmt.Errorf("level %d: expected [price, qty], got %d fields", i, len(row))
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
