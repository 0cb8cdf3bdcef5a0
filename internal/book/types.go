// Package book implements C3, the ticker store: a fixed array of atomic
// snapshot pointers indexed by symbol id, giving many readers wait-free
// access to the latest order-book top without blocking the single writer.
package book

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Level is one price/quantity pair of an order-book side. Arithmetic on
// Price and Qty must stay in decimal.Decimal end to end.
type Level struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// Top is the order-book top-of-book for one symbol: bids descending,
// asks ascending, each truncated to N_DEPTH levels by the ingestor.
type Top struct {
	Bids         []Level
	Asks         []Level
	LastUpdateID int64
	ReceivedAtNs int64
}

// Validate checks the monotonicity and non-crossing invariant: bids strictly
// decreasing, asks strictly increasing, best bid below best ask. It does not
// mutate Top and is safe to call before publishing to the store.
func (t *Top) Validate() error {
	for i := 1; i < len(t.Bids); i++ {
		if !t.Bids[i-1].Price.GreaterThan(t.Bids[i].Price) {
			return fmt.Errorf("%w: bids not strictly decreasing at %d", ErrDecode, i)
		}
	}
	for i := 1; i < len(t.Asks); i++ {
		if !t.Asks[i-1].Price.LessThan(t.Asks[i].Price) {
			return fmt.Errorf("%w: asks not strictly increasing at %d", ErrDecode, i)
		}
	}
	if len(t.Bids) > 0 && len(t.Asks) > 0 && !t.Bids[0].Price.LessThan(t.Asks[0].Price) {
		return fmt.Errorf("%w: crossed book, bid >= ask", ErrDecode)
	}
	return nil
}

// Snapshot is the value-semantic wrapper a reader observes: an immutable Top
// plus a monotonically increasing per-symbol version, bumped on every
// accepted update.
type Snapshot struct {
	Top     *Top
	Version uint64
}
