package book

import (
	"testing"

	"github.com/shopspring/decimal"

	"triarb/internal/symbol"
)

func lvl(price, qty string) Level {
	return Level{Price: decimal.RequireFromString(price), Qty: decimal.RequireFromString(qty)}
}

func TestStore_GetMissing(t *testing.T) {
	s := NewStore(4)
	if _, ok := s.Get(symbol.SymbolID(0)); ok {
		t.Fatalf("expected no snapshot before any update")
	}
}

func TestStore_UpdateAndGet(t *testing.T) {
	s := NewStore(4)
	top := &Top{
		Bids:         []Level{lvl("100", "1"), lvl("99", "2")},
		Asks:         []Level{lvl("101", "1"), lvl("102", "2")},
		LastUpdateID: 1,
		ReceivedAtNs: 1000,
	}
	if err := s.Update(symbol.SymbolID(1), top); err != nil {
		t.Fatalf("Update: %v", err)
	}

	snap, ok := s.Get(symbol.SymbolID(1))
	if !ok {
		t.Fatalf("expected snapshot after update")
	}
	if snap.Version != 1 {
		t.Fatalf("Version = %d, want 1", snap.Version)
	}

	top2 := &Top{
		Bids:         []Level{lvl("100.5", "1")},
		Asks:         []Level{lvl("101.5", "1")},
		LastUpdateID: 2,
		ReceivedAtNs: 2000,
	}
	if err := s.Update(symbol.SymbolID(1), top2); err != nil {
		t.Fatalf("Update: %v", err)
	}
	snap2, _ := s.Get(symbol.SymbolID(1))
	if snap2.Version != 2 {
		t.Fatalf("Version = %d, want 2", snap2.Version)
	}
	if snap.Version != 1 {
		t.Fatalf("original snapshot mutated in place, Version = %d", snap.Version)
	}
}

func TestStore_RejectsCrossedBook(t *testing.T) {
	s := NewStore(2)
	top := &Top{
		Bids: []Level{lvl("101", "1")},
		Asks: []Level{lvl("100", "1")},
	}
	if err := s.Update(symbol.SymbolID(0), top); err == nil {
		t.Fatalf("expected ErrDecode for crossed book")
	}
	if _, ok := s.Get(symbol.SymbolID(0)); ok {
		t.Fatalf("crossed update should not have been published")
	}
}

func TestStore_RejectsNonMonotonicBids(t *testing.T) {
	s := NewStore(2)
	top := &Top{
		Bids: []Level{lvl("100", "1"), lvl("100", "1")},
	}
	if err := s.Update(symbol.SymbolID(0), top); err == nil {
		t.Fatalf("expected ErrDecode for non-monotonic bids")
	}
}
