package book

import (
	"sync/atomic"

	"triarb/internal/symbol"
)

// Store is the fixed-size array of atomic snapshot pointers indexed by
// symbol.SymbolID. The writer for a given symbol is always the single
// ingestor shard that owns it; any number of reader goroutines may call Get
// concurrently without blocking the writer or each other.
type Store struct {
	slots []atomic.Pointer[Snapshot]
}

// NewStore allocates a store sized for numSymbols, the count returned by
// symbol.Registry.NumSymbols at startup. The array is fixed for the
// process lifetime; no resizing after construction.
func NewStore(numSymbols int) *Store {
	return &Store{slots: make([]atomic.Pointer[Snapshot], numSymbols)}
}

// Update validates top and, if it passes, atomically swaps in a new
// Snapshot with a version number one greater than whatever was previously
// stored. Returns ErrDecode (wrapped) without touching the store if
// validation fails.
func (s *Store) Update(id symbol.SymbolID, top *Top) error {
	if err := top.Validate(); err != nil {
		return err
	}
	if int(id) >= len(s.slots) {
		return ErrDecode
	}

	slot := &s.slots[id]
	prev := slot.Load()
	var version uint64 = 1
	if prev != nil {
		version = prev.Version + 1
	}
	slot.Store(&Snapshot{Top: top, Version: version})
	return nil
}

// Get returns the most recent snapshot for id, or (nil, false) if no update
// has ever arrived. The returned Snapshot and its Top must be treated as
// read-only by the caller; writers never mutate a published value in place.
func (s *Store) Get(id symbol.SymbolID) (*Snapshot, bool) {
	if int(id) >= len(s.slots) {
		return nil, false
	}
	snap := s.slots[id].Load()
	if snap == nil {
		return nil, false
	}
	return snap, true
}
