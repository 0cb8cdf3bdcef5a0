// Package ingest implements C4, the stream ingestor: it drains one venue
// client's decoded updates, validates them, publishes the winners to the
// ticker store, and notifies whoever schedules re-evaluation. Reconnection,
// backoff, and resync are owned by the VenueClient implementation — this
// package only ever sees a sequence of already-decoded updates.
package ingest

import (
	"context"

	"triarb/internal/book"
	"triarb/internal/symbol"
)

// Update is one decoded depth update, already resolved to an interned
// symbol id and truncated to N_DEPTH by the venue parser.
type Update struct {
	Symbol symbol.SymbolID
	Top    *book.Top
}

// VenueClient is the transport-facing collaborator this package consumes.
// Connect/Subscribe/Run/Close mirror a websocket client's lifecycle; a
// resync after reconnect is just a fresh sequence of Updates whose
// LastUpdateID may jump, which this package treats transparently.
type VenueClient interface {
	Connect(ctx context.Context) error
	Subscribe() error
	Run(ctx context.Context)
	BookCh() <-chan Update
	Close() error
}
