package book

import "errors"

// ErrDecode marks a malformed update: crossed book, non-monotonic levels, or
// an unparseable frame. Local error — the caller drops the update and
// increments a counter; it never propagates past the ingestor.
var ErrDecode = errors.New("book: malformed update")
