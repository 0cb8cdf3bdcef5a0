package evaluator

import "errors"

// ErrStaleSnapshot is returned when a leg's book snapshot is older than the
// configured max age at read time.
var ErrStaleSnapshot = errors.New("evaluator: stale snapshot")

// ErrUnfillable is returned when no chain of levels/back-solves can size the
// first leg at or above the configured volume floor.
var ErrUnfillable = errors.New("evaluator: chain unfillable within volume band")
