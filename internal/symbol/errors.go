package symbol

import "errors"

// ErrInvalidRules is returned by BuildRegistry when the trading-rules
// snapshot is internally inconsistent. It is a startup error: the process
// must not proceed with a partially built registry.
var ErrInvalidRules = errors.New("symbol: invalid trading rules")
