package chain

import "errors"

// ErrNoChains is returned by Compile when zero chains survive enumeration.
// Fatal at startup: an engine with no chains has nothing to evaluate.
var ErrNoChains = errors.New("chain: no chains compiled")
