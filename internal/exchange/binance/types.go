// Package binance implements Binance's public-spot websocket adapter.
package binance

// SubscribeRequest is a Binance combined-stream subscribe request for the
// depth5@100ms stream.
type SubscribeRequest struct {
	Method string   `json:"method"` // "SUBSCRIBE"
	Params []string `json:"params"` // e.g. "btcusdt@depth5@100ms"
	ID     int64    `json:"id"`
}

// SubscribeResponse is Binance's ack to a subscribe request, typically
// {"result":null,"id":1}.
type SubscribeResponse struct {
	Result any   `json:"result"`
	ID     int64 `json:"id"`
}

// DepthUpdate is one depth5 push. Bids/Asks entries are [price, qty]
// string pairs.
type DepthUpdate struct {
	EventType   string     `json:"e"` // "depthUpdate"
	EventTimeMs int64      `json:"E"`
	Symbol      string     `json:"s"` // e.g. "BTCUSDT"
	Bids        [][]string `json:"b"`
	Asks        [][]string `json:"a"`
}

// ConnectionMetrics tracks this client's connection health for the
// observability layer.
type ConnectionMetrics struct {
	ReconnectCount   int64
	ParseErrorCount  int64
	UpdatesPerSec    float64
	LastMessageAgeMs int64
}
