// Package okx implements the OKX exchange websocket adapter: message types,
// parsing, and the VenueClient that feeds ingest.Ingestor.
package okx

// SubscribeRequest is an OKX subscribe/unsubscribe request for the books5
// channel.
type SubscribeRequest struct {
	Op   string         `json:"op"`
	Args []SubscribeArg `json:"args"`
}

// SubscribeArg names one channel+instrument pair.
type SubscribeArg struct {
	Channel string `json:"channel"`
	InstId  string `json:"instId"` // e.g. "BTC-USDT"
}

// SubscribeResponse is OKX's ack/error response to a subscribe request.
type SubscribeResponse struct {
	Event string        `json:"event"` // "subscribe" | "error"
	Arg   *SubscribeArg `json:"arg,omitempty"`
	Code  string        `json:"code,omitempty"`
	Msg   string        `json:"msg,omitempty"`
}

// Books5Message is a books5-channel push: top-5 bids/asks for one or more
// instruments.
type Books5Message struct {
	Arg    SubscribeArg `json:"arg"`
	Action string       `json:"action"` // "snapshot" | "update"
	Data   []Books5Data `json:"data"`
}

// Books5Data is one instrument's depth-5 snapshot. Bids/Asks entries are
// [price, qty, deprecated, orderCount] string quadruples.
type Books5Data struct {
	Bids   [][]string `json:"bids"`
	Asks   [][]string `json:"asks"`
	Ts     string     `json:"ts"` // exchange timestamp, epoch ms as string
	SeqId  int64      `json:"seqId"`
	InstId string     `json:"instId"`
}

// ConnectionMetrics tracks this client's connection health for the
// observability layer.
type ConnectionMetrics struct {
	ReconnectCount   int64
	ParseErrorCount  int64
	UpdatesPerSec    float64
	LastMessageAgeMs int64
	WsRttMs          int64
}
