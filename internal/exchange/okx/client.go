// Package okx implements OKX's public-spot websocket adapter: message
// types, parsing, and the VenueClient that feeds ingest.Ingestor.
//
// Connect address: wss://ws.okx.com:8443/ws/v5/public
// Subscribe channel: books5
// Heartbeat: text ping/pong, 25s interval, 10s timeout
package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"triarb/internal/config"
	"triarb/internal/ingest"
	"triarb/internal/symbol"
	"triarb/internal/util/backoff"
	"triarb/internal/util/timeutil"
)

// Client is OKX's books5 websocket client, implementing ingest.VenueClient.
type Client struct {
	cfg          *config.ExchangeWSConfig
	instToSymbol map[string]symbol.SymbolID
	logger       *zap.Logger
	parser       *Parser

	conn   *websocket.Conn
	connMu sync.Mutex

	bookCh chan ingest.Update
	errCh  chan error

	metrics   ConnectionMetrics
	metricsMu sync.RWMutex

	lastMsgTime    int64
	lastPingSentNs int64
	lastPongRecvNs int64
	updateCount    int64

	backoff *backoff.Backoff
	closed  int32

	parseErrSampleCount uint64
	lastParseErrLogNs   int64
}

// NewClient builds a Client. instToSymbol maps every OKX instId this venue
// should subscribe to onto its interned symbol id (see BuildInstIndex).
func NewClient(cfg *config.ExchangeWSConfig, instToSymbol map[string]symbol.SymbolID, depth int, logger *zap.Logger) *Client {
	return &Client{
		cfg:          cfg,
		instToSymbol: instToSymbol,
		logger:       logger.Named("okx"),
		parser:       NewParser(instToSymbol, depth),
		bookCh:       make(chan ingest.Update, 1000),
		errCh:        make(chan error, 10),
		backoff:      backoff.NewDefault(),
	}
}

// Connect dials the OKX public websocket endpoint.
func (c *Client) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	header := http.Header{}
	header.Set("Origin", "https://www.okx.com")
	header.Set("User-Agent", "triarb/1.0")

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dial okx websocket: %w", err)
	}

	c.conn = conn
	c.backoff.Reset()
	c.logger.Info("okx websocket connected", zap.String("url", c.cfg.URL))
	return nil
}

// Subscribe sends one books5 subscribe request covering every tracked
// instrument.
func (c *Client) Subscribe() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("okx: not connected")
	}

	args := make([]SubscribeArg, 0, len(c.instToSymbol))
	for instId := range c.instToSymbol {
		args = append(args, SubscribeArg{Channel: "books5", InstId: instId})
	}

	req := SubscribeRequest{Op: "subscribe", Args: args}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal okx subscribe request: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send okx subscribe request: %w", err)
	}

	c.logger.Info("okx subscribe request sent", zap.Int("instruments", len(args)))
	return nil
}

// Run drives the read loop plus the heartbeat and metrics goroutines until
// ctx is cancelled.
func (c *Client) Run(ctx context.Context) {
	go c.heartbeatLoop(ctx)
	go c.metricsLoop(ctx)
	c.readLoop(ctx)
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if atomic.LoadInt32(&c.closed) == 1 {
			return
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			c.reconnect(ctx)
			continue
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			c.logger.Warn("okx read failed", zap.Error(err))
			c.incrementReconnectCount()
			c.reconnect(ctx)
			continue
		}

		nowNs := timeutil.NowNano()
		atomic.StoreInt64(&c.lastMsgTime, nowNs)

		if IsPong(data) {
			atomic.StoreInt64(&c.lastPongRecvNs, nowNs)
			lastPing := atomic.LoadInt64(&c.lastPingSentNs)
			if lastPing > 0 {
				rttMs := (nowNs - lastPing) / 1_000_000
				c.metricsMu.Lock()
				c.metrics.WsRttMs = rttMs
				c.metricsMu.Unlock()
			}
			continue
		}

		if resp, ok := IsSubscribeResponse(data); ok {
			if resp.Event == "error" {
				c.logger.Warn("okx subscribe error", zap.String("code", resp.Code), zap.String("msg", resp.Msg))
			} else {
				c.logger.Debug("okx subscribe ack", zap.ByteString("data", data))
			}
			continue
		}

		updates, err := c.parser.Parse(data)
		if err != nil {
			c.incrementParseErrorCount()
			c.maybeLogParseError(err, data)
			continue
		}

		for _, u := range updates {
			atomic.AddInt64(&c.updateCount, 1)
			select {
			case c.bookCh <- u:
			default:
				c.logger.Warn("okx bookCh full, dropping update")
			}
		}
	}
}

// heartbeatLoop sends a text "ping" every PingIntervalMs. At each tick it
// also checks the ping sent on the same connection at the previous tick: if
// no pong has arrived since then and more than PongTimeoutMs has passed, it
// forces a reconnect.
func (c *Client) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(c.cfg.PingIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	var prevPingNs int64
	var prevConn *websocket.Conn

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if atomic.LoadInt32(&c.closed) == 1 {
				return
			}

			c.connMu.Lock()
			conn := c.conn
			if conn == nil {
				c.connMu.Unlock()
				continue
			}

			pingTime := timeutil.NowNano()
			if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
				c.connMu.Unlock()
				c.logger.Warn("okx ping failed", zap.Error(err))
				continue
			}
			atomic.StoreInt64(&c.lastPingSentNs, pingTime)
			c.connMu.Unlock()

			lastPong := atomic.LoadInt64(&c.lastPongRecvNs)
			if conn == prevConn && prevPingNs > 0 && lastPong < prevPingNs {
				if pingTime-prevPingNs > int64(c.cfg.PongTimeoutMs)*1_000_000 {
					c.logger.Warn("okx heartbeat timeout, forcing reconnect")
					c.incrementReconnectCount()
					c.closeConn()
				}
			}
			prevPingNs, prevConn = pingTime, conn
		}
	}
}

func (c *Client) metricsLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastCount int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if atomic.LoadInt32(&c.closed) == 1 {
				return
			}

			count := atomic.LoadInt64(&c.updateCount)
			qps := float64(count - lastCount)
			lastCount = count

			lastMsg := atomic.LoadInt64(&c.lastMsgTime)
			var ageMs int64
			if lastMsg > 0 {
				ageMs = (timeutil.NowNano() - lastMsg) / 1_000_000
			}

			c.metricsMu.Lock()
			c.metrics.UpdatesPerSec = qps
			c.metrics.LastMessageAgeMs = ageMs
			c.metricsMu.Unlock()
		}
	}
}

func (c *Client) reconnect(ctx context.Context) {
	c.closeConn()

	delay := c.backoff.Next()
	c.logger.Info("okx reconnecting", zap.Duration("delay", delay))

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	if err := c.Connect(ctx); err != nil {
		c.logger.Error("okx reconnect failed", zap.Error(err))
		return
	}
	if err := c.Subscribe(); err != nil {
		c.logger.Error("okx resubscribe failed", zap.Error(err))
	}
}

func (c *Client) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Close tears down the connection and closes both output channels.
func (c *Client) Close() error {
	atomic.StoreInt32(&c.closed, 1)
	c.closeConn()
	close(c.bookCh)
	close(c.errCh)
	c.logger.Info("okx client closed")
	return nil
}

// BookCh implements ingest.VenueClient.
func (c *Client) BookCh() <-chan ingest.Update {
	return c.bookCh
}

// ErrCh exposes asynchronous transport errors beyond the decoded update
// stream, for a caller that wants to surface them separately.
func (c *Client) ErrCh() <-chan error {
	return c.errCh
}

// Metrics returns a snapshot of this connection's health counters.
func (c *Client) Metrics() ConnectionMetrics {
	c.metricsMu.RLock()
	defer c.metricsMu.RUnlock()
	return c.metrics
}

func (c *Client) incrementReconnectCount() {
	c.metricsMu.Lock()
	c.metrics.ReconnectCount++
	c.metricsMu.Unlock()
}

func (c *Client) incrementParseErrorCount() {
	c.metricsMu.Lock()
	c.metrics.ParseErrorCount++
	c.metricsMu.Unlock()
}

// maybeLogParseError samples parse-error logging: one line per 100
// occurrences, rate-limited to once a minute, so a sustained stream of bad
// frames doesn't flood the log.
func (c *Client) maybeLogParseError(err error, data []byte) {
	count := atomic.AddUint64(&c.parseErrSampleCount, 1)
	if count%100 != 0 {
		return
	}

	nowNs := timeutil.NowNano()
	last := atomic.LoadInt64(&c.lastParseErrLogNs)
	if last > 0 && nowNs-last < int64(time.Minute) {
		return
	}
	atomic.StoreInt64(&c.lastParseErrLogNs, nowNs)

	sample := data
	if len(sample) > 200 {
		sample = sample[:200]
	}
	c.logger.Warn("okx parse error (sampled)", zap.Error(err), zap.ByteString("data", sample), zap.Uint64("count", count))
}
