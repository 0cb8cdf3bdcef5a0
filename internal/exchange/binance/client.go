// Package binance implements Binance's public-spot websocket adapter.
//
// Connect address: wss://stream.binance.com:9443/ws
// Subscribe channel: depth5@100ms
// Heartbeat: protocol-level ping/pong
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
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

// Client is Binance's depth5 websocket client, implementing
// ingest.VenueClient.
type Client struct {
	cfg        *config.ExchangeWSConfig
	symbolToID map[string]symbol.SymbolID
	logger     *zap.Logger
	parser     *Parser

	conn   *websocket.Conn
	connMu sync.Mutex

	bookCh chan ingest.Update
	errCh  chan error

	metrics   ConnectionMetrics
	metricsMu sync.RWMutex

	lastMsgTime int64
	updateCount int64

	backoff *backoff.Backoff
	closed  int32

	parseErrSampleCount uint64
	lastParseErrLogNs   int64
}

// NewClient builds a Client. symbolToID maps every Binance stream symbol
// (e.g. "BTCUSDT") this venue should subscribe to onto its interned symbol
// id (see BuildSymbolIndex).
func NewClient(cfg *config.ExchangeWSConfig, symbolToID map[string]symbol.SymbolID, depth int, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		symbolToID: symbolToID,
		logger:     logger.Named("binance"),
		parser:     NewParser(symbolToID, depth),
		bookCh:     make(chan ingest.Update, 1000),
		errCh:      make(chan error, 10),
		backoff:    backoff.NewDefault(),
	}
}

// Connect dials the Binance public websocket endpoint.
func (c *Client) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	header := http.Header{}
	header.Set("User-Agent", "triarb/1.0")
	header.Set("Origin", "https://www.binance.com")

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dial binance websocket: %w", err)
	}

	readTimeout := time.Duration(c.readTimeoutMs()) * time.Millisecond
	if readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		conn.SetPongHandler(func(string) error {
			atomic.StoreInt64(&c.lastMsgTime, timeutil.NowNano())
			return conn.SetReadDeadline(time.Now().Add(readTimeout))
		})
	}

	c.conn = conn
	c.backoff.Reset()
	c.logger.Info("binance websocket connected", zap.String("url", c.cfg.URL))
	return nil
}

// Subscribe sends one SUBSCRIBE request covering every tracked symbol's
// depth5@100ms stream.
func (c *Client) Subscribe() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("binance: not connected")
	}

	params := make([]string, 0, len(c.symbolToID))
	for code := range c.symbolToID {
		params = append(params, fmt.Sprintf("%s@depth5@100ms", strings.ToLower(code)))
	}

	req := SubscribeRequest{Method: "SUBSCRIBE", Params: params, ID: 1}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal binance subscribe request: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send binance subscribe request: %w", err)
	}

	c.logger.Info("binance subscribe request sent", zap.Int("streams", len(params)))
	return nil
}

// Run drives the read loop plus the ping and metrics goroutines until ctx
// is cancelled.
func (c *Client) Run(ctx context.Context) {
	go c.pingLoop(ctx)
	go c.metricsLoop(ctx)
	c.readLoop(ctx)
}

func (c *Client) readLoop(ctx context.Context) {
	readTimeout := time.Duration(c.readTimeoutMs()) * time.Millisecond
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
			c.logger.Warn("binance read failed", zap.Error(err))
			c.incrementReconnectCount()
			c.reconnect(ctx)
			continue
		}

		if readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		}
		atomic.StoreInt64(&c.lastMsgTime, timeutil.NowNano())

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
				c.logger.Warn("binance bookCh full, dropping update")
			}
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	intervalMs := c.cfg.PingIntervalMs
	if intervalMs <= 0 {
		intervalMs = c.readTimeoutMs() / 2
		if intervalMs <= 0 {
			intervalMs = 15000
		}
	}

	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()

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

			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				c.connMu.Unlock()
				c.logger.Warn("binance ping failed", zap.Error(err))
				continue
			}
			c.connMu.Unlock()
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
	c.logger.Info("binance reconnecting", zap.Duration("delay", delay))

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	if err := c.Connect(ctx); err != nil {
		c.logger.Error("binance reconnect failed", zap.Error(err))
		return
	}
	if err := c.Subscribe(); err != nil {
		c.logger.Error("binance resubscribe failed", zap.Error(err))
	}
}

func (c *Client) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Close tears down the connection and closes both output channels.
func (c *Client) Close() error {
	atomic.StoreInt32(&c.closed, 1)
	c.closeConn()
	close(c.bookCh)
	close(c.errCh)
	c.logger.Info("binance client closed")
	return nil
}

// BookCh implements ingest.VenueClient.
func (c *Client) BookCh() <-chan ingest.Update {
	return c.bookCh
}

// ErrCh exposes asynchronous transport errors beyond the decoded update
// stream.
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

func (c *Client) readTimeoutMs() int {
	if c.cfg.ReadTimeoutMs > 0 {
		return c.cfg.ReadTimeoutMs
	}
	return 30000
}

// maybeLogParseError samples parse-error logging: one line per 100
// occurrences, rate-limited to once a minute.
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
	c.logger.Warn("binance parse error (sampled)", zap.Error(err), zap.ByteString("data", sample), zap.Uint64("count", count))
}
