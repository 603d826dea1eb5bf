// Package feed acquires raw tick data, either streamed over websocket or
// loaded from exported CSV files.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"tickflow/internal/observability"
)

// TickEvent is one raw tick pushed by the feed. Values are kept as strings
// because the upstream export format is untyped; cleaning owns parsing.
type TickEvent struct {
	Symbol   string `json:"symbol"`
	Time     string `json:"time"`
	Price    string `json:"price"`
	Volume   string `json:"volume"`
	Turnover string `json:"turnover"`
	Nature   string `json:"nature"`
}

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// MaxReconnectDelay caps the reconnect backoff.
	MaxReconnectDelay time.Duration
	// SubscribeRatePerSecond limits outbound subscribe requests.
	SubscribeRatePerSecond int
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		PingInterval:           30 * time.Second,
		ReadTimeout:            60 * time.Second,
		WriteTimeout:           10 * time.Second,
		MaxReconnectDelay:      30 * time.Second,
		SubscribeRatePerSecond: 5,
	}
}

// WSClient streams tick events from the exchange feed using gorilla/websocket.
type WSClient struct {
	endpoint string
	config   WSClientConfig

	conn    *websocket.Conn
	connMu  sync.Mutex
	closed  atomic.Bool
	limiter *rate.Limiter

	// subs maps symbol to delivery channel
	subs   map[string]chan TickEvent
	subsMu sync.RWMutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool

	log *logrus.Entry
}

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClient{
		endpoint: endpoint,
		config:   cfg,
		limiter:  rate.NewLimiter(rate.Every(time.Second), cfg.SubscribeRatePerSecond),
		subs:     make(map[string]chan TickEvent),
		done:     make(chan struct{}),
		log:      logrus.WithField("component", "feed"),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// connect establishes WebSocket connection.
func (c *WSClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// Subscribe registers for tick events of one symbol. Events are delivered on
// the returned channel until Close.
func (c *WSClient) Subscribe(ctx context.Context, symbol string) (<-chan TickEvent, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if err := c.writeSubscribe(symbol); err != nil {
		return nil, err
	}

	// Large buffer absorbs bursts; the reader blocks rather than drop ticks.
	ch := make(chan TickEvent, 10000)
	c.subsMu.Lock()
	c.subs[symbol] = ch
	c.subsMu.Unlock()

	return ch, nil
}

func (c *WSClient) writeSubscribe(symbol string) error {
	req := wsRequest{Op: "subscribe", Symbol: symbol}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Close closes the WebSocket connection and all subscription channels.
func (c *WSClient) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.subsMu.Lock()
	for symbol, ch := range c.subs {
		close(ch)
		delete(c.subs, symbol)
	}
	c.subsMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages from WebSocket and dispatches to subscribers.
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				go c.reconnect()
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		c.handleMessage(message)
	}
}

// reconnect re-establishes the connection with exponential backoff and
// resubscribes all active symbols.
func (c *WSClient) reconnect() {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = c.config.MaxReconnectDelay
	policy.MaxElapsedTime = 0 // retry until closed

	operation := func() error {
		if c.closed.Load() {
			return backoff.Permanent(fmt.Errorf("client closed"))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return c.connect(ctx)
	}

	if err := backoff.Retry(operation, policy); err != nil {
		c.log.WithError(err).Error("feed reconnect abandoned")
		return
	}

	observability.DefaultMetrics.FeedReconnects.Inc()
	c.log.Info("feed reconnected")

	c.subsMu.RLock()
	symbols := make([]string, 0, len(c.subs))
	for symbol := range c.subs {
		symbols = append(symbols, symbol)
	}
	c.subsMu.RUnlock()

	for _, symbol := range symbols {
		if err := c.writeSubscribe(symbol); err != nil {
			c.log.WithError(err).WithField("symbol", symbol).Warn("resubscribe failed")
		}
	}
}

// handleMessage parses and dispatches one incoming message.
func (c *WSClient) handleMessage(message []byte) {
	started := time.Now()

	var event TickEvent
	if err := json.Unmarshal(message, &event); err != nil || event.Symbol == "" {
		return
	}

	observability.DefaultMetrics.FeedMessagesReceived.Inc()

	c.subsMu.RLock()
	ch, ok := c.subs[event.Symbol]
	c.subsMu.RUnlock()

	if ok {
		// Block until we can send - never drop ticks
		select {
		case ch <- event:
		case <-c.done:
			return
		}
	}

	observability.DefaultMetrics.FeedMessageLatency.Observe(time.Since(started).Seconds())
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			c.connMu.Unlock()
		}
	}
}

type wsRequest struct {
	Op     string `json:"op"`
	Symbol string `json:"symbol"`
}
