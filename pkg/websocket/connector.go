// Package websocket implements the exchange's streaming protocol: channel
// subscriptions over a single connection, gzip-compressed frames, the
// ping/pong keepalive and automatic reconnection with resubscription.
package websocket

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/veiloq/bingx-connector/pkg/logging"
)

// MessageHandler receives the raw payload of one stream message.
type MessageHandler func(message []byte)

// Connector manages one streaming connection: channel subscriptions,
// keepalive and reconnection.
type Connector interface {
	// Connect establishes the connection and starts the read loop.
	Connect(ctx context.Context) error

	// Close cleanly closes the connection.
	Close() error

	// Subscribe registers a handler for a channel and sends the subscribe
	// frame.
	Subscribe(dataType string, handler MessageHandler) error

	// Unsubscribe removes the handler and sends the unsubscribe frame.
	Unsubscribe(dataType string) error

	// OnMessage registers a catch-all handler for messages that carry no
	// dataType, such as private account events.
	OnMessage(handler MessageHandler)

	// Send writes a message to the connection.
	Send(message interface{}) error

	// IsConnected reports the current connection status.
	IsConnected() bool
}

// Config holds streaming connection configuration.
type Config struct {
	URL               string
	HeartbeatInterval time.Duration
	ReconnectInterval time.Duration
	MaxRetries        int
	Logger            logging.Logger
}

// Metrics holds connection and message statistics.
type Metrics struct {
	ConnectedTime  time.Time
	MessageCount   int64
	ReconnectCount int64
	ErrorCount     int64
}

// envelope is the subscription control frame the exchange expects.
type envelope struct {
	ID       string `json:"id"`
	ReqType  string `json:"reqType"`
	DataType string `json:"dataType"`
}

type connector struct {
	config Config
	conn   *websocket.Conn

	handlers   map[string]MessageHandler
	catchAll   MessageHandler
	handlersMu sync.RWMutex
	writeMu    sync.Mutex

	connected bool
	done      chan struct{}
	doneMu    sync.Mutex
	closed    bool

	reconnectMu  sync.Mutex
	reconnecting bool

	metrics   Metrics
	metricsMu sync.RWMutex

	logger logging.Logger
}

// NewConnector creates a connector with the given configuration. Zero
// intervals get sensible defaults.
func NewConnector(config Config) Connector {
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = 30 * time.Second
	}
	if config.ReconnectInterval <= 0 {
		config.ReconnectInterval = 5 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}
	if config.Logger == nil {
		config.Logger = logging.NewLogger()
	}
	return &connector{
		config:   config,
		handlers: make(map[string]MessageHandler),
		logger:   config.Logger,
	}
}

// GetMetrics returns the current connection metrics.
func (c *connector) GetMetrics() Metrics {
	c.metricsMu.RLock()
	defer c.metricsMu.RUnlock()
	return c.metrics
}

// Connect establishes the connection and starts background routines.
func (c *connector) Connect(ctx context.Context) error {
	c.reconnectMu.Lock()
	defer c.reconnectMu.Unlock()

	if c.connected {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("context already cancelled: %w", ctx.Err())
	}

	c.logger.Debug("attempting stream connection",
		logging.String("url", c.config.URL),
		logging.Duration("heartbeat", c.config.HeartbeatInterval),
	)

	var lastErr error
	attempt := 0

	for {
		attempt++
		if attempt > c.config.MaxRetries {
			return fmt.Errorf("max retries exceeded: %w", lastErr)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		dialer := websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		}
		conn, _, err := dialer.DialContext(ctx, c.config.URL, nil)
		if err != nil {
			lastErr = err
			c.metricsMu.Lock()
			c.metrics.ErrorCount++
			c.metricsMu.Unlock()
			c.logger.Warn("connection attempt failed",
				logging.Int("attempt", attempt),
				logging.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.ReconnectInterval):
				continue
			}
		}

		c.conn = conn
		c.connected = true
		c.metricsMu.Lock()
		c.metrics.ConnectedTime = time.Now()
		c.metricsMu.Unlock()

		c.doneMu.Lock()
		c.done = make(chan struct{})
		c.closed = false
		c.doneMu.Unlock()

		go c.readPump(ctx)
		go c.heartbeat()

		go func() {
			select {
			case <-ctx.Done():
				c.logger.Info("context cancelled, closing connection")
				c.Close()
			case <-c.done:
				return
			}
		}()

		c.logger.Info("stream connected")

		if err := c.resubscribe(); err != nil {
			c.logger.Warn("resubscription incomplete", logging.Error(err))
		}

		return nil
	}
}

// readPump continuously reads frames from the connection.
func (c *connector) readPump(ctx context.Context) {
	defer func() {
		c.connected = false
		if c.conn != nil {
			_ = c.conn.Close()
		}

		c.doneMu.Lock()
		if !c.closed {
			close(c.done)
			c.closed = true
		}
		c.doneMu.Unlock()

		c.logger.Info("read loop stopped")

		if !c.reconnecting && ctx.Err() == nil {
			go c.reconnect()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			c.conn.SetReadDeadline(time.Now().Add(c.config.HeartbeatInterval * 3))
			_, message, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.logger.Warn("read error", logging.Error(err))
					c.metricsMu.Lock()
					c.metrics.ErrorCount++
					c.metricsMu.Unlock()
				}
				return
			}

			message, err = inflate(message)
			if err != nil {
				c.logger.Warn("failed to decompress frame", logging.Error(err))
				continue
			}

			c.metricsMu.Lock()
			c.metrics.MessageCount++
			c.metricsMu.Unlock()

			c.processMessage(message)
		}
	}
}

// inflate decompresses a gzip frame, detected by its magic bytes. Plain
// frames pass through unchanged.
func inflate(message []byte) ([]byte, error) {
	if len(message) < 2 || message[0] != 0x1f || message[1] != 0x8b {
		return message, nil
	}
	reader, err := gzip.NewReader(bytes.NewReader(message))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// processMessage answers pings and routes data frames to their handlers.
// Frames with no dataType go to the catch-all handler; account events arrive
// this way, keyed by their "e" field.
func (c *connector) processMessage(message []byte) {
	var frame struct {
		Ping     string `json:"ping"`
		DataType string `json:"dataType"`
	}
	if err := json.Unmarshal(message, &frame); err != nil {
		c.logger.Warn("failed to unmarshal frame", logging.Error(err))
		return
	}

	if frame.Ping != "" {
		if err := c.Send(map[string]string{"pong": frame.Ping}); err != nil {
			c.logger.Warn("failed to answer ping", logging.Error(err))
		}
		return
	}

	c.handlersMu.RLock()
	handler, exists := c.handlers[frame.DataType]
	catchAll := c.catchAll
	c.handlersMu.RUnlock()

	if !exists {
		handler = catchAll
	}
	if handler == nil {
		return
	}

	go func(dataType string, data []byte, h MessageHandler) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("handler panic recovered",
					logging.String("dataType", dataType),
					logging.String("panic", fmt.Sprintf("%v", r)),
				)
			}
		}()
		h(data)
	}(frame.DataType, message, handler)
}

// heartbeat sends periodic pings to keep intermediaries from idling out the
// connection. The exchange's own application-level pings are answered in
// processMessage.
func (c *connector) heartbeat() {
	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			if !c.connected {
				c.writeMu.Unlock()
				return
			}
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// reconnect reestablishes the connection with backoff, then resubscribes.
func (c *connector) reconnect() {
	c.reconnectMu.Lock()
	if c.reconnecting {
		c.reconnectMu.Unlock()
		return
	}
	c.reconnecting = true
	c.reconnectMu.Unlock()

	defer func() {
		c.reconnectMu.Lock()
		c.reconnecting = false
		c.reconnectMu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	c.metricsMu.Lock()
	c.metrics.ReconnectCount++
	c.metricsMu.Unlock()

	err := retry.Do(
		func() error {
			if ctx.Err() != nil {
				return retry.Unrecoverable(ctx.Err())
			}
			return c.Connect(ctx)
		},
		retry.Attempts(uint(c.config.MaxRetries)),
		retry.Delay(c.config.ReconnectInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("reconnection attempt failed",
				logging.Int("attempt", int(n+1)),
				logging.Error(err))
		}),
	)

	if err != nil {
		c.logger.Error("reconnection failed", logging.Error(err))
		c.metricsMu.Lock()
		c.metrics.ErrorCount++
		c.metricsMu.Unlock()
		return
	}

	c.logger.Info("reconnection successful")
}

// Subscribe registers the handler and sends the subscribe frame.
func (c *connector) Subscribe(dataType string, handler MessageHandler) error {
	if !c.IsConnected() {
		return fmt.Errorf("stream not connected")
	}

	c.handlersMu.Lock()
	c.handlers[dataType] = handler
	c.handlersMu.Unlock()

	return c.Send(envelope{
		ID:       uuid.NewString(),
		ReqType:  "sub",
		DataType: dataType,
	})
}

// Unsubscribe removes the handler and sends the unsubscribe frame.
func (c *connector) Unsubscribe(dataType string) error {
	c.handlersMu.Lock()
	delete(c.handlers, dataType)
	c.handlersMu.Unlock()

	if !c.IsConnected() {
		return nil
	}
	return c.Send(envelope{
		ID:       uuid.NewString(),
		ReqType:  "unsub",
		DataType: dataType,
	})
}

// OnMessage registers the catch-all handler.
func (c *connector) OnMessage(handler MessageHandler) {
	c.handlersMu.Lock()
	c.catchAll = handler
	c.handlersMu.Unlock()
}

// Send writes a message to the connection. Byte slices pass through; anything
// else is marshalled to JSON.
func (c *connector) Send(message interface{}) error {
	if !c.connected {
		return fmt.Errorf("stream not connected")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if data, ok := message.([]byte); ok {
		return c.conn.WriteMessage(websocket.TextMessage, data)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// IsConnected reports the current connection status.
func (c *connector) IsConnected() bool {
	return c.connected
}

// Close cleanly closes the connection and stops background routines.
func (c *connector) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.doneMu.Lock()
	wasClosed := c.closed
	if !c.closed && c.done != nil {
		close(c.done)
		c.closed = true
	}
	c.doneMu.Unlock()

	if wasClosed {
		return nil
	}

	c.connected = false

	if c.conn != nil {
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closed connection"))

		time.Sleep(100 * time.Millisecond)

		err := c.conn.Close()
		if err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
			return err
		}
	}

	return nil
}

// resubscribe replays every registered subscription after a reconnect.
func (c *connector) resubscribe() error {
	c.handlersMu.RLock()
	dataTypes := make([]string, 0, len(c.handlers))
	for dataType := range c.handlers {
		dataTypes = append(dataTypes, dataType)
	}
	c.handlersMu.RUnlock()

	var failed int
	for _, dataType := range dataTypes {
		err := c.Send(envelope{
			ID:       uuid.NewString(),
			ReqType:  "sub",
			DataType: dataType,
		})
		if err != nil {
			c.logger.Error("failed to resubscribe",
				logging.String("dataType", dataType),
				logging.Error(err),
			)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to resubscribe to %d channels", failed)
	}
	return nil
}
