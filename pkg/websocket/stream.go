package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/veiloq/bingx-connector/pkg/logging"
)

// MarketStream subscribes to public market data channels. Channel names
// follow the exchange's SYMBOL@channel convention, e.g. "BTC-USDT@trade" or
// "BTC-USDT@kline_1m".
type MarketStream struct {
	conn Connector
}

// NewMarketStream creates a market stream over a fresh connector.
func NewMarketStream(config Config) *MarketStream {
	return &MarketStream{conn: NewConnector(config)}
}

// NewMarketStreamWithConnector wires a market stream onto an existing
// connector; mainly for tests.
func NewMarketStreamWithConnector(conn Connector) *MarketStream {
	return &MarketStream{conn: conn}
}

// Connect opens the stream.
func (s *MarketStream) Connect(ctx context.Context) error {
	return s.conn.Connect(ctx)
}

// Close closes the stream.
func (s *MarketStream) Close() error {
	return s.conn.Close()
}

// SubscribeTrade streams individual trades for a symbol.
func (s *MarketStream) SubscribeTrade(symbol string, handler MessageHandler) error {
	return s.conn.Subscribe(symbol+"@trade", handler)
}

// UnsubscribeTrade stops the trade stream for a symbol.
func (s *MarketStream) UnsubscribeTrade(symbol string) error {
	return s.conn.Unsubscribe(symbol + "@trade")
}

// SubscribeKline streams candlesticks for a symbol at the given interval,
// e.g. "1m", "5m", "1h".
func (s *MarketStream) SubscribeKline(symbol, interval string, handler MessageHandler) error {
	return s.conn.Subscribe(fmt.Sprintf("%s@kline_%s", symbol, interval), handler)
}

// UnsubscribeKline stops the candlestick stream.
func (s *MarketStream) UnsubscribeKline(symbol, interval string) error {
	return s.conn.Unsubscribe(fmt.Sprintf("%s@kline_%s", symbol, interval))
}

// SubscribeDepth streams order book updates at the given level count,
// e.g. 5, 10, 20.
func (s *MarketStream) SubscribeDepth(symbol string, levels int, handler MessageHandler) error {
	return s.conn.Subscribe(fmt.Sprintf("%s@depth%d", symbol, levels), handler)
}

// UnsubscribeDepth stops the order book stream.
func (s *MarketStream) UnsubscribeDepth(symbol string, levels int) error {
	return s.conn.Unsubscribe(fmt.Sprintf("%s@depth%d", symbol, levels))
}

// SubscribeTicker streams 24-hour rolling statistics for a symbol.
func (s *MarketStream) SubscribeTicker(symbol string, handler MessageHandler) error {
	return s.conn.Subscribe(symbol+"@ticker", handler)
}

// UnsubscribeTicker stops the ticker stream.
func (s *MarketStream) UnsubscribeTicker(symbol string) error {
	return s.conn.Unsubscribe(symbol + "@ticker")
}

// SubscribeBookTicker streams best bid/ask updates for a symbol.
func (s *MarketStream) SubscribeBookTicker(symbol string, handler MessageHandler) error {
	return s.conn.Subscribe(symbol+"@bookTicker", handler)
}

// UnsubscribeBookTicker stops the best bid/ask stream.
func (s *MarketStream) UnsubscribeBookTicker(symbol string) error {
	return s.conn.Unsubscribe(symbol + "@bookTicker")
}

// ListenKeyExtender renews a listen key's validity window; the REST listen
// key service satisfies it.
type ListenKeyExtender interface {
	Extend(ctx context.Context, listenKey string) error
}

// AccountStream receives private account events: balance changes, position
// updates and order fills. Authentication rides on a listen key passed as a
// URL parameter; the stream extends it periodically to keep the session
// alive.
type AccountStream struct {
	conn      Connector
	listenKey string
	extender  ListenKeyExtender
	interval  time.Duration
	logger    logging.Logger
	events    *eventDispatcher

	stop chan struct{}
}

// AccountEvent identifies the private event types the exchange emits.
type AccountEvent string

const (
	EventAccountUpdate AccountEvent = "ACCOUNT_UPDATE"
	EventOrderUpdate   AccountEvent = "ORDER_TRADE_UPDATE"
	EventConfigUpdate  AccountEvent = "ACCOUNT_CONFIG_UPDATE"
	EventListenKeyEnd  AccountEvent = "listenKeyExpired"
)

// NewAccountStream creates a private stream authenticated by listenKey. The
// config URL is the base stream endpoint; the listen key is appended as a
// query parameter. A nil extender disables keepalive, leaving renewal to the
// caller.
func NewAccountStream(config Config, listenKey string, extender ListenKeyExtender) *AccountStream {
	if config.Logger == nil {
		config.Logger = logging.NewLogger()
	}
	logger := config.Logger
	config.URL = appendListenKey(config.URL, listenKey)
	s := &AccountStream{
		conn:      NewConnector(config),
		listenKey: listenKey,
		extender:  extender,
		// Keys expire after about an hour; renew well inside that window
		interval: 30 * time.Minute,
		logger:   logger,
		events:   newEventDispatcher(logger),
		stop:     make(chan struct{}),
	}
	s.conn.OnMessage(s.events.dispatch)
	return s
}

// NewAccountStreamWithConnector wires an account stream onto an existing
// connector; mainly for tests.
func NewAccountStreamWithConnector(conn Connector, listenKey string, extender ListenKeyExtender) *AccountStream {
	logger := logging.NewLogger()
	s := &AccountStream{
		conn:      conn,
		listenKey: listenKey,
		extender:  extender,
		interval:  30 * time.Minute,
		logger:    logger,
		events:    newEventDispatcher(logger),
		stop:      make(chan struct{}),
	}
	s.conn.OnMessage(s.events.dispatch)
	return s
}

func appendListenKey(base, listenKey string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "listenKey=" + url.QueryEscape(listenKey)
}

// Connect opens the stream and starts the listen key keepalive loop.
func (s *AccountStream) Connect(ctx context.Context) error {
	if err := s.conn.Connect(ctx); err != nil {
		return err
	}
	if s.extender != nil {
		go s.keepAlive(ctx)
	}
	return nil
}

// Close stops the keepalive loop and closes the stream.
func (s *AccountStream) Close() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	return s.conn.Close()
}

func (s *AccountStream) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.extender.Extend(ctx, s.listenKey); err != nil {
				s.logger.Warn("listen key renewal failed", logging.Error(err))
			}
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// OnEvent registers a handler for one private event type. Events arrive
// without a channel name and are distinguished by their "e" field.
func (s *AccountStream) OnEvent(event AccountEvent, handler MessageHandler) {
	s.onEvent(event, handler)
}

// OnAccountUpdate registers a handler for balance and position changes.
func (s *AccountStream) OnAccountUpdate(handler MessageHandler) {
	s.onEvent(EventAccountUpdate, handler)
}

// OnOrderUpdate registers a handler for order and fill events.
func (s *AccountStream) OnOrderUpdate(handler MessageHandler) {
	s.onEvent(EventOrderUpdate, handler)
}

// OnConfigUpdate registers a handler for leverage and margin mode changes.
func (s *AccountStream) OnConfigUpdate(handler MessageHandler) {
	s.onEvent(EventConfigUpdate, handler)
}

// OnListenKeyExpired registers a handler for listen key expiry, after which
// the caller must generate a new key and reconnect.
func (s *AccountStream) OnListenKeyExpired(handler MessageHandler) {
	s.onEvent(EventListenKeyEnd, handler)
}

func (s *AccountStream) onEvent(event AccountEvent, handler MessageHandler) {
	s.events.register(event, handler)
}

// eventDispatcher fans private events out to per-type handlers. Events carry
// their type in the "e" field rather than a channel name.
type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[AccountEvent][]MessageHandler
	logger   logging.Logger
}

func newEventDispatcher(logger logging.Logger) *eventDispatcher {
	return &eventDispatcher{
		handlers: make(map[AccountEvent][]MessageHandler),
		logger:   logger,
	}
}

func (d *eventDispatcher) register(event AccountEvent, handler MessageHandler) {
	d.mu.Lock()
	d.handlers[event] = append(d.handlers[event], handler)
	d.mu.Unlock()
}

func (d *eventDispatcher) dispatch(message []byte) {
	var event struct {
		Type string `json:"e"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		d.logger.Warn("failed to unmarshal account event", logging.Error(err))
		return
	}
	if event.Type == "" {
		return
	}

	d.mu.RLock()
	handlers := append([]MessageHandler(nil), d.handlers[AccountEvent(event.Type)]...)
	d.mu.RUnlock()

	for _, h := range handlers {
		h(message)
	}
}
