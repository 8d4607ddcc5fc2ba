// Package coinm covers the coin-margined perpetual futures endpoints, which
// live under their own API prefix and settle in the base coin rather than
// USDT.
package coinm

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/veiloq/bingx-connector/pkg/rest"
)

const apiPrefix = "/openApi/cswap/v1"

// Client groups the coin-margined services over a shared REST gateway.
type Client struct {
	market    *MarketService
	trade     *TradeService
	listenKey *ListenKeyService
}

// New creates a coin-margined client on an existing gateway.
func New(gateway *rest.Client) *Client {
	return &Client{
		market:    &MarketService{client: gateway},
		trade:     &TradeService{client: gateway},
		listenKey: &ListenKeyService{client: gateway},
	}
}

// Market returns the coin-margined market data service.
func (c *Client) Market() *MarketService { return c.market }

// Trade returns the coin-margined trading service.
func (c *Client) Trade() *TradeService { return c.trade }

// ListenKey returns the coin-margined listen key service.
func (c *Client) ListenKey() *ListenKeyService { return c.listenKey }

// MarketService provides coin-margined market data.
type MarketService struct {
	client *rest.Client
}

// Contracts returns the coin-margined contract specifications.
func (s *MarketService) Contracts(ctx context.Context, symbol string) (json.RawMessage, error) {
	p := rest.Params{}
	if symbol != "" {
		p.Set("symbol", symbol)
	}
	return s.client.Get(ctx, apiPrefix+"/market/contracts", p)
}

// Ticker returns the latest price ticker for a symbol.
func (s *MarketService) Ticker(ctx context.Context, symbol string) (json.RawMessage, error) {
	return s.client.Get(ctx, apiPrefix+"/market/ticker", rest.Params{
		"symbol": symbol,
	})
}

// Ticker24h returns rolling 24-hour statistics for a symbol.
func (s *MarketService) Ticker24h(ctx context.Context, symbol string) (json.RawMessage, error) {
	p := rest.Params{}
	if symbol != "" {
		p.Set("symbol", symbol)
	}
	return s.client.Get(ctx, apiPrefix+"/market/ticker/24hr", p)
}

// OpenPositions returns the market-wide open position volume for a symbol.
func (s *MarketService) OpenPositions(ctx context.Context, symbol string) (json.RawMessage, error) {
	return s.client.Get(ctx, apiPrefix+"/market/openPositions", rest.Params{
		"symbol": symbol,
	})
}

// Depth returns the order book for a symbol.
func (s *MarketService) Depth(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	p := rest.Params{
		"symbol": symbol,
	}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, apiPrefix+"/market/depth", p)
}

// Klines returns candlestick data for a symbol and interval.
func (s *MarketService) Klines(ctx context.Context, symbol, interval string, limit int) (json.RawMessage, error) {
	p := rest.Params{
		"symbol":   symbol,
		"interval": interval,
	}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, apiPrefix+"/market/kline", p)
}

// TradeService provides coin-margined order placement, position management
// and account queries.
type TradeService struct {
	client *rest.Client
}

// CreateOrder places a coin-margined order with raw parameters.
func (s *TradeService) CreateOrder(ctx context.Context, params rest.Params) (json.RawMessage, error) {
	return s.client.Post(ctx, apiPrefix+"/trade/order", params)
}

// CancelOrder cancels a coin-margined order.
func (s *TradeService) CancelOrder(ctx context.Context, symbol, orderID string) (json.RawMessage, error) {
	return s.client.Request(ctx, http.MethodDelete, apiPrefix+"/trade/order", rest.Params{
		"symbol":  symbol,
		"orderId": orderID,
	})
}

// CancelAllOrders cancels every open order on a symbol.
func (s *TradeService) CancelAllOrders(ctx context.Context, symbol string) (json.RawMessage, error) {
	return s.client.Request(ctx, http.MethodDelete, apiPrefix+"/trade/allOrders", rest.Params{
		"symbol": symbol,
	})
}

// CloseAllPositions market-closes every position on a symbol.
func (s *TradeService) CloseAllPositions(ctx context.Context, symbol string) (json.RawMessage, error) {
	return s.client.Request(ctx, http.MethodDelete, apiPrefix+"/trade/closeAllPositions", rest.Params{
		"symbol": symbol,
	})
}

// GetOrder returns one order's details.
func (s *TradeService) GetOrder(ctx context.Context, symbol, orderID string) (json.RawMessage, error) {
	return s.client.Get(ctx, apiPrefix+"/trade/orderDetail", rest.Params{
		"symbol":  symbol,
		"orderId": orderID,
	})
}

// OpenOrders returns the account's open coin-margined orders.
func (s *TradeService) OpenOrders(ctx context.Context, symbol string) (json.RawMessage, error) {
	p := rest.Params{}
	if symbol != "" {
		p.Set("symbol", symbol)
	}
	return s.client.Get(ctx, apiPrefix+"/trade/openOrders", p)
}

// OrderHistory returns historical coin-margined orders.
func (s *TradeService) OrderHistory(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	p := rest.Params{}
	if symbol != "" {
		p.Set("symbol", symbol)
	}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, apiPrefix+"/trade/historyOrders", p)
}

// Positions returns the account's coin-margined positions.
func (s *TradeService) Positions(ctx context.Context, symbol string) (json.RawMessage, error) {
	p := rest.Params{}
	if symbol != "" {
		p.Set("symbol", symbol)
	}
	return s.client.Get(ctx, apiPrefix+"/trade/positions", p)
}

// Balance returns the account's coin-margined asset balances.
func (s *TradeService) Balance(ctx context.Context) (json.RawMessage, error) {
	return s.client.Get(ctx, apiPrefix+"/trade/balance", nil)
}

// CommissionRate returns the account's coin-margined commission rates.
func (s *TradeService) CommissionRate(ctx context.Context, symbol string) (json.RawMessage, error) {
	return s.client.Get(ctx, apiPrefix+"/trade/commissionRate", rest.Params{
		"symbol": symbol,
	})
}

// Leverage returns the configured leverage on a symbol.
func (s *TradeService) Leverage(ctx context.Context, symbol string) (json.RawMessage, error) {
	return s.client.Get(ctx, apiPrefix+"/trade/leverage", rest.Params{
		"symbol": symbol,
	})
}

// SetLeverage changes the leverage on a coin-margined symbol.
func (s *TradeService) SetLeverage(ctx context.Context, symbol, side string, leverage int) (json.RawMessage, error) {
	p := rest.Params{
		"symbol": symbol,
		"side":   side,
	}
	p.SetInt("leverage", int64(leverage))
	return s.client.Post(ctx, apiPrefix+"/trade/leverage", p)
}

// MarginType returns the margin mode configured on a symbol.
func (s *TradeService) MarginType(ctx context.Context, symbol string) (json.RawMessage, error) {
	return s.client.Get(ctx, apiPrefix+"/trade/marginType", rest.Params{
		"symbol": symbol,
	})
}

// SetMarginType switches a symbol between isolated and crossed margin.
func (s *TradeService) SetMarginType(ctx context.Context, symbol, marginType string) (json.RawMessage, error) {
	return s.client.Post(ctx, apiPrefix+"/trade/marginType", rest.Params{
		"symbol":     symbol,
		"marginType": marginType,
	})
}

// ListenKeyService manages listen keys for coin-margined private streams.
type ListenKeyService struct {
	client *rest.Client
}

// Generate creates a new coin-margined listen key.
func (s *ListenKeyService) Generate(ctx context.Context) (json.RawMessage, error) {
	return s.client.Post(ctx, apiPrefix+"/user/listen/key", nil)
}

// Extend renews the validity window of a coin-margined listen key.
func (s *ListenKeyService) Extend(ctx context.Context, listenKey string) error {
	_, err := s.client.Request(ctx, http.MethodPut, apiPrefix+"/user/listen/key", rest.Params{
		"listenKey": listenKey,
	})
	return err
}

// Delete invalidates a coin-margined listen key.
func (s *ListenKeyService) Delete(ctx context.Context, listenKey string) error {
	_, err := s.client.Request(ctx, http.MethodDelete, apiPrefix+"/user/listen/key", rest.Params{
		"listenKey": listenKey,
	})
	return err
}
