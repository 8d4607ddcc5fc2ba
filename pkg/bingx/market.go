package bingx

import (
	"context"
	"encoding/json"

	"github.com/veiloq/bingx-connector/pkg/rest"
)

// MarketService provides market data endpoints. All of them are public; no
// credentials are required, but requests are still signed when credentials are
// configured.
type MarketService struct {
	client *rest.Client
}

// KlineRequest selects a candlestick range. Zero values are omitted from the
// request so the exchange applies its own defaults.
type KlineRequest struct {
	Symbol    string
	Interval  string
	StartTime int64
	EndTime   int64
	Limit     int
}

func (r KlineRequest) params() rest.Params {
	p := rest.Params{"symbol": r.Symbol, "interval": r.Interval}
	if r.StartTime > 0 {
		p.SetInt("startTime", r.StartTime)
	}
	if r.EndTime > 0 {
		p.SetInt("endTime", r.EndTime)
	}
	if r.Limit > 0 {
		p.SetInt("limit", int64(r.Limit))
	}
	return p
}

// Symbols returns all perpetual contract symbols.
func (s *MarketService) Symbols(ctx context.Context) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/swap/v2/market/symbols", nil)
}

// SpotSymbols returns all spot trading symbols.
func (s *MarketService) SpotSymbols(ctx context.Context) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/spot/v1/market/symbols", nil)
}

// LatestPrice returns the latest traded price of a perpetual symbol.
func (s *MarketService) LatestPrice(ctx context.Context, symbol string) (*PriceTicker, error) {
	body, err := s.client.Get(ctx, "/openApi/swap/v2/market/latestPrice", rest.Params{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	var ticker PriceTicker
	if err := unwrapData(body, &ticker); err != nil {
		return nil, err
	}
	return &ticker, nil
}

// SpotTickerPrice returns the latest traded price of a spot symbol.
func (s *MarketService) SpotTickerPrice(ctx context.Context, symbol string) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/spot/v1/market/ticker/price", rest.Params{"symbol": symbol})
}

// Depth returns an order book snapshot for a perpetual symbol.
func (s *MarketService) Depth(ctx context.Context, symbol string, limit int) (*Depth, error) {
	p := rest.Params{"symbol": symbol}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	body, err := s.client.Get(ctx, "/openApi/swap/v2/market/depth", p)
	if err != nil {
		return nil, err
	}
	var depth Depth
	if err := unwrapData(body, &depth); err != nil {
		return nil, err
	}
	return &depth, nil
}

// SpotDepth returns an order book snapshot for a spot symbol.
func (s *MarketService) SpotDepth(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	p := rest.Params{"symbol": symbol}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/spot/v1/market/depth", p)
}

// Klines returns perpetual candlestick data.
func (s *MarketService) Klines(ctx context.Context, req KlineRequest) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/swap/v2/market/kline", req.params())
}

// SpotKlines returns spot candlestick data.
func (s *MarketService) SpotKlines(ctx context.Context, req KlineRequest) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/spot/v1/market/klines", req.params())
}

// Ticker24h returns rolling 24-hour statistics. An empty symbol returns all
// symbols.
func (s *MarketService) Ticker24h(ctx context.Context, symbol string) (json.RawMessage, error) {
	p := rest.Params{}
	if symbol != "" {
		p.Set("symbol", symbol)
	}
	return s.client.Get(ctx, "/openApi/swap/v2/market/ticker24hr", p)
}

// FundingRateHistory returns historical funding rates for a symbol.
func (s *MarketService) FundingRateHistory(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	p := rest.Params{"symbol": symbol}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/swap/v2/market/fundingRate/history", p)
}

// MarkPrice returns the current mark price and funding rate.
func (s *MarketService) MarkPrice(ctx context.Context, symbol string) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/swap/v2/market/markPrice", rest.Params{"symbol": symbol})
}

// RecentTrades returns the most recent public trades.
func (s *MarketService) RecentTrades(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	p := rest.Params{"symbol": symbol}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/swap/v2/market/trades", p)
}

// AggTrades returns aggregated public trades.
func (s *MarketService) AggTrades(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	p := rest.Params{"symbol": symbol}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/swap/v2/market/aggTrades", p)
}

// ServerTime returns the exchange clock in epoch milliseconds, useful for
// diagnosing recvWindow rejections.
func (s *MarketService) ServerTime(ctx context.Context) (int64, error) {
	body, err := s.client.Get(ctx, "/openApi/swap/v2/market/time", nil)
	if err != nil {
		return 0, err
	}
	var data struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := unwrapData(body, &data); err != nil {
		return 0, err
	}
	return data.ServerTime, nil
}
