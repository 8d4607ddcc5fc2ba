package bingx

import (
	"context"
	"encoding/json"

	"github.com/veiloq/bingx-connector/pkg/rest"
)

// SpotAccountService covers spot order placement and account queries.
type SpotAccountService struct {
	client *rest.Client
}

// Balances returns the spot account asset balances.
func (s *SpotAccountService) Balances(ctx context.Context) ([]Balance, error) {
	body, err := s.client.Get(ctx, "/openApi/spot/v1/account/balance", nil)
	if err != nil {
		return nil, err
	}
	var data struct {
		Balances []Balance `json:"balances"`
	}
	if err := unwrapData(body, &data); err != nil {
		return nil, err
	}
	return data.Balances, nil
}

// CreateOrder places a spot order with raw parameters. The Order builder in
// the trade service is the validated path; this is the low-level escape hatch.
func (s *SpotAccountService) CreateOrder(ctx context.Context, params rest.Params) (json.RawMessage, error) {
	return s.client.Post(ctx, "/openApi/spot/v1/trade/order", params)
}

// CancelOrder cancels a spot order.
func (s *SpotAccountService) CancelOrder(ctx context.Context, symbol, orderID string) (json.RawMessage, error) {
	return s.client.Post(ctx, "/openApi/spot/v1/trade/cancel", rest.Params{
		"symbol":  symbol,
		"orderId": orderID,
	})
}

// OpenOrders returns the spot account's open orders.
func (s *SpotAccountService) OpenOrders(ctx context.Context, symbol string) (json.RawMessage, error) {
	p := rest.Params{}
	if symbol != "" {
		p.Set("symbol", symbol)
	}
	return s.client.Get(ctx, "/openApi/spot/v1/trade/openOrders", p)
}

// OrderHistory returns historical spot orders.
func (s *SpotAccountService) OrderHistory(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	p := rest.Params{}
	if symbol != "" {
		p.Set("symbol", symbol)
	}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/spot/v1/trade/historyOrders", p)
}

// GetOrder returns one spot order's details.
func (s *SpotAccountService) GetOrder(ctx context.Context, symbol, orderID string) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/spot/v1/trade/query", rest.Params{
		"symbol":  symbol,
		"orderId": orderID,
	})
}

// MyTrades returns the spot account's trade fills.
func (s *SpotAccountService) MyTrades(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	p := rest.Params{
		"symbol": symbol,
	}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/spot/v1/trade/myTrades", p)
}
