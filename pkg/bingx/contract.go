package bingx

import (
	"context"
	"encoding/json"

	"github.com/veiloq/bingx-connector/pkg/rest"
)

// ContractService covers the standard contract (non-perpetual) endpoints.
type ContractService struct {
	client *rest.Client
}

// Positions returns the account's standard contract positions.
func (s *ContractService) Positions(ctx context.Context, symbol string) (json.RawMessage, error) {
	p := rest.Params{}
	if symbol != "" {
		p.Set("symbol", symbol)
	}
	return s.client.Get(ctx, "/openApi/contract/v1/allPosition", p)
}

// OrderHistory returns historical standard contract orders for a symbol.
func (s *ContractService) OrderHistory(ctx context.Context, symbol string, orderID string, startTime, endTime int64, limit int) (json.RawMessage, error) {
	p := rest.Params{
		"symbol": symbol,
	}
	if orderID != "" {
		p.Set("orderId", orderID)
	}
	if startTime > 0 {
		p.SetInt("startTime", startTime)
	}
	if endTime > 0 {
		p.SetInt("endTime", endTime)
	}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/contract/v1/allOrders", p)
}

// Balance returns the standard contract account balance.
func (s *ContractService) Balance(ctx context.Context) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/contract/v1/balance", nil)
}
