package bingx

import (
	"context"
	"encoding/json"

	"github.com/veiloq/bingx-connector/pkg/rest"
)

// CopyTradingService covers the trader side of the copy trading API.
type CopyTradingService struct {
	client *rest.Client
}

// CurrentOrders returns the trader's currently copied positions.
func (s *CopyTradingService) CurrentOrders(ctx context.Context) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/copyTrading/v1/swap/trace/currentTrack", nil)
}

// CloseOrder closes one copied position by its tracking id.
func (s *CopyTradingService) CloseOrder(ctx context.Context, positionID string) (json.RawMessage, error) {
	return s.client.Post(ctx, "/openApi/copyTrading/v1/swap/trace/closeTrackOrder", rest.Params{
		"positionId": positionID,
	})
}

// SetTPSL attaches stop-loss and take-profit prices to a copied position.
// A zero price leaves that leg unset.
func (s *CopyTradingService) SetTPSL(ctx context.Context, positionID string, takeProfit, stopLoss float64) (json.RawMessage, error) {
	p := rest.Params{
		"positionId": positionID,
	}
	if takeProfit > 0 {
		p.SetFloat("takeProfitPrice", takeProfit)
	}
	if stopLoss > 0 {
		p.SetFloat("stopLossPrice", stopLoss)
	}
	return s.client.Post(ctx, "/openApi/copyTrading/v1/swap/trace/setTPSL", p)
}

// TraderDetail returns the trader's perpetual copy trading profile.
func (s *CopyTradingService) TraderDetail(ctx context.Context) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/copyTrading/v1/PFutures/traderDetail", nil)
}

// ProfitSummary returns the trader's perpetual profit sharing summary.
func (s *CopyTradingService) ProfitSummary(ctx context.Context) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/copyTrading/v1/PFutures/profitHistorySummarys", nil)
}

// ProfitDetail returns the trader's perpetual profit sharing records.
func (s *CopyTradingService) ProfitDetail(ctx context.Context, limit int) (json.RawMessage, error) {
	p := rest.Params{}
	if limit > 0 {
		p.SetInt("pageSize", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/copyTrading/v1/PFutures/profitDetail", p)
}

// SellOrder sells a spot asset held through copy trading.
func (s *CopyTradingService) SellOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	return s.client.Post(ctx, "/openApi/copyTrading/v1/spot/trader/sellOrder", rest.Params{
		"orderId": orderID,
	})
}

// SpotTraderDetail returns the trader's spot copy trading profile.
func (s *CopyTradingService) SpotTraderDetail(ctx context.Context) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/copyTrading/v1/spot/traderDetail", nil)
}
