package bingx

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/veiloq/bingx-connector/pkg/rest"
)

// FuturesCommissionRate is the standard futures trading commission (0.045%).
const FuturesCommissionRate = 0.00045

// TradeService provides order placement and management endpoints, the order
// builder entry point and commission calculators.
type TradeService struct {
	client *rest.Client
	now    func() time.Time
}

// Order starts a new order builder bound to this service.
func (s *TradeService) Order() *OrderBuilder {
	return newOrderBuilder(s)
}

// CommissionDetail breaks down the commission for one leveraged position.
type CommissionDetail struct {
	Margin            float64
	Leverage          int
	PositionValue     float64
	CommissionRate    float64
	Commission        float64
	CommissionRounded float64
	NetPositionValue  float64
}

// CalculateFuturesCommission computes the commission for a position at the
// standard rate: position value is margin × leverage, commission is position
// value × rate, and the net position value is what remains after commission.
func (s *TradeService) CalculateFuturesCommission(margin float64, leverage int) CommissionDetail {
	return s.CalculateFuturesCommissionWithRate(margin, leverage, FuturesCommissionRate)
}

// CalculateFuturesCommissionWithRate computes the commission at a custom rate.
func (s *TradeService) CalculateFuturesCommissionWithRate(margin float64, leverage int, rate float64) CommissionDetail {
	positionValue := margin * float64(leverage)
	commission := positionValue * rate
	return CommissionDetail{
		Margin:            margin,
		Leverage:          leverage,
		PositionValue:     positionValue,
		CommissionRate:    rate,
		Commission:        commission,
		CommissionRounded: math.Round(commission*1e6) / 1e6,
		NetPositionValue:  positionValue - commission,
	}
}

// BatchCommission aggregates commissions across several positions.
type BatchCommission struct {
	CommissionRate  float64
	TotalCommission float64
	Orders          []CommissionDetail
}

// MarginLeverage is one margin/leverage pair for batch commission calculation.
type MarginLeverage struct {
	Margin   float64
	Leverage int
}

// CalculateBatchCommission computes commissions for several positions at the
// given rate; a non-positive rate selects the standard rate.
func (s *TradeService) CalculateBatchCommission(orders []MarginLeverage, rate float64) BatchCommission {
	if rate <= 0 {
		rate = FuturesCommissionRate
	}
	batch := BatchCommission{
		CommissionRate: rate,
		Orders:         make([]CommissionDetail, 0, len(orders)),
	}
	for _, o := range orders {
		detail := s.CalculateFuturesCommissionWithRate(o.Margin, o.Leverage, rate)
		batch.Orders = append(batch.Orders, detail)
		batch.TotalCommission += detail.Commission
	}
	return batch
}

// SpotMarketBuy places a spot market buy order.
func (s *TradeService) SpotMarketBuy(ctx context.Context, symbol string, quantity float64) (json.RawMessage, error) {
	return s.Order().
		Spot().
		Symbol(symbol).
		Buy().
		Type(OrderMarket).
		Quantity(quantity).
		Execute(ctx)
}

// SpotMarketSell places a spot market sell order.
func (s *TradeService) SpotMarketSell(ctx context.Context, symbol string, quantity float64) (json.RawMessage, error) {
	return s.Order().
		Spot().
		Symbol(symbol).
		Sell().
		Type(OrderMarket).
		Quantity(quantity).
		Execute(ctx)
}

// SpotLimitBuy places a spot limit buy order.
func (s *TradeService) SpotLimitBuy(ctx context.Context, symbol string, quantity, price float64) (json.RawMessage, error) {
	return s.Order().
		Spot().
		Symbol(symbol).
		Buy().
		Type(OrderLimit).
		Quantity(quantity).
		Price(price).
		Execute(ctx)
}

// SpotLimitSell places a spot limit sell order.
func (s *TradeService) SpotLimitSell(ctx context.Context, symbol string, quantity, price float64) (json.RawMessage, error) {
	return s.Order().
		Spot().
		Symbol(symbol).
		Sell().
		Type(OrderLimit).
		Quantity(quantity).
		Price(price).
		Execute(ctx)
}

// FuturesLongMarket opens a long futures position at market price.
func (s *TradeService) FuturesLongMarket(ctx context.Context, symbol string, margin float64, leverage int) (json.RawMessage, error) {
	return s.Order().
		Futures().
		Symbol(symbol).
		Buy().
		Long().
		Type(OrderMarket).
		Margin(margin).
		Leverage(leverage).
		Execute(ctx)
}

// FuturesShortMarket opens a short futures position at market price.
func (s *TradeService) FuturesShortMarket(ctx context.Context, symbol string, margin float64, leverage int) (json.RawMessage, error) {
	return s.Order().
		Futures().
		Symbol(symbol).
		Sell().
		Short().
		Type(OrderMarket).
		Margin(margin).
		Leverage(leverage).
		Execute(ctx)
}

// FuturesLongLimit opens a long futures position at a limit price.
func (s *TradeService) FuturesLongLimit(ctx context.Context, symbol string, margin float64, leverage int, price float64) (json.RawMessage, error) {
	return s.Order().
		Futures().
		Symbol(symbol).
		Buy().
		Long().
		Type(OrderLimit).
		Margin(margin).
		Leverage(leverage).
		Price(price).
		Execute(ctx)
}

// FuturesShortLimit opens a short futures position at a limit price.
func (s *TradeService) FuturesShortLimit(ctx context.Context, symbol string, margin float64, leverage int, price float64) (json.RawMessage, error) {
	return s.Order().
		Futures().
		Symbol(symbol).
		Sell().
		Short().
		Type(OrderLimit).
		Margin(margin).
		Leverage(leverage).
		Price(price).
		Execute(ctx)
}

// FuturesLongWithTPSL opens a long limit position with percentage-based
// stop-loss and take-profit legs. Zero percentages leave that leg unset.
func (s *TradeService) FuturesLongWithTPSL(ctx context.Context, symbol string, margin float64, leverage int, price, stopLossPct, takeProfitPct float64) (json.RawMessage, error) {
	b := s.Order().
		Futures().
		Symbol(symbol).
		Buy().
		Long().
		Type(OrderLimit).
		Margin(margin).
		Leverage(leverage).
		Price(price)
	if stopLossPct > 0 {
		b.StopLossPercent(stopLossPct)
	}
	if takeProfitPct > 0 {
		b.TakeProfitPercent(takeProfitPct)
	}
	return b.Execute(ctx)
}

// FuturesShortWithTPSL opens a short limit position with percentage-based
// stop-loss and take-profit legs. Zero percentages leave that leg unset.
func (s *TradeService) FuturesShortWithTPSL(ctx context.Context, symbol string, margin float64, leverage int, price, stopLossPct, takeProfitPct float64) (json.RawMessage, error) {
	b := s.Order().
		Futures().
		Symbol(symbol).
		Sell().
		Short().
		Type(OrderLimit).
		Margin(margin).
		Leverage(leverage).
		Price(price)
	if stopLossPct > 0 {
		b.StopLossPercent(stopLossPct)
	}
	if takeProfitPct > 0 {
		b.TakeProfitPercent(takeProfitPct)
	}
	return b.Execute(ctx)
}

// CreateOrder places an order with raw parameters. Most callers should prefer
// the Order builder, which validates cross-field invariants locally first.
func (s *TradeService) CreateOrder(ctx context.Context, params rest.Params) (json.RawMessage, error) {
	return s.client.Post(ctx, "/openApi/swap/v2/trade/order", params)
}

// CreateTestOrder places an order against the exchange's dry-run endpoint;
// it is validated server-side but never executes in the real market.
func (s *TradeService) CreateTestOrder(ctx context.Context, params rest.Params) (json.RawMessage, error) {
	return s.client.Post(ctx, "/openApi/swap/v2/trade/order/test", params)
}

// CreateBatchOrders places several orders in one request. The orders payload
// travels as a JSON array inside a form field, as the API requires.
func (s *TradeService) CreateBatchOrders(ctx context.Context, orders []rest.Params) (json.RawMessage, error) {
	encoded, err := json.Marshal(orders)
	if err != nil {
		return nil, err
	}
	return s.client.Post(ctx, "/openApi/swap/v2/trade/batchOrders", rest.Params{
		"orders": string(encoded),
	})
}

// CancelOrder cancels a single order.
func (s *TradeService) CancelOrder(ctx context.Context, symbol, orderID string) (json.RawMessage, error) {
	return s.client.Post(ctx, "/openApi/swap/v2/trade/cancelOrder", rest.Params{
		"symbol":  symbol,
		"orderId": orderID,
	})
}

// CancelAllOrders cancels every open order on a symbol.
func (s *TradeService) CancelAllOrders(ctx context.Context, symbol string) (json.RawMessage, error) {
	return s.client.Post(ctx, "/openApi/swap/v2/trade/cancelAllOrders", rest.Params{
		"symbol": symbol,
	})
}

// CancelBatchOrders cancels several orders on a symbol.
func (s *TradeService) CancelBatchOrders(ctx context.Context, symbol string, orderIDs []string) (json.RawMessage, error) {
	encoded, err := json.Marshal(orderIDs)
	if err != nil {
		return nil, err
	}
	return s.client.Post(ctx, "/openApi/swap/v2/trade/cancelBatchOrders", rest.Params{
		"symbol":   symbol,
		"orderIds": string(encoded),
	})
}

// GetOrder returns the details of a single order.
func (s *TradeService) GetOrder(ctx context.Context, symbol, orderID string) (*Order, error) {
	body, err := s.client.Get(ctx, "/openApi/swap/v2/trade/order", rest.Params{
		"symbol":  symbol,
		"orderId": orderID,
	})
	if err != nil {
		return nil, err
	}
	var data struct {
		Order Order `json:"order"`
	}
	if err := unwrapData(body, &data); err != nil {
		return nil, err
	}
	return &data.Order, nil
}

// OpenOrders returns currently open orders. An empty symbol returns all.
func (s *TradeService) OpenOrders(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	p := rest.Params{}
	if symbol != "" {
		p.Set("symbol", symbol)
	}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/swap/v2/trade/openOrders", p)
}

// HistoryQuery bounds the history endpoints. Zero values are omitted.
type HistoryQuery struct {
	Symbol    string
	Limit     int
	StartTime int64
	EndTime   int64
}

func (q HistoryQuery) params() rest.Params {
	p := rest.Params{}
	if q.Symbol != "" {
		p.Set("symbol", q.Symbol)
	}
	if q.Limit > 0 {
		p.SetInt("limit", int64(q.Limit))
	}
	if q.StartTime > 0 {
		p.SetInt("startTime", q.StartTime)
	}
	if q.EndTime > 0 {
		p.SetInt("endTime", q.EndTime)
	}
	return p
}

// OrderHistory returns historical orders.
func (s *TradeService) OrderHistory(ctx context.Context, q HistoryQuery) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/swap/v2/trade/orderHistory", q.params())
}

// FilledOrders returns historical filled orders.
func (s *TradeService) FilledOrders(ctx context.Context, q HistoryQuery) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/swap/v2/trade/filledOrders", q.params())
}

// UserTrades returns the account's trade fills.
func (s *TradeService) UserTrades(ctx context.Context, q HistoryQuery) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/swap/v2/trade/userTrades", q.params())
}

// ChangeLeverage sets the leverage for one side of a symbol's position.
func (s *TradeService) ChangeLeverage(ctx context.Context, symbol string, side PositionSide, leverage int) (json.RawMessage, error) {
	p := rest.Params{
		"symbol": symbol,
		"side":   string(side),
	}
	p.SetInt("leverage", int64(leverage))
	return s.client.Post(ctx, "/openApi/swap/v2/trade/leverage", p)
}

// ChangeMarginType switches a symbol between isolated and crossed margin.
func (s *TradeService) ChangeMarginType(ctx context.Context, symbol string, marginType MarginType) (json.RawMessage, error) {
	return s.client.Post(ctx, "/openApi/swap/v2/trade/changeMarginType", rest.Params{
		"symbol":     symbol,
		"marginType": string(marginType),
	})
}

// ModifyPositionMargin adds (type 1) or reduces (type 2) isolated margin on a
// position.
func (s *TradeService) ModifyPositionMargin(ctx context.Context, symbol string, side PositionSide, amount float64, modifyType int) (json.RawMessage, error) {
	p := rest.Params{
		"symbol":       symbol,
		"positionSide": string(side),
	}
	p.SetFloat("amount", amount)
	p.SetInt("type", int64(modifyType))
	return s.client.Post(ctx, "/openApi/swap/v2/trade/modifyPositionMargin", p)
}
