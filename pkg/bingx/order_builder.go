package bingx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/veiloq/bingx-connector/pkg/rest"
)

// OrderBuilder accumulates order parameters through fluent setters, enforces
// cross-field invariants and derives stop-loss/take-profit prices from
// percentages at submission time.
//
// Setters never fail hard: a structurally invalid call records a validation
// error and the chain continues, so callers get the complete list of problems
// from one terminal call instead of one at a time. Execute and GetOrderData
// re-run full validation and fail with *rest.ValidationError carrying every
// accumulated message.
//
// A builder is owned by the call site that created it: it mutates internal
// state without synchronization and must not be shared across goroutines. It
// is not reusable after a successful Execute.
type OrderBuilder struct {
	trade   *TradeService
	segment MarketSegment

	symbol       string
	orderType    OrderType
	side         Side
	positionSide PositionSide

	leverage      int
	quantity      *float64
	margin        *float64
	price         *float64
	stopLoss      *float64
	stopLossPct   *float64
	takeProfit    *float64
	takeProfitPct *float64
	stopPrice     *float64
	priceRate     *float64

	clientOrderID    string
	timeInForce      string
	workingType      string
	newOrderRespType string

	reduceOnly     *bool
	closePosition  *bool
	stopGuaranteed *bool

	positionID int64
	recvWindow int64
	timestamp  int64

	isTest    bool
	submitted bool
	errs      []string
}

// newOrderBuilder is called by TradeService.Order; the draft starts as a
// futures order with only a timestamp, matching the exchange's primary market.
func newOrderBuilder(trade *TradeService) *OrderBuilder {
	return &OrderBuilder{
		trade:     trade,
		segment:   SegmentFutures,
		timestamp: trade.now().UnixMilli(),
	}
}

func (b *OrderBuilder) addError(format string, args ...interface{}) {
	b.errs = append(b.errs, fmt.Sprintf(format, args...))
}

// Test marks the order as a dry run: submission routes to the exchange's test
// endpoint and never executes in the real market.
func (b *OrderBuilder) Test() *OrderBuilder {
	b.isTest = true
	return b
}

// Spot switches the draft to the spot segment.
func (b *OrderBuilder) Spot() *OrderBuilder {
	b.segment = SegmentSpot
	return b
}

// Futures switches the draft to the futures segment.
func (b *OrderBuilder) Futures() *OrderBuilder {
	b.segment = SegmentFutures
	return b
}

// Symbol sets the trading symbol, e.g. "BTC-USDT".
func (b *OrderBuilder) Symbol(symbol string) *OrderBuilder {
	b.symbol = symbol
	return b
}

// Type sets the order type: MARKET, LIMIT, STOP or STOP_MARKET.
func (b *OrderBuilder) Type(orderType OrderType) *OrderBuilder {
	switch orderType {
	case OrderMarket, OrderLimit, OrderStop, OrderStopMarket:
		b.orderType = orderType
	default:
		b.addError("invalid order type: %s", orderType)
	}
	return b
}

// Buy sets the order side to BUY.
func (b *OrderBuilder) Buy() *OrderBuilder {
	b.side = SideBuy
	return b
}

// Sell sets the order side to SELL.
func (b *OrderBuilder) Sell() *OrderBuilder {
	b.side = SideSell
	return b
}

// Long sets the position side to LONG. Futures only.
func (b *OrderBuilder) Long() *OrderBuilder {
	if b.segment != SegmentFutures {
		b.addError("position side (LONG/SHORT) only available for futures orders")
		return b
	}
	b.positionSide = PositionLong
	return b
}

// Short sets the position side to SHORT. Futures only.
func (b *OrderBuilder) Short() *OrderBuilder {
	if b.segment != SegmentFutures {
		b.addError("position side (LONG/SHORT) only available for futures orders")
		return b
	}
	b.positionSide = PositionShort
	return b
}

// Leverage sets the leverage multiplier, 1 to 125 inclusive. Futures only.
// The leverage is applied via a separate leverage-setting call before the
// order is submitted; see Execute.
func (b *OrderBuilder) Leverage(leverage int) *OrderBuilder {
	if b.segment != SegmentFutures {
		b.addError("leverage only available for futures orders")
		return b
	}
	if leverage < 1 || leverage > 125 {
		b.addError("leverage must be between 1 and 125")
		return b
	}
	b.leverage = leverage
	return b
}

// Quantity sets the order quantity. Spot only; futures orders size by margin.
func (b *OrderBuilder) Quantity(quantity float64) *OrderBuilder {
	if b.segment != SegmentSpot {
		b.addError("quantity only available for spot orders; use Margin for futures")
		return b
	}
	if quantity <= 0 {
		b.addError("quantity must be greater than 0")
		return b
	}
	b.quantity = &quantity
	return b
}

// Margin sets the collateral amount backing the position. Futures only.
func (b *OrderBuilder) Margin(margin float64) *OrderBuilder {
	if b.segment != SegmentFutures {
		b.addError("margin only available for futures orders; use Quantity for spot")
		return b
	}
	if margin <= 0 {
		b.addError("margin must be greater than 0")
		return b
	}
	b.margin = &margin
	return b
}

// Price sets the order price. Valid only after Type(LIMIT) or Type(STOP).
func (b *OrderBuilder) Price(price float64) *OrderBuilder {
	if b.orderType != OrderLimit && b.orderType != OrderStop {
		b.addError("price only available for LIMIT or STOP orders")
		return b
	}
	if price <= 0 {
		b.addError("price must be greater than 0")
		return b
	}
	b.price = &price
	return b
}

// StopLoss sets an absolute stop-loss price. Futures only.
func (b *OrderBuilder) StopLoss(price float64) *OrderBuilder {
	if b.segment != SegmentFutures {
		b.addError("stop loss only available for futures orders")
		return b
	}
	if price <= 0 {
		b.addError("stop loss price must be greater than 0")
		return b
	}
	b.stopLoss = &price
	return b
}

// StopLossPercent sets the stop loss as a percentage of the order price,
// e.g. 5 for 5%. Requires Price; the absolute price is derived at submission
// time, not here. Futures only.
func (b *OrderBuilder) StopLossPercent(percent float64) *OrderBuilder {
	if b.segment != SegmentFutures {
		b.addError("stop loss only available for futures orders")
		return b
	}
	if percent <= 0 || percent > 100 {
		b.addError("stop loss percentage must be between 0 and 100")
		return b
	}
	b.stopLossPct = &percent
	return b
}

// TakeProfit sets an absolute take-profit price. Futures only.
func (b *OrderBuilder) TakeProfit(price float64) *OrderBuilder {
	if b.segment != SegmentFutures {
		b.addError("take profit only available for futures orders")
		return b
	}
	if price <= 0 {
		b.addError("take profit price must be greater than 0")
		return b
	}
	b.takeProfit = &price
	return b
}

// TakeProfitPercent sets the take profit as a percentage of the order price,
// e.g. 10 for 10%. Requires Price; derived at submission time. Futures only.
func (b *OrderBuilder) TakeProfitPercent(percent float64) *OrderBuilder {
	if b.segment != SegmentFutures {
		b.addError("take profit only available for futures orders")
		return b
	}
	if percent <= 0 || percent > 1000 {
		b.addError("take profit percentage must be between 0 and 1000")
		return b
	}
	b.takeProfitPct = &percent
	return b
}

// ClientOrderID sets a caller-chosen order identifier. Callers wanting
// idempotent retry of the non-atomic leverage-then-order sequence should set
// one and key their retries on it.
func (b *OrderBuilder) ClientOrderID(id string) *OrderBuilder {
	b.clientOrderID = id
	return b
}

// TimeInForce sets the time-in-force policy, e.g. "GTC", "IOC", "FOK".
func (b *OrderBuilder) TimeInForce(tif string) *OrderBuilder {
	b.timeInForce = tif
	return b
}

// ReduceOnly restricts the order to only decrease an existing position.
// Mutually exclusive with ClosePosition. Futures only.
func (b *OrderBuilder) ReduceOnly(reduceOnly bool) *OrderBuilder {
	b.reduceOnly = &reduceOnly
	return b
}

// ClosePosition marks the order as closing the whole position.
// Mutually exclusive with ReduceOnly. Futures only.
func (b *OrderBuilder) ClosePosition(closePosition bool) *OrderBuilder {
	b.closePosition = &closePosition
	return b
}

// StopPrice sets the trigger price for STOP orders.
func (b *OrderBuilder) StopPrice(price float64) *OrderBuilder {
	if price <= 0 {
		b.addError("stop price must be greater than 0")
		return b
	}
	b.stopPrice = &price
	return b
}

// StopGuaranteed requests guaranteed stop-loss execution.
func (b *OrderBuilder) StopGuaranteed(flag bool) *OrderBuilder {
	b.stopGuaranteed = &flag
	return b
}

// PriceRate sets the trailing rate for trailing-stop orders.
func (b *OrderBuilder) PriceRate(rate float64) *OrderBuilder {
	if rate <= 0 {
		b.addError("price rate must be greater than 0")
		return b
	}
	b.priceRate = &rate
	return b
}

// WorkingType selects the price type stop triggers compare against,
// e.g. "MARK_PRICE" or "CONTRACT_PRICE".
func (b *OrderBuilder) WorkingType(workingType string) *OrderBuilder {
	b.workingType = workingType
	return b
}

// NewOrderRespType selects the response detail level, "ACK" or "RESULT".
func (b *OrderBuilder) NewOrderRespType(respType string) *OrderBuilder {
	b.newOrderRespType = respType
	return b
}

// PositionID targets an existing position. Futures only.
func (b *OrderBuilder) PositionID(id int64) *OrderBuilder {
	if id <= 0 {
		b.addError("position ID must be greater than 0")
		return b
	}
	b.positionID = id
	return b
}

// Timestamp overrides the request timestamp (epoch milliseconds).
func (b *OrderBuilder) Timestamp(ts int64) *OrderBuilder {
	b.timestamp = ts
	return b
}

// RecvWindow sets the permitted clock skew between the request timestamp and
// server receipt, in milliseconds.
func (b *OrderBuilder) RecvWindow(window int64) *OrderBuilder {
	if window <= 0 {
		b.addError("recvWindow must be greater than 0")
		return b
	}
	b.recvWindow = window
	return b
}

// validate re-checks every cross-field invariant and returns the complete
// error list: setter-recorded errors first, then structural problems found in
// this pass. The builder's own state is not mutated, so validation is
// repeatable.
func (b *OrderBuilder) validate() []string {
	errs := append([]string(nil), b.errs...)
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if b.symbol == "" {
		add("missing required field: symbol")
	}
	if b.side == "" {
		add("missing required field: side")
	}
	if b.orderType == "" {
		add("missing required field: type")
	}

	if b.segment == SegmentSpot {
		if b.quantity == nil {
			add("spot orders require quantity")
		}
		if b.positionSide != "" {
			add("position side not available for spot orders")
		}
		if b.reduceOnly != nil {
			add("reduceOnly is only available for futures orders")
		}
		if b.closePosition != nil {
			add("closePosition is only available for futures orders")
		}
		if b.positionID != 0 {
			add("positionId is only available for futures orders")
		}
	}

	if b.segment == SegmentFutures {
		if b.positionSide == "" {
			add("futures orders require position side (LONG/SHORT)")
		}
		if b.margin == nil && b.quantity == nil {
			add("futures orders require margin or quantity")
		}
	}

	if b.reduceOnly != nil && b.closePosition != nil && *b.reduceOnly && *b.closePosition {
		add("reduceOnly and closePosition cannot both be true")
	}

	if b.orderType == OrderLimit && b.price == nil {
		add("LIMIT orders require price")
	}

	if b.stopLossPct != nil && b.price == nil {
		add("stop loss percentage requires price")
	}
	if b.takeProfitPct != nil && b.price == nil {
		add("take profit percentage requires price")
	}

	return errs
}

// IsValid reports whether the draft passes full validation.
func (b *OrderBuilder) IsValid() bool {
	return len(b.validate()) == 0
}

// Errors returns the complete validation error list for the current draft.
func (b *OrderBuilder) Errors() []string {
	return b.validate()
}

// build derives the final order parameters. Percentage-based stop-loss and
// take-profit are converted to absolute prices here, using price and side:
// for a buy, stop-loss sits below and take-profit above the price; for a
// sell, the inequalities invert.
func (b *OrderBuilder) build() rest.Params {
	p := rest.Params{}
	p.SetInt("timestamp", b.timestamp)
	p.Set("symbol", b.symbol)
	p.Set("side", string(b.side))
	p.Set("type", string(b.orderType))

	if b.positionSide != "" {
		p.Set("positionSide", string(b.positionSide))
	}
	if b.leverage > 0 {
		p.SetInt("leverage", int64(b.leverage))
	}
	if b.quantity != nil {
		p.SetFloat("quantity", *b.quantity)
	}
	if b.margin != nil {
		p.SetFloat("margin", *b.margin)
	}
	if b.price != nil {
		p.SetFloat("price", *b.price)
	}

	stopLoss := b.stopLoss
	if b.stopLossPct != nil && b.price != nil {
		derived := *b.price * (1 - *b.stopLossPct/100)
		if b.side == SideSell {
			derived = *b.price * (1 + *b.stopLossPct/100)
		}
		stopLoss = &derived
	}
	if stopLoss != nil {
		p.SetFloat("stopLoss", *stopLoss)
	}

	takeProfit := b.takeProfit
	if b.takeProfitPct != nil && b.price != nil {
		derived := *b.price * (1 + *b.takeProfitPct/100)
		if b.side == SideSell {
			derived = *b.price * (1 - *b.takeProfitPct/100)
		}
		takeProfit = &derived
	}
	if takeProfit != nil {
		p.SetFloat("takeProfit", *takeProfit)
	}

	if b.stopPrice != nil {
		p.SetFloat("stopPrice", *b.stopPrice)
	}
	if b.priceRate != nil {
		p.SetFloat("priceRate", *b.priceRate)
	}
	if b.clientOrderID != "" {
		p.Set("clientOrderID", b.clientOrderID)
	}
	if b.timeInForce != "" {
		p.Set("timeInForce", b.timeInForce)
	}
	if b.workingType != "" {
		p.Set("workingType", b.workingType)
	}
	if b.newOrderRespType != "" {
		p.Set("newOrderRespType", b.newOrderRespType)
	}
	if b.reduceOnly != nil {
		p.SetBool("reduceOnly", *b.reduceOnly)
	}
	if b.closePosition != nil {
		p.SetBool("closePosition", *b.closePosition)
	}
	if b.stopGuaranteed != nil {
		p.SetBool("stopGuaranteed", *b.stopGuaranteed)
	}
	if b.positionID != 0 {
		p.SetInt("positionId", b.positionID)
	}
	if b.recvWindow != 0 {
		p.SetInt("recvWindow", b.recvWindow)
	}

	return p
}

// GetOrderData validates the draft and returns the derived order parameters
// without touching the network. Useful for inspection and dry assembly.
func (b *OrderBuilder) GetOrderData() (rest.Params, error) {
	if errs := b.validate(); len(errs) > 0 {
		return nil, &rest.ValidationError{Messages: errs}
	}
	return b.build(), nil
}

// Execute validates the draft and submits it. An invalid draft fails
// immediately with *rest.ValidationError carrying every accumulated problem;
// no network call is made.
//
// For futures orders with leverage set, the leverage is applied through a
// separate leverage-setting call before the order is submitted, using the
// position side when present and BOTH otherwise. The two steps are not
// atomic: a leverage failure aborts before submission, but a crash between
// the two calls leaves leverage changed with no order placed. Callers
// needing recovery should set a client order id and reconcile on restart.
//
// After a successful submission the builder is spent; further Execute calls
// fail.
func (b *OrderBuilder) Execute(ctx context.Context) (json.RawMessage, error) {
	if b.submitted {
		return nil, &rest.ValidationError{Messages: []string{"order already submitted; create a new builder"}}
	}
	if errs := b.validate(); len(errs) > 0 {
		return nil, &rest.ValidationError{Messages: errs}
	}

	params := b.build()

	if b.segment == SegmentFutures && b.leverage > 0 {
		side := b.positionSide
		if side == "" {
			side = PositionBoth
		}
		if _, err := b.trade.ChangeLeverage(ctx, b.symbol, side, b.leverage); err != nil {
			return nil, fmt.Errorf("setting leverage before order: %w", err)
		}
	}

	var body json.RawMessage
	var err error
	if b.isTest {
		body, err = b.trade.CreateTestOrder(ctx, params)
	} else {
		body, err = b.trade.CreateOrder(ctx, params)
	}
	if err != nil {
		return nil, err
	}

	b.submitted = true
	return body, nil
}
