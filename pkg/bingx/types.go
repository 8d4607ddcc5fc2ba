package bingx

import (
	"encoding/json"
	"fmt"
)

// Market segments an order can target.
type MarketSegment string

const (
	SegmentSpot    MarketSegment = "spot"
	SegmentFutures MarketSegment = "futures"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// PositionSide selects which side of a futures position an order or leverage
// setting applies to.
type PositionSide string

const (
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
	// PositionBoth is the one-way position mode.
	PositionBoth PositionSide = "BOTH"
)

// OrderType enumerates the order types the builder accepts.
type OrderType string

const (
	OrderMarket     OrderType = "MARKET"
	OrderLimit      OrderType = "LIMIT"
	OrderStop       OrderType = "STOP"
	OrderStopMarket OrderType = "STOP_MARKET"
)

// MarginType for futures positions.
type MarginType string

const (
	MarginIsolated MarginType = "ISOLATED"
	MarginCrossed  MarginType = "CROSSED"
)

// PriceTicker is the latest traded price for a symbol.
type PriceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// DepthLevel is one price level of an order book, encoded by the exchange as
// a [price, quantity] string pair.
type DepthLevel [2]string

// Depth is an order book snapshot.
type Depth struct {
	Bids []DepthLevel `json:"bids"`
	Asks []DepthLevel `json:"asks"`
	Time int64        `json:"T"`
}

// Balance describes a perpetual account balance entry.
type Balance struct {
	Asset            string `json:"asset"`
	Balance          string `json:"balance"`
	Equity           string `json:"equity"`
	UnrealizedProfit string `json:"unrealizedProfit"`
	AvailableMargin  string `json:"availableMargin"`
	UsedMargin       string `json:"usedMargin"`
	FreezedMargin    string `json:"freezedMargin"`
}

// Position describes an open futures position.
type Position struct {
	Symbol           string `json:"symbol"`
	PositionID       string `json:"positionId"`
	PositionSide     string `json:"positionSide"`
	Isolated         bool   `json:"isolated"`
	PositionAmt      string `json:"positionAmt"`
	AvailableAmt     string `json:"availableAmt"`
	AvgPrice         string `json:"avgPrice"`
	Leverage         int    `json:"leverage"`
	UnrealizedProfit string `json:"unrealizedProfit"`
}

// Order is the exchange's view of a placed order.
type Order struct {
	Symbol        string `json:"symbol"`
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderID"`
	Side          string `json:"side"`
	PositionSide  string `json:"positionSide"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	Price         string `json:"price"`
	Quantity      string `json:"origQty"`
	ExecutedQty   string `json:"executedQty"`
	Time          int64  `json:"time"`
	UpdateTime    int64  `json:"updateTime"`
}

// LeverageInfo reports the configured leverage per position side.
type LeverageInfo struct {
	LongLeverage     int `json:"longLeverage"`
	ShortLeverage    int `json:"shortLeverage"`
	MaxLongLeverage  int `json:"maxLongLeverage"`
	MaxShortLeverage int `json:"maxShortLeverage"`
}

// ListenKey is the token authorizing a private user data stream. Keys are
// valid for roughly 60 minutes and should be extended about every 30.
type ListenKey struct {
	ListenKey string `json:"listenKey"`
}

// unwrapData decodes the "data" field of a response envelope into v.
func unwrapData(body json.RawMessage, v interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decoding response envelope: %w", err)
	}
	if envelope.Data == nil {
		// Some endpoints (listen key lifecycle among them) reply without an
		// envelope; fall back to decoding the body itself
		return json.Unmarshal(body, v)
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}
