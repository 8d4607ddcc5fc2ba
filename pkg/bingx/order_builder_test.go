package bingx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veiloq/bingx-connector/pkg/rest"
)

var fixedTime = time.UnixMilli(1700000000000)

// testTrade returns a trade service with no gateway; fine for everything that
// stays off the network (validation, GetOrderData).
func testTrade() *TradeService {
	return &TradeService{now: func() time.Time { return fixedTime }}
}

// newTestClient spins up a stub exchange and a client pointed at it. The
// handler sees every request; respond with a code-zero envelope unless the
// test wants a failure.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := rest.DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.Credentials = rest.Credentials{
		APIKey:    "test-key",
		APISecret: "test-secret",
	}
	cfg.Now = func() time.Time { return fixedTime }
	return New(cfg)
}

func okEnvelope(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"code":0,"msg":"","data":{"orderId":"12345"}}`))
}

func TestOrderBuilderSpotRequiresQuantity(t *testing.T) {
	b := testTrade().Order().
		Spot().
		Symbol("BTC-USDT").
		Buy().
		Type(OrderMarket)

	assert.False(t, b.IsValid())
	assert.Contains(t, b.Errors(), "spot orders require quantity")

	b.Quantity(0.5)
	assert.True(t, b.IsValid())
}

func TestOrderBuilderFuturesRequiresPositionSideAndMargin(t *testing.T) {
	b := testTrade().Order().
		Futures().
		Symbol("BTC-USDT").
		Sell().
		Type(OrderMarket)

	errs := b.Errors()
	assert.Contains(t, errs, "futures orders require position side (LONG/SHORT)")
	assert.Contains(t, errs, "futures orders require margin or quantity")

	b.Short().Margin(50)
	assert.True(t, b.IsValid())
	assert.Empty(t, b.Errors())
}

func TestOrderBuilderReduceOnlyClosePositionExclusion(t *testing.T) {
	b := testTrade().Order().
		Futures().
		Symbol("BTC-USDT").
		Sell().
		Short().
		Type(OrderMarket).
		Margin(100).
		ReduceOnly(true).
		ClosePosition(true)

	assert.Contains(t, b.Errors(), "reduceOnly and closePosition cannot both be true")
}

func TestOrderBuilderReduceOnlyBothFalseAllowed(t *testing.T) {
	b := testTrade().Order().
		Futures().
		Symbol("BTC-USDT").
		Sell().
		Short().
		Type(OrderMarket).
		Margin(100).
		ReduceOnly(false).
		ClosePosition(false)

	assert.True(t, b.IsValid())
}

func TestOrderBuilderSpotRejectsFuturesOnlyFields(t *testing.T) {
	b := testTrade().Order().
		Spot().
		Symbol("BTC-USDT").
		Buy().
		Type(OrderMarket).
		Quantity(1).
		ReduceOnly(true)

	assert.Contains(t, b.Errors(), "reduceOnly is only available for futures orders")
}

func TestOrderBuilderSegmentGuardsOnSetters(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *OrderBuilder
		wantErr string
	}{
		{
			name: "quantity on futures",
			build: func() *OrderBuilder {
				return testTrade().Order().Futures().Quantity(1)
			},
			wantErr: "quantity only available for spot orders; use Margin for futures",
		},
		{
			name: "margin on spot",
			build: func() *OrderBuilder {
				return testTrade().Order().Spot().Margin(50)
			},
			wantErr: "margin only available for futures orders; use Quantity for spot",
		},
		{
			name: "long on spot",
			build: func() *OrderBuilder {
				return testTrade().Order().Spot().Long()
			},
			wantErr: "position side (LONG/SHORT) only available for futures orders",
		},
		{
			name: "leverage on spot",
			build: func() *OrderBuilder {
				return testTrade().Order().Spot().Leverage(10)
			},
			wantErr: "leverage only available for futures orders",
		},
		{
			name: "stop loss on spot",
			build: func() *OrderBuilder {
				return testTrade().Order().Spot().StopLoss(95)
			},
			wantErr: "stop loss only available for futures orders",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.build().Errors(), tt.wantErr)
		})
	}
}

func TestOrderBuilderLeverageBounds(t *testing.T) {
	tests := []struct {
		leverage int
		valid    bool
	}{
		{0, false},
		{1, true},
		{125, true},
		{126, false},
	}

	for _, tt := range tests {
		b := testTrade().Order().
			Futures().
			Symbol("BTC-USDT").
			Buy().
			Long().
			Type(OrderMarket).
			Margin(100).
			Leverage(tt.leverage)

		if tt.valid {
			assert.True(t, b.IsValid(), "leverage %d should be accepted", tt.leverage)
		} else {
			assert.Contains(t, b.Errors(), "leverage must be between 1 and 125")
		}
	}
}

func TestOrderBuilderPercentBounds(t *testing.T) {
	b := testTrade().Order().Futures().StopLossPercent(0)
	assert.Contains(t, b.Errors(), "stop loss percentage must be between 0 and 100")

	b = testTrade().Order().Futures().StopLossPercent(101)
	assert.Contains(t, b.Errors(), "stop loss percentage must be between 0 and 100")

	b = testTrade().Order().Futures().TakeProfitPercent(1001)
	assert.Contains(t, b.Errors(), "take profit percentage must be between 0 and 1000")
}

func TestOrderBuilderPercentDerivationBuy(t *testing.T) {
	params, err := testTrade().Order().
		Futures().
		Symbol("BTC-USDT").
		Buy().
		Long().
		Type(OrderLimit).
		Margin(100).
		Price(100).
		StopLossPercent(5).
		TakeProfitPercent(5).
		GetOrderData()
	require.NoError(t, err)

	assert.Equal(t, "95", params["stopLoss"])
	assert.Equal(t, "105", params["takeProfit"])
}

func TestOrderBuilderPercentDerivationSell(t *testing.T) {
	params, err := testTrade().Order().
		Futures().
		Symbol("BTC-USDT").
		Sell().
		Short().
		Type(OrderLimit).
		Margin(100).
		Price(100).
		StopLossPercent(5).
		TakeProfitPercent(5).
		GetOrderData()
	require.NoError(t, err)

	assert.Equal(t, "105", params["stopLoss"])
	assert.Equal(t, "95", params["takeProfit"])
}

func TestOrderBuilderPercentRequiresPrice(t *testing.T) {
	b := testTrade().Order().
		Futures().
		Symbol("BTC-USDT").
		Buy().
		Long().
		Type(OrderMarket).
		Margin(100).
		StopLossPercent(5)

	assert.Contains(t, b.Errors(), "stop loss percentage requires price")
}

func TestOrderBuilderLimitRequiresPrice(t *testing.T) {
	b := testTrade().Order().
		Futures().
		Symbol("BTC-USDT").
		Buy().
		Long().
		Type(OrderLimit).
		Margin(100)

	assert.Contains(t, b.Errors(), "LIMIT orders require price")
}

func TestOrderBuilderValidateIsRepeatable(t *testing.T) {
	b := testTrade().Order().Spot().Symbol("BTC-USDT")

	first := b.Errors()
	second := b.Errors()
	assert.Equal(t, first, second)
}

func TestOrderBuilderGetOrderDataOffline(t *testing.T) {
	// No gateway at all: assembling parameters must not touch the network.
	params, err := testTrade().Order().
		Futures().
		Symbol("BTC-USDT").
		Buy().
		Long().
		Type(OrderMarket).
		Margin(100).
		GetOrderData()
	require.NoError(t, err)

	assert.Equal(t, "BTC-USDT", params["symbol"])
	assert.Equal(t, "BUY", params["side"])
	assert.Equal(t, "MARKET", params["type"])
	assert.Equal(t, "LONG", params["positionSide"])
	assert.Equal(t, "100", params["margin"])
	assert.Equal(t, "1700000000000", params["timestamp"])
}

func TestOrderBuilderExecuteInvalidDraftFails(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		okEnvelope(w)
	})

	_, err := client.Trade().Order().
		Futures().
		Symbol("BTC-USDT").
		Execute(context.Background())

	var verr *rest.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.GreaterOrEqual(t, len(verr.Messages), 3)
	assert.False(t, called, "invalid draft must not reach the network")
}

func TestOrderBuilderExecuteSetsLeverageFirst(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		okEnvelope(w)
	})

	_, err := client.Trade().Order().
		Futures().
		Symbol("BTC-USDT").
		Buy().
		Long().
		Type(OrderMarket).
		Margin(100).
		Leverage(10).
		Execute(context.Background())
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.Equal(t, "/openApi/swap/v2/trade/leverage", paths[0])
	assert.Equal(t, "/openApi/swap/v2/trade/order", paths[1])
}

func TestOrderBuilderExecuteLeverageFailureAborts(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/openApi/swap/v2/trade/leverage" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"code":100001,"msg":"signature verification failed"}`))
			return
		}
		okEnvelope(w)
	})

	_, err := client.Trade().Order().
		Futures().
		Symbol("BTC-USDT").
		Buy().
		Long().
		Type(OrderMarket).
		Margin(100).
		Leverage(10).
		Execute(context.Background())

	require.Error(t, err)
	var autherr *rest.AuthenticationError
	assert.True(t, errors.As(err, &autherr))
	assert.Equal(t, []string{"/openApi/swap/v2/trade/leverage"}, paths)
}

func TestOrderBuilderExecuteSkipsLeverageWhenUnset(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		okEnvelope(w)
	})

	_, err := client.Trade().Order().
		Futures().
		Symbol("BTC-USDT").
		Buy().
		Long().
		Type(OrderMarket).
		Margin(100).
		Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"/openApi/swap/v2/trade/order"}, paths)
}

func TestOrderBuilderTestOrderRouting(t *testing.T) {
	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		okEnvelope(w)
	})

	_, err := client.Trade().Order().
		Test().
		Futures().
		Symbol("BTC-USDT").
		Buy().
		Long().
		Type(OrderMarket).
		Margin(100).
		Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/openApi/swap/v2/trade/order/test", path)
}

func TestOrderBuilderNotReusableAfterExecute(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		okEnvelope(w)
	})

	b := client.Trade().Order().
		Futures().
		Symbol("BTC-USDT").
		Buy().
		Long().
		Type(OrderMarket).
		Margin(100)

	_, err := b.Execute(context.Background())
	require.NoError(t, err)

	_, err = b.Execute(context.Background())
	var verr *rest.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Messages, "order already submitted; create a new builder")
}

func TestOrderBuilderExecuteReturnsBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		okEnvelope(w)
	})

	body, err := client.Trade().Order().
		Futures().
		Symbol("BTC-USDT").
		Buy().
		Long().
		Type(OrderMarket).
		Margin(100).
		Execute(context.Background())
	require.NoError(t, err)

	var envelope struct {
		Data struct {
			OrderID string `json:"orderId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, "12345", envelope.Data.OrderID)
}
