package bingx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veiloq/bingx-connector/pkg/rest"
)

func TestCalculateFuturesCommission(t *testing.T) {
	detail := testTrade().CalculateFuturesCommission(100, 10)

	assert.Equal(t, 1000.0, detail.PositionValue)
	assert.Equal(t, FuturesCommissionRate, detail.CommissionRate)
	assert.InDelta(t, 0.45, detail.Commission, 1e-9)
	assert.InDelta(t, 999.55, detail.NetPositionValue, 1e-9)
}

func TestCalculateFuturesCommissionWithRate(t *testing.T) {
	detail := testTrade().CalculateFuturesCommissionWithRate(200, 5, 0.001)

	assert.Equal(t, 1000.0, detail.PositionValue)
	assert.InDelta(t, 1.0, detail.Commission, 1e-9)
	assert.InDelta(t, 999.0, detail.NetPositionValue, 1e-9)
}

func TestCalculateBatchCommission(t *testing.T) {
	batch := testTrade().CalculateBatchCommission([]MarginLeverage{
		{Margin: 100, Leverage: 10},
		{Margin: 50, Leverage: 20},
	}, 0)

	assert.Equal(t, FuturesCommissionRate, batch.CommissionRate)
	require.Len(t, batch.Orders, 2)
	assert.InDelta(t, 0.9, batch.TotalCommission, 1e-9)
}

func TestChangeLeverageRequest(t *testing.T) {
	var gotPath string
	var gotBody url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotBody = r.PostForm
		okEnvelope(w)
	})

	_, err := client.Trade().ChangeLeverage(context.Background(), "BTC-USDT", PositionLong, 20)
	require.NoError(t, err)

	assert.Equal(t, "/openApi/swap/v2/trade/leverage", gotPath)
	assert.Equal(t, "BTC-USDT", gotBody.Get("symbol"))
	assert.Equal(t, "LONG", gotBody.Get("side"))
	assert.Equal(t, "20", gotBody.Get("leverage"))
}

func TestCancelOrderRequest(t *testing.T) {
	var gotPath string
	var gotBody url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotBody = r.PostForm
		okEnvelope(w)
	})

	_, err := client.Trade().CancelOrder(context.Background(), "ETH-USDT", "987654")
	require.NoError(t, err)

	assert.Equal(t, "/openApi/swap/v2/trade/cancelOrder", gotPath)
	assert.Equal(t, "ETH-USDT", gotBody.Get("symbol"))
	assert.Equal(t, "987654", gotBody.Get("orderId"))
}

func TestCreateBatchOrdersEncodesJSONField(t *testing.T) {
	var gotBody url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotBody = r.PostForm
		okEnvelope(w)
	})

	_, err := client.Trade().CreateBatchOrders(context.Background(), []rest.Params{
		{"symbol": "BTC-USDT", "side": "BUY"},
		{"symbol": "ETH-USDT", "side": "SELL"},
	})
	require.NoError(t, err)

	var decoded []map[string]string
	require.NoError(t, json.Unmarshal([]byte(gotBody.Get("orders")), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "BTC-USDT", decoded[0]["symbol"])
	assert.Equal(t, "SELL", decoded[1]["side"])
}

func TestHistoryQueryOmitsZeroValues(t *testing.T) {
	p := HistoryQuery{Symbol: "BTC-USDT", Limit: 100}.params()

	assert.Equal(t, "BTC-USDT", p["symbol"])
	assert.Equal(t, "100", p["limit"])
	assert.NotContains(t, p, "startTime")
	assert.NotContains(t, p, "endTime")
}

func TestFuturesShortMarketHelper(t *testing.T) {
	var paths []string
	var orderBody url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/openApi/swap/v2/trade/order" {
			require.NoError(t, r.ParseForm())
			orderBody = r.PostForm
		}
		okEnvelope(w)
	})

	_, err := client.Trade().FuturesShortMarket(context.Background(), "BTC-USDT", 100, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/openApi/swap/v2/trade/leverage",
		"/openApi/swap/v2/trade/order",
	}, paths)
	assert.Equal(t, "SELL", orderBody.Get("side"))
	assert.Equal(t, "SHORT", orderBody.Get("positionSide"))
	assert.Equal(t, "100", orderBody.Get("margin"))
}

func TestFuturesLongWithTPSLHelper(t *testing.T) {
	var orderBody url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/openApi/swap/v2/trade/order" {
			require.NoError(t, r.ParseForm())
			orderBody = r.PostForm
		}
		okEnvelope(w)
	})

	_, err := client.Trade().FuturesLongWithTPSL(context.Background(), "BTC-USDT", 100, 10, 100, 5, 5)
	require.NoError(t, err)

	assert.Equal(t, "95", orderBody.Get("stopLoss"))
	assert.Equal(t, "105", orderBody.Get("takeProfit"))
}

func TestSpotMarketBuyHelper(t *testing.T) {
	var path string
	var body url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, r.ParseForm())
		body = r.PostForm
		okEnvelope(w)
	})

	_, err := client.Trade().SpotMarketBuy(context.Background(), "BTC-USDT", 0.25)
	require.NoError(t, err)

	assert.Equal(t, "/openApi/swap/v2/trade/order", path)
	assert.Equal(t, "BUY", body.Get("side"))
	assert.Equal(t, "MARKET", body.Get("type"))
	assert.Equal(t, "0.25", body.Get("quantity"))
	assert.Empty(t, body.Get("positionSide"))
}
