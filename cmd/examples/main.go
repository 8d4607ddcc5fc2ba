package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/veiloq/bingx-connector/pkg/bingx"
	"github.com/veiloq/bingx-connector/pkg/config"
	"github.com/veiloq/bingx-connector/pkg/logging"
	"github.com/veiloq/bingx-connector/pkg/websocket"
)

func main() {
	logger := logging.NewLogger()
	logger.SetLevel(logging.DEBUG)

	// Credentials come from BINGX_* environment variables or a .env file;
	// public endpoints work without them
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("failed to load configuration", logging.Error(err))
		os.Exit(1)
	}

	client := bingx.NewFromConfig(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Market data
	logger.Info("fetching server time")
	serverTime, err := client.Market().ServerTime(ctx)
	if err != nil {
		logger.Error("failed to get server time", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("server time", logging.Int64("epoch_ms", serverTime))

	ticker, err := client.Market().LatestPrice(ctx, "BTC-USDT")
	if err != nil {
		logger.Error("failed to get price", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("latest price",
		logging.String("symbol", ticker.Symbol),
		logging.String("price", ticker.Price),
	)

	depth, err := client.Market().Depth(ctx, "BTC-USDT", 5)
	if err != nil {
		logger.Error("failed to get depth", logging.Error(err))
		os.Exit(1)
	}
	if len(depth.Bids) > 0 && len(depth.Asks) > 0 {
		logger.Info("order book top",
			logging.String("best_bid", depth.Bids[0][0]),
			logging.String("best_ask", depth.Asks[0][0]),
		)
	}

	// Commission estimate for a 100 USDT margin position at 10x
	commission := client.Trade().CalculateFuturesCommission(100, 10)
	logger.Info("commission estimate",
		logging.Float64("position_value", commission.PositionValue),
		logging.Float64("commission", commission.Commission),
		logging.Float64("net_position_value", commission.NetPositionValue),
	)

	// Assemble an order without sending it
	orderData, err := client.Trade().Order().
		Futures().
		Symbol("BTC-USDT").
		Buy().
		Long().
		Type(bingx.OrderLimit).
		Price(43000).
		Margin(100).
		Leverage(10).
		StopLossPercent(5).
		TakeProfitPercent(10).
		GetOrderData()
	if err != nil {
		logger.Error("order draft invalid", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("order draft",
		logging.String("stop_loss", orderData["stopLoss"]),
		logging.String("take_profit", orderData["takeProfit"]),
	)

	// Stream live trades
	logger.Info("connecting market stream")
	stream := websocket.NewMarketStream(websocket.Config{
		URL:    cfg.StreamURL,
		Logger: logger,
	})
	if err := stream.Connect(ctx); err != nil {
		logger.Error("failed to connect stream", logging.Error(err))
		os.Exit(1)
	}
	defer stream.Close()

	err = stream.SubscribeTrade("BTC-USDT", func(msg []byte) {
		logger.Info("trade", logging.String("payload", string(msg)))
	})
	if err != nil {
		logger.Error("failed to subscribe", logging.Error(err))
		os.Exit(1)
	}

	logger.Info("streaming; press Ctrl+C to exit")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")
}
