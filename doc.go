// Package bingxconnector provides a typed Go client for the BingX exchange:
// signed REST access to spot and perpetual futures markets, a fluent order
// builder with local validation, and WebSocket streaming for market data and
// private account events.
//
// Core Features:
//
//   - HMAC-SHA256 request signing with canonical parameter ordering
//   - Typed error taxonomy: authentication, rate limit, insufficient balance
//     and generic API errors, classified from the exchange's error codes
//   - Fluent order builder that accumulates validation errors across the
//     chain and reports all of them at once
//   - Percentage-based stop-loss/take-profit derived into absolute prices
//     at submission time
//   - Market, account, trade, wallet, sub-account, copy trading and
//     coin-margined service facades
//   - WebSocket market and account streams with gzip inflation, keepalive
//     and automatic reconnection with resubscription
//   - Rate limiting protection on every REST call
//
// The entry point is the bingx package:
//
//	cfg := rest.DefaultConfig()
//	cfg.Credentials = rest.Credentials{
//	    APIKey:    os.Getenv("BINGX_API_KEY"),
//	    APISecret: os.Getenv("BINGX_API_SECRET"),
//	}
//	client := bingx.New(cfg)
//
// Fetching market data:
//
//	ticker, err := client.Market().LatestPrice(ctx, "BTC-USDT")
//	if err != nil {
//	    log.Fatalf("failed to get price: %v", err)
//	}
//	fmt.Printf("BTC-USDT: %s\n", ticker.Price)
//
// Placing a futures order through the builder:
//
//	result, err := client.Trade().Order().
//	    Futures().
//	    Symbol("BTC-USDT").
//	    Buy().
//	    Long().
//	    Type(bingx.OrderLimit).
//	    Price(43000).
//	    Margin(100).
//	    Leverage(10).
//	    StopLossPercent(5).
//	    TakeProfitPercent(10).
//	    Execute(ctx)
//
// Error handling follows the taxonomy of the rest package:
//
//	if err != nil {
//	    var verr *rest.ValidationError
//	    var aerr *rest.AuthenticationError
//	    var rerr *rest.RateLimitError
//	    switch {
//	    case errors.As(err, &verr):
//	        log.Fatalf("order rejected locally: %v", verr)
//	    case errors.As(err, &aerr):
//	        log.Fatalf("check API credentials: %v", aerr)
//	    case errors.As(err, &rerr):
//	        log.Fatalf("rate limited: %v", rerr)
//	    default:
//	        log.Fatalf("order failed: %v", err)
//	    }
//	}
//
// Streaming market data:
//
//	stream := websocket.NewMarketStream(websocket.Config{
//	    URL: config.DefaultSwapStreamURL,
//	})
//	if err := stream.Connect(ctx); err != nil {
//	    log.Fatalf("failed to connect: %v", err)
//	}
//	defer stream.Close()
//
//	stream.SubscribeTrade("BTC-USDT", func(msg []byte) {
//	    fmt.Printf("trade: %s\n", msg)
//	})
//
// Private account events ride on a listen key obtained over REST:
//
//	key, err := client.ListenKey().Generate(ctx)
//	if err != nil {
//	    log.Fatalf("failed to generate listen key: %v", err)
//	}
//	account := websocket.NewAccountStream(websocket.Config{
//	    URL: config.DefaultSwapStreamURL,
//	}, key.ListenKey, client.ListenKey())
//	account.OnOrderUpdate(func(msg []byte) {
//	    fmt.Printf("order update: %s\n", msg)
//	})
//	if err := account.Connect(ctx); err != nil {
//	    log.Fatalf("failed to connect account stream: %v", err)
//	}
package bingxconnector
