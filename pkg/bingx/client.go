// Package bingx exposes the BingX open API as typed service facades over the
// signed REST gateway: market data, account state, trading (including the
// fluent order builder), wallet, sub-account, copy trading, perpetual contract
// queries and the listen-key lifecycle for private streams. Coin-margined
// variants live in the nested coinm package.
package bingx

import (
	"time"

	"github.com/veiloq/bingx-connector/pkg/bingx/coinm"
	"github.com/veiloq/bingx-connector/pkg/config"
	"github.com/veiloq/bingx-connector/pkg/rest"
)

// Client aggregates the per-domain service facades. All services share one
// REST gateway, so a single Client is safe for concurrent use.
type Client struct {
	rest *rest.Client
	now  func() time.Time

	market      *MarketService
	account     *AccountService
	trade       *TradeService
	wallet      *WalletService
	subAccount  *SubAccountService
	copyTrading *CopyTradingService
	contract    *ContractService
	spotAccount *SpotAccountService
	listenKey   *ListenKeyService
	coinM       *coinm.Client
}

// New creates a Client from a REST client configuration. A nil configuration
// gives an unauthenticated client restricted to public endpoints.
func New(cfg *rest.ClientConfig) *Client {
	now := time.Now
	if cfg != nil && cfg.Now != nil {
		now = cfg.Now
	}

	gateway := rest.NewClient(cfg)
	c := &Client{
		rest: gateway,
		now:  now,
	}
	c.market = &MarketService{client: gateway}
	c.account = &AccountService{client: gateway}
	c.trade = &TradeService{client: gateway, now: now}
	c.wallet = &WalletService{client: gateway}
	c.subAccount = &SubAccountService{client: gateway}
	c.copyTrading = &CopyTradingService{client: gateway}
	c.contract = &ContractService{client: gateway}
	c.spotAccount = &SpotAccountService{client: gateway}
	c.listenKey = &ListenKeyService{client: gateway}
	c.coinM = coinm.New(gateway)
	return c
}

// NewFromConfig creates a Client from the external configuration surface.
func NewFromConfig(cfg *config.Config) *Client {
	restCfg := rest.DefaultConfig()
	restCfg.BaseURL = cfg.BaseURL
	restCfg.Credentials = rest.Credentials{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		SourceKey: cfg.SourceKey,
		Encoding:  rest.SignatureEncoding(cfg.SignatureEncoding),
	}
	return New(restCfg)
}

// Market returns the market data service.
func (c *Client) Market() *MarketService { return c.market }

// Account returns the account service.
func (c *Client) Account() *AccountService { return c.account }

// Trade returns the trading service.
func (c *Client) Trade() *TradeService { return c.trade }

// Wallet returns the wallet service.
func (c *Client) Wallet() *WalletService { return c.wallet }

// SubAccount returns the sub-account service.
func (c *Client) SubAccount() *SubAccountService { return c.subAccount }

// CopyTrading returns the copy trading service.
func (c *Client) CopyTrading() *CopyTradingService { return c.copyTrading }

// Contract returns the perpetual contract query service.
func (c *Client) Contract() *ContractService { return c.contract }

// SpotAccount returns the spot account service.
func (c *Client) SpotAccount() *SpotAccountService { return c.spotAccount }

// ListenKey returns the listen-key lifecycle service.
func (c *Client) ListenKey() *ListenKeyService { return c.listenKey }

// CoinM returns the coin-margined futures client.
func (c *Client) CoinM() *coinm.Client { return c.coinM }

// Rest returns the underlying REST gateway.
func (c *Client) Rest() *rest.Client { return c.rest }

// Endpoint returns the configured API endpoint.
func (c *Client) Endpoint() string { return c.rest.BaseURL() }
