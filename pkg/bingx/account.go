package bingx

import (
	"context"
	"encoding/json"

	"github.com/veiloq/bingx-connector/pkg/rest"
)

// AccountService provides perpetual account endpoints. All of them require
// credentials.
type AccountService struct {
	client *rest.Client
}

// Balance returns the perpetual account balance.
func (s *AccountService) Balance(ctx context.Context) (*Balance, error) {
	body, err := s.client.Get(ctx, "/openApi/swap/v2/user/balance", nil)
	if err != nil {
		return nil, err
	}
	var data struct {
		Balance Balance `json:"balance"`
	}
	if err := unwrapData(body, &data); err != nil {
		return nil, err
	}
	return &data.Balance, nil
}

// Positions returns open positions. An empty symbol returns all positions.
func (s *AccountService) Positions(ctx context.Context, symbol string) ([]Position, error) {
	p := rest.Params{}
	if symbol != "" {
		p.Set("symbol", symbol)
	}
	body, err := s.client.Get(ctx, "/openApi/swap/v2/user/positions", p)
	if err != nil {
		return nil, err
	}
	var positions []Position
	if err := unwrapData(body, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// Account returns the full account summary.
func (s *AccountService) Account(ctx context.Context) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/swap/v2/user/account", nil)
}

// MarginMode returns the margin mode configured for a symbol.
func (s *AccountService) MarginMode(ctx context.Context, symbol string) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/swap/v2/user/getMarginMode", rest.Params{"symbol": symbol})
}

// SetMarginMode changes the margin mode for a symbol.
func (s *AccountService) SetMarginMode(ctx context.Context, symbol string, mode MarginType) (json.RawMessage, error) {
	return s.client.Post(ctx, "/openApi/swap/v2/user/setMarginMode", rest.Params{
		"symbol":     symbol,
		"marginType": string(mode),
	})
}

// Leverage returns the leverage configured for a symbol.
func (s *AccountService) Leverage(ctx context.Context, symbol string) (*LeverageInfo, error) {
	body, err := s.client.Get(ctx, "/openApi/swap/v2/trade/leverage", rest.Params{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	var info LeverageInfo
	if err := unwrapData(body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// BalanceHistory returns balance change records for an asset.
func (s *AccountService) BalanceHistory(ctx context.Context, asset string) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/swap/v2/user/balanceHistory", rest.Params{"asset": asset})
}

// CommissionRates returns the account's trading fee rates.
func (s *AccountService) CommissionRates(ctx context.Context, symbol string) (json.RawMessage, error) {
	p := rest.Params{}
	if symbol != "" {
		p.Set("symbol", symbol)
	}
	return s.client.Get(ctx, "/openApi/swap/v2/user/commissionRates", p)
}

// APIPermissions returns the permissions attached to the API key in use.
func (s *AccountService) APIPermissions(ctx context.Context) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/swap/v2/user/apiPermissions", nil)
}

// DepositHistory returns deposit records for the perpetual account.
func (s *AccountService) DepositHistory(ctx context.Context, limit int) (json.RawMessage, error) {
	p := rest.Params{}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/swap/v2/user/depositHistory", p)
}

// WithdrawHistory returns withdrawal records for the perpetual account.
func (s *AccountService) WithdrawHistory(ctx context.Context, limit int) (json.RawMessage, error) {
	p := rest.Params{}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/swap/v2/user/withdrawHistory", p)
}
