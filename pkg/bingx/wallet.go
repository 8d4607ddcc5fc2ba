package bingx

import (
	"context"
	"encoding/json"

	"github.com/veiloq/bingx-connector/pkg/rest"
)

// WalletService covers deposits, withdrawals and asset transfers.
type WalletService struct {
	client *rest.Client
}

// DepositAddress returns the deposit address list for a coin.
func (s *WalletService) DepositAddress(ctx context.Context, coin string) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/wallets/v1/capital/deposit/address", rest.Params{
		"coin": coin,
	})
}

// DepositRecords returns the deposit history for a coin; an empty coin
// returns all records.
func (s *WalletService) DepositRecords(ctx context.Context, coin string, limit int) (json.RawMessage, error) {
	p := rest.Params{}
	if coin != "" {
		p.Set("coin", coin)
	}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/api/v3/capital/deposit/hisrec", p)
}

// WithdrawRecords returns the withdrawal history for a coin; an empty coin
// returns all records.
func (s *WalletService) WithdrawRecords(ctx context.Context, coin string, limit int) (json.RawMessage, error) {
	p := rest.Params{}
	if coin != "" {
		p.Set("coin", coin)
	}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/api/v3/capital/withdraw/history", p)
}

// WithdrawRequest describes an on-chain withdrawal.
type WithdrawRequest struct {
	Coin            string
	Network         string
	Address         string
	AddressTag      string
	Amount          float64
	WalletType      int
	WithdrawOrderID string
}

// Withdraw submits an on-chain withdrawal.
func (s *WalletService) Withdraw(ctx context.Context, req WithdrawRequest) (json.RawMessage, error) {
	p := rest.Params{
		"coin":    req.Coin,
		"address": req.Address,
	}
	p.SetFloat("amount", req.Amount)
	p.SetInt("walletType", int64(req.WalletType))
	if req.Network != "" {
		p.Set("network", req.Network)
	}
	if req.AddressTag != "" {
		p.Set("addressTag", req.AddressTag)
	}
	if req.WithdrawOrderID != "" {
		p.Set("withdrawOrderId", req.WithdrawOrderID)
	}
	return s.client.Post(ctx, "/openApi/wallets/v1/capital/withdraw/apply", p)
}

// Transfer moves an asset between account types, such as fund to perpetual.
// The transfer type string follows the API's FUND_PFUTURES style constants.
func (s *WalletService) Transfer(ctx context.Context, transferType, asset string, amount float64) (json.RawMessage, error) {
	p := rest.Params{
		"type":  transferType,
		"asset": asset,
	}
	p.SetFloat("amount", amount)
	return s.client.Post(ctx, "/openApi/api/v3/post/asset/transfer", p)
}

// TransferRecords returns internal transfer history for a transfer type.
func (s *WalletService) TransferRecords(ctx context.Context, transferType string, limit int) (json.RawMessage, error) {
	p := rest.Params{
		"type": transferType,
	}
	if limit > 0 {
		p.SetInt("size", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/api/v3/asset/transfer", p)
}

// CurrencyConfig returns the supported coins and their network settings.
func (s *WalletService) CurrencyConfig(ctx context.Context, coin string) (json.RawMessage, error) {
	p := rest.Params{}
	if coin != "" {
		p.Set("coin", coin)
	}
	return s.client.Get(ctx, "/openApi/wallets/v1/capital/config/getall", p)
}
