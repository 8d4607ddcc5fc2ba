package bingx

import (
	"context"
	"encoding/json"

	"github.com/veiloq/bingx-connector/pkg/rest"
)

// SubAccountService manages sub-accounts from a main account.
type SubAccountService struct {
	client *rest.Client
}

// Create registers a new sub-account under the main account.
func (s *SubAccountService) Create(ctx context.Context, subAccountName, note string) (json.RawMessage, error) {
	p := rest.Params{
		"subAccountString": subAccountName,
	}
	if note != "" {
		p.Set("note", note)
	}
	return s.client.Post(ctx, "/openApi/subAccount/v1/create", p)
}

// List returns the sub-accounts of the main account.
func (s *SubAccountService) List(ctx context.Context, page, limit int) (json.RawMessage, error) {
	p := rest.Params{}
	if page > 0 {
		p.SetInt("page", int64(page))
	}
	if limit > 0 {
		p.SetInt("limit", int64(limit))
	}
	return s.client.Get(ctx, "/openApi/subAccount/v1/list", p)
}

// Assets returns the asset balances of one sub-account.
func (s *SubAccountService) Assets(ctx context.Context, subUID string) (json.RawMessage, error) {
	return s.client.Get(ctx, "/openApi/subAccount/v1/assets", rest.Params{
		"subUid": subUID,
	})
}

// CreateAPIKey issues an API key for a sub-account. Permissions follow the
// API's numeric permission codes.
func (s *SubAccountService) CreateAPIKey(ctx context.Context, subUID, note string, permissions []int) (json.RawMessage, error) {
	encoded, err := json.Marshal(permissions)
	if err != nil {
		return nil, err
	}
	return s.client.Post(ctx, "/openApi/subAccount/v1/apiKey/create", rest.Params{
		"subUid":      subUID,
		"note":        note,
		"permissions": string(encoded),
	})
}

// DeleteAPIKey revokes a sub-account API key.
func (s *SubAccountService) DeleteAPIKey(ctx context.Context, subUID, apiKey string) (json.RawMessage, error) {
	return s.client.Post(ctx, "/openApi/subAccount/v1/apiKey/del", rest.Params{
		"subUid": subUID,
		"apiKey": apiKey,
	})
}

// Freeze enables or disables a sub-account.
func (s *SubAccountService) Freeze(ctx context.Context, subUID string, freeze bool) (json.RawMessage, error) {
	p := rest.Params{
		"subUid": subUID,
	}
	p.SetBool("freeze", freeze)
	return s.client.Post(ctx, "/openApi/subAccount/v1/updateStatus", p)
}

// TransferToSub moves an asset from the main account to a sub-account.
func (s *SubAccountService) TransferToSub(ctx context.Context, subUID, asset string, amount float64) (json.RawMessage, error) {
	p := rest.Params{
		"subUid": subUID,
		"asset":  asset,
	}
	p.SetFloat("amount", amount)
	return s.client.Post(ctx, "/openApi/wallets/v1/capital/subAccountInnerTransfer/apply", p)
}
