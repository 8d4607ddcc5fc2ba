package bingx

import (
	"context"
	"net/http"

	"github.com/veiloq/bingx-connector/pkg/rest"
)

const listenKeyPath = "/openApi/user/auth/userDataStream"

// ListenKeyService manages the listen key that authenticates private
// WebSocket streams. A key is valid for about an hour and must be extended
// roughly every thirty minutes to keep the stream alive.
type ListenKeyService struct {
	client *rest.Client
}

// Generate creates a new listen key.
func (s *ListenKeyService) Generate(ctx context.Context) (*ListenKey, error) {
	body, err := s.client.Post(ctx, listenKeyPath, nil)
	if err != nil {
		return nil, err
	}
	var key ListenKey
	if err := unwrapData(body, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// Extend renews the validity window of an existing listen key.
func (s *ListenKeyService) Extend(ctx context.Context, listenKey string) error {
	_, err := s.client.Request(ctx, http.MethodPut, listenKeyPath, rest.Params{
		"listenKey": listenKey,
	})
	return err
}

// Delete invalidates a listen key, closing any stream using it.
func (s *ListenKeyService) Delete(ctx context.Context, listenKey string) error {
	_, err := s.client.Request(ctx, http.MethodDelete, listenKeyPath, rest.Params{
		"listenKey": listenKey,
	})
	return err
}
