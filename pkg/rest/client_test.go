package rest

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.Credentials = Credentials{
		APIKey:    "test-key",
		APISecret: "test-secret",
		Encoding:  EncodingHex,
	}
	cfg.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	return NewClient(cfg), server
}

func TestRequestSignsAndSendsHeaders(t *testing.T) {
	var gotQuery url.Values
	var gotHeader http.Header

	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotHeader = r.Header.Clone()
		w.Write([]byte(`{"code":0,"msg":"","data":{"ok":true}}`))
	})

	params := Params{"symbol": "BTC-USDT"}
	_, err := client.Get(context.Background(), "/openApi/swap/v2/market/depth", params)
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotHeader.Get("X-BX-APIKEY"))
	assert.Empty(t, gotHeader.Get("X-SOURCE-KEY"))
	assert.Equal(t, "BTC-USDT", gotQuery.Get("symbol"))
	assert.Equal(t, "1700000000000", gotQuery.Get("timestamp"), "timestamp stamped from injected clock")

	// Recompute the signature the way the server side would
	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write([]byte("symbol=BTC-USDT&timestamp=1700000000000"))
	want := hex.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, gotQuery.Get("signature"))
}

func TestRequestSourceKeyHeader(t *testing.T) {
	var gotHeader http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		w.Write([]byte(`{"code":0}`))
	}))
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.Credentials = Credentials{APIKey: "k", APISecret: "s", SourceKey: "broker-7"}
	client := NewClient(cfg)

	_, err := client.Get(context.Background(), "/openApi/swap/v2/user/balance", nil)
	require.NoError(t, err)
	assert.Equal(t, "broker-7", gotHeader.Get("X-SOURCE-KEY"))
}

func TestRequestPostUsesFormBody(t *testing.T) {
	var gotBody string
	var gotContentType string

	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
		assert.Empty(t, r.URL.RawQuery, "POST must not carry signed params in the query string")
		w.Write([]byte(`{"code":0,"msg":"","data":{"orderId":1}}`))
	})

	params := Params{"symbol": "BTC-USDT", "side": "BUY"}
	_, err := client.Post(context.Background(), "/openApi/swap/v2/trade/order", params)
	require.NoError(t, err)

	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)

	form, err := url.ParseQuery(gotBody)
	require.NoError(t, err)
	assert.Equal(t, "BTC-USDT", form.Get("symbol"))
	assert.Equal(t, "BUY", form.Get("side"))
	assert.NotEmpty(t, form.Get("signature"))
}

func TestRequestDoesNotMutateCallerParams(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0}`))
	})

	params := Params{"symbol": "BTC-USDT"}
	_, err := client.Get(context.Background(), "/path", params)
	require.NoError(t, err)

	_, hasTimestamp := params["timestamp"]
	assert.False(t, hasTimestamp, "timestamp must be stamped on a copy")
	_, hasSignature := params["signature"]
	assert.False(t, hasSignature)
}

func TestRequestClassifiesAPIErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want interface{}
	}{
		{"authentication", `{"code":100001,"msg":"signature verification failed"}`, &AuthenticationError{}},
		{"rate limit", `{"code":100005,"msg":"too many requests"}`, &RateLimitError{}},
		{"insufficient balance", `{"code":200001,"msg":"insufficient margin"}`, &InsufficientBalanceError{}},
		{"generic", `{"code":80012,"msg":"service unavailable"}`, &APIError{}},
		{"string code", `{"code":"100005","msg":"too many requests"}`, &RateLimitError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			_, err := client.Get(context.Background(), "/path", nil)
			require.Error(t, err)
			assert.IsType(t, tt.want, err)
		})
	}
}

func TestRequestSuccessCodeZero(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"msg":"","data":{"balance":"100.0"}}`))
	})

	body, err := client.Get(context.Background(), "/path", nil)
	require.NoError(t, err)

	var envelope struct {
		Data struct {
			Balance string `json:"balance"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, "100.0", envelope.Data.Balance)
}

func TestRequestMissingCodeIsSuccess(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"serverTime":1700000000000}`))
	})

	_, err := client.Get(context.Background(), "/path", nil)
	assert.NoError(t, err)
}

func TestRequestMalformedResponse(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway error</html>`))
	})

	_, err := client.Get(context.Background(), "/path", nil)
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Raw, "gateway error")
}

func TestRequestHTTPStatusError(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"code":80012,"msg":"maintenance"}`))
	})

	_, err := client.Get(context.Background(), "/path", nil)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusServiceUnavailable, terr.Status)
	assert.Contains(t, terr.Message, "maintenance")
	assert.NotNil(t, terr.Raw)
}

func TestRequestConnectionRefused(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "http://127.0.0.1:1" // nothing listens here
	cfg.Timeout = 2 * time.Second
	client := NewClient(cfg)

	_, err := client.Get(context.Background(), "/path", nil)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Zero(t, terr.Status)
}

func TestRequestNoInternalRetry(t *testing.T) {
	calls := 0
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Get(context.Background(), "/path", nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "gateway must perform exactly one network call per invocation")
}

func TestRequestExplicitTimestampPreserved(t *testing.T) {
	var gotQuery url.Values
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"code":0}`))
	})

	params := Params{"timestamp": "1234567890123"}
	_, err := client.Get(context.Background(), "/path", params)
	require.NoError(t, err)
	assert.Equal(t, "1234567890123", gotQuery.Get("timestamp"))
}
