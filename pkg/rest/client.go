package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/veiloq/bingx-connector/pkg/logging"
	"github.com/veiloq/bingx-connector/pkg/ratelimit"
)

// Credentials authenticate requests against the exchange. APISecret is never
// transmitted; it is used only as the HMAC key. Credentials are immutable once
// the client is constructed.
type Credentials struct {
	APIKey    string
	APISecret string
	// SourceKey identifies a broker/source program; sent as the X-SOURCE-KEY
	// header when non-empty.
	SourceKey string
	Encoding  SignatureEncoding
}

// ClientConfig holds configuration for the REST client.
type ClientConfig struct {
	Credentials Credentials
	BaseURL     string

	// ConnectTimeout bounds connection establishment; Timeout bounds the whole
	// request including body read.
	ConnectTimeout time.Duration
	Timeout        time.Duration

	RateLimit ratelimit.Rate

	// Codes overrides the error-code classification table; nil means the
	// BingX defaults.
	Codes CodeTable

	// Now supplies request timestamps; nil means time.Now. Injected so tests
	// can sign with deterministic time.
	Now func() time.Time

	// HTTPClient overrides the underlying transport; mainly for tests.
	HTTPClient *http.Client

	Logger logging.Logger
}

// DefaultConfig returns a client configuration with the exchange's documented
// timeouts and a conservative request rate.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:        "https://open-api.bingx.com",
		ConnectTimeout: 10 * time.Second,
		Timeout:        30 * time.Second,
		RateLimit: ratelimit.Rate{
			Limit:    10,
			Interval: time.Second,
		},
		Logger: logging.NewLogger(),
	}
}

// Client is the HTTP gateway for signed REST calls. It performs exactly one
// network call per Request invocation: no internal retries, caching or
// deduplication. Credentials are immutable, so a single Client is safe for
// concurrent use by independent callers.
type Client struct {
	creds      Credentials
	baseURL    string
	httpClient *http.Client
	signer     *Signer
	classifier *Classifier
	limiter    ratelimit.RateLimiter
	logger     logging.Logger
	now        func() time.Time
}

// NewClient creates a REST client from the given configuration. A nil config
// selects DefaultConfig (no credentials, public endpoints only).
func NewClient(cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	base := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = base.BaseURL
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = base.ConnectTimeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = base.Timeout
	}
	if cfg.RateLimit.Limit <= 0 {
		cfg.RateLimit = base.RateLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Credentials.Encoding == "" {
		cfg.Credentials.Encoding = EncodingHex
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: cfg.ConnectTimeout,
				}).DialContext,
				TLSHandshakeTimeout: cfg.ConnectTimeout,
			},
		}
	}

	return &Client{
		creds:      cfg.Credentials,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		signer:     NewSigner(cfg.Credentials.APISecret, cfg.Credentials.Encoding),
		classifier: NewClassifier(cfg.Codes),
		limiter:    ratelimit.NewTokenBucketLimiter(cfg.RateLimit),
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
}

// BaseURL returns the configured API endpoint.
func (c *Client) BaseURL() string { return c.baseURL }

// APIKey returns the configured API key.
func (c *Client) APIKey() string { return c.creds.APIKey }

// Request performs one signed request/response cycle and returns the decoded
// response body. The caller's params map is not mutated; a timestamp in epoch
// milliseconds is stamped onto the request if absent. GET requests carry the
// signed parameters in the query string, every other verb carries them in a
// form-encoded body.
//
// Failures surface synchronously as the typed errors of this package:
// *TransportError for network and HTTP-status failures,
// *MalformedResponseError for undecodable bodies, and the classified
// *AuthenticationError / *RateLimitError / *InsufficientBalanceError /
// *APIError for application-level error codes.
func (c *Client) Request(ctx context.Context, method, path string, params Params) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Message: err.Error(), Err: err}
	}

	signed := params.Clone()
	if signed == nil {
		signed = Params{}
	}
	if _, ok := signed["timestamp"]; !ok {
		signed.SetInt("timestamp", c.now().UnixMilli())
	}

	// The signature covers the canonical form of every parameter; appending it
	// afterwards keeps it out of its own input.
	signature := c.signer.Sign(signed)
	encoded := CanonicalQuery(signed) + "&signature=" + escape(signature)

	method = strings.ToUpper(method)
	var req *http.Request
	var err error
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+encoded, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, strings.NewReader(encoded))
	}
	if err != nil {
		return nil, &TransportError{Message: fmt.Sprintf("building request: %v", err), Err: err}
	}

	req.Header.Set("X-BX-APIKEY", c.creds.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.creds.SourceKey != "" {
		req.Header.Set("X-SOURCE-KEY", c.creds.SourceKey)
	}

	c.logger.Debug("api request",
		logging.String("method", method),
		logging.String("path", path),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Status: resp.StatusCode, Message: fmt.Sprintf("reading response body: %v", err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		terr := &TransportError{
			Status:  resp.StatusCode,
			Message: http.StatusText(resp.StatusCode),
		}
		// Carry the decoded error body when the server sent one
		if json.Valid(body) {
			terr.Raw = json.RawMessage(body)
			if code, msg, ok := decodeEnvelope(body); ok && msg != "" {
				terr.Message = fmt.Sprintf("%s (code %d)", msg, code)
			}
		}
		c.logger.Warn("api request failed",
			logging.String("method", method),
			logging.String("path", path),
			logging.Int("status", resp.StatusCode),
		)
		return nil, terr
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, &MalformedResponseError{Raw: string(body)}
	}

	code, msg, _ := decodeEnvelope(body)
	if err := c.classifier.Classify(code, msg, body); err != nil {
		return nil, err
	}

	return body, nil
}

// Get issues a signed GET request.
func (c *Client) Get(ctx context.Context, path string, params Params) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, path, params)
}

// Post issues a signed POST request with form-encoded parameters.
func (c *Client) Post(ctx context.Context, path string, params Params) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPost, path, params)
}

// decodeEnvelope extracts the code/msg pair from a response body. The exchange
// emits codes both as JSON numbers and as strings depending on the endpoint.
func decodeEnvelope(body []byte) (code int64, msg string, ok bool) {
	var envelope struct {
		Code json.RawMessage `json:"code"`
		Msg  string          `json:"msg"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0, "", false
	}
	if envelope.Code == nil {
		return 0, envelope.Msg, true
	}

	raw := strings.Trim(string(envelope.Code), `"`)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, envelope.Msg, false
	}
	return n, envelope.Msg, true
}
