package rest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AuthenticationError indicates the exchange rejected the request credentials
// or signature. Callers should re-check their API key configuration before
// retrying.
type AuthenticationError struct {
	Code    int64
	Message string
	Raw     json.RawMessage
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed (code %d): %s", e.Code, e.Message)
}

// RateLimitError indicates the request budget is exhausted. The condition is
// transient; callers may retry later.
type RateLimitError struct {
	Code    int64
	Message string
	Raw     json.RawMessage
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (code %d): %s", e.Code, e.Message)
}

// InsufficientBalanceError indicates the account cannot fund the requested
// operation. Retrying without changing the economic conditions will not help.
type InsufficientBalanceError struct {
	Code    int64
	Message string
	Raw     json.RawMessage
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance (code %d): %s", e.Code, e.Message)
}

// APIError is any other non-zero application-level error code returned by the
// exchange, with code and message preserved verbatim.
type APIError struct {
	Code    int64
	Message string
	Raw     json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// TransportError wraps failures below the application protocol: connection
// errors, timeouts, and non-2xx HTTP statuses. Status is zero when the request
// never produced a response.
type TransportError struct {
	Status  int
	Message string
	Raw     json.RawMessage
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("transport error: %s", e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError indicates the response body was not the structured
// JSON value the API promises. Raw carries the body text for diagnostics.
type MalformedResponseError struct {
	Raw string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed API response: %q", truncate(e.Raw, 256))
}

// ValidationError aggregates local validation failures; it is produced by the
// order builder before any network call. Messages always carries the complete
// accumulated list, never just the first problem.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid order: " + strings.Join(e.Messages, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ErrorKind labels the classification buckets used by the code table.
type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindAuthentication
	KindRateLimit
	KindInsufficientBalance
)

// CodeTable maps exchange error codes to error kinds. The exact codes are
// exchange-defined configuration data, not logic: supplying a different table
// adapts the classifier to another API variant without code changes.
type CodeTable map[int64]ErrorKind

// DefaultCodeTable returns the BingX open API mapping.
func DefaultCodeTable() CodeTable {
	return CodeTable{
		100001: KindAuthentication,
		100002: KindAuthentication,
		100003: KindAuthentication,
		100004: KindAuthentication,
		100005: KindRateLimit,
		200001: KindInsufficientBalance,
	}
}

// Classifier maps decoded API error responses to typed errors.
type Classifier struct {
	table CodeTable
}

// NewClassifier creates a Classifier using the given table; a nil table means
// the BingX defaults.
func NewClassifier(table CodeTable) *Classifier {
	if table == nil {
		table = DefaultCodeTable()
	}
	return &Classifier{table: table}
}

// Classify turns a non-zero error code into the corresponding typed error.
// A zero code is the success sentinel and yields nil. Unrecognized codes map
// to *APIError with code and message preserved verbatim.
func (c *Classifier) Classify(code int64, message string, raw json.RawMessage) error {
	if code == 0 {
		return nil
	}

	switch c.table[code] {
	case KindAuthentication:
		return &AuthenticationError{Code: code, Message: message, Raw: raw}
	case KindRateLimit:
		return &RateLimitError{Code: code, Message: message, Raw: raw}
	case KindInsufficientBalance:
		return &InsufficientBalanceError{Code: code, Message: message, Raw: raw}
	default:
		return &APIError{Code: code, Message: message, Raw: raw}
	}
}
