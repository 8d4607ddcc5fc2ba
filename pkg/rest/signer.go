// Package rest implements the signed REST pipeline for the BingX open API:
// canonical query construction, HMAC-SHA256 request signing, the typed API
// error taxonomy and the HTTP gateway that ties them together.
package rest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// SignatureEncoding selects how the HMAC digest is rendered on the wire.
type SignatureEncoding string

const (
	// EncodingHex renders the digest as lowercase hexadecimal.
	EncodingHex SignatureEncoding = "hex"
	// EncodingBase64 renders the raw digest bytes as standard base64.
	EncodingBase64 SignatureEncoding = "base64"
)

// Params is an unordered mapping of request parameter names to string values.
// Insertion order is irrelevant: the canonical form sorts by key before
// serialization, so two Params with equal contents always sign identically.
type Params map[string]string

// Set stores a string value.
func (p Params) Set(key, value string) { p[key] = value }

// SetInt stores an integer value.
func (p Params) SetInt(key string, value int64) {
	p[key] = strconv.FormatInt(value, 10)
}

// SetFloat stores a float value using the shortest representation that
// round-trips, matching how the exchange expects quantities and prices.
func (p Params) SetFloat(key string, value float64) {
	p[key] = strconv.FormatFloat(value, 'f', -1, 64)
}

// SetBool stores a boolean value as "true"/"false".
func (p Params) SetBool(key string, value bool) {
	p[key] = strconv.FormatBool(value)
}

// Clone returns a shallow copy of the parameter map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// CanonicalQuery serializes params into the canonical form the signature is
// computed over: keys sorted ascending, values percent-encoded per RFC 3986
// (space encodes to %20, never +), pairs joined as key=value with '&'.
// A nil or empty map canonicalizes to the empty string.
func CanonicalQuery(params Params) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(params[k]))
	}
	return b.String()
}

// escape percent-encodes per RFC 3986. url.QueryEscape follows the HTML form
// convention of encoding spaces as '+', which the exchange rejects.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Signer produces request signatures over canonical query strings.
// It is stateless apart from the secret and encoding and is safe for
// concurrent use.
type Signer struct {
	secret   string
	encoding SignatureEncoding
}

// NewSigner creates a Signer. An empty secret is accepted here; credential
// validation belongs to the configuration layer.
func NewSigner(secret string, encoding SignatureEncoding) *Signer {
	return &Signer{secret: secret, encoding: encoding}
}

// Sign canonicalizes params and returns the HMAC-SHA256 signature in the
// configured encoding. Pure function of its inputs: identical parameter
// contents always yield an identical signature.
func (s *Signer) Sign(params Params) string {
	return s.SignString(CanonicalQuery(params))
}

// SignString signs an already-canonical payload.
func (s *Signer) SignString(payload string) string {
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write([]byte(payload))
	digest := mac.Sum(nil)

	if s.encoding == EncodingBase64 {
		return base64.StdEncoding.EncodeToString(digest)
	}
	return hex.EncodeToString(digest)
}
