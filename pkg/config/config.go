// Package config loads the externally supplied connector configuration:
// API credentials, base endpoints and the signature encoding mode. Values come
// from a YAML file, from environment variables, or both (environment wins).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Signature encoding modes accepted by the exchange.
const (
	EncodingHex    = "hex"
	EncodingBase64 = "base64"
)

// Default endpoints.
const (
	DefaultBaseURL         = "https://open-api.bingx.com"
	DefaultSwapStreamURL   = "wss://open-api-swap.bingx.com/swap-market"
	DefaultMarketStreamURL = "wss://open-api-ws.bingx.com/market"
)

// Config holds the connector configuration surface.
type Config struct {
	APIKey            string `yaml:"api_key"`
	APISecret         string `yaml:"api_secret"`
	SourceKey         string `yaml:"source_key"`
	BaseURL           string `yaml:"base_url"`
	StreamURL         string `yaml:"stream_url"`
	SignatureEncoding string `yaml:"signature_encoding"`
}

// New returns a Config with defaults applied and no credentials.
func New() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		StreamURL:         DefaultSwapStreamURL,
		SignatureEncoding: EncodingHex,
	}
}

// FromEnv builds a Config from BINGX_* environment variables. If a .env file
// exists in the working directory it is loaded first; variables already set in
// the process environment are not overridden.
func FromEnv() (*Config, error) {
	// Missing .env files are fine; explicit load errors are not
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	cfg := New()
	cfg.APIKey = os.Getenv("BINGX_API_KEY")
	cfg.APISecret = os.Getenv("BINGX_API_SECRET")
	cfg.SourceKey = os.Getenv("BINGX_SOURCE_KEY")

	if v := os.Getenv("BINGX_BASE_URI"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("BINGX_STREAM_URI"); v != "" {
		cfg.StreamURL = v
	}
	if v := os.Getenv("BINGX_SIGNATURE_ENCODING"); v != "" {
		cfg.SignatureEncoding = strings.ToLower(v)
	}

	return cfg, cfg.Validate()
}

// FromFile builds a Config from a YAML file, then applies BINGX_* environment
// overrides on top.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.StreamURL == "" {
		cfg.StreamURL = DefaultSwapStreamURL
	}
	if cfg.SignatureEncoding == "" {
		cfg.SignatureEncoding = EncodingHex
	}

	if v := os.Getenv("BINGX_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("BINGX_API_SECRET"); v != "" {
		cfg.APISecret = v
	}
	if v := os.Getenv("BINGX_SOURCE_KEY"); v != "" {
		cfg.SourceKey = v
	}
	if v := os.Getenv("BINGX_BASE_URI"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("BINGX_SIGNATURE_ENCODING"); v != "" {
		cfg.SignatureEncoding = strings.ToLower(v)
	}

	return cfg, cfg.Validate()
}

// Validate checks the configured values that have a closed domain.
// Empty credentials are allowed; public market endpoints work without them.
func (c *Config) Validate() error {
	switch c.SignatureEncoding {
	case EncodingHex, EncodingBase64:
	default:
		return fmt.Errorf("invalid signature encoding %q: must be %q or %q",
			c.SignatureEncoding, EncodingHex, EncodingBase64)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL must not be empty")
	}
	return nil
}
