package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("BINGX_API_KEY", "test-key")
	t.Setenv("BINGX_API_SECRET", "test-secret")
	t.Setenv("BINGX_SOURCE_KEY", "broker-1")
	t.Setenv("BINGX_SIGNATURE_ENCODING", "BASE64")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, "test-secret", cfg.APISecret)
	assert.Equal(t, "broker-1", cfg.SourceKey)
	assert.Equal(t, EncodingBase64, cfg.SignatureEncoding)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultSwapStreamURL, cfg.StreamURL)
}

func TestFromEnvInvalidEncoding(t *testing.T) {
	t.Setenv("BINGX_SIGNATURE_ENCODING", "md5")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature encoding")
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bingx.yaml")
	data := []byte(`
api_key: file-key
api_secret: file-secret
base_url: https://open-api-vst.bingx.com
signature_encoding: base64
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := FromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, "file-secret", cfg.APISecret)
	assert.Equal(t, "https://open-api-vst.bingx.com", cfg.BaseURL)
	assert.Equal(t, EncodingBase64, cfg.SignatureEncoding)
	// stream URL falls back to the default when the file omits it
	assert.Equal(t, DefaultSwapStreamURL, cfg.StreamURL)
}

func TestFromFileEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bingx.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: file-key\n"), 0o600))

	t.Setenv("BINGX_API_KEY", "env-key")

	cfg, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey, "environment must win over file values")
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
