package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, AuthNone, cfg.Auth.Type)
	assert.Equal(t, "Bearer", cfg.Auth.Scheme)
	assert.True(t, cfg.TLS.Verify)
	assert.False(t, cfg.Stream)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APICLIENT_BASE_URL", "https://api.example.com/")
	t.Setenv("APICLIENT_LOG_LEVEL", "DEBUG")
	t.Setenv("APICLIENT_TIMEOUT_SECONDS", "1.5")
	t.Setenv("APICLIENT_AUTH_TYPE", "token")
	t.Setenv("APICLIENT_AUTH_TOKEN", "abc123")
	t.Setenv("APICLIENT_TLS_VERIFY", "false")
	t.Setenv("APICLIENT_HEADERS", "X-Trace=1,Accept=application/json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/", cfg.BaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, AuthToken, cfg.Auth.Type)
	assert.Equal(t, "abc123", cfg.Auth.Token)
	assert.False(t, cfg.TLS.Verify)
	assert.Equal(t, []string{"X-Trace=1", "Accept=application/json"}, cfg.Headers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
base_url: https://httpbin.org
max_redirects: 3
stream: true
headers:
  - X-Api-Key=secret
cookies:
  - SessionID=xyz
proxies:
  - https=http://proxy:3128
auth:
  type: basic
  username: user
  password: pass
tls:
  ca_bundle: /etc/ssl/custom.pem
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://httpbin.org", cfg.BaseURL)
	assert.Equal(t, 3, cfg.MaxRedirects)
	assert.True(t, cfg.Stream)
	assert.Equal(t, []string{"X-Api-Key=secret"}, cfg.Headers)
	assert.Equal(t, []string{"SessionID=xyz"}, cfg.Cookies)
	assert.Equal(t, AuthBasic, cfg.Auth.Type)
	assert.Equal(t, "user", cfg.Auth.Username)
	assert.Equal(t, "/etc/ssl/custom.pem", cfg.TLS.CABundle)
	assert.True(t, cfg.TLS.Verify)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("APICLIENT_TIMEOUT_SECONDS", "-1")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout_seconds")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{BaseURL: "http://x", LogLevel: "info", Auth: AuthConfig{Type: AuthNone}}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing base url", mutate: func(c *Config) { c.BaseURL = " " }, errMsg: "base_url is required"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, errMsg: "invalid log_level"},
		{name: "token without token", mutate: func(c *Config) { c.Auth.Type = AuthToken }, errMsg: "auth.token"},
		{name: "basic without user", mutate: func(c *Config) { c.Auth.Type = AuthBasic }, errMsg: "auth.username"},
		{name: "unknown auth", mutate: func(c *Config) { c.Auth.Type = "digest" }, errMsg: "invalid auth.type"},
		{name: "bad header pair", mutate: func(c *Config) { c.Headers = []string{"novalue"} }, errMsg: "invalid headers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParsePairs(t *testing.T) {
	got, err := ParsePairs([]string{"a=1", " b = two ", "", "c=x=y", "a=3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "3", "b": "two", "c": "x=y"}, got)

	empty, err := ParsePairs(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = ParsePairs([]string{"=v"})
	assert.Error(t, err)
}
