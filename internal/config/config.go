package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Auth types accepted under auth.type.
const (
	AuthNone  = "none"
	AuthToken = "token"
	AuthBasic = "basic"
)

// Config holds the client configuration loaded from files and environment variables.
type Config struct {
	BaseURL        string        `mapstructure:"base_url"`
	LogLevel       string        `mapstructure:"log_level"`
	TimeoutSeconds float64       `mapstructure:"timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`
	MaxRedirects   int           `mapstructure:"max_redirects"`
	Stream         bool          `mapstructure:"stream"`
	UserAgent      string        `mapstructure:"user_agent"`

	// key=value pairs; lists keep header and cookie name casing intact
	Headers []string `mapstructure:"headers"`
	Params  []string `mapstructure:"params"`
	Cookies []string `mapstructure:"cookies"`
	Proxies []string `mapstructure:"proxies"`

	Auth AuthConfig `mapstructure:"auth"`
	TLS  TLSConfig  `mapstructure:"tls"`
}

type AuthConfig struct {
	Type     string `mapstructure:"type"`
	Token    string `mapstructure:"token"`
	Scheme   string `mapstructure:"scheme"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type TLSConfig struct {
	Verify   bool   `mapstructure:"verify"`
	CABundle string `mapstructure:"ca_bundle"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// Load reads configuration from the optional file at path and APICLIENT_* environment variables.
// The base URL is not required here so that callers can supply it later; see Validate.
func Load(path string) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APICLIENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid timeout_seconds (must not be negative)")
	}
	if cfg.MaxRedirects < 0 {
		return nil, fmt.Errorf("invalid max_redirects (must not be negative)")
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds * float64(time.Second))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.Auth.Type = strings.ToLower(strings.TrimSpace(cfg.Auth.Type))

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("timeout_seconds", 30)
	v.SetDefault("max_redirects", 0)
	v.SetDefault("stream", false)
	v.SetDefault("user_agent", "")
	v.SetDefault("headers", []string{})
	v.SetDefault("params", []string{})
	v.SetDefault("cookies", []string{})
	v.SetDefault("proxies", []string{})

	v.SetDefault("auth.type", AuthNone)
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.scheme", "Bearer")
	v.SetDefault("auth.username", "")
	v.SetDefault("auth.password", "")

	v.SetDefault("tls.verify", true)
	v.SetDefault("tls.ca_bundle", "")
	v.SetDefault("tls.cert_file", "")
	v.SetDefault("tls.key_file", "")
}

// Validate checks the settings needed before a client can be built.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base_url is required")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	switch c.Auth.Type {
	case "", AuthNone:
	case AuthToken:
		if c.Auth.Token == "" {
			return errors.New("auth.token is required for token auth")
		}
	case AuthBasic:
		if c.Auth.Username == "" {
			return errors.New("auth.username is required for basic auth")
		}
	default:
		return fmt.Errorf("invalid auth.type: %s", c.Auth.Type)
	}

	for name, pairs := range map[string][]string{
		"headers": c.Headers,
		"params":  c.Params,
		"cookies": c.Cookies,
		"proxies": c.Proxies,
	} {
		if _, err := ParsePairs(pairs); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// ParsePairs turns "key=value" entries into a map. Later keys win.
func ParsePairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}
