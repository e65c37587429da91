package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultMaxRedirects matches net/http's own redirect ceiling.
const DefaultMaxRedirects = 10

// SessionConfig holds the settings applied to every request of a Session.
// Zero values leave the transport default in place.
type SessionConfig struct {
	Params       map[string]string
	Headers      map[string]string
	Auth         Decorator
	Cookies      map[string]string
	Proxies      map[string]string
	TLS          TLSConfig
	MaxRedirects int
	Stream       bool
	Timeout      time.Duration
	UserAgent    string
	Observers    []Observer
}

// TLSConfig controls server verification and the client certificate.
type TLSConfig struct {
	InsecureSkipVerify bool
	// CABundle is a PEM file replacing the system roots.
	CABundle string
	CertFile string
	KeyFile  string
}

func (c SessionConfig) maxRedirects() int {
	if c.MaxRedirects <= 0 {
		return DefaultMaxRedirects
	}
	return c.MaxRedirects
}

func (c SessionConfig) cookies() []*http.Cookie {
	if len(c.Cookies) == 0 {
		return nil
	}
	out := make([]*http.Cookie, 0, len(c.Cookies))
	for name, value := range c.Cookies {
		out = append(out, &http.Cookie{Name: name, Value: value})
	}
	return out
}

// newTransport clones the default transport and applies TLS and proxy settings.
func newTransport(cfg SessionConfig) (*http.Transport, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()

	tlsCfg, err := newTLSConfig(cfg.TLS)
	if err != nil {
		return nil, err
	}
	tr.TLSClientConfig = tlsCfg

	if len(cfg.Proxies) > 0 {
		proxy, err := proxyFunc(cfg.Proxies)
		if err != nil {
			return nil, err
		}
		tr.Proxy = proxy
	}
	return tr, nil
}

func newTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	if path := strings.TrimSpace(cfg.CABundle); path != "" {
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read ca bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("ca bundle %q contains no certificates", path)
		}
		tlsCfg.RootCAs = pool
	}

	certFile := strings.TrimSpace(cfg.CertFile)
	keyFile := strings.TrimSpace(cfg.KeyFile)
	switch {
	case certFile == "" && keyFile == "":
	case certFile == "":
		return nil, fmt.Errorf("client key configured without a certificate")
	default:
		// a combined PEM carries both halves
		if keyFile == "" {
			keyFile = certFile
		}
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	return tlsCfg, nil
}

// proxyFunc selects a proxy by request scheme. The "all" key applies to any
// scheme without its own entry; unmatched requests fall back to the environment.
func proxyFunc(proxies map[string]string) (func(*http.Request) (*url.URL, error), error) {
	parsed := make(map[string]*url.URL, len(proxies))
	for scheme, raw := range proxies {
		key := strings.ToLower(strings.TrimSpace(scheme))
		if key == "" || strings.TrimSpace(raw) == "" {
			continue
		}
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("parse proxy %q: %w", scheme, err)
		}
		parsed[key] = u
	}

	return func(req *http.Request) (*url.URL, error) {
		if u, ok := parsed[strings.ToLower(req.URL.Scheme)]; ok {
			return u, nil
		}
		if u, ok := parsed["all"]; ok {
			return u, nil
		}
		return http.ProxyFromEnvironment(req)
	}, nil
}
