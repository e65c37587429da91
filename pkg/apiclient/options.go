package apiclient

import (
	"net/url"
	"time"

	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

// Config holds the request settings shared by every call of a Client.
// Unset fields leave the transport defaults in place.
type Config struct {
	BaseURL      string
	Params       map[string]string
	Headers      map[string]string
	Auth         AuthStrategy
	Cookies      map[string]string
	Proxies      map[string]string
	TLS          httpclient.TLSConfig
	MaxRedirects int
	Stream       bool
	Timeout      time.Duration
	UserAgent    string
	// ResponseHooks run after the built-in logging observer.
	ResponseHooks []httpclient.Observer
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger injects the logger used for exchange and decode diagnostics.
func WithLogger(log Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithSessionFactory swaps the transport used to open sessions.
func WithSessionFactory(factory httpclient.Factory) Option {
	return func(c *Client) {
		if factory != nil {
			c.factory = factory
		}
	}
}

// RequestOption adjusts a single call.
type RequestOption func(*httpclient.Request)

// WithParams merges query parameters into the call.
func WithParams(params url.Values) RequestOption {
	return func(r *httpclient.Request) {
		if r.Params == nil {
			r.Params = url.Values{}
		}
		for k, vs := range params {
			for _, v := range vs {
				r.Params.Add(k, v)
			}
		}
	}
}

// WithParam adds one query parameter.
func WithParam(key, value string) RequestOption {
	return WithParams(url.Values{key: []string{value}})
}

// WithHeaders sets per-call headers over the session defaults.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *httpclient.Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			r.Headers[k] = v
		}
	}
}

// WithHeader sets one per-call header.
func WithHeader(key, value string) RequestOption {
	return WithHeaders(map[string]string{key: value})
}

// WithData sends a form (map[string]string, url.Values) or a raw body
// (string, []byte, io.Reader). Data takes precedence over WithJSON.
func WithData(data any) RequestOption {
	return func(r *httpclient.Request) { r.Data = data }
}

// WithJSON sends v encoded as JSON.
func WithJSON(v any) RequestOption {
	return func(r *httpclient.Request) { r.JSON = v }
}

// WithTimeout bounds this call, including reading the body.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *httpclient.Request) { r.Timeout = d }
}

// WithoutRedirects returns redirect responses instead of following them.
func WithoutRedirects() RequestOption {
	return func(r *httpclient.Request) { r.NoRedirect = true }
}
