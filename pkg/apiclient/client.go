// Package apiclient is a small client for JSON HTTP APIs. A Client pins a base
// URL and shared request settings, dispatches per-verb calls through a
// transport session, and wraps each response with its decoded JSON object.
//
// Basic usage:
//
//	client, err := apiclient.New(apiclient.Config{BaseURL: "https://httpbin.org"})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	resp, err := client.Get(ctx, "/anything/one")
//
// Or with scoped acquisition:
//
//	err := client.Do(ctx, func(ctx context.Context, c *apiclient.Client) error {
//		_, err := c.Get(ctx, "/anything/one")
//		return err
//	})
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

// Client holds shared request configuration and a lazily opened session.
// It does no internal locking; concurrent use relies on the transport.
type Client struct {
	cfg     Config
	baseURL string
	log     Logger
	factory httpclient.Factory
	session httpclient.Session
}

// New validates cfg and returns a Client with an open session.
func New(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	c := &Client{
		cfg:     cfg,
		baseURL: baseURL,
		factory: restyFactory,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.log = ensureLogger(c.log)

	if err := c.Open(); err != nil {
		return nil, err
	}
	return c, nil
}

func restyFactory(cfg httpclient.SessionConfig) (httpclient.Session, error) {
	session, err := httpclient.NewRestySession(cfg)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// BaseURL returns the base URL without trailing slashes.
func (c *Client) BaseURL() string { return c.baseURL }

// IsOpen reports whether a session is active.
func (c *Client) IsOpen() bool { return c.session != nil }

// Open replaces any active session with a freshly configured one.
// On failure the client is left closed.
func (c *Client) Open() error {
	if err := c.Close(); err != nil {
		return fmt.Errorf("close previous session: %w", err)
	}

	session, err := c.factory(c.sessionConfig())
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	c.session = session
	return nil
}

// Close releases the active session. Closing a closed client is a no-op.
func (c *Client) Close() error {
	if c.session == nil {
		return nil
	}
	session := c.session
	c.session = nil
	return session.Close()
}

// Do opens the session if needed, runs fn, and always closes the session afterwards.
func (c *Client) Do(ctx context.Context, fn func(ctx context.Context, c *Client) error) (err error) {
	if c.session == nil {
		if err := c.Open(); err != nil {
			return err
		}
	}
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close session: %w", cerr)
		}
	}()
	return fn(ctx, c)
}

// Request sends method to the base URL joined with path. Transport errors are returned unchanged.
func (c *Client) Request(ctx context.Context, method, path string, opts ...RequestOption) (*Response, error) {
	if c.session == nil {
		return nil, ErrClientClosed
	}

	req := &httpclient.Request{
		Method: strings.ToUpper(method),
		URL:    joinURL(c.baseURL, path),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(req)
		}
	}

	raw, err := c.session.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return newResponse(raw, c.log, c.cfg.Stream), nil
}

// Get sends a GET request to path.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodGet, path, opts...)
}

// Post sends a POST request to path.
func (c *Client) Post(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPost, path, opts...)
}

// Put sends a PUT request to path.
func (c *Client) Put(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPut, path, opts...)
}

// Patch sends a PATCH request to path.
func (c *Client) Patch(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPatch, path, opts...)
}

// Delete sends a DELETE request to path.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, path, opts...)
}

// Head sends a HEAD request to path.
func (c *Client) Head(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodHead, path, opts...)
}

// Options sends an OPTIONS request to path.
func (c *Client) Options(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodOptions, path, opts...)
}

// joinURL always places exactly one slash between base and path.
func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) sessionConfig() httpclient.SessionConfig {
	observers := make([]httpclient.Observer, 0, len(c.cfg.ResponseHooks)+1)
	observers = append(observers, c.logExchange)
	observers = append(observers, c.cfg.ResponseHooks...)

	cfg := httpclient.SessionConfig{
		Params:       c.cfg.Params,
		Headers:      c.cfg.Headers,
		Cookies:      c.cfg.Cookies,
		Proxies:      c.cfg.Proxies,
		TLS:          c.cfg.TLS,
		MaxRedirects: c.cfg.MaxRedirects,
		Stream:       c.cfg.Stream,
		Timeout:      c.cfg.Timeout,
		UserAgent:    c.cfg.UserAgent,
		Observers:    observers,
	}
	if c.cfg.Auth != nil {
		cfg.Auth = c.cfg.Auth
	}
	return cfg
}
