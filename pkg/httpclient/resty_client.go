package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
)

type (
	noRedirectKey struct{}
	sentBodyKey   struct{}
)

// sentBody holds the encoded payload as it went on the wire.
type sentBody struct {
	data []byte
	ok   bool
}

// RestySession adapts resty.Client to the httpclient.Session interface.
type RestySession struct {
	client    *resty.Client
	stream    bool
	observers []Observer
	closed    atomic.Bool
}

// NewRestySession creates a RestySession with every configured setting applied.
func NewRestySession(cfg SessionConfig) (*RestySession, error) {
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, fmt.Errorf("build transport: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := newRestyBaseClient(&http.Client{Transport: transport, Jar: jar}, cfg.Timeout)
	c.SetRedirectPolicy(redirectPolicy(cfg.maxRedirects()))

	if len(cfg.Params) > 0 {
		c.SetQueryParams(cfg.Params)
	}
	if len(cfg.Headers) > 0 {
		c.SetHeaders(cfg.Headers)
	}
	if ua := strings.TrimSpace(cfg.UserAgent); ua != "" {
		c.SetHeader("User-Agent", ua)
	}
	if cookies := cfg.cookies(); len(cookies) > 0 {
		c.SetCookies(cookies)
	}
	auth := cfg.Auth
	c.SetPreRequestHook(func(_ *resty.Client, req *http.Request) error {
		if auth != nil {
			auth.Apply(req)
		}
		captureBody(req)
		return nil
	})
	if cfg.Stream {
		c.SetDoNotParseResponse(true)
	}
	observers := make([]Observer, 0, len(cfg.Observers))
	for _, obs := range cfg.Observers {
		if obs != nil {
			observers = append(observers, obs)
		}
	}

	return &RestySession{client: c, stream: cfg.Stream, observers: observers}, nil
}

// newRestyBaseClient creates a resty.Client over hc with sonic as its JSON codec.
func newRestyBaseClient(hc *http.Client, timeout time.Duration) *resty.Client {
	c := resty.NewWithClient(hc)
	c.SetJSONMarshaler(sonic.Marshal)
	c.SetJSONUnmarshaler(sonic.Unmarshal)
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

func redirectPolicy(limit int) resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if skip, _ := req.Context().Value(noRedirectKey{}).(bool); skip {
			return http.ErrUseLastResponse
		}
		if len(via) > limit {
			return fmt.Errorf("stopped after %d redirects", limit)
		}
		return nil
	})
}

// captureBody copies the encoded body while resty's buffer is still live.
func captureBody(req *http.Request) {
	dst, _ := req.Context().Value(sentBodyKey{}).(*sentBody)
	if dst == nil || req.GetBody == nil {
		return
	}
	body, err := req.GetBody()
	if err != nil {
		return
	}
	defer body.Close()
	if data, err := io.ReadAll(body); err == nil {
		dst.data, dst.ok = data, true
	}
}

// Execute performs the request. Transport errors are returned unchanged.
func (s *RestySession) Execute(ctx context.Context, req *Request) (Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var cancel context.CancelFunc
	if req.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
	}
	if req.NoRedirect {
		ctx = context.WithValue(ctx, noRedirectKey{}, true)
	}
	sent := &sentBody{}
	ctx = context.WithValue(ctx, sentBodyKey{}, sent)

	r := s.client.R().SetContext(ctx)
	if len(req.Params) > 0 {
		r.SetQueryParamsFromValues(req.Params)
	}
	if len(req.Headers) > 0 {
		r.SetHeaders(req.Headers)
	}
	switch data := req.Data.(type) {
	case nil:
		if req.JSON != nil {
			r.SetHeader("Content-Type", "application/json")
			r.SetBody(req.JSON)
		}
	case map[string]string:
		r.SetFormData(data)
	case url.Values:
		r.SetFormDataFromValues(data)
	default:
		r.SetBody(data)
	}

	resp, err := r.Execute(strings.ToUpper(req.Method), req.URL)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, err
	}

	adapter := &restyResponseAdapter{resp: resp, sent: sent}
	if cancel != nil {
		// a streamed body is still being read; release the deadline with it
		if s.stream {
			adapter.release = cancel
		} else {
			cancel()
		}
	}
	// resty skips its response middleware for unparsed bodies, so observers run here
	for _, observe := range s.observers {
		observe(adapter)
	}
	return adapter, nil
}

// Close releases idle connections. It is safe to call more than once.
func (s *RestySession) Close() error {
	if s == nil || !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.client.GetClient().CloseIdleConnections()
	return nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp    *resty.Response
	sent    *sentBody
	release context.CancelFunc
}

func (r *restyResponseAdapter) Body() []byte           { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int        { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Status() string         { return r.resp.Status() }
func (r *restyResponseAdapter) Header() http.Header    { return r.resp.Header() }
func (r *restyResponseAdapter) Elapsed() time.Duration { return r.resp.Time() }

func (r *restyResponseAdapter) RawBody() io.ReadCloser {
	body := r.resp.RawBody()
	if body == nil || r.release == nil {
		return body
	}
	return &releasingBody{ReadCloser: body, release: r.release}
}

func (r *restyResponseAdapter) Request() RequestInfo {
	req := r.resp.Request
	if req == nil {
		return RequestInfo{}
	}
	info := RequestInfo{
		Method: req.Method,
		URL:    req.URL,
		Header: req.Header,
	}
	if raw := req.RawRequest; raw != nil {
		info.Method = raw.Method
		info.URL = raw.URL.String()
		info.Header = raw.Header
	}
	info.Body = r.bodyText(req)
	return info
}

// bodyText prefers the captured wire payload, then the form encoding.
func (r *restyResponseAdapter) bodyText(req *resty.Request) string {
	if r.sent != nil && r.sent.ok {
		return string(r.sent.data)
	}
	if len(req.FormData) > 0 {
		return req.FormData.Encode()
	}
	switch body := req.Body.(type) {
	case string:
		return body
	case []byte:
		return string(body)
	default:
		return ""
	}
}

type releasingBody struct {
	io.ReadCloser
	release context.CancelFunc
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	b.release()
	return err
}
