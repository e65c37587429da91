package apiclient

import "net/http"

// DefaultAuthScheme prefixes token credentials unless another scheme is chosen.
const DefaultAuthScheme = "Bearer"

// AuthStrategy decorates an outgoing request with credentials.
type AuthStrategy interface {
	Apply(req *http.Request) *http.Request
}

// TokenAuth attaches token authentication as "<scheme> <token>".
type TokenAuth struct {
	header string
}

type tokenAuthSettings struct {
	scheme string
}

// TokenAuthOption customizes NewTokenAuth.
type TokenAuthOption func(*tokenAuthSettings)

// WithAuthScheme sets the HTTP authentication scheme, e.g. OAuth or Token.
// An empty scheme sends the bare token.
func WithAuthScheme(scheme string) TokenAuthOption {
	return func(s *tokenAuthSettings) { s.scheme = scheme }
}

// WithoutAuthScheme sends the bare token.
func WithoutAuthScheme() TokenAuthOption {
	return WithAuthScheme("")
}

// NewTokenAuth builds the Authorization value once; it is reused for every request.
func NewTokenAuth(token string, opts ...TokenAuthOption) TokenAuth {
	settings := tokenAuthSettings{scheme: DefaultAuthScheme}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}
	if settings.scheme == "" {
		return TokenAuth{header: token}
	}
	return TokenAuth{header: settings.scheme + " " + token}
}

// Header returns the Authorization header value.
func (t TokenAuth) Header() string { return t.header }

// Apply sets the Authorization header.
func (t TokenAuth) Apply(req *http.Request) *http.Request {
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	req.Header.Set("Authorization", t.header)
	return req
}

// BasicAuth attaches HTTP basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

// Apply sets basic credentials on the Authorization header.
func (b BasicAuth) Apply(req *http.Request) *http.Request {
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	req.SetBasicAuth(b.Username, b.Password)
	return req
}

// NoAuth leaves requests untouched.
type NoAuth struct{}

func (NoAuth) Apply(req *http.Request) *http.Request { return req }
