package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Response is the raw response contract handed to callers and observers.
type Response interface {
	Body() []byte
	StatusCode() int
	Status() string
	Header() http.Header
	Elapsed() time.Duration
	// RawBody is only readable when the session streams responses.
	RawBody() io.ReadCloser
	Request() RequestInfo
}

// RequestInfo describes the request that produced a Response, as it went on the wire.
type RequestInfo struct {
	Method string
	URL    string
	Header http.Header
	// Body is the encoded payload; empty for unbuffered reader bodies.
	Body string
}

// Request is a single call handed to a Session.
type Request struct {
	Method  string
	URL     string
	Params  url.Values
	Headers map[string]string
	// Data is sent as a form when it is a map[string]string or url.Values, raw otherwise.
	Data any
	// JSON is ignored when Data is set.
	JSON       any
	Timeout    time.Duration
	NoRedirect bool
}

// Decorator mutates an outgoing request just before it is sent.
type Decorator interface {
	Apply(req *http.Request) *http.Request
}

// Observer is invoked with every completed response.
type Observer func(Response)

// Session abstracts a configured transport so callers can inject mocks or different transports.
type Session interface {
	Execute(ctx context.Context, req *Request) (Response, error)
	Close() error
}

// Factory opens a Session for the given configuration.
type Factory func(cfg SessionConfig) (Session, error)
