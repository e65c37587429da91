package apiclient

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRawResponse implements httpclient.Response.
type stubRawResponse struct {
	status int
	header http.Header
	body   []byte
	stream io.ReadCloser
	req    httpclient.RequestInfo
}

func newStubRaw(status int, contentType, body string) *stubRawResponse {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &stubRawResponse{status: status, header: h, body: []byte(body)}
}

func (s *stubRawResponse) Body() []byte                    { return s.body }
func (s *stubRawResponse) StatusCode() int                 { return s.status }
func (s *stubRawResponse) Status() string                  { return http.StatusText(s.status) }
func (s *stubRawResponse) Header() http.Header             { return s.header }
func (s *stubRawResponse) Elapsed() time.Duration          { return 15 * time.Millisecond }
func (s *stubRawResponse) RawBody() io.ReadCloser          { return s.stream }
func (s *stubRawResponse) Request() httpclient.RequestInfo { return s.req }

// recordingLogger keeps every entry it receives.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level string
	msg   string
	key   string
	obj   interface{}
}

func (r *recordingLogger) add(level, msg, key string, obj interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, logEntry{level: level, msg: msg, key: key, obj: obj})
}

func (r *recordingLogger) InfoObj(msg, key string, obj interface{})  { r.add("info", msg, key, obj) }
func (r *recordingLogger) DebugObj(msg, key string, obj interface{}) { r.add("debug", msg, key, obj) }
func (r *recordingLogger) WarnObj(msg, key string, obj interface{})  { r.add("warn", msg, key, obj) }
func (r *recordingLogger) ErrorObj(msg, key string, obj interface{}) { r.add("error", msg, key, obj) }

func (r *recordingLogger) count(level string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

func TestResponseDecodesJSONObject(t *testing.T) {
	log := &recordingLogger{}
	resp := newResponse(newStubRaw(http.StatusOK, "application/json; charset=utf-8", `{"a":1}`), log, false)

	assert.Equal(t, map[string]any{"a": float64(1)}, resp.JSON())
	v, ok := resp.Get("a")
	assert.True(t, ok)
	assert.Equal(t, float64(1), v)
	assert.Equal(t, 1, resp.Len())
	assert.Equal(t, []string{"a"}, resp.Keys())
	assert.Equal(t, "application/json; charset=utf-8", resp.ContentType())
	assert.True(t, resp.IsSuccess())
	assert.Zero(t, log.count("warn"))
}

func TestResponseInvalidJSONFallsBackToEmpty(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{"a":`},
		{name: "array", body: `[1,2]`},
		{name: "null", body: `null`},
		{name: "empty", body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			resp := newResponse(newStubRaw(http.StatusOK, "application/json", tt.body), log, false)

			assert.Empty(t, resp.JSON())
			assert.NotNil(t, resp.JSON())
			assert.Equal(t, tt.body, resp.Text())
			assert.Equal(t, 1, log.count("warn"))
		})
	}
}

func TestResponseNonJSONContentType(t *testing.T) {
	log := &recordingLogger{}
	resp := newResponse(newStubRaw(http.StatusOK, "text/plain", `{"a":1}`), log, false)

	assert.Empty(t, resp.JSON())
	assert.Equal(t, `{"a":1}`, resp.Text())
	assert.Equal(t, `{"a":1}`, string(resp.Raw().Body()))
	assert.Zero(t, log.count("warn"))

	missing := newResponse(newStubRaw(http.StatusNoContent, "", ""), nil, false)
	assert.Empty(t, missing.JSON())
	assert.Empty(t, missing.ContentType())
}

func TestResponseParsesErrorStatusBodies(t *testing.T) {
	resp := newResponse(newStubRaw(http.StatusNotFound, "application/json", `{"error":"missing"}`), nil, false)

	assert.False(t, resp.IsSuccess())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	v, ok := resp.Get("error")
	assert.True(t, ok)
	assert.Equal(t, "missing", v)
}

// trackingBody records whether the stream was closed.
type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func streamedStub(contentType, body string) (*stubRawResponse, *trackingBody) {
	stub := newStubRaw(http.StatusOK, contentType, "")
	tb := &trackingBody{Reader: strings.NewReader(body)}
	stub.stream = tb
	return stub, tb
}

func TestResponseDecodesStreamedJSON(t *testing.T) {
	log := &recordingLogger{}
	stub, tb := streamedStub("application/json", `{"a":1}`)
	resp := newResponse(stub, log, true)

	assert.Equal(t, map[string]any{"a": float64(1)}, resp.JSON())
	assert.Zero(t, log.count("warn"))
	assert.True(t, tb.closed)

	assert.Equal(t, `{"a":1}`, resp.Text())
	assert.Equal(t, []byte(`{"a":1}`), resp.Raw().Body())
	again, err := io.ReadAll(resp.Raw().RawBody())
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(again))
}

func TestResponseStreamedInvalidJSONWarns(t *testing.T) {
	log := &recordingLogger{}
	stub, _ := streamedStub("application/json", `{oops`)
	resp := newResponse(stub, log, true)

	assert.Empty(t, resp.JSON())
	assert.Equal(t, 1, log.count("warn"))
	assert.Equal(t, `{oops`, resp.Text())
}

func TestResponseLeavesStreamedTextUnread(t *testing.T) {
	stub, tb := streamedStub("text/plain", "line one\n")
	resp := newResponse(stub, nil, true)

	assert.Empty(t, resp.JSON())
	assert.False(t, tb.closed)
	assert.Same(t, tb, resp.Raw().RawBody())
}

func TestResponseDecodeIntoStruct(t *testing.T) {
	resp := newResponse(newStubRaw(http.StatusOK, "text/plain", `{"name":"x","count":3}`), nil, false)

	var out struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, "x", out.Name)
	assert.Equal(t, 3, out.Count)

	bad := newResponse(newStubRaw(http.StatusOK, "text/plain", `nope`), nil, false)
	assert.Error(t, bad.Decode(&out))
}
