package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

const jsonContentType = "application/json"

// Response pairs a raw transport response with its decoded JSON object.
// The object is empty unless the content type is JSON and the body decodes to an object.
type Response struct {
	raw         httpclient.Response
	contentType string
	json        map[string]any
}

// newResponse decodes JSON bodies eagerly. A streamed JSON body is read into
// memory first; other streamed bodies are left for the caller to read.
func newResponse(raw httpclient.Response, log Logger, streamed bool) *Response {
	r := &Response{
		raw:         raw,
		contentType: raw.Header().Get("Content-Type"),
		json:        map[string]any{},
	}
	if !strings.HasPrefix(strings.ToLower(r.contentType), jsonContentType) {
		return r
	}

	if streamed {
		buffered, err := bufferBody(raw)
		if err != nil {
			r.warnInvalid(log, err.Error())
			return r
		}
		r.raw = buffered
	}

	var body map[string]any
	if err := sonic.Unmarshal(r.raw.Body(), &body); err != nil || body == nil {
		reason := "body is not a json object"
		if err != nil {
			reason = err.Error()
		}
		r.warnInvalid(log, reason)
		return r
	}
	r.json = body
	return r
}

func (r *Response) warnInvalid(log Logger, reason string) {
	ensureLogger(log).WarnObj("invalid json data", "response_meta", map[string]any{
		"status_code":  r.raw.StatusCode(),
		"content_type": r.contentType,
		"error":        reason,
	})
}

// bufferBody drains a streamed body so it can be decoded and read again.
func bufferBody(raw httpclient.Response) (httpclient.Response, error) {
	body := raw.RawBody()
	if body == nil {
		return raw, nil
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return raw, fmt.Errorf("read streamed body: %w", err)
	}
	return &bufferedResponse{Response: raw, body: data}, nil
}

// bufferedResponse serves a drained stream from memory.
type bufferedResponse struct {
	httpclient.Response
	body []byte
}

func (b *bufferedResponse) Body() []byte { return b.body }

func (b *bufferedResponse) RawBody() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b.body))
}

// JSON returns the decoded body object.
func (r *Response) JSON() map[string]any { return r.json }

// Get returns a top-level field of the decoded body.
func (r *Response) Get(key string) (any, bool) {
	v, ok := r.json[key]
	return v, ok
}

// Len reports the number of top-level fields in the decoded body.
func (r *Response) Len() int { return len(r.json) }

// Keys returns the decoded body's top-level field names, sorted.
func (r *Response) Keys() []string {
	keys := make([]string, 0, len(r.json))
	for k := range r.json {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Raw exposes the transport response for status, headers and body access.
func (r *Response) Raw() httpclient.Response { return r.raw }

// ContentType returns the response Content-Type header.
func (r *Response) ContentType() string { return r.contentType }

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int { return r.raw.StatusCode() }

// Text returns the body as a string. It is empty for unread streamed bodies.
func (r *Response) Text() string { return string(r.raw.Body()) }

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	code := r.raw.StatusCode()
	return code >= 200 && code < 300
}

// Decode unmarshals the raw body into v regardless of content type.
func (r *Response) Decode(v any) error {
	if err := sonic.Unmarshal(r.raw.Body(), v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}
