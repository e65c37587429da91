package apiclient

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

// logExchange is registered on every session and records one debug entry per response.
func (c *Client) logExchange(resp httpclient.Response) {
	req := resp.Request()
	c.log.DebugObj("api request completed", "exchange", map[string]any{
		"method":           req.Method,
		"url":              req.URL,
		"request_headers":  flattenHeader(req.Header),
		"request_body":     req.Body,
		"elapsed_seconds":  resp.Elapsed().Seconds(),
		"status_code":      resp.StatusCode(),
		"reason":           reason(resp.StatusCode(), resp.Status()),
		"response_headers": flattenHeader(resp.Header()),
		"response_body":    string(resp.Body()),
	})
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		out[k] = strings.Join(vs, ", ")
	}
	return out
}

// reason strips the numeric code from a status line such as "404 Not Found".
func reason(code int, status string) string {
	if r := strings.TrimPrefix(status, strconv.Itoa(code)+" "); r != status {
		return r
	}
	if r := http.StatusText(code); r != "" {
		return r
	}
	return status
}
