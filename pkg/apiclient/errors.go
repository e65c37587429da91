package apiclient

import "errors"

var (
	// ErrClientClosed is returned when a request is made without an open session.
	ErrClientClosed = errors.New("apiclient: request session closed")
	// ErrBaseURLRequired is returned by New when no base URL is configured.
	ErrBaseURLRequired = errors.New("apiclient: base url is required")
)
