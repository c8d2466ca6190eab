package httpclient

import "fmt"

// TransportError is a network-level failure (connection, timeout, non-2xx
// status). These are the only errors the client retries.
type TransportError struct {
	URL        string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RateLimitError signals an HTTP 429. It is surfaced immediately, never
// retried by this layer; the body is kept for diagnostics.
type RateLimitError struct {
	URL  string
	Body string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded on %s", e.URL)
}

// MalformedResponseError is a success-status response whose body failed to
// parse. Permanent: retrying won't make the upstream speak JSON.
type MalformedResponseError struct {
	URL  string
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("failed to parse response from %s: %v", e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
