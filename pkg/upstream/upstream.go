// Package upstream performs the outbound HTTP calls made on behalf of the
// gateway and keeps the upstream response intact for passthrough.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrUnavailable indicates the upstream service could not be reached.
var ErrUnavailable = errors.New("upstream service unavailable")

// Response is an upstream reply kept verbatim.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// StatusError reports an unexpected upstream status where a 2xx was required.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// IsUnavailable checks if an error indicates an unreachable upstream.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsStatusError checks if an error carries an unexpected upstream status.
func IsStatusError(err error) bool {
	var statusErr *StatusError

	return errors.As(err, &statusErr)
}

// Do issues one request without retries. A nil body sends no payload; a
// non-nil body is sent as JSON.
func Do(ctx context.Context, client *http.Client, method, url string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, url, err)
	}

	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrUnavailable, url, err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// Expect2xx turns a non-2xx response into a StatusError.
func Expect2xx(resp *Response, url string) error {
	if resp.OK() {
		return nil
	}

	return &StatusError{URL: url, StatusCode: resp.StatusCode}
}
