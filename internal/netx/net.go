// Package netx builds outbound HTTP clients and performs the small JSON
// GETs used by external collaborators such as the exchange-rate API.
package netx

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// maxBody caps how much of a response body is read.
const maxBody = 1 << 20

// StatusError reports a non-200 answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed: %d %s; body: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// NewClient returns a client that gives up connecting after dialTimeout
// and on the whole exchange after total.
func NewClient(dialTimeout, total time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: dialTimeout}).DialContext
	transport.TLSHandshakeTimeout = dialTimeout

	return &http.Client{Transport: transport, Timeout: total}
}

// GetJSON issues a GET with Accept: application/json and returns the body
// of a 200 response. Any other status yields a *StatusError.
func GetJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		if len(b) > 200 {
			b = b[:200]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	return b, nil
}
