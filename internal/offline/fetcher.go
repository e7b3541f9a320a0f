// Package offline implements the request gateway that keeps the app
// usable without connectivity: per-resource-class caching strategies
// over a durable cache, a sync queue for failed mutations with ordered
// replay, and a small command channel for cache control. The gateway
// shares no memory with the store; it persists to its own database
// file and talks to the network only through the Fetcher boundary.
package offline

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// Request is the gateway's view of an outbound request.
type Request struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body,omitempty"`
}

// Response is what the gateway returns, whether from network or cache.
type Response struct {
	Status    int               `json:"status"`
	Headers   map[string]string `json:"headers,omitempty"`
	Body      []byte            `json:"body,omitempty"`
	FromCache bool              `json:"from_cache,omitempty"`
	FetchedAt time.Time         `json:"fetched_at,omitempty"`
}

// OK reports whether the response carries a usable success status.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 400
}

// Fetcher performs real network requests. The default implementation
// wraps net/http; tests substitute stubs.
type Fetcher interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// HTTPFetcher is the production Fetcher.
type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Do(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = strings.NewReader(string(req.Body))
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := f.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(httpResp.Header))
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}
	return &Response{
		Status:    httpResp.StatusCode,
		Headers:   headers,
		Body:      data,
		FetchedAt: time.Now().UTC(),
	}, nil
}
