// Package strategy implements route classification and the two caching
// strategies applied to intercepted requests: network-first with cache
// fallback for business data, and cache-first with background refresh for
// static assets.
package strategy

import (
	"context"
	"net/http"
	"time"

	"github.com/sususave/go-offline/store"
)

// Request describes an intercepted outgoing request.
type Request struct {
	Method     string
	URL        string
	Navigation bool
	Header     map[string][]string
	Body       []byte
}

// Key returns the request's normalized store key.
func (r *Request) Key() string {
	return store.Key(r.Method, r.URL)
}

// Response is what a strategy hands back to the caller: either a live
// network response or a replayed snapshot.
type Response struct {
	Status int
	Header map[string][]string
	Body   []byte
	// Cached is true when the response was served from the store.
	Cached bool
}

// Fetcher issues the actual network request. The worker has no transport
// knowledge of its own; the host provides this capability.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (*Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req *Request) (*Response, error)

func (f FetcherFunc) Fetch(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// snapshot converts a live response into a store snapshot for req.
func snapshot(req *Request, resp *Response) *store.Snapshot {
	header := make(map[string][]string, len(resp.Header))
	for k, v := range resp.Header {
		header[k] = append([]string(nil), v...)
	}
	body := make([]byte, len(resp.Body))
	copy(body, resp.Body)
	return &store.Snapshot{
		Method:   req.Method,
		URL:      req.URL,
		Status:   resp.Status,
		Header:   header,
		Body:     body,
		StoredAt: time.Now(),
	}
}

// replay converts a stored snapshot back into a response.
func replay(snap *store.Snapshot) *Response {
	header := make(map[string][]string, len(snap.Header))
	for k, v := range snap.Header {
		header[k] = append([]string(nil), v...)
	}
	body := make([]byte, len(snap.Body))
	copy(body, snap.Body)
	return &Response{
		Status: snap.Status,
		Header: header,
		Body:   body,
		Cached: true,
	}
}

func cacheable(resp *Response) bool {
	return resp != nil && resp.Status == http.StatusOK
}
