package strategy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sususave/go-offline/store"
)

var errNetworkDown = errors.New("network unreachable")

func openHandle(t *testing.T, kind store.Kind) *store.Handle {
	t.Helper()
	gens := store.NewGenerations(store.NewMemory(), "v1")
	h, err := gens.Open(context.Background(), kind)
	require.NoError(t, err)
	return h
}

// fixedFetcher returns the same response (or error) for every request and
// counts invocations. Safe for concurrent use, since the cache-first
// strategy fetches from background goroutines.
type fixedFetcher struct {
	mu    sync.Mutex
	resp  *Response
	err   error
	calls int
}

func (f *fixedFetcher) Fetch(ctx context.Context, req *Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fixedFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fixedFetcher) Set(resp *Response, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resp, f.err = resp, err
}

func okResponse(body string) *Response {
	return &Response{
		Status: 200,
		Header: map[string][]string{"Content-Type": {"text/plain"}},
		Body:   []byte(body),
	}
}
