package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sususave/go-offline/logger"
	"github.com/sususave/go-offline/store"
)

func TestNetworkFirst_ServesLiveAndCaches(t *testing.T) {
	ctx := context.Background()
	h := openHandle(t, store.KindAPI)
	fetcher := &fixedFetcher{resp: okResponse("fresh")}
	s := NewNetworkFirst(fetcher, logger.NewTestLogger())

	req := &Request{Method: "GET", URL: "/groups/1"}
	resp, err := s.Do(ctx, req, h)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(resp.Body))
	assert.False(t, resp.Cached)

	snap, found, err := h.Get(ctx, req.Key())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "fresh", string(snap.Body))
}

func TestNetworkFirst_FallsBackToCache(t *testing.T) {
	ctx := context.Background()
	h := openHandle(t, store.KindAPI)
	req := &Request{Method: "GET", URL: "/groups/1"}

	// Warm the cache, then take the network away.
	fetcher := &fixedFetcher{resp: okResponse("stale")}
	s := NewNetworkFirst(fetcher, logger.NewTestLogger())
	_, err := s.Do(ctx, req, h)
	require.NoError(t, err)

	fetcher.err = errNetworkDown
	resp, err := s.Do(ctx, req, h)
	require.NoError(t, err)
	assert.Equal(t, "stale", string(resp.Body))
	assert.True(t, resp.Cached)
}

func TestNetworkFirst_UncachedMissPropagatesError(t *testing.T) {
	ctx := context.Background()
	h := openHandle(t, store.KindAPI)
	fetcher := &fixedFetcher{err: errNetworkDown}
	s := NewNetworkFirst(fetcher, logger.NewTestLogger())

	_, err := s.Do(ctx, &Request{Method: "GET", URL: "/groups/1"}, h)
	assert.ErrorIs(t, err, errNetworkDown)
}

func TestNetworkFirst_NavigationOfflineFallback(t *testing.T) {
	ctx := context.Background()
	h := openHandle(t, store.KindStatic)

	// The offline document is pre-populated at install time.
	require.NoError(t, h.Put(ctx, "GET /offline.html", &store.Snapshot{
		Method: "GET",
		URL:    "/offline.html",
		Status: 200,
		Body:   []byte("<h1>offline</h1>"),
	}))

	fetcher := &fixedFetcher{err: errNetworkDown}
	s := NewNetworkFirst(fetcher, logger.NewTestLogger())
	s.FallbackKey = "GET /offline.html"

	resp, err := s.Do(ctx, &Request{Method: "GET", URL: "/app/dashboard", Navigation: true}, h)
	require.NoError(t, err)
	assert.Equal(t, "<h1>offline</h1>", string(resp.Body))
	assert.True(t, resp.Cached)
}

func TestNetworkFirst_NavigationWithoutFallbackErrors(t *testing.T) {
	ctx := context.Background()
	h := openHandle(t, store.KindStatic)
	fetcher := &fixedFetcher{err: errNetworkDown}
	s := NewNetworkFirst(fetcher, logger.NewTestLogger())
	s.FallbackKey = "GET /offline.html"

	// FallbackKey is set but the document was never cached.
	_, err := s.Do(ctx, &Request{Method: "GET", URL: "/app/dashboard", Navigation: true}, h)
	assert.ErrorIs(t, err, errNetworkDown)
}

func TestNetworkFirst_NonOKNotCached(t *testing.T) {
	ctx := context.Background()
	h := openHandle(t, store.KindAPI)
	fetcher := &fixedFetcher{resp: &Response{Status: 502, Body: []byte("bad gateway")}}
	s := NewNetworkFirst(fetcher, logger.NewTestLogger())

	req := &Request{Method: "GET", URL: "/groups/1"}
	resp, err := s.Do(ctx, req, h)
	require.NoError(t, err)
	assert.Equal(t, 502, resp.Status)

	_, found, err := h.Get(ctx, req.Key())
	require.NoError(t, err)
	assert.False(t, found)
}
