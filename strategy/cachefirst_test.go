package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sususave/go-offline/logger"
	"github.com/sususave/go-offline/store"
)

func TestCacheFirst_MissFetchesAndCaches(t *testing.T) {
	ctx := context.Background()
	h := openHandle(t, store.KindStatic)
	fetcher := &fixedFetcher{resp: okResponse("asset-v1")}
	s := NewCacheFirst(fetcher, logger.NewTestLogger())

	req := &Request{Method: "GET", URL: "/assets/app.js"}
	resp, err := s.Do(ctx, req, h)
	require.NoError(t, err)
	assert.Equal(t, "asset-v1", string(resp.Body))
	assert.False(t, resp.Cached)
	assert.Equal(t, 1, fetcher.Calls())

	snap, found, err := h.Get(ctx, req.Key())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "asset-v1", string(snap.Body))
}

func TestCacheFirst_HitServesCachedAndRefreshes(t *testing.T) {
	ctx := context.Background()
	h := openHandle(t, store.KindStatic)
	fetcher := &fixedFetcher{resp: okResponse("asset-v1")}
	s := NewCacheFirst(fetcher, logger.NewTestLogger())

	req := &Request{Method: "GET", URL: "/assets/app.js"}
	_, err := s.Do(ctx, req, h)
	require.NoError(t, err)
	s.Wait()

	// The deploy swaps the asset; the hit still serves the cached copy
	// but the background refresh picks up the new one.
	fetcher.Set(okResponse("asset-v2"), nil)
	resp, err := s.Do(ctx, req, h)
	require.NoError(t, err)
	assert.Equal(t, "asset-v1", string(resp.Body))
	assert.True(t, resp.Cached)

	s.Wait()
	snap, found, err := h.Get(ctx, req.Key())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "asset-v2", string(snap.Body))
}

func TestCacheFirst_RefreshFailureKeepsCachedEntry(t *testing.T) {
	ctx := context.Background()
	h := openHandle(t, store.KindStatic)
	fetcher := &fixedFetcher{resp: okResponse("asset-v1")}
	s := NewCacheFirst(fetcher, logger.NewTestLogger())

	req := &Request{Method: "GET", URL: "/assets/app.js"}
	_, err := s.Do(ctx, req, h)
	require.NoError(t, err)
	s.Wait()

	fetcher.Set(nil, errNetworkDown)
	resp, err := s.Do(ctx, req, h)
	require.NoError(t, err)
	assert.Equal(t, "asset-v1", string(resp.Body))

	s.Wait()
	snap, found, err := h.Get(ctx, req.Key())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "asset-v1", string(snap.Body))
}

func TestCacheFirst_RefreshIgnoresNonOK(t *testing.T) {
	ctx := context.Background()
	h := openHandle(t, store.KindStatic)
	fetcher := &fixedFetcher{resp: okResponse("asset-v1")}
	s := NewCacheFirst(fetcher, logger.NewTestLogger())

	req := &Request{Method: "GET", URL: "/assets/app.js"}
	_, err := s.Do(ctx, req, h)
	require.NoError(t, err)
	s.Wait()

	// A 404 during refresh must not clobber the good cached copy.
	fetcher.Set(&Response{Status: 404, Body: []byte("gone")}, nil)
	_, err = s.Do(ctx, req, h)
	require.NoError(t, err)

	s.Wait()
	snap, found, err := h.Get(ctx, req.Key())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "asset-v1", string(snap.Body))
}

func TestCacheFirst_MissPropagatesFetchError(t *testing.T) {
	ctx := context.Background()
	h := openHandle(t, store.KindStatic)
	fetcher := &fixedFetcher{err: errNetworkDown}
	s := NewCacheFirst(fetcher, logger.NewTestLogger())

	_, err := s.Do(ctx, &Request{Method: "GET", URL: "/assets/app.js"}, h)
	assert.ErrorIs(t, err, errNetworkDown)
}

func TestCacheFirst_RefreshSurvivesCallerCancellation(t *testing.T) {
	h := openHandle(t, store.KindStatic)
	fetcher := &fixedFetcher{resp: okResponse("asset-v1")}
	s := NewCacheFirst(fetcher, logger.NewTestLogger())

	req := &Request{Method: "GET", URL: "/assets/app.js"}
	_, err := s.Do(context.Background(), req, h)
	require.NoError(t, err)
	s.Wait()

	// Cancel the request context before the hit; the refresh still runs.
	ctx, cancel := context.WithCancel(context.Background())
	fetcher.Set(okResponse("asset-v2"), nil)
	resp, err := s.Do(ctx, req, h)
	cancel()
	require.NoError(t, err)
	assert.True(t, resp.Cached)

	s.Wait()
	snap, found, err := h.Get(context.Background(), req.Key())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "asset-v2", string(snap.Body))
}

func TestCacheFirst_RefreshDropsWriteAfterPurge(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemory()
	gens := store.NewGenerations(storage, "v1")
	h, err := gens.Open(ctx, store.KindStatic)
	require.NoError(t, err)

	fetcher := &fixedFetcher{resp: okResponse("asset-v1")}
	s := NewCacheFirst(fetcher, logger.NewTestLogger())

	req := &Request{Method: "GET", URL: "/assets/app.js"}
	_, err = s.Do(ctx, req, h)
	require.NoError(t, err)
	s.Wait()

	// Purge everything, then trigger a refresh through the stale handle.
	// Reads on the dangling handle may still see old data, but the
	// refresh write must not recreate the purged store.
	require.NoError(t, gens.RemoveAll(ctx))
	fetcher.Set(okResponse("asset-v2"), nil)
	_, _ = s.Do(ctx, req, h)
	s.Wait()

	has, err := storage.Has(ctx, gens.Name(store.KindStatic))
	require.NoError(t, err)
	assert.False(t, has)
}
