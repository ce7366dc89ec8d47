package strategy

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sususave/go-offline/logger"
	"github.com/sususave/go-offline/resilience"
	"github.com/sususave/go-offline/store"
)

// CacheFirst serves a cached snapshot immediately and refreshes it in the
// background (stale-while-revalidate). Used for static assets, which only
// change on deploy. Background refreshes run behind a circuit breaker so
// an offline period does not turn every asset hit into a doomed fetch.
type CacheFirst struct {
	fetcher Fetcher
	logger  logger.Logger
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	pending sync.WaitGroup
}

// NewCacheFirst returns a CacheFirst strategy using the given fetcher.
func NewCacheFirst(fetcher Fetcher, log logger.Logger) *CacheFirst {
	return &CacheFirst{
		fetcher: fetcher,
		logger:  log.WithPrefix("[cache-first]"),
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
	}
}

// Do applies the strategy for req against the handle's store.
func (s *CacheFirst) Do(ctx context.Context, req *Request, h *store.Handle) (*Response, error) {
	key := req.Key()

	snap, found, err := h.Get(ctx, key)
	if err != nil {
		// A broken cache read degrades to a miss; it must not fail the request.
		s.logger.Warn("cache lookup failed for %s: %v", key, err)
	}
	if found {
		s.refresh(ctx, req, h, key)
		return replay(snap), nil
	}

	resp, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if cacheable(resp) {
		if putErr := h.Put(ctx, key, snapshot(req, resp)); putErr != nil {
			s.logger.Warn("failed to cache %s: %v", key, putErr)
		}
	}
	return resp, nil
}

// refresh updates the stored entry concurrently with the caller's use of
// the stale one. The caller's context may be abandoned at any time, so
// the refresh detaches from its cancellation; the handle's generation
// check keeps a late write from resurrecting a purged store.
func (s *CacheFirst) refresh(ctx context.Context, req *Request, h *store.Handle, key string) {
	bgCtx := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		_, _, _ = s.group.Do(key, func() (interface{}, error) {
			err := s.breaker.Execute(func() error {
				resp, err := s.fetcher.Fetch(bgCtx, req)
				if err != nil {
					return err
				}
				if !cacheable(resp) {
					return nil
				}
				if putErr := h.Put(bgCtx, key, snapshot(req, resp)); putErr != nil {
					// A purged generation is an expected race, not a
					// network fault; it must not trip the breaker.
					if errors.Is(putErr, store.ErrGenerationGone) {
						s.logger.Debug("refresh dropped, store %s is gone", h.Name())
						return nil
					}
					return putErr
				}
				return nil
			})
			if err != nil {
				s.logger.Debug("background refresh skipped for %s: %v", key, err)
			}
			return nil, nil
		})
	}()
}

// Wait blocks until every in-flight background refresh has settled.
// Used on shutdown and by tests.
func (s *CacheFirst) Wait() {
	s.pending.Wait()
}
