package strategy

import (
	"context"

	"github.com/sususave/go-offline/logger"
	"github.com/sususave/go-offline/store"
)

// NetworkFirst prefers a live network response and falls back to the
// cache only when the network fails. Used for API calls and navigations,
// where freshness matters and staleness is tolerated only as degraded
// service.
type NetworkFirst struct {
	fetcher Fetcher
	logger  logger.Logger

	// FallbackKey, when set, names the reserved offline document served
	// for a failed navigation with no cached match. Empty for API routes,
	// where the network error must reach the application layer.
	FallbackKey string
}

// NewNetworkFirst returns a NetworkFirst strategy using the given fetcher.
func NewNetworkFirst(fetcher Fetcher, log logger.Logger) *NetworkFirst {
	return &NetworkFirst{
		fetcher: fetcher,
		logger:  log.WithPrefix("[network-first]"),
	}
}

// Do applies the strategy for req against the handle's store.
func (s *NetworkFirst) Do(ctx context.Context, req *Request, h *store.Handle) (*Response, error) {
	key := req.Key()

	resp, err := s.fetcher.Fetch(ctx, req)
	if err == nil {
		// Caching is best-effort: a quota or storage failure must never
		// fail a request the network already answered.
		if cacheable(resp) {
			if putErr := h.Put(ctx, key, snapshot(req, resp)); putErr != nil {
				s.logger.Warn("failed to cache %s: %v", key, putErr)
			}
		}
		return resp, nil
	}

	snap, found, getErr := h.Get(ctx, key)
	if getErr != nil {
		s.logger.Warn("cache lookup failed for %s: %v", key, getErr)
	}
	if found {
		s.logger.Debug("network failed, serving cached %s", key)
		return replay(snap), nil
	}

	if req.Navigation && s.FallbackKey != "" {
		fallback, found, fbErr := h.Get(ctx, s.FallbackKey)
		if fbErr != nil {
			s.logger.Warn("fallback lookup failed: %v", fbErr)
		}
		if found {
			s.logger.Debug("network failed, serving offline fallback for %s", key)
			return replay(fallback), nil
		}
	}

	// Uncached miss: the one case where the failure is surfaced, so the
	// application can show its offline state.
	return nil, err
}
