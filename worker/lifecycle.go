package worker

import (
	"context"
	"net/http"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sususave/go-offline/resilience"
	"github.com/sususave/go-offline/store"
	"github.com/sususave/go-offline/strategy"
)

// installConcurrency bounds parallel prefetches during install.
const installConcurrency = 4

// Install prefetches the static manifest into the current static
// generation. Installation is lenient: a single asset failing to
// download is logged and skipped, so one missing file cannot block the
// whole deploy. Already-cached assets are left alone, making Install
// idempotent. All prefetching completes before Install returns.
func (w *Worker) Install(ctx context.Context) error {
	assets := w.cfg.StaticAssets
	if w.cfg.OfflineFallback != "" && !slices.Contains(assets, w.cfg.OfflineFallback) {
		assets = append(append([]string(nil), assets...), w.cfg.OfflineFallback)
	}
	w.logger.Info("installing generation %s, %d static assets", w.gens.Current(), len(assets))
	return w.warm(ctx, assets)
}

// Activate removes every non-current generation for both kinds, then
// optionally claims open clients. Once it returns, exactly the current
// generation stores exist.
func (w *Worker) Activate(ctx context.Context) error {
	for _, kind := range store.Kinds {
		if _, err := w.gens.Open(ctx, kind); err != nil {
			return err
		}
	}
	removed, err := w.gens.RemoveOthers(ctx)
	if err != nil {
		return err
	}
	if len(removed) > 0 {
		w.logger.Info("activated generation %s, removed stale stores %v", w.gens.Current(), removed)
	} else {
		w.logger.Info("activated generation %s", w.gens.Current())
	}
	if w.cfg.ClaimClients {
		if err := w.host.Claim(ctx); err != nil {
			return err
		}
	}
	return nil
}

// warm fetches each URL into the static store, retrying transient
// failures and skipping URLs that are already cached or keep failing.
func (w *Worker) warm(ctx context.Context, urls []string) error {
	h, err := w.gens.Open(ctx, store.KindStatic)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(installConcurrency)
	for _, u := range urls {
		u := u
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w.prefetch(gctx, h, u)
			return nil
		})
	}
	return g.Wait()
}

// prefetch caches one URL, best-effort.
func (w *Worker) prefetch(ctx context.Context, h *store.Handle, url string) {
	key := store.Key(http.MethodGet, url)
	if _, found, err := h.Get(ctx, key); err == nil && found {
		return
	}

	req := &strategy.Request{Method: http.MethodGet, URL: url}
	var resp *strategy.Response
	err := resilience.Retry(ctx, w.retry, func() error {
		r, err := w.host.Fetch(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		w.logger.Warn("prefetch failed for %s: %v", url, err)
		return
	}
	if resp.Status != http.StatusOK {
		w.logger.Warn("prefetch skipped for %s: status %d", url, resp.Status)
		return
	}
	snap := &store.Snapshot{
		Method:   req.Method,
		URL:      req.URL,
		Status:   resp.Status,
		Header:   resp.Header,
		Body:     resp.Body,
		StoredAt: time.Now(),
	}
	if err := h.Put(ctx, key, snap); err != nil {
		w.logger.Warn("failed to cache %s: %v", url, err)
	}
}
