// Package worker is the heart of the offline layer: it owns the cache
// stores, routes every intercepted request through a caching strategy,
// runs the install and activate lifecycle, and reacts to control commands
// and push messages. The worker is host-agnostic; platform capabilities
// come in through the Host interface.
package worker

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/sususave/go-offline/control"
	"github.com/sususave/go-offline/logger"
	"github.com/sususave/go-offline/notify"
	"github.com/sususave/go-offline/resilience"
	"github.com/sususave/go-offline/store"
	"github.com/sususave/go-offline/strategy"
)

// Host provides the platform capabilities the worker needs: network
// access, client window management, and notifications. The daemon
// supplies a real implementation; tests use fakes.
type Host interface {
	notify.Host

	// Fetch issues a network request on behalf of the worker.
	Fetch(ctx context.Context, req *strategy.Request) (*strategy.Response, error)

	// Claim takes control of every open client immediately instead of
	// waiting for their next navigation.
	Claim(ctx context.Context) error
}

// Config holds the per-deploy parameters of a worker.
type Config struct {
	// Version is the deploy version; it names the cache generation.
	Version string

	// StaticAssets is the app shell manifest prefetched at install.
	StaticAssets []string

	// APIPrefixes are the path prefixes routed network-first.
	APIPrefixes []string

	// OfflineFallback is the document served for a failed navigation
	// with no cached match. Empty disables the fallback.
	OfflineFallback string

	// ClaimClients makes activation take over open pages immediately.
	ClaimClients bool
}

// Worker ties the stores, strategies, and notification dispatcher
// together behind a single event entry point. Safe for concurrent
// dispatch.
type Worker struct {
	cfg        Config
	host       Host
	logger     logger.Logger
	gens       *store.Generations
	classifier *strategy.Classifier
	api        *strategy.NetworkFirst
	nav        *strategy.NetworkFirst
	static     *strategy.CacheFirst
	notifier   *notify.Dispatcher
	retry      resilience.RetryConfig
}

// New builds a Worker over the given storage backend and host.
func New(cfg Config, storage store.Storage, host Host, log logger.Logger) (*Worker, error) {
	if cfg.Version == "" {
		return nil, errors.New("worker config missing version")
	}
	wlog := log.WithPrefix("[worker]")
	w := &Worker{
		cfg:        cfg,
		host:       host,
		logger:     wlog,
		gens:       store.NewGenerations(storage, cfg.Version),
		classifier: strategy.NewClassifier(cfg.APIPrefixes),
		api:        strategy.NewNetworkFirst(fetcher(host), wlog),
		nav:        strategy.NewNetworkFirst(fetcher(host), wlog),
		static:     strategy.NewCacheFirst(fetcher(host), wlog),
		notifier:   notify.NewDispatcher(host, log),
		retry:      resilience.DefaultRetryConfig(),
	}
	if cfg.OfflineFallback != "" {
		w.nav.FallbackKey = store.Key("GET", cfg.OfflineFallback)
	}
	return w, nil
}

func fetcher(host Host) strategy.Fetcher {
	return strategy.FetcherFunc(host.Fetch)
}

// Generations exposes the worker's generation view, for inspection.
func (w *Worker) Generations() *store.Generations {
	return w.gens
}

// Dispatch routes one event. Only fetch events produce a response.
func (w *Worker) Dispatch(ctx context.Context, ev Event) (*strategy.Response, error) {
	switch e := ev.(type) {
	case InstallEvent:
		return nil, w.Install(ctx)
	case ActivateEvent:
		return nil, w.Activate(ctx)
	case FetchEvent:
		return w.fetch(ctx, e.Request)
	case MessageEvent:
		return nil, w.handleCommand(ctx, e.Command)
	case PushEvent:
		return nil, w.notifier.Push(ctx, e.Data)
	case NotificationClickEvent:
		return nil, w.notifier.Click(ctx, notify.Click{
			Action:    e.Action,
			TargetURL: e.TargetURL,
		})
	default:
		return nil, errors.Newf("unhandled event type %T", ev)
	}
}

// fetch applies the strategy for the request's class. Navigations and
// static assets work against the static store; API calls against the
// api store.
func (w *Worker) fetch(ctx context.Context, req *strategy.Request) (*strategy.Response, error) {
	class := w.classifier.Classify(req)
	switch class {
	case strategy.ClassAPI:
		h, err := w.gens.Open(ctx, store.KindAPI)
		if err != nil {
			return nil, err
		}
		return w.api.Do(ctx, req, h)
	case strategy.ClassNavigation:
		h, err := w.gens.Open(ctx, store.KindStatic)
		if err != nil {
			return nil, err
		}
		return w.nav.Do(ctx, req, h)
	default:
		h, err := w.gens.Open(ctx, store.KindStatic)
		if err != nil {
			return nil, err
		}
		return w.static.Do(ctx, req, h)
	}
}

// handleCommand applies one control command. Commands are idempotent and
// unknown types are ignored.
func (w *Worker) handleCommand(ctx context.Context, cmd control.Command) error {
	switch cmd.Type {
	case control.TypeSkipWaiting:
		w.logger.Info("skip waiting requested, activating")
		return w.Activate(ctx)
	case control.TypeCacheURLs:
		return w.warm(ctx, cmd.URLs)
	case control.TypeClearCache:
		w.logger.Info("clearing every cache store")
		return w.gens.RemoveAll(ctx)
	default:
		w.logger.Debug("ignoring unknown control command %q", cmd.Type)
		return nil
	}
}

// Wait blocks until in-flight background refreshes have settled. Called
// on shutdown.
func (w *Worker) Wait() {
	w.static.Wait()
}
