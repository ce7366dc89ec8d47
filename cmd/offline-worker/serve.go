package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/sususave/go-offline/control"
	"github.com/sususave/go-offline/env"
	"github.com/sususave/go-offline/logger"
	"github.com/sususave/go-offline/manifest"
	"github.com/sususave/go-offline/store"
	"github.com/sususave/go-offline/telemetry"
	"github.com/sususave/go-offline/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the caching proxy in front of the application origin",
	RunE: func(cmd *cobra.Command, args []string) error {
		manifestPath, _ := cmd.Flags().GetString("manifest")
		upstream := env.FlagOrEnv(cmd, "upstream", "SUSUSAVE_UPSTREAM", "http://127.0.0.1:3000")
		listen := env.FlagOrEnv(cmd, "listen", "SUSUSAVE_LISTEN", ":8787")
		backend, _ := cmd.Flags().GetString("backend")

		cfg := manifest.Default()
		if manifestPath != "" {
			var err error
			cfg, err = manifest.Load(manifestPath)
			if err != nil {
				return err
			}
		}
		if backend != "" {
			cfg.Store.Backend = backend
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log, shutdownLogs, err := buildLogger(ctx, cmd, cfg)
		if err != nil {
			return err
		}
		defer shutdownLogs()

		storage, err := buildStorage(cfg)
		if err != nil {
			return err
		}
		defer storage.Close()

		host := newHTTPHost(upstream, log)
		w, err := worker.New(workerConfig(cfg), storage, host, log)
		if err != nil {
			return err
		}

		if _, err := w.Dispatch(ctx, worker.InstallEvent{}); err != nil {
			return errors.Wrap(err, "install failed")
		}
		if _, err := w.Dispatch(ctx, worker.ActivateEvent{}); err != nil {
			return errors.Wrap(err, "activate failed")
		}

		if cfg.Control.RedisURL != "" {
			sub, err := subscribeControl(ctx, cfg, w, log)
			if err != nil {
				return err
			}
			defer sub.Close()
		}

		server := &http.Server{
			Addr:    listen,
			Handler: newHandler(w, log),
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()

		log.Info("offline worker %s serving on %s, upstream %s, backend %s",
			cfg.Version, listen, upstream, cfg.Store.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		w.Wait()
		return nil
	},
}

func init() {
	serveCmd.Flags().String("manifest", "", "path to the deploy manifest (defaults to built-in config)")
	serveCmd.Flags().String("upstream", "", "application origin to proxy")
	serveCmd.Flags().String("listen", "", "address to listen on")
	serveCmd.Flags().String("backend", "", "override store backend: memory, sqlite, or redis")
	serveCmd.Flags().String("log-level", "", "log level: trace, debug, info, warn, error")
	serveCmd.Flags().Bool("no-telemetry", false, "disable OTLP log export")
	serveCmd.Flags().String("otlp-url", "", "OTLP server url for log export")
	serveCmd.Flags().String("otlp-auth-token", "", "bearer token for the OTLP server")
	rootCmd.AddCommand(serveCmd)
}

// buildLogger prefers flag and environment telemetry settings, then the
// manifest's, then a plain console logger.
func buildLogger(ctx context.Context, cmd *cobra.Command, cfg manifest.Config) (logger.Logger, func(), error) {
	if env.FlagOrEnv(cmd, "otlp-url", "SUSUSAVE_OTLP_URL", "") != "" {
		return env.NewTelemetry(ctx, cmd, "offline-worker")
	}
	if cfg.Telemetry.URL != "" {
		log, shutdown, err := telemetry.New(ctx, cfg.Telemetry.URL, cfg.Telemetry.AuthToken, "offline-worker")
		if err != nil {
			return nil, nil, err
		}
		return log, func() { shutdown() }, nil
	}
	return env.NewLogger(cmd), func() {}, nil
}

func buildStorage(cfg manifest.Config) (store.Storage, error) {
	timeout := cfg.QueryTimeout(store.DefaultQueryTimeout)
	switch cfg.Store.Backend {
	case manifest.BackendMemory:
		return store.NewMemory(), nil
	case manifest.BackendSQLite:
		return store.NewSQLite(cfg.Store.Path, store.WithQueryTimeout(timeout))
	case manifest.BackendRedis:
		opts, err := redis.ParseURL(cfg.Store.RedisURL)
		if err != nil {
			return nil, errors.Wrap(err, "parsing store.redis_url")
		}
		return store.NewRedis(redis.NewClient(opts), store.WithQueryTimeout(timeout), store.WithPrefix(cfg.Store.Prefix)), nil
	default:
		return nil, errors.Newf("unknown store backend %q", cfg.Store.Backend)
	}
}

func subscribeControl(ctx context.Context, cfg manifest.Config, w *worker.Worker, log logger.Logger) (control.Subscriber, error) {
	opts, err := redis.ParseURL(cfg.Control.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing control.redis_url")
	}
	bus := control.NewBus(redis.NewClient(opts), cfg.Control.Subject, log)
	return bus.Subscribe(ctx, func(ctx context.Context, cmd control.Command) error {
		_, err := w.Dispatch(ctx, worker.MessageEvent{Command: cmd})
		return err
	})
}

func workerConfig(cfg manifest.Config) worker.Config {
	return worker.Config{
		Version:         cfg.Version,
		StaticAssets:    cfg.StaticAssets,
		APIPrefixes:     cfg.APIPrefixes,
		OfflineFallback: cfg.OfflineFallback,
		ClaimClients:    cfg.ClaimClients,
	}
}
