// Package manifest loads and validates the worker's deploy configuration:
// the version string that names the cache generation, the static asset
// manifest, route classification prefixes, and backend settings.
package manifest

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	str2duration "github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// StoreConfig selects and configures the cache storage backend.
type StoreConfig struct {
	// Backend is one of memory, sqlite, redis.
	Backend string `yaml:"backend"`

	// Path is the database file for the sqlite backend.
	Path string `yaml:"path"`

	// RedisURL is the connection URL for the redis backend.
	RedisURL string `yaml:"redis_url"`

	// Prefix namespaces redis keys.
	Prefix string `yaml:"prefix"`

	// QueryTimeout bounds each storage operation, as a duration string
	// ("5s", "500ms", "1m30s").
	QueryTimeout string `yaml:"query_timeout"`
}

// ControlConfig configures the optional Redis control bus subscription.
type ControlConfig struct {
	RedisURL string `yaml:"redis_url"`
	Subject  string `yaml:"subject"`
}

// TelemetryConfig configures the optional OTLP log exporter.
type TelemetryConfig struct {
	URL       string `yaml:"url"`
	AuthToken string `yaml:"auth_token"`
}

// Config is the worker's deploy manifest.
type Config struct {
	// Version names the cache generation. Bump it on every deploy that
	// changes the app shell.
	Version string `yaml:"version"`

	// StaticAssets is the app shell prefetched at install.
	StaticAssets []string `yaml:"static_assets"`

	// APIPrefixes are the path prefixes routed network-first.
	APIPrefixes []string `yaml:"api_prefixes"`

	// OfflineFallback is the document served for failed navigations.
	OfflineFallback string `yaml:"offline_fallback"`

	// ClaimClients makes activation take over open pages immediately.
	ClaimClients bool `yaml:"claim_clients"`

	Store     StoreConfig     `yaml:"store"`
	Control   ControlConfig   `yaml:"control"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// Default returns the configuration shipped with the SusuSave app shell.
func Default() Config {
	return Config{
		Version: "v1",
		StaticAssets: []string{
			"/app/",
			"/app/index.html",
			"/app/login",
			"/app/register",
			"/app/dashboard",
			"/assets/logo.svg",
			"/assets/logo-icon.svg",
			"/assets/favicon.svg",
		},
		APIPrefixes:     []string{"/auth/", "/groups/", "/payments/", "/payouts/"},
		OfflineFallback: "/app/index.html",
		ClaimClients:    true,
		Store: StoreConfig{
			Backend:      BackendMemory,
			Prefix:       "sususave",
			QueryTimeout: "5s",
		},
	}
}

// Load reads a manifest from path, layered over Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading manifest %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing manifest %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "invalid manifest %s", path)
	}
	return cfg, nil
}

// Validate checks the manifest for the mistakes that would otherwise
// surface as silent misrouting at runtime.
func (c Config) Validate() error {
	if c.Version == "" {
		return errors.New("version is required")
	}
	for _, p := range c.APIPrefixes {
		if !strings.HasPrefix(p, "/") {
			return errors.Newf("api prefix %q must start with /", p)
		}
	}
	for _, a := range c.StaticAssets {
		if !strings.HasPrefix(a, "/") {
			return errors.Newf("static asset %q must start with /", a)
		}
	}
	if c.OfflineFallback != "" && !strings.HasPrefix(c.OfflineFallback, "/") {
		return errors.Newf("offline fallback %q must start with /", c.OfflineFallback)
	}
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return errors.Newf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendSQLite && c.Store.Path == "" {
		return errors.New("sqlite backend requires store.path")
	}
	if c.Store.Backend == BackendRedis && c.Store.RedisURL == "" {
		return errors.New("redis backend requires store.redis_url")
	}
	if c.Store.QueryTimeout != "" {
		if _, err := str2duration.ParseDuration(c.Store.QueryTimeout); err != nil {
			return errors.Wrapf(err, "invalid store.query_timeout %q", c.Store.QueryTimeout)
		}
	}
	return nil
}

// QueryTimeout returns the parsed store query timeout, or def when unset.
func (c Config) QueryTimeout(def time.Duration) time.Duration {
	if c.Store.QueryTimeout == "" {
		return def
	}
	d, err := str2duration.ParseDuration(c.Store.QueryTimeout)
	if err != nil {
		return def
	}
	return d
}
