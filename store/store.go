package store

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Snapshot is a stored copy of a response: everything needed to replay it
// to a caller when the network is unavailable.
type Snapshot struct {
	Method     string              `msgpack:"method"`
	URL        string              `msgpack:"url"`
	Status     int                 `msgpack:"status"`
	Header     map[string][]string `msgpack:"header"`
	Body       []byte              `msgpack:"body"`
	Generation string              `msgpack:"generation"`
	StoredAt   time.Time           `msgpack:"stored_at"`
}

// Cacheable reports whether the snapshot may be written to a store.
// Only plain 200 responses are cached; redirects, errors, and partial
// content are always served live.
func (s *Snapshot) Cacheable() bool {
	return s != nil && s.Status == http.StatusOK
}

// Key builds the normalized request key for a method and URL. The query
// string is part of the key; fragments and the scheme/host are not, since
// one worker serves one origin.
func Key(method, rawURL string) string {
	m := strings.ToUpper(method)
	if m == "" {
		m = http.MethodGet
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return m + " " + rawURL
	}
	key := u.EscapedPath()
	if key == "" {
		key = "/"
	}
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return m + " " + key
}

// HashKey returns a fixed-length digest of a request key, used by backends
// whose key length is bounded.
func HashKey(key string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

// Store is one named key to snapshot container. Individual operations are
// atomic; no ordering is guaranteed across operations.
type Store interface {
	// Get returns the snapshot stored under key, if any.
	Get(ctx context.Context, key string) (*Snapshot, bool, error)
	// Put stores or overwrites the snapshot under key.
	Put(ctx context.Context, key string, snap *Snapshot) error
	// Delete removes the entry for key, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// Len returns the number of entries in the store.
	Len(ctx context.Context) (int, error)
}

// Storage manages a set of named stores. It is the durable shared resource
// of the worker; everything else is reconstructible.
type Storage interface {
	// Open returns the store with the given name, creating it if needed.
	Open(ctx context.Context, name string) (Store, error)
	// Names lists every store name, including empty stores.
	Names(ctx context.Context) ([]string, error)
	// Has reports whether a store with the given name exists.
	Has(ctx context.Context, name string) (bool, error)
	// Remove deletes the store and all of its entries.
	Remove(ctx context.Context, name string) (bool, error)
	// Close releases backend resources.
	Close() error
}

// DefaultQueryTimeout is the per-operation timeout for storage backends
// that perform I/O (SQLite, Redis).
const DefaultQueryTimeout = 5 * time.Second

type config struct {
	queryTimeout time.Duration
	prefix       string
}

// Option configures a Storage implementation.
type Option func(*config)

func defaultConfig() config {
	return config{queryTimeout: DefaultQueryTimeout}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithQueryTimeout sets the per-operation timeout for I/O-backed storage.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *config) { c.queryTimeout = d }
}

// WithPrefix sets the key prefix for namespacing storage keys.
// Applies to the Redis backend.
func WithPrefix(p string) Option {
	return func(c *config) { c.prefix = p }
}
