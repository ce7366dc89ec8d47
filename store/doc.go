// Package store implements the worker's versioned cache store: named
// key-to-snapshot containers with multiple backends and generation
// management across deploys.
//
// # Model
//
// A [Snapshot] is a stored copy of a response (status, headers, body)
// keyed by [Key], the normalized method + URL including the query string.
// A [Store] is one named container of snapshots; a [Storage] manages the
// full set of named stores and is the only durable state the worker owns.
//
// Store names are generation-scoped through [Generations]: each deploy
// gets a fresh "<kind>@<generation>" store per kind (static, api), and
// activation deletes every store from older generations wholesale. A
// [Handle] returned by [Generations.Open] is tagged with the generation
// it resolved at acquisition time, and [Handle.Put] re-checks that the
// store still exists before writing. This is what lets a purge or an
// activation sweep "win" against an in-flight background write: the late
// write observes the deletion and is dropped with [ErrGenerationGone]
// instead of resurrecting a dead generation.
//
// # Implementations
//
// Three implementations are provided:
//
//   - [NewMemory]: in-process maps guarded by mutexes. Fastest option,
//     no serialization; lost on restart. The default for tests.
//
//   - [NewSQLite]: backed by a SQLite database using [modernc.org/sqlite]
//     (pure Go, no CGO). Snapshots are serialized to msgpack and stored as
//     BLOBs; store membership lives in its own table so empty stores are
//     still listed, matching the semantics of the other backends. WAL mode
//     is enabled. This is the backend that gives the worker an offline
//     cache that survives restarts.
//
//   - [NewRedis]: backed by Redis using [github.com/redis/go-redis/v9],
//     for a cache shared across worker processes. Entry keys use a fixed
//     xxhash digest of the request key; a per-store index set supports
//     Remove and Len. The caller owns the redis.Client lifecycle.
//
// Every I/O-backed operation applies a per-query timeout
// ([DefaultQueryTimeout], configurable with [WithQueryTimeout]) so slow
// storage can never hang a request.
//
// # Concurrency
//
// Individual Store and Storage operations are atomic, but no ordering is
// guaranteed across operations; callers that care about deletion races
// must go through [Handle]. Snapshots returned by Get are shared; do not
// mutate them.
package store
