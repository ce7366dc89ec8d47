package store

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

type redisStorage struct {
	client *redis.Client
	cfg    config
}

var _ Storage = (*redisStorage)(nil)

// NewRedis returns a Storage backed by Redis, for deployments where the
// worker cache is shared across processes (e.g. an edge node fronting
// several PWA instances). The caller owns the redis.Client lifecycle;
// Close is a no-op on the client.
func NewRedis(client *redis.Client, opts ...Option) Storage {
	return &redisStorage{client: client, cfg: applyOptions(opts)}
}

func (r *redisStorage) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, r.cfg.queryTimeout)
}

func (r *redisStorage) registryKey() string {
	if r.cfg.prefix == "" {
		return "stores"
	}
	return r.cfg.prefix + ":stores"
}

func (r *redisStorage) entryKey(name, key string) string {
	// Request keys are unbounded (they carry the query string), so the
	// Redis key uses a fixed-length digest instead.
	k := name + ":" + HashKey(key)
	if r.cfg.prefix == "" {
		return k
	}
	return r.cfg.prefix + ":" + k
}

func (r *redisStorage) indexKey(name string) string {
	k := name + ":keys"
	if r.cfg.prefix == "" {
		return k
	}
	return r.cfg.prefix + ":" + k
}

func (r *redisStorage) Open(ctx context.Context, name string) (Store, error) {
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()
	if err := r.client.SAdd(qctx, r.registryKey(), name).Err(); err != nil {
		return nil, err
	}
	return &redisStore{parent: r, name: name}, nil
}

func (r *redisStorage) Names(ctx context.Context) ([]string, error) {
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()
	return r.client.SMembers(qctx, r.registryKey()).Result()
}

func (r *redisStorage) Has(ctx context.Context, name string) (bool, error) {
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()
	return r.client.SIsMember(qctx, r.registryKey(), name).Result()
}

func (r *redisStorage) Remove(ctx context.Context, name string) (bool, error) {
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()
	existed, err := r.client.SIsMember(qctx, r.registryKey(), name).Result()
	if err != nil {
		return false, err
	}
	members, err := r.client.SMembers(qctx, r.indexKey(name)).Result()
	if err != nil {
		return false, err
	}
	pipe := r.client.Pipeline()
	for _, member := range members {
		pipe.Del(qctx, member)
	}
	pipe.Del(qctx, r.indexKey(name))
	pipe.SRem(qctx, r.registryKey(), name)
	if _, err := pipe.Exec(qctx); err != nil {
		return false, err
	}
	return existed, nil
}

// Close is a no-op; the caller owns the redis.Client lifecycle.
func (r *redisStorage) Close() error {
	return nil
}

type redisStore struct {
	parent *redisStorage
	name   string
}

var _ Store = (*redisStore)(nil)

func (s *redisStore) Get(ctx context.Context, key string) (*Snapshot, bool, error) {
	qctx, cancel := s.parent.queryCtx(ctx)
	defer cancel()
	data, err := s.parent.client.Get(qctx, s.parent.entryKey(s.name, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, false, err
	}
	return &snap, true, nil
}

func (s *redisStore) Put(ctx context.Context, key string, snap *Snapshot) error {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return err
	}
	qctx, cancel := s.parent.queryCtx(ctx)
	defer cancel()
	entry := s.parent.entryKey(s.name, key)
	pipe := s.parent.client.Pipeline()
	pipe.Set(qctx, entry, data, 0)
	pipe.SAdd(qctx, s.parent.indexKey(s.name), entry)
	_, err = pipe.Exec(qctx)
	return err
}

func (s *redisStore) Delete(ctx context.Context, key string) (bool, error) {
	qctx, cancel := s.parent.queryCtx(ctx)
	defer cancel()
	entry := s.parent.entryKey(s.name, key)
	removed, err := s.parent.client.Del(qctx, entry).Result()
	if err != nil {
		return false, err
	}
	s.parent.client.SRem(qctx, s.parent.indexKey(s.name), entry)
	return removed > 0, nil
}

func (s *redisStore) Len(ctx context.Context) (int, error) {
	qctx, cancel := s.parent.queryCtx(ctx)
	defer cancel()
	count, err := s.parent.client.SCard(qctx, s.parent.indexKey(s.name)).Result()
	return int(count), err
}
