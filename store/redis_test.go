package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	defer client.Close()
	storage := NewRedis(client, WithPrefix("sususave"))
	defer storage.Close()

	s, err := storage.Open(ctx, "api@v1")
	require.NoError(t, err)

	_, found, err := s.Get(ctx, "GET /groups/5")
	assert.NoError(t, err)
	assert.False(t, found)

	in := snap(200, `{"id":5}`)
	require.NoError(t, s.Put(ctx, "GET /groups/5", in))

	got, found, err := s.Get(ctx, "GET /groups/5")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte(`{"id":5}`), got.Body)

	n, err := s.Len(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRedisNamesHasRemove(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	defer client.Close()
	storage := NewRedis(client)
	defer storage.Close()

	s, err := storage.Open(ctx, "static@v1")
	require.NoError(t, err)
	_, err = storage.Open(ctx, "api@v1")
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "GET /app/", snap(200, "shell")))

	names, err := storage.Names(ctx)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"static@v1", "api@v1"}, names)

	ok, err := storage.Remove(ctx, "static@v1")
	assert.NoError(t, err)
	assert.True(t, ok)

	has, err := storage.Has(ctx, "static@v1")
	assert.NoError(t, err)
	assert.False(t, has)

	// Entries went with the store.
	s2, err := storage.Open(ctx, "static@v1")
	require.NoError(t, err)
	_, found, err := s2.Get(ctx, "GET /app/")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestRedisDelete(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	defer client.Close()
	storage := NewRedis(client, WithPrefix("t"))
	defer storage.Close()

	s, err := storage.Open(ctx, "static@v1")
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "GET /a.css", snap(200, "a")))

	ok, err := s.Delete(ctx, "GET /a.css")
	assert.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Delete(ctx, "GET /a.css")
	assert.NoError(t, err)
	assert.False(t, ok)
}
