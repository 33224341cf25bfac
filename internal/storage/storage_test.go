package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, err := b.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Set(ctx, "serenbot:session:abc", `{"history":[]}`))
	v, err := b.Get(ctx, "serenbot:session:abc")
	require.NoError(t, err)
	assert.Equal(t, `{"history":[]}`, v)

	require.NoError(t, b.Set(ctx, "serenbot:session:abc", `{"history":[1]}`))
	v, err = b.Get(ctx, "serenbot:session:abc")
	require.NoError(t, err)
	assert.Equal(t, `{"history":[1]}`, v)
}

func TestMemoryBackend(t *testing.T) {
	m := NewMemory()
	exerciseBackend(t, m)
	assert.Equal(t, []string{"serenbot:session:abc"}, m.Keys())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Set(ctx, "k", "v"), context.Canceled)
}

func TestSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	db, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	exerciseBackend(t, db)
	require.NoError(t, db.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	v, err := reopened.Get(ctx, "serenbot:session:abc")
	require.NoError(t, err)
	assert.Equal(t, `{"history":[1]}`, v)
}

func TestSealedBackend(t *testing.T) {
	inner := NewMemory()
	sealed, err := NewSealed(inner, "correct horse battery staple")
	require.NoError(t, err)
	exerciseBackend(t, sealed)

	ctx := context.Background()
	raw, err := inner.Get(ctx, "serenbot:session:abc")
	require.NoError(t, err)
	assert.NotContains(t, raw, "history")

	// A value moved to another key does not open.
	require.NoError(t, inner.Set(ctx, "serenbot:session:other", raw))
	_, err = sealed.Get(ctx, "serenbot:session:other")
	assert.Error(t, err)

	wrongKey, err := NewSealed(inner, "another secret")
	require.NoError(t, err)
	_, err = wrongKey.Get(ctx, "serenbot:session:abc")
	assert.Error(t, err)

	_, err = NewSealed(inner, "")
	assert.Error(t, err)
}

type fakeRedis struct {
	values map[string]string
	ttl    time.Duration
	err    error
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = value.(string)
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisBackend(t *testing.T) {
	client := &fakeRedis{values: map[string]string{}}
	exerciseBackend(t, NewRedis(client, time.Hour))
	assert.Equal(t, time.Hour, client.ttl)

	client.err = errors.New("connection reset")
	_, err := NewRedis(client, 0).Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, strings.HasPrefix(err.Error(), "redis get"))
}
