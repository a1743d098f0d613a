package dispatchhttp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/dispatch-recon/internal/dispatch"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestNewCacheDisabled(t *testing.T) {
	assert.Nil(t, NewCache(nil, time.Minute, nil))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	assert.Nil(t, NewCache(client, 0, nil))
}

func TestCacheFetchJSON(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "dispatch", "list", "x")
	require.NoError(t, err)
	assert.Equal(t, "dispatch:list:x:1", key)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]int{"n": calls}, nil
	}

	var first, second map[string]int
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))
}

func TestCacheBumpChangesKey(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "dispatch", "summary")
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))
	after, err := cache.BuildKey(ctx, "dispatch", "summary")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
	assert.Equal(t, "dispatch:summary:2", after)
}

func TestCacheLoaderErrorNotCached(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	boom := errors.New("boom")

	var dest map[string]int
	err := cache.FetchJSON(ctx, "k", &dest, func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestCacheFallsBackWhenRedisDown(t *testing.T) {
	cache, mr := newTestCache(t)
	mr.Close()

	var dest map[string]int
	err := cache.FetchJSON(context.Background(), "k", &dest, func(context.Context) (any, error) {
		return map[string]int{"n": 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dest["n"])
}

func TestHandlerServesListFromCache(t *testing.T) {
	cache, _ := newTestCache(t)
	svc := &stubService{list: sampleList()}
	h, router := newTestHandler(svc, cache)

	for i := 0; i < 3; i++ {
		rec := get(t, router, "/dispatch/invoices?status=all")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, svc.calls())

	rec := get(t, router, "/dispatch/invoices?page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, svc.calls(), "different page is a different entry")

	require.NoError(t, h.Warm(context.Background()))
	assert.Equal(t, 3, svc.calls(), "warmup recomputes the default page")
	assert.Equal(t, dispatch.ListQuery{Page: 1, Limit: 20}, svc.lastList)

	rec = get(t, router, "/dispatch/invoices")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, svc.calls(), "default page served from the warmed cache")
}

func TestHandlerDoesNotCacheFailures(t *testing.T) {
	cache, _ := newTestCache(t)
	svc := &stubService{err: dispatch.ErrSourceUnavailable}
	_, router := newTestHandler(svc, cache)

	assert.Equal(t, http.StatusBadGateway, get(t, router, "/dispatch/invoices").Code)
	assert.Equal(t, http.StatusBadGateway, get(t, router, "/dispatch/invoices").Code)
	assert.Equal(t, 2, svc.calls())
}
