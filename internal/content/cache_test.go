package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRedis(t *testing.T) (rueidis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}

func TestCachedMissThenHit(t *testing.T) {
	t.Parallel()

	client, _ := setupRedis(t)
	cache := NewCache(client, zap.NewNop())
	ctx := context.Background()

	fetches := 0
	fetch := func(context.Context) ([]Result, error) {
		fetches++
		return []Result{{ID: "550", Title: "Fight Club"}}, nil
	}

	key := cacheKey("tmdb", "search", "fight club")

	first, err := cached(ctx, cache, key, SearchTTL, fetch)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "Fight Club", first[0].Title)

	second, err := cached(ctx, cache, key, SearchTTL, fetch)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetches, "second lookup should be served from cache")
}

func TestCachedExpiredEntryRefetches(t *testing.T) {
	t.Parallel()

	client, mr := setupRedis(t)
	cache := NewCache(client, zap.NewNop())
	ctx := context.Background()

	fetches := 0
	fetch := func(context.Context) (*Media, error) {
		fetches++
		return &Media{ID: "1942", Title: "The Witcher 3"}, nil
	}

	key := cacheKey("igdb", "details", "1942")

	_, err := cached(ctx, cache, key, SearchTTL, fetch)
	require.NoError(t, err)

	mr.FastForward(SearchTTL + time.Second)

	_, err = cached(ctx, cache, key, SearchTTL, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)
}

func TestCachedRedisOutageFallsThrough(t *testing.T) {
	t.Parallel()

	client, mr := setupRedis(t)
	cache := NewCache(client, zap.NewNop())
	mr.Close()

	value, err := cached(context.Background(), cache, "content:x", SearchTTL,
		func(context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", value)
}

func TestCachedFetchErrorNotStored(t *testing.T) {
	t.Parallel()

	client, _ := setupRedis(t)
	cache := NewCache(client, zap.NewNop())
	ctx := context.Background()

	wantErr := errors.New("upstream down")
	key := cacheKey("spotify", "search", "ok computer")

	_, err := cached(ctx, cache, key, SearchTTL,
		func(context.Context) ([]Result, error) { return nil, wantErr })
	require.ErrorIs(t, err, wantErr)

	fetches := 0
	_, err = cached(ctx, cache, key, SearchTTL,
		func(context.Context) ([]Result, error) {
			fetches++
			return []Result{}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 1, fetches, "failed fetch must not leave a cache entry")
}

func TestCacheKeyDistinguishesParams(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		cacheKey("tmdb", "search", "dune"),
		cacheKey("tmdb", "search", "dune"))
	assert.NotEqual(t,
		cacheKey("tmdb", "search", "dune"),
		cacheKey("tmdb", "search", "dune 2"))
	assert.NotEqual(t,
		cacheKey("tmdb", "search", "dune"),
		cacheKey("igdb", "search", "dune"))
}

func TestTokenStoreReusesMemoryToken(t *testing.T) {
	t.Parallel()

	client, _ := setupRedis(t)

	fetches := 0
	store := newTokenStore("twitch", client, zap.NewNop(), func(context.Context) (string, time.Duration, error) {
		fetches++
		return "tok-1", time.Hour, nil
	})

	ctx := context.Background()

	token, err := store.get(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	token, err = store.get(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, 1, fetches)
}

func TestTokenStoreSurvivesRestart(t *testing.T) {
	t.Parallel()

	client, _ := setupRedis(t)
	ctx := context.Background()

	first := newTokenStore("spotify", client, zap.NewNop(), func(context.Context) (string, time.Duration, error) {
		return "tok-1", time.Hour, nil
	})

	_, err := first.get(ctx, false)
	require.NoError(t, err)

	// A fresh store with an empty memory cache models a process restart.
	second := newTokenStore("spotify", client, zap.NewNop(), func(context.Context) (string, time.Duration, error) {
		t.Fatal("restart should reuse the mirrored token")
		return "", 0, nil
	})

	token, err := second.get(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestTokenStoreForceRefresh(t *testing.T) {
	t.Parallel()

	client, _ := setupRedis(t)
	ctx := context.Background()

	fetches := 0
	store := newTokenStore("twitch", client, zap.NewNop(), func(context.Context) (string, time.Duration, error) {
		fetches++
		if fetches == 1 {
			return "tok-1", time.Hour, nil
		}
		return "tok-2", time.Hour, nil
	})

	_, err := store.get(ctx, false)
	require.NoError(t, err)

	token, err := store.get(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)
	assert.Equal(t, 2, fetches)
}

func TestTokenStoreFetchFailure(t *testing.T) {
	t.Parallel()

	client, _ := setupRedis(t)

	store := newTokenStore("twitch", client, zap.NewNop(), func(context.Context) (string, time.Duration, error) {
		return "", 0, errors.New("invalid client secret")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := store.get(ctx, false)
	require.ErrorIs(t, err, ErrTokenUnavailable)
}
