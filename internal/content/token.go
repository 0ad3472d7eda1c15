package content

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// ErrTokenUnavailable indicates that an access token could not be obtained.
var ErrTokenUnavailable = errors.New("access token unavailable")

// tokenExpiryMargin is subtracted from upstream expiries so tokens are
// refreshed before they actually lapse mid-request.
const tokenExpiryMargin = time.Minute

// tokenStore manages a client-credentials access token for one upstream
// API. Tokens are held in memory and mirrored to Redis so restarts reuse
// a still-valid token instead of hitting the auth endpoint again.
type tokenStore struct {
	name   string
	client rueidis.Client
	fetch  func(ctx context.Context) (string, time.Duration, error)
	logger *zap.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newTokenStore(
	name string,
	client rueidis.Client,
	logger *zap.Logger,
	fetch func(ctx context.Context) (string, time.Duration, error),
) *tokenStore {
	return &tokenStore{
		name:   name,
		client: client,
		fetch:  fetch,
		logger: logger.Named(name + "_token"),
	}
}

// get returns a valid access token, fetching a fresh one when the cached
// token is missing or expired. Pass force to discard the cached token,
// used after the upstream rejects it with a 401.
func (t *tokenStore) get(ctx context.Context, force bool) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if force {
		t.token = ""
		t.expiry = time.Time{}
	}

	if t.token != "" && time.Now().Before(t.expiry) {
		return t.token, nil
	}

	if !force {
		if token, ttl := t.loadRedis(ctx); token != "" {
			t.token = token
			t.expiry = time.Now().Add(ttl)
			return token, nil
		}
	}

	var (
		token string
		ttl   time.Duration
	)
	operation := func() error {
		var err error
		token, ttl, err = t.fetch(ctx)
		return err
	}
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrTokenUnavailable, t.name, err)
	}

	ttl -= tokenExpiryMargin
	if ttl < time.Minute {
		ttl = time.Minute
	}

	t.token = token
	t.expiry = time.Now().Add(ttl)
	t.storeRedis(ctx, token, ttl)
	t.logger.Debug("Fetched access token", zap.Duration("ttl", ttl))

	return token, nil
}

func (t *tokenStore) redisKey() string {
	return "token:" + t.name
}

func (t *tokenStore) loadRedis(ctx context.Context) (string, time.Duration) {
	if t.client == nil {
		return "", 0
	}

	token, err := t.client.Do(ctx, t.client.B().Get().Key(t.redisKey()).Build()).ToString()
	if err != nil {
		if !rueidis.IsRedisNil(err) {
			t.logger.Warn("Failed to load token from Redis", zap.Error(err))
		}
		return "", 0
	}

	ttl, err := t.client.Do(ctx, t.client.B().Ttl().Key(t.redisKey()).Build()).AsInt64()
	if err != nil || ttl <= 0 {
		return "", 0
	}

	return token, time.Duration(ttl) * time.Second
}

func (t *tokenStore) storeRedis(ctx context.Context, token string, ttl time.Duration) {
	if t.client == nil {
		return
	}

	err := t.client.Do(ctx, t.client.B().Set().Key(t.redisKey()).Value(token).Ex(ttl).Build()).Error()
	if err != nil {
		t.logger.Warn("Failed to store token in Redis", zap.Error(err))
	}
}
