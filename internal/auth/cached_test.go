package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/lildude/strengthboard/internal/cache"
	"github.com/lildude/strengthboard/internal/logger"
	"github.com/lildude/strengthboard/internal/supabase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	r := miniredis.RunT(t)
	c, err := cache.NewRedisCache(context.Background(), fmt.Sprintf("redis://%s", r.Addr()))
	require.NoError(t, err)
	return c, r
}

func TestCachedProvider(t *testing.T) {
	ctx := context.Background()
	c, r := newRedis(t)
	next := aliceProvider()
	p := NewCachedProvider(next, c, time.Minute, logger.Discard())

	for i := 0; i < 3; i++ {
		u, err := p.GetUser(ctx, "alice-token")
		require.NoError(t, err)
		assert.Equal(t, "sub-alice", u.ID)
		assert.Equal(t, "Alice", u.DisplayName())
	}
	assert.Equal(t, 1, next.calls)

	for _, key := range r.Keys() {
		assert.NotContains(t, key, "alice-token")
	}

	r.FastForward(2 * time.Minute)
	_, err := p.GetUser(ctx, "alice-token")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedProviderDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedis(t)
	next := aliceProvider()
	p := NewCachedProvider(next, c, time.Minute, logger.Discard())

	for i := 0; i < 2; i++ {
		_, err := p.GetUser(ctx, "mallory-token")
		assert.True(t, errors.Is(err, supabase.ErrInvalidToken))
	}
	assert.Equal(t, 2, next.calls)
}

func TestBridgeForget(t *testing.T) {
	ctx := context.Background()
	c, r := newRedis(t)
	next := aliceProvider()
	b := NewBridge(WithProvider(NewCachedProvider(next, c, time.Hour, logger.Discard())), WithLogger(logger.Discard()))

	_, err := b.provider.GetUser(ctx, "alice-token")
	require.NoError(t, err)
	require.Len(t, r.Keys(), 1)

	req := bearer("alice-token")
	req.Method = http.MethodPost
	b.Forget(ctx, req)
	assert.Empty(t, r.Keys())
}
