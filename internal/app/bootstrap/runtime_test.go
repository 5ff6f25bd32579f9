package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/realitycheck-ai/internal/config"
	httpmiddleware "github.com/wolfman30/realitycheck-ai/internal/http/middleware"
)

func TestBuildRedisClientDisabled(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, quietLogger(), true); client != nil {
		t.Fatalf("expected nil client without REDIS_ADDR")
	}
}

func TestBuildRedisClientVerifies(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, quietLogger(), true)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	mr.Close()
	if client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, quietLogger(), true); client != nil {
		t.Fatalf("expected nil client when redis is down")
	}
}

func TestBuildLimiter(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		limiter, closeFn := BuildLimiter(&appconfig.Config{RateLimitMax: 0}, nil, quietLogger())
		assert.Nil(t, limiter)
		assert.Nil(t, closeFn)
	})

	t.Run("memory", func(t *testing.T) {
		cfg := &appconfig.Config{RateLimitMax: 15, RateLimitWindow: 15 * time.Minute}
		limiter, closeFn := BuildLimiter(cfg, nil, quietLogger())
		require.NotNil(t, closeFn)
		defer closeFn()
		_, ok := limiter.(*httpmiddleware.WindowLimiter)
		assert.True(t, ok, "expected *WindowLimiter, got %T", limiter)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &appconfig.Config{RedisAddr: mr.Addr(), RateLimitMax: 15, RateLimitWindow: 15 * time.Minute}
		client := BuildRedisClient(context.Background(), cfg, quietLogger(), false)
		t.Cleanup(func() { _ = client.Close() })

		limiter, closeFn := BuildLimiter(cfg, client, quietLogger())
		assert.Nil(t, closeFn)
		_, ok := limiter.(*httpmiddleware.RedisLimiter)
		require.True(t, ok, "expected *RedisLimiter, got %T", limiter)

		decision, err := limiter.Allow(context.Background(), "203.0.113.1")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, 14, decision.Remaining)
	})
}

func TestBuildAuditStoreDisabled(t *testing.T) {
	store, closeFn := BuildAuditStore(context.Background(), &appconfig.Config{}, quietLogger())
	assert.Nil(t, store)
	assert.Nil(t, closeFn)
}

func TestBuildAuditStoreInvalidURL(t *testing.T) {
	store, closeFn := BuildAuditStore(context.Background(), &appconfig.Config{DatabaseURL: "://not a url"}, quietLogger())
	assert.Nil(t, store)
	assert.Nil(t, closeFn)
}
