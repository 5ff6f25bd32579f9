package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/realitycheck-ai/internal/config"
	"github.com/wolfman30/realitycheck-ai/internal/audit"
	httpmiddleware "github.com/wolfman30/realitycheck-ai/internal/http/middleware"
	"github.com/wolfman30/realitycheck-ai/pkg/logging"
)

const dependencyPingTimeout = 5 * time.Second

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	pingCtx, cancel := context.WithTimeout(ctx, dependencyPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildLimiter returns the /api rate limiter. Redis shares counters across
// instances; without it each process keeps its own window.
func BuildLimiter(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (httpmiddleware.Limiter, func()) {
	if cfg == nil || cfg.RateLimitMax <= 0 {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if redisClient != nil {
		logger.Info("rate limiting enabled", "backend", "redis", "max", cfg.RateLimitMax, "window", cfg.RateLimitWindow.String())
		return httpmiddleware.NewRedisLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow), nil
	}
	limiter := httpmiddleware.NewWindowLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	logger.Info("rate limiting enabled", "backend", "memory", "max", cfg.RateLimitMax, "window", cfg.RateLimitWindow.String())
	return limiter, limiter.Close
}

// BuildAuditStore connects the analysis audit trail when DATABASE_URL is set.
// Connection failures disable the trail instead of failing startup.
func BuildAuditStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*audit.Store, func()) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("audit trail disabled: invalid database url", "error", err)
		return nil, nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, dependencyPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Warn("audit trail disabled: postgres not available", "error", err)
		pool.Close()
		return nil, nil
	}
	logger.Info("audit trail enabled")
	return audit.NewStore(pool), pool.Close
}
