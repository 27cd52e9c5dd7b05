package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openhaus/atrium/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPublicClient = "public:client:%s"

// PublicLimiter throttles unauthenticated endpoints per client address.
// Without a redis address configured it is disabled and every request is
// allowed through.
type PublicLimiter struct {
	enabled bool

	log    *zap.Logger
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewPublicLimiter(cfg config.Config, log *zap.Logger) *PublicLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return &PublicLimiter{log: log.Named("ratelimit")}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &PublicLimiter{
		enabled: true,
		log:     log.Named("ratelimit"),
		bucket:  NewTokenBucket(client),
		rate:    cfg.PublicRateLimit,
		burst:   cfg.PublicRateBurst,
	}
}

func (l *PublicLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow reports whether the client may proceed. Redis failures fail open so
// a cache outage never takes the public pages down with it.
func (l *PublicLimiter) Allow(ctx context.Context, clientIP string) (bool, time.Duration) {
	if !l.Enabled() {
		return true, 0
	}

	key := fmt.Sprintf(keyPublicClient, strings.TrimSpace(clientIP))
	res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limit check failed", zap.Error(err))
		return true, 0
	}
	return res.Allowed, res.RetryAfter
}
