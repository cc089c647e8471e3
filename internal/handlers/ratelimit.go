package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter decides whether a client may submit another game.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}

// RedisClient defines the subset of the Redis client the limiter uses
type RedisClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisRateLimiter counts requests per client in fixed windows. A window
// admits burst requests and lasts burst/perSecond seconds, so the sustained
// rate stays at perSecond.
type RedisRateLimiter struct {
	client RedisClient
	burst  int64
	window time.Duration
	now    func() time.Time
}

func NewRedisRateLimiter(client RedisClient, perSecond, burst int) *RedisRateLimiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst < perSecond {
		burst = perSecond
	}
	window := time.Duration(burst/perSecond) * time.Second
	return &RedisRateLimiter{
		client: client,
		burst:  int64(burst),
		window: window,
		now:    time.Now,
	}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := l.now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("bullseye:ratelimit:%s:%s", key, strconv.FormatInt(slot, 10))

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", redisKey, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window+time.Second).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", redisKey, err)
		}
	}
	return count <= l.burst, nil
}

func (l *RedisRateLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// RateLimitMiddleware throttles per client IP. Limiter failures let the
// request through.
func (h *Handler) RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := h.limiter.Allow(r.Context(), clientIP(r))
		if err != nil {
			h.logger.Warnw("Rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			w.Header().Set("Retry-After", "1")
			h.errorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

var _ RedisClient = (*redis.Client)(nil)
