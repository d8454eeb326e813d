package httpmw

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/polimarket/market-service/internal/logger"
	"github.com/polimarket/market-service/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// Counter increments a fixed-window counter and returns its new value.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter keeps windows in Redis so limits hold across restarts.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return incr.Val(), nil
}

type RateLimiter struct {
	counter Counter
	prefix  string
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewRateLimiter(counter Counter, prefix string, limit int, window time.Duration) *RateLimiter {
	if window < time.Second {
		window = time.Minute
	}

	return &RateLimiter{
		counter: counter,
		prefix:  prefix,
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Middleware limits requests per client IP and route. A nil limiter or a
// counter error lets the request through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl == nil || rl.counter == nil || rl.limit <= 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		bucket := rl.now().Unix() / int64(rl.window.Seconds())
		key := fmt.Sprintf("%s:%s:%s:%d", rl.prefix, route, clientIP(r), bucket)

		count, err := rl.counter.Incr(r.Context(), key, rl.window)
		if err != nil {
			logger.FromContext(r.Context()).Warn("rate limiter unavailable", "err", err)
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > int64(rl.limit) {
			metrics.RateLimitHits.WithLabelValues(route).Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP relies on chi's RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
