package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/folio-labs/folio/pkg/logger"
	"github.com/folio-labs/folio/pkg/response"
)

// maxLocalBuckets caps the fallback map; beyond it, buckets idle for a
// full window are evicted before a new client gets one.
const maxLocalBuckets = 4096

// RateLimiter counts requests per client IP in a fixed window. With a
// Redis client the window is shared across replicas; without one each
// process falls back to a local token bucket of the same average rate.
type RateLimiter struct {
	rdb     *redis.Client
	prefix  string
	limit   int
	window  time.Duration
	message string

	mu      sync.Mutex
	buckets map[string]*localBucket
}

type localBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter builds a limiter. rdb may be nil.
func NewRateLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration, message string) *RateLimiter {
	return &RateLimiter{
		rdb:     rdb,
		prefix:  prefix,
		limit:   limit,
		window:  window,
		message: message,
		buckets: make(map[string]*localBucket),
	}
}

// Handler is the gin middleware entry point.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c) {
			response.Error(c, http.StatusTooManyRequests, rl.message)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(c *gin.Context) bool {
	ip := c.ClientIP()
	if rl.rdb == nil {
		return rl.local(ip).Allow()
	}

	ctx := c.Request.Context()
	key := rl.prefix + ":" + ip
	pipe := rl.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// NX: the window starts at the first request and must not slide on
	// later hits, or a steadily active client never gets a fresh window.
	pipe.ExpireNX(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		// Redis down should not take the API with it.
		logger.Warn("rate limiter redis unavailable", zap.Error(err))
		return rl.local(ip).Allow()
	}
	return incr.Val() <= int64(rl.limit)
}

func (rl *RateLimiter) local(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[ip]
	if !ok {
		if len(rl.buckets) >= maxLocalBuckets {
			rl.evictIdleLocked()
		}
		perSec := rate.Limit(float64(rl.limit) / rl.window.Seconds())
		b = &localBucket{lim: rate.NewLimiter(perSec, rl.limit)}
		rl.buckets[ip] = b
	}
	b.lastSeen = time.Now()
	return b.lim
}

// evictIdleLocked drops buckets that have not been seen for a full
// window. Callers hold rl.mu.
func (rl *RateLimiter) evictIdleLocked() {
	cutoff := time.Now().Add(-rl.window)
	for ip, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, ip)
		}
	}
}
