// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/canteen-backend/internal/core"
)

const (
	sweepInterval = 5 * time.Minute
	bucketTTL     = 10 * time.Minute
)

// buckets takes tokens from Redis so limits hold across replicas. While
// Redis is unreachable each process falls back to its own token buckets.
type buckets struct {
	shared    *redis_rate.Limiter
	local     sync.Map
	lastSweep atomic.Int64
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

func newBuckets(rdb *redis.Client) *buckets {
	b := &buckets{shared: redis_rate.NewLimiter(rdb)}
	b.lastSweep.Store(time.Now().Unix())
	return b
}

func (b *buckets) take(
	ctx context.Context,
	key string,
	limit redis_rate.Limit,
) *redis_rate.Result {
	res, err := b.shared.Allow(ctx, key, limit)
	if err == nil {
		return res
	}

	slog.DebugContext(ctx, "rate limit store unavailable, using local bucket",
		"key", key,
		"error", err,
	)
	return b.takeLocal(key, limit)
}

func (b *buckets) takeLocal(key string, limit redis_rate.Limit) *redis_rate.Result {
	now := time.Now()
	b.sweep(now)

	perSecond := float64(limit.Rate) / limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / perSecond)

	v, _ := b.local.LoadOrStore(key, &localBucket{
		limiter: rate.NewLimiter(rate.Limit(perSecond), limit.Burst),
	})
	bucket, _ := v.(*localBucket)
	bucket.lastSeen.Store(now.Unix())

	res := &redis_rate.Result{
		Limit:      limit,
		RetryAfter: -1,
		ResetAfter: interval,
	}

	if bucket.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	res.Remaining = max(int(bucket.limiter.TokensAt(now)), 0)

	return res
}

// sweep drops idle local buckets at most once per sweepInterval.
func (b *buckets) sweep(now time.Time) {
	last := b.lastSweep.Load()
	if now.Unix()-last < int64(sweepInterval.Seconds()) {
		return
	}
	if !b.lastSweep.CompareAndSwap(last, now.Unix()) {
		return
	}

	cutoff := now.Add(-bucketTTL).Unix()
	b.local.Range(func(key, v any) bool {
		if bucket, ok := v.(*localBucket); ok && bucket.lastSeen.Load() < cutoff {
			b.local.Delete(key)
		}
		return true
	})
}

type RateLimitConfig struct {
	Limit   redis_rate.Limit
	KeyFunc func(*http.Request) string
}

type RateLimiter struct {
	buckets *buckets
	config  RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	return &RateLimiter{
		buckets: newBuckets(rdb),
		config:  cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := rl.buckets.take(r.Context(), rl.config.KeyFunc(r), rl.config.Limit)

		setRateLimitHeaders(w, res, rl.config.Limit)
		if res.Allowed == 0 {
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RoleLimit is the per-minute budget for one role.
type RoleLimit struct {
	RequestsPerMinute int
	BurstSize         int
}

// DefaultRoleLimits gives staff a larger budget than students, since the
// cook queue and admin dashboard are polled.
var DefaultRoleLimits = map[core.Role]RoleLimit{
	core.RoleStudent: {RequestsPerMinute: 60, BurstSize: 10},
	core.RoleCook:    {RequestsPerMinute: 300, BurstSize: 50},
	core.RoleAdmin:   {RequestsPerMinute: 300, BurstSize: 50},
}

// RoleRateLimiter limits authenticated requests per user, with the budget
// chosen by the caller's role. It must run after Authenticator.
func RoleRateLimiter(
	rdb *redis.Client,
	limits map[core.Role]RoleLimit,
) func(http.Handler) http.Handler {
	b := newBuckets(rdb)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetUserRole(r.Context())

			budget, ok := limits[role]
			if !ok {
				budget = limits[core.RoleStudent]
			}
			limit := PerMinute(budget.RequestsPerMinute, budget.BurstSize)

			res := b.take(r.Context(), KeyByUser(r), limit)

			w.Header().Set("X-RateLimit-Role", string(role))
			setRateLimitHeaders(w, res, limit)
			if res.Allowed == 0 {
				writeRateLimitExceeded(w, res)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PerWindow allows rate requests every period with bursts up to burst.
func PerWindow(rate, burst int, period time.Duration) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: period,
	}
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return PerWindow(rate, burst, time.Minute)
}

// ClientIP prefers the last X-Forwarded-For hop, which is the one our own
// proxy appended.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + ClientIP(r)
}

func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "ratelimit:user:" + userID
	}
	return KeyByIP(r)
}

// KeyByUserAndEndpoint buckets per caller and route shape, so ids in the
// path do not mint fresh buckets.
func KeyByUserAndEndpoint(r *http.Request) string {
	return KeyByUser(r) + ":endpoint:" + normalizeEndpoint(r.URL.Path)
}

func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if uuid.Validate(part) == nil || isNumeric(part) {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))

	h.Set("RateLimit-Policy", fmt.Sprintf(`%d;w=%d`, limit.Rate, int(limit.Period.Seconds())))
	h.Set("RateLimit", fmt.Sprintf(`%d;t=%d`, res.Remaining, int(res.ResetAfter.Seconds())))
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := max(int(res.RetryAfter.Seconds()), 1)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.JSON(w, http.StatusTooManyRequests, core.Response{
		Success: false,
		Error: &core.ErrorBody{
			Code: "RATE_LIMITED",
			Message: fmt.Sprintf(
				"rate limit exceeded, retry after %d seconds",
				retryAfter,
			),
		},
	})
}
