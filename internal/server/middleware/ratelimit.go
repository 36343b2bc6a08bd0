package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/gosuda/kanban/internal/auth"
)

// Limits is the token bucket applied to each tenant or client address.
// Buckets untouched for IdleTTL are dropped.
type Limits struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration
}

type bucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterSet holds one token bucket per key.
type limiterSet[K comparable] struct {
	limits Limits

	mu      sync.Mutex
	buckets map[K]*bucket
}

func newLimiterSet[K comparable](ctx context.Context, limits Limits) *limiterSet[K] {
	ls := &limiterSet[K]{limits: limits, buckets: make(map[K]*bucket)}
	if limits.IdleTTL > 0 {
		go ls.sweepLoop(ctx)
	}
	return ls
}

// reserve takes one token for key. When none is available it reports how
// long the caller should wait before retrying.
func (ls *limiterSet[K]) reserve(key K, now time.Time) (bool, time.Duration) {
	ls.mu.Lock()
	b, ok := ls.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(ls.limits.RPS), ls.limits.Burst)}
		ls.buckets[key] = b
	}
	b.lastAccess = now
	ls.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// sweep drops buckets idle since before now-IdleTTL.
func (ls *limiterSet[K]) sweep(now time.Time) {
	cutoff := now.Add(-ls.limits.IdleTTL)

	ls.mu.Lock()
	defer ls.mu.Unlock()
	for k, b := range ls.buckets {
		if b.lastAccess.Before(cutoff) {
			delete(ls.buckets, k)
		}
	}
}

func (ls *limiterSet[K]) size() int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return len(ls.buckets)
}

func (ls *limiterSet[K]) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(max(ls.limits.IdleTTL/3, time.Second))
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			ls.sweep(now)
		case <-ctx.Done():
			return
		}
	}
}

// RateLimit limits board API calls per tenant. It runs after Auth; requests
// without a tenant pass through untouched.
func RateLimit(ctx context.Context, limits Limits) func(http.Handler) http.Handler {
	set := newLimiterSet[uuid.UUID](ctx, limits)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, ok := auth.TenantIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if allowed, wait := set.reserve(tenantID, time.Now()); !allowed {
				tooManyRequests(w, wait, "board request rate exceeded for tenant")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits WebSocket upgrade attempts per client address. It
// runs ahead of Auth so token verification is not spent on floods. The key
// is the host part of r.RemoteAddr (set by chi's RealIP when proxied), so
// reconnects from new source ports share one bucket.
func RateLimitByIP(ctx context.Context, limits Limits) func(http.Handler) http.Handler {
	set := newLimiterSet[string](ctx, limits)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed, wait := set.reserve(clientHost(r.RemoteAddr), time.Now()); !allowed {
				tooManyRequests(w, wait, "too many board stream connections from this address")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func tooManyRequests(w http.ResponseWriter, wait time.Duration, detail string) {
	secs := max(int(math.Ceil(wait.Seconds())), 1)
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeProblem(w, http.StatusTooManyRequests, detail)
}
