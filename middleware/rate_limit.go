package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	DefaultWriteRate  = 20
	DefaultWriteBurst = 5
)

// RateLimiter hands out one token bucket per client IP. Idle buckets are
// dropped on the next request after idleTTL.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	proxies  TrustedProxies
	idleTTL  time.Duration
	lastGC   time.Time
	now      func() time.Time
}

// NewRateLimiter allows perMinute requests per IP with the given burst.
// Non-positive values fall back to DefaultWriteRate and DefaultWriteBurst.
// The client IP is the TCP peer unless it is one of proxies.
func NewRateLimiter(perMinute, burst int, proxies TrustedProxies) *RateLimiter {
	if perMinute <= 0 {
		perMinute = DefaultWriteRate
	}
	if burst <= 0 {
		burst = DefaultWriteBurst
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		proxies:  proxies,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastGC) > rl.idleTTL {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.idleTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastGC = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.proxies.ClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			WriteError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
