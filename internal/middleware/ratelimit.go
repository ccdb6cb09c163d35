package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/renzhou/botdeck/backend/pkg/utils"
)

// RateLimiter applies a per-client token bucket to the relay endpoint so one
// embedded widget cannot exhaust the upstream quota.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*clientBucket
	rps      rate.Limit
	burst    int
	maxIdle  time.Duration
	stopOnce sync.Once
	stop     chan struct{}
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with the
// given burst per client IP. Stale buckets are swept in the background.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*clientBucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		maxIdle: 10 * time.Minute,
		stop:    make(chan struct{}),
	}

	go rl.sweep()

	return rl
}

// Handler wraps next with the rate check, answering 429 when a client is over
// its budget.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientKey(r)) {
			utils.RespondError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close stops the background sweeper.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = bucket
	}
	bucket.lastSeen = time.Now()

	return bucket.limiter.Allow()
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-rl.maxIdle)
			rl.mu.Lock()
			for key, bucket := range rl.buckets {
				if bucket.lastSeen.Before(cutoff) {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func clientKey(r *http.Request) string {
	// chi's RealIP middleware rewrites RemoteAddr from X-Forwarded-For.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
