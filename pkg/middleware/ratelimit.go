package middleware

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"ticket-booking/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long a client bucket survives without traffic. An
// idle bucket is full again by then, so dropping it changes nothing.
const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

type rateLimiter struct {
	visitors  sync.Map
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep atomic.Int64
	now       func() time.Time
}

func newRateLimiter(config utils.RateLimitConfig) *rateLimiter {
	l := &rateLimiter{
		rps:     rate.Limit(config.RPS),
		burst:   config.Burst,
		idleTTL: limiterIdleTTL,
		now:     time.Now,
	}
	if l.burst <= 0 {
		l.burst = 5
	}
	if config.RPS <= 0 {
		l.rps = rate.Inf
	}
	return l
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	now := l.now()
	l.sweep(now)

	v, ok := l.visitors.Load(key)
	if !ok {
		v, _ = l.visitors.LoadOrStore(key, &visitor{limiter: rate.NewLimiter(l.rps, l.burst)})
	}
	vis := v.(*visitor)
	vis.lastSeen.Store(now.UnixNano())
	return vis.limiter
}

// sweep drops idle visitors at most once per idleTTL; one caller wins the CAS.
func (l *rateLimiter) sweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(l.idleTTL) {
		return
	}
	if !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}

	cutoff := now.Add(-l.idleTTL).UnixNano()
	l.visitors.Range(func(key, v any) bool {
		if v.(*visitor).lastSeen.Load() < cutoff {
			l.visitors.Delete(key)
		}
		return true
	})
}

// RateLimit throttles per authenticated user, falling back to the client IP.
// It must run after AuthSession to see the user.
func RateLimit(config utils.RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	limiter := newRateLimiter(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !limiter.getLimiter(key).Allow() {
				logger.Warn("Rate limit exceeded",
					zap.String("key", key),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseTooManyRequests(w, "Too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		return "user:" + userID.String()
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
