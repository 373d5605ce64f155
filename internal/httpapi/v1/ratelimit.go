package v1

import (
    "net"
    "net/http"
    "strconv"
    "sync"
    "time"

    "golang.org/x/time/rate"

    "github.com/tinoosan/wallet/internal/ledger"
)

const (
    // limiterIdle is how long an unused limiter is kept.
    limiterIdle = 10 * time.Minute
    // limiterSweepAt triggers a sweep once this many callers are tracked.
    limiterSweepAt = 10000
)

type callerLimiter struct {
    lim      *rate.Limiter
    lastSeen time.Time
}

// rateLimiter keeps one token bucket per caller identity, or per remote
// address for anonymous reads. A nil *rateLimiter lets everything through.
type rateLimiter struct {
    mu       sync.Mutex
    limiters map[string]*callerLimiter
    rate     rate.Limit
    burst    int
    now      func() time.Time
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
    if rps <= 0 {
        return nil
    }
    if burst <= 0 {
        burst = 1
    }
    return &rateLimiter{
        limiters: make(map[string]*callerLimiter),
        rate:     rate.Limit(rps),
        burst:    burst,
        now:      time.Now,
    }
}

func (rl *rateLimiter) allow(key string) bool {
    if rl == nil {
        return true
    }
    rl.mu.Lock()
    defer rl.mu.Unlock()
    now := rl.now()
    if len(rl.limiters) >= limiterSweepAt {
        for k, cl := range rl.limiters {
            if now.Sub(cl.lastSeen) > limiterIdle {
                delete(rl.limiters, k)
            }
        }
    }
    cl, ok := rl.limiters[key]
    if !ok {
        cl = &callerLimiter{lim: rate.NewLimiter(rl.rate, rl.burst)}
        rl.limiters[key] = cl
    }
    cl.lastSeen = now
    return cl.lim.AllowN(now, 1)
}

// Handler must run after identify so the caller is known.
func (rl *rateLimiter) Handler(next http.Handler) http.Handler {
    if rl == nil {
        return next
    }
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        key := "addr:" + remoteHost(r)
        if id := CallerFrom(r.Context()); id != ledger.Anonymous {
            key = "id:" + id.String()
        }
        if !rl.allow(key) {
            rl.reject(w)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// exhausted reports whether key has no token left without taking one.
func (rl *rateLimiter) exhausted(key string) bool {
    if rl == nil {
        return false
    }
    rl.mu.Lock()
    defer rl.mu.Unlock()
    cl, ok := rl.limiters[key]
    if !ok {
        return false
    }
    return cl.lim.TokensAt(rl.now()) < 1
}

// failKey buckets failed authentications by remote address.
func failKey(r *http.Request) string { return "fail:" + remoteHost(r) }

func (rl *rateLimiter) reject(w http.ResponseWriter) {
    w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(rl.rate)))
    writeErr(w, http.StatusTooManyRequests, "rate limit exceeded", "rate_limited")
}

func remoteHost(r *http.Request) string {
    host, _, err := net.SplitHostPort(r.RemoteAddr)
    if err != nil {
        return r.RemoteAddr
    }
    return host
}

func retryAfterSeconds(l rate.Limit) int {
    if l >= 1 {
        return 1
    }
    return int(1/float64(l)) + 1
}
