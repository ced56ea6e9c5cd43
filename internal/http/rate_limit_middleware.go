package httpx

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const rateLimiterSweepInterval = 5 * time.Minute

// RateLimiter counts requests per key inside fixed windows.
type RateLimiter interface {
	Allow(key string, limit int, window time.Duration) rateDecision
	Close()
}

type rateDecision struct {
	allowed bool
	count   int
	resetAt time.Time
}

func (d rateDecision) remaining(limit int) int {
	return max(limit-d.count, 0)
}

type window struct {
	count int
	end   time.Time
}

type memoryRateLimiter struct {
	now func() time.Time

	mu      sync.Mutex
	windows map[string]window

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryRateLimiter returns a RateLimiter that keeps its counters in this
// process. Expired windows are swept in the background until Close.
func NewMemoryRateLimiter() RateLimiter {
	rl := newMemoryRateLimiter(time.Now)
	go rl.sweep(rateLimiterSweepInterval)
	return rl
}

func newMemoryRateLimiter(now func() time.Time) *memoryRateLimiter {
	return &memoryRateLimiter{
		now:     now,
		windows: make(map[string]window),
		stop:    make(chan struct{}),
	}
}

func (rl *memoryRateLimiter) Allow(key string, limit int, length time.Duration) rateDecision {
	if limit <= 0 {
		return rateDecision{allowed: true}
	}
	if length <= 0 {
		length = rateWindowDefault
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	w := rl.windows[key]
	if !now.Before(w.end) {
		w = window{end: now.Add(length)}
	}
	if w.count >= limit {
		return rateDecision{count: w.count, resetAt: w.end}
	}
	w.count++
	rl.windows[key] = w
	return rateDecision{allowed: true, count: w.count, resetAt: w.end}
}

func (rl *memoryRateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.expire()
		}
	}
}

func (rl *memoryRateLimiter) expire() {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, w := range rl.windows {
		if !now.Before(w.end) {
			delete(rl.windows, key)
		}
	}
}

func (rl *memoryRateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// withRateLimit rejects requests over limit per key within window. Requests
// without a user fall back to the client address.
func (r *Router) withRateLimit(limit int, window time.Duration, keyFn func(*http.Request) string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if limit <= 0 || r.limiter == nil {
			next(w, req)
			return
		}
		key := keyFn(req)
		if key == "" {
			key = "ip:" + remoteHost(req)
		}
		decision := r.limiter.Allow(key, limit, window)
		setRateHeaders(w.Header(), limit, decision)
		if !decision.allowed {
			r.metrics.rateLimitHit(routeLabel(req), keyKind(key))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, req)
	}
}

func (r *Router) handlerAuthRate(limit int, window time.Duration, next http.HandlerFunc) http.HandlerFunc {
	return r.requireAuth(r.withRateLimit(limit, window, userRateKey, next))
}

func (r *Router) handlerSpaceRate(object, action string, limit int, window time.Duration, next http.HandlerFunc) http.HandlerFunc {
	return r.requireSpace(object, action, r.withRateLimit(limit, window, userRateKey, next))
}

func setRateHeaders(h http.Header, limit int, d rateDecision) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining(limit)))
	if !d.resetAt.IsZero() {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.resetAt.Unix(), 10))
	}
}

func userRateKey(req *http.Request) string {
	if info, ok := authInfoFromContext(req.Context()); ok && info.UserID != "" {
		return "user:" + info.UserID
	}
	return ""
}

func remoteHost(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	return host
}

// keyKind keeps metric cardinality low: "user:JDOE" is reported as "user".
func keyKind(key string) string {
	kind, _, found := strings.Cut(key, ":")
	if !found || kind == "" {
		return "other"
	}
	return kind
}
