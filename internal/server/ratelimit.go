package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patternlab/patternlab/internal/config"
	"github.com/patternlab/patternlab/internal/logging"
)

// clientWindow is one caller's fixed window.
type clientWindow struct {
	windowStart time.Time
	count       int
}

// IPRateLimiter gates the API per caller IP with a fixed one-minute
// window. The tracked client map is capped; when full, expired windows
// are dropped first and the oldest window after that, so one scan
// cannot grow the map without bound.
type IPRateLimiter struct {
	mutex      sync.Mutex
	clients    map[string]*clientWindow
	limit      int
	window     time.Duration
	maxClients int
	enabled    bool
	clock      func() time.Time
	logger     logging.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

// LimitResult is one gate decision with the header values the handler
// should echo.
type LimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// NewIPRateLimiter creates the endpoint limiter from config.
func NewIPRateLimiter(cfg config.RateLimitConfig, logger logging.Logger) *IPRateLimiter {
	limit := cfg.RequestsPerMinute
	if limit <= 0 {
		limit = 60
	}
	maxClients := cfg.MaxClients
	if maxClients <= 0 {
		maxClients = 10000
	}
	return &IPRateLimiter{
		clients:    make(map[string]*clientWindow),
		limit:      limit,
		window:     time.Minute,
		maxClients: maxClients,
		enabled:    cfg.Enabled,
		clock:      time.Now,
		logger:     logger.WithComponent("ratelimit"),
		stop:       make(chan struct{}),
	}
}

// Check gates one request for the caller key.
func (rl *IPRateLimiter) Check(key string) LimitResult {
	now := rl.clock()
	if !rl.enabled {
		return LimitResult{Allowed: true, Limit: rl.limit, Remaining: rl.limit, ResetAt: now.Add(rl.window)}
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cw, ok := rl.clients[key]
	if !ok {
		if len(rl.clients) >= rl.maxClients {
			rl.evictLocked(now)
		}
		cw = &clientWindow{windowStart: now}
		rl.clients[key] = cw
	} else if now.Sub(cw.windowStart) >= rl.window {
		cw.windowStart = now
		cw.count = 0
	}

	resetAt := cw.windowStart.Add(rl.window)
	if cw.count >= rl.limit {
		return LimitResult{
			Allowed:    false,
			Limit:      rl.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}
	cw.count++
	return LimitResult{
		Allowed:   true,
		Limit:     rl.limit,
		Remaining: rl.limit - cw.count,
		ResetAt:   resetAt,
	}
}

// evictLocked makes room in the client map: expired windows first, then
// the single oldest window. Caller holds the mutex.
func (rl *IPRateLimiter) evictLocked(now time.Time) {
	for key, cw := range rl.clients {
		if now.Sub(cw.windowStart) >= rl.window {
			delete(rl.clients, key)
		}
	}
	if len(rl.clients) < rl.maxClients {
		return
	}

	var oldestKey string
	var oldest time.Time
	for key, cw := range rl.clients {
		if oldestKey == "" || cw.windowStart.Before(oldest) {
			oldestKey = key
			oldest = cw.windowStart
		}
	}
	if oldestKey != "" {
		delete(rl.clients, oldestKey)
	}
}

// Len reports the tracked client count.
func (rl *IPRateLimiter) Len() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.clients)
}

// Start runs the periodic cleanup until Stop is called.
func (rl *IPRateLimiter) Start(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stop:
				return
			}
		}
	}()
}

// Stop terminates the cleanup loop. Safe to call more than once.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *IPRateLimiter) cleanup() {
	now := rl.clock()
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	removed := 0
	for key, cw := range rl.clients {
		if now.Sub(cw.windowStart) >= rl.window {
			delete(rl.clients, key)
			removed++
		}
	}
	if removed > 0 {
		rl.logger.Debug(context.Background(), "rate limit windows cleaned",
			"removed", removed, "tracked", len(rl.clients))
	}
}

// Middleware rejects over-limit callers with 429 before any dispatch
// logic runs. Every response carries the X-RateLimit headers.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := rl.Check(clientIP(r))

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"success": false,
				"error":   "Rate limit exceeded",
				"retryIn": retryAfter,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP resolves the caller address, trusting X-Forwarded-For only
// for its first hop.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
