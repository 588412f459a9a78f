package simulator

import (
	"fmt"
	"time"

	"github.com/patternlab/patternlab/internal/errors"
)

// Rate limiter simulator defaults. The pattern is presented to users as
// a sliding window but the reference behavior is a fixed window with a
// hard reset at windowStart + window; that behavior is preserved here.
const (
	DefaultRateLimit  = 5
	DefaultRateWindow = 10 * time.Second
)

// RateLimiter is the fixed-window rate limiter simulator scoped to one
// visitor session.
type RateLimiter struct {
	limit       int
	window      time.Duration
	windowStart time.Time
	count       int
	started     bool
}

// RateCheckResult is the outcome of one limiter probe. Denial is a
// normal outcome, never an error.
type RateCheckResult struct {
	Allowed       bool  `json:"allowed"`
	Remaining     int   `json:"remaining"`
	Limit         int   `json:"limit"`
	ResetInMillis int64 `json:"resetIn"`
}

// NewRateLimiter creates a limiter with the given capacity per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateLimiter{limit: limit, window: window}
}

// Kind implements Simulator.
func (rl *RateLimiter) Kind() Kind { return KindRateLimiter }

// Actions implements Simulator.
func (rl *RateLimiter) Actions() []string {
	return []string{"check", "spam", "reset", "status"}
}

// Check consumes one slot in the current window if available.
func (rl *RateLimiter) Check(now time.Time) RateCheckResult {
	rl.rollWindow(now)

	if rl.count >= rl.limit {
		return rl.result(false, now)
	}
	rl.count++
	return rl.result(true, now)
}

// Status reports the current window without consuming a slot. A read
// never writes: an elapsed window is reported as fresh but the stored
// window only rolls on the next Check.
func (rl *RateLimiter) Status(now time.Time) RateCheckResult {
	count := rl.count
	windowStart := rl.windowStart
	if !rl.started || now.Sub(rl.windowStart) >= rl.window {
		count = 0
		windowStart = now
	}
	remaining := rl.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return RateCheckResult{
		Allowed:       count < rl.limit,
		Remaining:     remaining,
		Limit:         rl.limit,
		ResetInMillis: windowStart.Add(rl.window).Sub(now).Milliseconds(),
	}
}

// Reset clears the window immediately.
func (rl *RateLimiter) Reset() {
	rl.count = 0
	rl.started = false
}

func (rl *RateLimiter) rollWindow(now time.Time) {
	if !rl.started || now.Sub(rl.windowStart) >= rl.window {
		rl.windowStart = now
		rl.count = 0
		rl.started = true
	}
}

func (rl *RateLimiter) result(allowed bool, now time.Time) RateCheckResult {
	remaining := rl.limit - rl.count
	if remaining < 0 {
		remaining = 0
	}
	return RateCheckResult{
		Allowed:       allowed,
		Remaining:     remaining,
		Limit:         rl.limit,
		ResetInMillis: rl.windowStart.Add(rl.window).Sub(now).Milliseconds(),
	}
}

// Execute implements Simulator.
func (rl *RateLimiter) Execute(action string, params Params, now time.Time) (*Outcome, error) {
	logs := NewRecorder("rate-limiter", now)

	switch action {
	case "check":
		res := rl.Check(now)
		if res.Allowed {
			logs.Info(fmt.Sprintf("Request allowed, %d of %d remaining", res.Remaining, res.Limit))
		} else {
			logs.Warn(fmt.Sprintf("Request DENIED, window resets in %dms", res.ResetInMillis))
		}
		return rl.outcome(res, logs, now), nil

	case "spam":
		count := params.IntOr("count", rl.limit+3)
		if count < 1 || count > 50 {
			return &Outcome{Logs: logs.Entries()}, errors.ErrInvalidParam("count", "must be between 1 and 50")
		}
		allowed, denied := 0, 0
		var last RateCheckResult
		for i := 0; i < count; i++ {
			last = rl.Check(now)
			if last.Allowed {
				allowed++
				logs.Info(fmt.Sprintf("Burst request %d allowed", i+1))
			} else {
				denied++
				logs.Warn(fmt.Sprintf("Burst request %d denied", i+1))
			}
		}
		result := map[string]interface{}{
			"sent":    count,
			"allowed": allowed,
			"denied":  denied,
			"last":    last,
		}
		return rl.outcome(result, logs, now), nil

	case "reset":
		rl.Reset()
		logs.Info("Rate limit window reset")
		return rl.outcome(rl.Status(now), logs, now), nil

	case "status":
		logs.Debug("Reading rate limit status")
		return rl.outcome(rl.Status(now), logs, now), nil

	default:
		return &Outcome{Logs: logs.Entries()}, errors.ErrUnknownAction(action)
	}
}

func (rl *RateLimiter) outcome(result interface{}, logs *Recorder, now time.Time) *Outcome {
	return &Outcome{
		Result: result,
		Logs:   logs.Entries(),
		Visualization: map[string]interface{}{
			"count":       rl.count,
			"limit":       rl.limit,
			"windowMs":    rl.window.Milliseconds(),
			"windowStart": rl.windowStart,
		},
	}
}
