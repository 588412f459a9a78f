// Package simulator implements the per-pattern playground simulators:
// an LRU cache, a fixed-window rate limiter, a feature-flag evaluator,
// a simulated login-session manager, and the stateless validation,
// error-handling, and logging demos.
//
// Simulators are stateful objects owned by a visitor session; the
// dispatcher routes each action to the session's instance. All methods
// take the current time explicitly so expiry behavior is deterministic
// under test.
package simulator

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies which simulator a pattern routes to.
type Kind string

const (
	KindCache        Kind = "cache"
	KindRateLimiter  Kind = "ratelimiter"
	KindFeatureFlags Kind = "featureflags"
	KindAuthSessions Kind = "authsessions"
	KindValidation   Kind = "validation"
	KindErrorDemo    Kind = "errordemo"
	KindLogDemo      Kind = "logdemo"
)

// Kinds lists every simulator kind in registration order.
func Kinds() []Kind {
	return []Kind{
		KindCache,
		KindRateLimiter,
		KindFeatureFlags,
		KindAuthSessions,
		KindValidation,
		KindErrorDemo,
		KindLogDemo,
	}
}

// New constructs a fresh simulator instance for the given kind, or nil
// if the kind is unknown.
func New(kind Kind) Simulator {
	switch kind {
	case KindCache:
		return NewCache(DefaultCacheCapacity)
	case KindRateLimiter:
		return NewRateLimiter(DefaultRateLimit, DefaultRateWindow)
	case KindFeatureFlags:
		return NewFlagSet()
	case KindAuthSessions:
		return NewSessionManager(DefaultLoginSessionTTL)
	case KindValidation:
		return &ValidationDemo{}
	case KindErrorDemo:
		return &ErrorDemo{}
	case KindLogDemo:
		return &LogDemo{}
	default:
		return nil
	}
}

// Simulator is the capability interface every pattern simulator
// implements. Execute must not panic for any caller input; unsupported
// actions and malformed params are returned as errors.
type Simulator interface {
	Kind() Kind
	Actions() []string
	Execute(action string, params Params, now time.Time) (*Outcome, error)
}

// Outcome is the uniform result of one simulator action: the payload
// for the UI, the log trace accumulated while executing, and an
// optional visualization snapshot of the simulator's state.
type Outcome struct {
	Result        interface{}
	Logs          []LogEntry
	Visualization interface{}
}

// LogEntry is one human-readable trace line produced during an action.
type LogEntry struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Source    string                 `json:"source"`
}

// Recorder accumulates log entries during one action invocation. It is
// returned by value inside the Outcome rather than threaded through
// callbacks, so simulators have no hidden mutation paths.
type Recorder struct {
	source  string
	now     time.Time
	entries []LogEntry
}

// NewRecorder creates a recorder tagged with the simulator source name.
func NewRecorder(source string, now time.Time) *Recorder {
	return &Recorder{source: source, now: now}
}

func (r *Recorder) append(level, message string, data map[string]interface{}) {
	r.entries = append(r.entries, LogEntry{
		ID:        uuid.NewString(),
		Timestamp: r.now,
		Level:     level,
		Message:   message,
		Data:      data,
		Source:    r.source,
	})
}

// Debug records a debug-level entry.
func (r *Recorder) Debug(message string) { r.append("debug", message, nil) }

// Info records an info-level entry.
func (r *Recorder) Info(message string) { r.append("info", message, nil) }

// Infof records an info-level entry with structured data.
func (r *Recorder) Infof(message string, data map[string]interface{}) {
	r.append("info", message, data)
}

// Warn records a warn-level entry.
func (r *Recorder) Warn(message string) { r.append("warn", message, nil) }

// Error records an error-level entry.
func (r *Recorder) Error(message string) { r.append("error", message, nil) }

// Entries returns the accumulated entries. Never nil, so responses
// always serialize logs as an array.
func (r *Recorder) Entries() []LogEntry {
	if r.entries == nil {
		return []LogEntry{}
	}
	return r.entries
}
