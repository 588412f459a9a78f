// Package session owns per-visitor playground state: one Session per
// visitor id, each holding lazily created simulator instances, plus a
// background sweep that drops sessions idle past their TTL.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/patternlab/patternlab/internal/logging"
	"github.com/patternlab/patternlab/internal/simulator"
)

// Store defaults. A visitor that stays quiet for the idle TTL loses its
// session state on the next sweep.
const (
	DefaultIdleTTL       = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Session is one visitor's playground state. Simulators are created on
// first use so a visitor who only pokes at the cache demo never pays
// for the others.
type Session struct {
	ID         string
	CreatedAt  time.Time
	LastActive time.Time

	mu   sync.Mutex
	sims map[simulator.Kind]simulator.Simulator
}

// Simulator returns the session's instance for the given kind, creating
// it on first use. Returns nil for unknown kinds.
func (s *Session) Simulator(kind simulator.Kind) simulator.Simulator {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sim, ok := s.sims[kind]; ok {
		return sim
	}
	sim := simulator.New(kind)
	if sim != nil {
		s.sims[kind] = sim
	}
	return sim
}

// Exec runs one action against the session's simulator for the kind,
// holding the session lock for the duration so concurrent requests from
// the same visitor serialize.
func (s *Session) Exec(kind simulator.Kind, action string, params simulator.Params, now time.Time) (*simulator.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim, ok := s.sims[kind]
	if !ok {
		sim = simulator.New(kind)
		if sim == nil {
			return nil, nil
		}
		s.sims[kind] = sim
	}
	return sim.Execute(action, params, now)
}

// SimulatorCount reports how many simulators the session has created.
func (s *Session) SimulatorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sims)
}

// Stats is a point-in-time snapshot of the store.
type Stats struct {
	Sessions   int       `json:"sessions"`
	Simulators int       `json:"simulators"`
	OldestSeen time.Time `json:"oldestSeen,omitempty"`
	Swept      int64     `json:"swept"`
}

// Store holds every live visitor session and sweeps idle ones.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	idleTTL time.Duration
	clock   func() time.Time
	logger  logging.Logger
	swept   int64

	running  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithIdleTTL overrides the idle TTL.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// NewStore creates a session store. Call Start to run the sweep loop
// and Stop to shut it down.
func NewStore(logger logging.Logger, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		idleTTL:  DefaultIdleTTL,
		clock:    time.Now,
		logger:   logger.WithComponent("sessions"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Touch returns the session for the visitor id, creating it on first
// use, and refreshes its last-active time.
func (s *Store) Touch(id string) *Session {
	now := s.clock()

	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		s.mu.Lock()
		session.LastActive = now
		s.mu.Unlock()
		return session
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		session.LastActive = now
		return session
	}
	session = &Session{
		ID:         id,
		CreatedAt:  now,
		LastActive: now,
		sims:       make(map[simulator.Kind]simulator.Simulator),
	}
	s.sessions[id] = session
	s.logger.Debug(context.Background(), "session created", "session_id", id)
	return session
}

// Get returns an existing session without refreshing it.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

// Len reports the live session count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Stats snapshots the store.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := Stats{Sessions: len(s.sessions), Swept: s.swept}
	for _, session := range s.sessions {
		stats.Simulators += session.SimulatorCount()
		if stats.OldestSeen.IsZero() || session.CreatedAt.Before(stats.OldestSeen) {
			stats.OldestSeen = session.CreatedAt
		}
	}
	return stats
}

// Sweep drops sessions idle past the TTL and returns how many were
// removed. The sweep loop calls this on its interval; tests call it
// directly.
func (s *Store) Sweep() int {
	cutoff := s.clock().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if session.LastActive.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.swept += int64(removed)
		s.logger.Info(context.Background(), "idle sessions swept", "removed", removed, "remaining", len(s.sessions))
	}
	return removed
}

// Start runs the sweep loop until Stop is called.
func (s *Store) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to exit, so no sweep
// runs after Stop returns. Safe to call more than once, and safe to
// call when Start never ran.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()
	if running {
		<-s.done
	}
}
