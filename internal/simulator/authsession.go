package simulator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/patternlab/patternlab/internal/errors"
)

// DefaultLoginSessionTTL is how long a simulated login session lives
// before it counts as expired.
const DefaultLoginSessionTTL = 30 * time.Minute

// LoginSession is one simulated login session inside the auth demo.
// It is unrelated to the visitor session that owns the simulators.
type LoginSession struct {
	ID           string    `json:"id"`
	Device       string    `json:"device"`
	Browser      string    `json:"browser"`
	IP           string    `json:"ip"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	ExpiresAt    time.Time `json:"expiresAt"`
	IsCurrent    bool      `json:"isCurrent"`
}

// LoginSessionStats summarizes a visitor's simulated sessions at read
// time; expiry is evaluated lazily against now, never swept.
type LoginSessionStats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}

// SessionManager is the session-lifecycle simulator.
type SessionManager struct {
	sessions []*LoginSession
	ttl      time.Duration
}

// NewSessionManager creates an empty manager with the given session TTL.
func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultLoginSessionTTL
	}
	return &SessionManager{ttl: ttl}
}

// Kind implements Simulator.
func (sm *SessionManager) Kind() Kind { return KindAuthSessions }

// Actions implements Simulator.
func (sm *SessionManager) Actions() []string {
	return []string{"create", "list", "revoke", "revoke-all", "refresh"}
}

var deviceTitle = cases.Title(language.English)

func browserForDevice(device string) string {
	switch {
	case containsFold(device, "iphone"), containsFold(device, "ipad"), containsFold(device, "mac"):
		return "Safari"
	case containsFold(device, "windows"):
		return "Edge"
	case containsFold(device, "android"):
		return "Chrome"
	default:
		return "Firefox"
	}
}

func containsFold(s, sub string) bool {
	// Case-insensitive substring match without allocating for the
	// common ASCII device names used here.
	n := len(sub)
	if n == 0 {
		return true
	}
	for i := 0; i+n <= len(s); i++ {
		j := 0
		for ; j < n; j++ {
			a, b := s[i+j], sub[j]
			if 'A' <= a && a <= 'Z' {
				a += 'a' - 'A'
			}
			if 'A' <= b && b <= 'Z' {
				b += 'a' - 'A'
			}
			if a != b {
				break
			}
		}
		if j == n {
			return true
		}
	}
	return false
}

// fakeIP derives a stable demo address from the session id so repeated
// list calls render the same value.
func fakeIP(id string) string {
	var h uint32
	for _, ch := range id {
		h = h*31 + uint32(ch)
	}
	return fmt.Sprintf("192.168.%d.%d", (h>>8)%256, h%256)
}

// Create registers a new simulated login session and marks it current.
func (sm *SessionManager) Create(device string, now time.Time) *LoginSession {
	if device == "" {
		device = "unknown device"
	}
	for _, s := range sm.sessions {
		s.IsCurrent = false
	}

	id := uuid.NewString()
	session := &LoginSession{
		ID:           id,
		Device:       deviceTitle.String(device),
		Browser:      browserForDevice(device),
		IP:           fakeIP(id),
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(sm.ttl),
		IsCurrent:    true,
	}
	sm.sessions = append(sm.sessions, session)
	return session
}

// List returns the sessions with lazily computed stats.
func (sm *SessionManager) List(now time.Time) ([]*LoginSession, LoginSessionStats) {
	stats := LoginSessionStats{Total: len(sm.sessions)}
	for _, s := range sm.sessions {
		if now.After(s.ExpiresAt) {
			stats.Expired++
		} else {
			stats.Active++
		}
	}
	return sm.sessions, stats
}

// Revoke removes a session by id. True exactly once per id.
func (sm *SessionManager) Revoke(id string) bool {
	for i, s := range sm.sessions {
		if s.ID == id {
			sm.sessions = append(sm.sessions[:i], sm.sessions[i+1:]...)
			return true
		}
	}
	return false
}

// RevokeAll removes every session and returns the count removed.
func (sm *SessionManager) RevokeAll() int {
	count := len(sm.sessions)
	sm.sessions = nil
	return count
}

// Refresh extends the current session's expiry and updates its last
// activity. Returns nil when no current session exists.
func (sm *SessionManager) Refresh(now time.Time) *LoginSession {
	for _, s := range sm.sessions {
		if s.IsCurrent {
			s.ExpiresAt = now.Add(sm.ttl)
			s.LastActivity = now
			return s
		}
	}
	return nil
}

// Execute implements Simulator.
func (sm *SessionManager) Execute(action string, params Params, now time.Time) (*Outcome, error) {
	logs := NewRecorder("session-management", now)

	switch action {
	case "create":
		device := params.StringOr("device", "Chrome on Linux")
		session := sm.Create(device, now)
		logs.Info(fmt.Sprintf("Session created for %s (%s)", session.Device, session.Browser))
		logs.Debug(fmt.Sprintf("Session %s expires at %s", session.ID, session.ExpiresAt.Format(time.RFC3339)))
		return sm.outcome(session, logs, now), nil

	case "list":
		sessions, stats := sm.List(now)
		logs.Info(fmt.Sprintf("Listing %d sessions: %d active, %d expired", stats.Total, stats.Active, stats.Expired))
		result := map[string]interface{}{"sessions": sessions, "stats": stats}
		return sm.outcome(result, logs, now), nil

	case "revoke":
		id, err := params.String("targetId")
		if err != nil {
			return &Outcome{Logs: logs.Entries()}, err
		}
		revoked := sm.Revoke(id)
		if revoked {
			logs.Info(fmt.Sprintf("Session %s revoked", id))
		} else {
			logs.Warn(fmt.Sprintf("Session %s not found", id))
		}
		return sm.outcome(map[string]interface{}{"targetId": id, "revoked": revoked}, logs, now), nil

	case "revoke-all":
		count := sm.RevokeAll()
		logs.Info(fmt.Sprintf("All sessions revoked (%d)", count))
		return sm.outcome(map[string]interface{}{"revoked": count}, logs, now), nil

	case "refresh":
		session := sm.Refresh(now)
		if session == nil {
			logs.Warn("No current session to refresh")
			return sm.outcome(nil, logs, now), nil
		}
		logs.Info(fmt.Sprintf("Session %s refreshed, expires at %s", session.ID, session.ExpiresAt.Format(time.RFC3339)))
		return sm.outcome(session, logs, now), nil

	default:
		return &Outcome{Logs: logs.Entries()}, errors.ErrUnknownAction(action)
	}
}

func (sm *SessionManager) outcome(result interface{}, logs *Recorder, now time.Time) *Outcome {
	_, stats := sm.List(now)
	return &Outcome{
		Result: result,
		Logs:   logs.Entries(),
		Visualization: map[string]interface{}{
			"sessions": sm.sessions,
			"stats":    stats,
		},
	}
}
