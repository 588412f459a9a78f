package simulator

import (
	"fmt"
	"sort"
	"time"

	"github.com/patternlab/patternlab/internal/errors"
)

// DefaultFlagUser is the user context a fresh session evaluates flags as.
const DefaultFlagUser = "user-1"

// Flag is one feature flag owned by a visitor session.
type Flag struct {
	Key               string   `json:"key"`
	Enabled           bool     `json:"enabled"`
	RolloutPercentage int      `json:"rolloutPercentage"`
	TargetedUsers     []string `json:"targetedUsers"`

	targeted map[string]struct{}
}

// FlagDecision is the result of evaluating one flag for one user.
type FlagDecision struct {
	Flag    *Flag  `json:"flag,omitempty"`
	UserID  string `json:"userId"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason"`
}

// FlagSet is the feature-flag evaluator simulator. It also owns the
// session's current user-context id.
type FlagSet struct {
	flags       map[string]*Flag
	order       []string
	currentUser string
}

// NewFlagSet creates a flag set seeded with the demo's default flags.
func NewFlagSet() *FlagSet {
	fs := &FlagSet{
		flags:       make(map[string]*Flag),
		currentUser: DefaultFlagUser,
	}
	fs.seed("dark-mode", true, 100)
	fs.seed("new-dashboard", true, 50)
	fs.seed("beta-features", true, 0)
	fs.seed("experimental-api", false, 25)
	return fs
}

func (fs *FlagSet) seed(key string, enabled bool, rollout int) {
	fs.flags[key] = &Flag{
		Key:               key,
		Enabled:           enabled,
		RolloutPercentage: rollout,
		TargetedUsers:     []string{},
		targeted:          make(map[string]struct{}),
	}
	fs.order = append(fs.order, key)
}

// Kind implements Simulator.
func (fs *FlagSet) Kind() Kind { return KindFeatureFlags }

// Actions implements Simulator.
func (fs *FlagSet) Actions() []string {
	return []string{"check", "toggle", "set-rollout", "target-user", "set-user", "list"}
}

// rolloutHash computes the stable bucket for a (user, flag) pair. A
// polynomial rolling hash of "userId:flagKey" reduced mod 100 keeps the
// same pair in the same bucket until configuration changes.
func rolloutHash(userID, flagKey string) int {
	s := userID + ":" + flagKey
	var h uint32
	for _, ch := range s {
		h = h*31 + uint32(ch)
	}
	return int(h % 100)
}

// CheckFlag evaluates a flag for a user. Unknown keys fail softly with
// enabled: false rather than an error.
func (fs *FlagSet) CheckFlag(key, userID string) FlagDecision {
	if userID == "" {
		userID = fs.currentUser
	}
	flag, exists := fs.flags[key]
	if !exists {
		return FlagDecision{
			UserID:  userID,
			Enabled: false,
			Reason:  fmt.Sprintf("flag %q not found", key),
		}
	}

	decision := FlagDecision{Flag: flag, UserID: userID}
	switch {
	case !flag.Enabled:
		decision.Reason = "flag is disabled"
	case fs.isTargeted(flag, userID):
		decision.Enabled = true
		decision.Reason = fmt.Sprintf("user %q is explicitly targeted", userID)
	default:
		bucket := rolloutHash(userID, key)
		if bucket < flag.RolloutPercentage {
			decision.Enabled = true
			decision.Reason = fmt.Sprintf("hash bucket %d is within %d%% rollout", bucket, flag.RolloutPercentage)
		} else {
			decision.Reason = fmt.Sprintf("hash bucket %d is out of rollout (%d%%)", bucket, flag.RolloutPercentage)
		}
	}
	return decision
}

func (fs *FlagSet) isTargeted(flag *Flag, userID string) bool {
	_, ok := flag.targeted[userID]
	return ok
}

// ToggleFlag flips a flag's enabled state.
func (fs *FlagSet) ToggleFlag(key string) (*Flag, bool) {
	flag, exists := fs.flags[key]
	if !exists {
		return nil, false
	}
	flag.Enabled = !flag.Enabled
	return flag, true
}

// SetRollout updates a flag's rollout percentage.
func (fs *FlagSet) SetRollout(key string, percentage int) (*Flag, bool) {
	flag, exists := fs.flags[key]
	if !exists {
		return nil, false
	}
	flag.RolloutPercentage = percentage
	return flag, true
}

// TargetUser adds a user to a flag's explicit target list.
func (fs *FlagSet) TargetUser(key, userID string) (*Flag, bool) {
	flag, exists := fs.flags[key]
	if !exists {
		return nil, false
	}
	if _, ok := flag.targeted[userID]; !ok {
		flag.targeted[userID] = struct{}{}
		flag.TargetedUsers = append(flag.TargetedUsers, userID)
		sort.Strings(flag.TargetedUsers)
	}
	return flag, true
}

// SetCurrentUser switches the session's user context.
func (fs *FlagSet) SetCurrentUser(userID string) {
	fs.currentUser = userID
}

// CurrentUser returns the session's user context id.
func (fs *FlagSet) CurrentUser() string { return fs.currentUser }

// Flags returns all flags in seed order.
func (fs *FlagSet) Flags() []*Flag {
	out := make([]*Flag, 0, len(fs.order))
	for _, key := range fs.order {
		out = append(out, fs.flags[key])
	}
	return out
}

// Execute implements Simulator.
func (fs *FlagSet) Execute(action string, params Params, now time.Time) (*Outcome, error) {
	logs := NewRecorder("feature-flags", now)

	switch action {
	case "check":
		key, err := params.String("key")
		if err != nil {
			return &Outcome{Logs: logs.Entries()}, err
		}
		userID := params.StringOr("userId", fs.currentUser)
		decision := fs.CheckFlag(key, userID)
		if decision.Enabled {
			logs.Info(fmt.Sprintf("Flag %q enabled for %q: %s", key, userID, decision.Reason))
		} else {
			logs.Info(fmt.Sprintf("Flag %q disabled for %q: %s", key, userID, decision.Reason))
		}
		return fs.outcome(decision, logs), nil

	case "toggle":
		key, err := params.String("key")
		if err != nil {
			return &Outcome{Logs: logs.Entries()}, err
		}
		flag, ok := fs.ToggleFlag(key)
		if !ok {
			logs.Warn(fmt.Sprintf("Flag %q not found", key))
			return fs.outcome(map[string]interface{}{"found": false}, logs), nil
		}
		logs.Info(fmt.Sprintf("Flag %q toggled, enabled=%t", key, flag.Enabled))
		return fs.outcome(flag, logs), nil

	case "set-rollout":
		key, err := params.String("key")
		if err != nil {
			return &Outcome{Logs: logs.Entries()}, err
		}
		pct, err := params.Int("percentage")
		if err != nil {
			return &Outcome{Logs: logs.Entries()}, err
		}
		if pct < 0 || pct > 100 {
			return &Outcome{Logs: logs.Entries()}, errors.ErrInvalidParam("percentage", "must be between 0 and 100")
		}
		flag, ok := fs.SetRollout(key, pct)
		if !ok {
			logs.Warn(fmt.Sprintf("Flag %q not found", key))
			return fs.outcome(map[string]interface{}{"found": false}, logs), nil
		}
		logs.Info(fmt.Sprintf("Flag %q rollout set to %d%%", key, pct))
		return fs.outcome(flag, logs), nil

	case "target-user":
		key, err := params.String("key")
		if err != nil {
			return &Outcome{Logs: logs.Entries()}, err
		}
		userID, err := params.String("userId")
		if err != nil {
			return &Outcome{Logs: logs.Entries()}, err
		}
		flag, ok := fs.TargetUser(key, userID)
		if !ok {
			logs.Warn(fmt.Sprintf("Flag %q not found", key))
			return fs.outcome(map[string]interface{}{"found": false}, logs), nil
		}
		logs.Info(fmt.Sprintf("User %q targeted for flag %q", userID, key))
		return fs.outcome(flag, logs), nil

	case "set-user":
		userID, err := params.String("userId")
		if err != nil {
			return &Outcome{Logs: logs.Entries()}, err
		}
		fs.SetCurrentUser(userID)
		logs.Info(fmt.Sprintf("Current user set to %q", userID))
		return fs.outcome(map[string]interface{}{"userId": userID}, logs), nil

	case "list":
		logs.Debug("Listing feature flags")
		return fs.outcome(fs.Flags(), logs), nil

	default:
		return &Outcome{Logs: logs.Entries()}, errors.ErrUnknownAction(action)
	}
}

func (fs *FlagSet) outcome(result interface{}, logs *Recorder) *Outcome {
	return &Outcome{
		Result: result,
		Logs:   logs.Entries(),
		Visualization: map[string]interface{}{
			"flags":       fs.Flags(),
			"currentUser": fs.currentUser,
		},
	}
}
