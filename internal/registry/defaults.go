package registry

import "github.com/patternlab/patternlab/internal/simulator"

// builtinPatterns defines the shipped catalog. The overlay file can
// replace titles, descriptions, steps, and code, but the category/slug
// to simulator mapping is fixed here.
func builtinPatterns() []*PatternInfo {
	return []*PatternInfo{
		{
			Category:    "caching",
			Slug:        "lru-cache",
			Title:       "LRU Cache",
			Description: "A capacity-bound cache that evicts the least recently used entry, with optional per-entry TTL.",
			Kind:        simulator.KindCache,
			Steps: []ExecutionStep{
				{ID: "lookup", Title: "Look up the key", Description: "Check the hash map for the requested key.", CodeLines: []int{3, 4}},
				{ID: "expiry", Title: "Check expiry", Description: "If the entry carries a TTL, compare it against the clock.", Explanation: "Expired entries are removed lazily, on the read that discovers them.", CodeLines: []int{6, 9}},
				{ID: "promote", Title: "Promote to front", Description: "Move the entry to the most-recently-used position.", Explanation: "The linked list keeps access order so eviction is O(1).", CodeLines: []int{11, 12}},
				{ID: "evict", Title: "Evict on overflow", Description: "When a new key would exceed capacity, drop the entry at the back.", CodeLines: []int{16, 20}},
			},
			Actions: []ActionInfo{
				{Name: "set", Label: "Set a key", CompletedSteps: 4},
				{Name: "get", Label: "Get a key", CompletedSteps: 3},
				{Name: "delete", Label: "Delete a key", CompletedSteps: 1},
				{Name: "clear", Label: "Clear the cache", CompletedSteps: 1},
				{Name: "fill", Label: "Fill past capacity", CompletedSteps: 4},
				{Name: "stats", Label: "Show statistics", CompletedSteps: 1},
			},
			Code: `func (c *Cache) Get(key string) (any, bool) {
    entry, ok := c.entries[key]
    if !ok {
        c.misses++
        return nil, false
    }
    if entry.Expired(time.Now()) {
        c.remove(entry)
        c.misses++
        return nil, false
    }
    c.moveToFront(entry)
    c.hits++
    return entry.value, true
}

func (c *Cache) Set(key string, value any) {
    if len(c.entries) >= c.capacity {
        c.evictOldest()
    }
    c.insertFront(key, value)
}`,
		},
		{
			Category:    "resilience",
			Slug:        "rate-limiter",
			Title:       "Rate Limiter",
			Description: "A fixed-window counter that allows a burst of requests per window and denies the rest until the window resets.",
			Kind:        simulator.KindRateLimiter,
			Steps: []ExecutionStep{
				{ID: "window", Title: "Resolve the window", Description: "Roll to a fresh window when the current one has elapsed.", CodeLines: []int{2, 5}},
				{ID: "count", Title: "Count the request", Description: "Compare the window's counter against the limit.", CodeLines: []int{7, 9}},
				{ID: "decide", Title: "Allow or deny", Description: "Denial is a normal outcome carrying remaining quota and reset time.", Explanation: "Callers back off using resetIn instead of retrying immediately.", CodeLines: []int{10, 13}},
			},
			Actions: []ActionInfo{
				{Name: "check", Label: "Send one request", CompletedSteps: 3},
				{Name: "spam", Label: "Send a burst", CompletedSteps: 3},
				{Name: "reset", Label: "Reset the window", CompletedSteps: 1},
				{Name: "status", Label: "Show window status", CompletedSteps: 1},
			},
			Code: `func (rl *RateLimiter) Check(now time.Time) Result {
    if now.Sub(rl.windowStart) >= rl.window {
        rl.windowStart = now
        rl.count = 0
    }
    if rl.count >= rl.limit {
        return Result{Allowed: false, Remaining: 0}
    }
    rl.count++
    return Result{
        Allowed:   true,
        Remaining: rl.limit - rl.count,
    }
}`,
		},
		{
			Category:    "delivery",
			Slug:        "feature-flags",
			Title:       "Feature Flags",
			Description: "Percentage rollouts with explicit user targeting, evaluated deterministically per user.",
			Kind:        simulator.KindFeatureFlags,
			Steps: []ExecutionStep{
				{ID: "lookup", Title: "Find the flag", Description: "Unknown flags evaluate to disabled rather than failing.", CodeLines: []int{2, 4}},
				{ID: "kill", Title: "Check the kill switch", Description: "A disabled flag is off for everyone, targeted or not.", CodeLines: []int{5, 7}},
				{ID: "target", Title: "Check targeting", Description: "Explicitly targeted users bypass the rollout percentage.", CodeLines: []int{8, 10}},
				{ID: "bucket", Title: "Hash into a bucket", Description: "A stable hash of user and flag decides the rollout bucket.", Explanation: "The same user always lands in the same bucket, so a decision never flaps between requests.", CodeLines: []int{11, 14}},
			},
			Actions: []ActionInfo{
				{Name: "check", Label: "Evaluate a flag", CompletedSteps: 4},
				{Name: "toggle", Label: "Toggle a flag", CompletedSteps: 2},
				{Name: "set-rollout", Label: "Set rollout %", CompletedSteps: 2},
				{Name: "target-user", Label: "Target a user", CompletedSteps: 3},
				{Name: "set-user", Label: "Switch user", CompletedSteps: 1},
				{Name: "list", Label: "List flags", CompletedSteps: 1},
			},
			Code: `func (fs *FlagSet) Check(key, userID string) Decision {
    flag, ok := fs.flags[key]
    if !ok {
        return Decision{Enabled: false}
    }
    if !flag.Enabled {
        return Decision{Enabled: false}
    }
    if flag.Targets(userID) {
        return Decision{Enabled: true}
    }
    bucket := hash(userID+":"+key) % 100
    return Decision{
        Enabled: bucket < flag.Rollout,
    }
}`,
		},
		{
			Category:    "auth",
			Slug:        "session-management",
			Title:       "Session Management",
			Description: "A simulated login-session lifecycle: creation, listing with expiry, revocation, and refresh.",
			Kind:        simulator.KindAuthSessions,
			Steps: []ExecutionStep{
				{ID: "issue", Title: "Issue a session", Description: "Generate an id and derive device metadata; the new session becomes current.", CodeLines: []int{2, 6}},
				{ID: "expire", Title: "Track expiry", Description: "Each session expires a fixed interval after its last refresh.", Explanation: "Expiry is evaluated lazily when sessions are listed, not on a timer.", CodeLines: []int{8, 10}},
				{ID: "revoke", Title: "Revoke on demand", Description: "Any session can be revoked by id; revoke-all clears the list.", CodeLines: []int{12, 15}},
			},
			Actions: []ActionInfo{
				{Name: "create", Label: "Log in", CompletedSteps: 1},
				{Name: "list", Label: "List sessions", CompletedSteps: 2},
				{Name: "revoke", Label: "Revoke one", CompletedSteps: 3},
				{Name: "revoke-all", Label: "Revoke all", CompletedSteps: 3},
				{Name: "refresh", Label: "Refresh current", CompletedSteps: 2},
			},
			Code: `func (sm *Manager) Create(device string) *Session {
    for _, s := range sm.sessions {
        s.Current = false
    }
    session := &Session{
        ID:        uuid.NewString(),
        Device:    device,
        ExpiresAt: time.Now().Add(sm.ttl),
        Current:   true,
    }
    sm.sessions = append(sm.sessions, session)
    return session
}`,
		},
		{
			Category:    "validation",
			Slug:        "request-validation",
			Title:       "Request Validation",
			Description: "A fixed rule set applied to a submitted form, reporting every violation with a stable path and code.",
			Kind:        simulator.KindValidation,
			Steps: []ExecutionStep{
				{ID: "decode", Title: "Decode the form", Description: "Read the submitted fields without trusting any of them.", CodeLines: []int{2, 3}},
				{ID: "rules", Title: "Apply the rules", Description: "Each field runs its rules in order; the first violation per field wins.", CodeLines: []int{5, 9}},
				{ID: "report", Title: "Report violations", Description: "Violations carry a path, message, and machine-readable code.", Explanation: "An invalid form is a normal response, not an error.", CodeLines: []int{11, 13}},
			},
			Actions: []ActionInfo{
				{Name: "validate", Label: "Validate a form", CompletedSteps: 3},
			},
			Code: `func Validate(form Form) []FieldError {
    var errs []FieldError
    if form.Name == "" {
        errs = append(errs, required("name"))
    } else if len(form.Name) < 2 {
        errs = append(errs, tooShort("name", 2))
    }
    if !emailShape.MatchString(form.Email) {
        errs = append(errs, invalid("email"))
    }
    return errs
}`,
		},
		{
			Category:    "errors",
			Slug:        "error-handling",
			Title:       "Error Handling",
			Description: "A taxonomy of failure scenarios and the canonical response each maps to, including graceful recovery.",
			Kind:        simulator.KindErrorDemo,
			Steps: []ExecutionStep{
				{ID: "classify", Title: "Classify the failure", Description: "Map the failure to a type: client input, auth, not found, or internal.", CodeLines: []int{2, 4}},
				{ID: "boundary", Title: "Handle at the boundary", Description: "Expected failures become structured responses; unexpected ones become a generic 500.", Explanation: "Stack traces stay in the server logs and never reach the client.", CodeLines: []int{6, 10}},
				{ID: "recover", Title: "Recover when possible", Description: "A downstream failure with a usable fallback is served as a degraded success.", CodeLines: []int{12, 14}},
			},
			Actions: []ActionInfo{
				{Name: "trigger", Label: "Trigger a scenario", CompletedSteps: 3},
				{Name: "scenarios", Label: "List scenarios", CompletedSteps: 1},
			},
			Code: `func respond(w http.ResponseWriter, err error) {
    var apiErr *APIError
    if errors.As(err, &apiErr) {
        writeJSON(w, apiErr.Status, apiErr)
        return
    }
    log.Error("unhandled", "error", err)
    writeJSON(w, 500, generic)
}`,
		},
		{
			Category:    "observability",
			Slug:        "structured-logging",
			Title:       "Structured Logging",
			Description: "Leveled log entries with structured data and automatic redaction of sensitive fields.",
			Kind:        simulator.KindLogDemo,
			Steps: []ExecutionStep{
				{ID: "level", Title: "Pick a level", Description: "debug, info, warn, and error carry different operational weight.", CodeLines: []int{2, 3}},
				{ID: "redact", Title: "Redact sensitive data", Description: "Passwords, tokens, and secrets are masked before the entry is written.", Explanation: "Redaction at the logging boundary means no call site can leak a credential by accident.", CodeLines: []int{5, 8}},
				{ID: "emit", Title: "Emit the entry", Description: "Entries are structured records, not formatted strings.", CodeLines: []int{10, 12}},
			},
			Actions: []ActionInfo{
				{Name: "log", Label: "Emit one entry", CompletedSteps: 3},
				{Name: "stream", Label: "Stream a lifecycle", CompletedSteps: 3},
			},
			Code: `func (l *Logger) Log(level, msg string, data Fields) {
    for k := range data {
        if sensitive(k) {
            data[k] = "[REDACTED]"
        }
    }
    l.write(Entry{
        Level:   level,
        Message: msg,
        Data:    data,
    })
}`,
		},
	}
}
