package simulator

import (
	"strings"
	"time"

	"github.com/patternlab/patternlab/internal/errors"
)

// RedactionMask replaces sensitive values in demo output.
const RedactionMask = "[REDACTED]"

// sensitiveFields are the field names whose values are always masked.
var sensitiveFields = []string{"password", "token", "secret"}

func isSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range sensitiveFields {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// redactData masks sensitive values in a structured payload, one level
// deep, which is as deep as the demo's payloads go.
func redactData(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if isSensitiveField(k) {
			out[k] = RedactionMask
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			out[k] = redactData(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// LogDemo is the stateless structured-logging simulator. It emits
// entries with deterministic redaction of sensitive fields and reports
// per-level counts over the entries produced by the invocation.
type LogDemo struct{}

// Kind implements Simulator.
func (l *LogDemo) Kind() Kind { return KindLogDemo }

// Actions implements Simulator.
func (l *LogDemo) Actions() []string {
	return []string{"log", "stream"}
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Execute implements Simulator.
func (l *LogDemo) Execute(action string, params Params, now time.Time) (*Outcome, error) {
	logs := NewRecorder("structured-logging", now)

	switch action {
	case "log":
		message, err := params.String("message")
		if err != nil {
			return &Outcome{Logs: logs.Entries()}, err
		}
		level := params.StringOr("level", "info")
		if !validLogLevels[level] {
			return &Outcome{Logs: logs.Entries()}, errors.ErrInvalidParam("level", "must be one of debug, info, warn, error")
		}
		data := redactData(params.Map("data"))

		logs.append(level, message, data)
		return l.outcome(logs), nil

	case "stream":
		// A canned request lifecycle demonstrating every level and the
		// redaction behavior in one shot.
		logs.Debug("Resolving route for POST /api/login")
		logs.Infof("User login attempt", redactData(map[string]interface{}{
			"username": "alice",
			"password": "hunter2",
		}))
		logs.Infof("Issued access token", redactData(map[string]interface{}{
			"username": "alice",
			"token":    "eyJhbGciOiJIUzI1NiJ9.demo",
		}))
		logs.Warn("Response time above threshold: 412ms")
		logs.Error("Downstream profile service timed out, served cached profile")
		return l.outcome(logs), nil

	default:
		return &Outcome{Logs: logs.Entries()}, errors.ErrUnknownAction(action)
	}
}

func (l *LogDemo) outcome(logs *Recorder) *Outcome {
	entries := logs.Entries()
	counts := map[string]int{}
	for _, e := range entries {
		counts[e.Level]++
	}
	result := map[string]interface{}{
		"entries": entries,
		"counts":  counts,
	}
	return &Outcome{
		Result: result,
		Logs:   entries,
		Visualization: map[string]interface{}{
			"counts":         counts,
			"redactedFields": sensitiveFields,
		},
	}
}
