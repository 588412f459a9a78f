package simulator

import (
	"fmt"
	"sort"
	"time"

	"github.com/patternlab/patternlab/internal/errors"
)

// ErrorDemo is the stateless error-handling simulator: a static lookup
// table mapping scenario names to canonical error shapes, including one
// graceful-recovery case.
type ErrorDemo struct{}

// ErrorScenario is the canonical shape of one simulated failure.
type ErrorScenario struct {
	ErrorType  string `json:"errorType"`
	StatusCode int    `json:"statusCode"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Handled    bool   `json:"handled"`
}

var errorScenarios = map[string]ErrorScenario{
	"not-found": {
		ErrorType:  "NotFoundError",
		StatusCode: 404,
		Code:       "RESOURCE_NOT_FOUND",
		Message:    "The requested resource does not exist",
		Handled:    true,
	},
	"unauthorized": {
		ErrorType:  "AuthenticationError",
		StatusCode: 401,
		Code:       "UNAUTHORIZED",
		Message:    "Missing or invalid credentials",
		Handled:    true,
	},
	"forbidden": {
		ErrorType:  "AuthorizationError",
		StatusCode: 403,
		Code:       "FORBIDDEN",
		Message:    "You do not have access to this resource",
		Handled:    true,
	},
	"bad-request": {
		ErrorType:  "ValidationError",
		StatusCode: 400,
		Code:       "INVALID_REQUEST",
		Message:    "The request body failed validation",
		Handled:    true,
	},
	"server-error": {
		ErrorType:  "InternalError",
		StatusCode: 500,
		Code:       "INTERNAL_ERROR",
		Message:    "Something went wrong, the details were logged server-side",
		Handled:    false,
	},
	"graceful": {
		ErrorType:  "RecoveredError",
		StatusCode: 200,
		Code:       "RECOVERED",
		Message:    "A downstream failure was caught and a fallback response served",
		Handled:    true,
	},
}

// Kind implements Simulator.
func (e *ErrorDemo) Kind() Kind { return KindErrorDemo }

// Actions implements Simulator.
func (e *ErrorDemo) Actions() []string {
	return []string{"trigger", "scenarios"}
}

// Scenarios returns the scenario names in stable order.
func (e *ErrorDemo) Scenarios() []string {
	names := make([]string, 0, len(errorScenarios))
	for name := range errorScenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a scenario name.
func (e *ErrorDemo) Lookup(scenario string) (ErrorScenario, bool) {
	s, ok := errorScenarios[scenario]
	return s, ok
}

// Execute implements Simulator.
func (e *ErrorDemo) Execute(action string, params Params, now time.Time) (*Outcome, error) {
	logs := NewRecorder("error-handling", now)

	switch action {
	case "trigger":
		name, err := params.String("scenario")
		if err != nil {
			return &Outcome{Logs: logs.Entries()}, err
		}
		scenario, ok := e.Lookup(name)
		if !ok {
			logs.Warn(fmt.Sprintf("Unknown error scenario %q", name))
			result := map[string]interface{}{
				"found":     false,
				"scenarios": e.Scenarios(),
			}
			return &Outcome{Result: result, Logs: logs.Entries()}, nil
		}

		if scenario.StatusCode >= 500 {
			logs.Error(fmt.Sprintf("Simulated %s: %s (HTTP %d)", scenario.ErrorType, scenario.Message, scenario.StatusCode))
		} else if scenario.StatusCode >= 400 {
			logs.Warn(fmt.Sprintf("Simulated %s: %s (HTTP %d)", scenario.ErrorType, scenario.Message, scenario.StatusCode))
		} else {
			logs.Info(fmt.Sprintf("Simulated recovery: %s (HTTP %d)", scenario.Message, scenario.StatusCode))
		}
		if scenario.Handled {
			logs.Info("Error was handled at the boundary and mapped to a response")
		} else {
			logs.Error("Unhandled error path: converted to a generic 500 response")
		}

		viz := map[string]interface{}{
			"scenario":  name,
			"scenarios": e.Scenarios(),
		}
		return &Outcome{Result: scenario, Logs: logs.Entries(), Visualization: viz}, nil

	case "scenarios":
		logs.Debug("Listing error scenarios")
		return &Outcome{Result: e.Scenarios(), Logs: logs.Entries()}, nil

	default:
		return &Outcome{Logs: logs.Entries()}, errors.ErrUnknownAction(action)
	}
}
