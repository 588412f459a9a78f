package simulator

import (
	"fmt"
	"regexp"
	"time"

	"github.com/patternlab/patternlab/internal/errors"
)

// ValidationDemo is the stateless request-validation simulator. It
// applies a fixed rule set to the submitted form and reports violations
// in field order, plus a redacted echo of the accepted data.
type ValidationDemo struct{}

// FieldError is one validation violation.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Kind implements Simulator.
func (v *ValidationDemo) Kind() Kind { return KindValidation }

// Actions implements Simulator.
func (v *ValidationDemo) Actions() []string {
	return []string{"validate"}
}

// Validate applies the fixed rules to the form. Rule order is the field
// order, so the first violation for each field is reported in a stable
// position.
func (v *ValidationDemo) Validate(form map[string]interface{}) []FieldError {
	var violations []FieldError

	name, _ := form["name"].(string)
	switch {
	case name == "":
		violations = append(violations, FieldError{"name", "name is required", "REQUIRED"})
	case len(name) < 2:
		violations = append(violations, FieldError{"name", "name must be at least 2 characters", "MIN_LENGTH"})
	}

	email, _ := form["email"].(string)
	switch {
	case email == "":
		violations = append(violations, FieldError{"email", "email is required", "REQUIRED"})
	case !emailShape.MatchString(email):
		violations = append(violations, FieldError{"email", "email must be a valid address", "INVALID_FORMAT"})
	}

	password, _ := form["password"].(string)
	switch {
	case password == "":
		violations = append(violations, FieldError{"password", "password is required", "REQUIRED"})
	case len(password) < 8:
		violations = append(violations, FieldError{"password", "password must be at least 8 characters", "MIN_LENGTH"})
	}

	if raw, ok := form["age"]; ok && raw != nil {
		age, err := coerceInt("age", raw)
		switch {
		case err != nil:
			violations = append(violations, FieldError{"age", "age must be an integer", "INVALID_TYPE"})
		case age < 13 || age > 120:
			violations = append(violations, FieldError{"age", "age must be between 13 and 120", "OUT_OF_RANGE"})
		}
	}

	return violations
}

// redactForm echoes the form with sensitive values masked.
func redactForm(form map[string]interface{}) map[string]interface{} {
	echo := make(map[string]interface{}, len(form))
	for k, v := range form {
		if isSensitiveField(k) {
			echo[k] = RedactionMask
		} else {
			echo[k] = v
		}
	}
	return echo
}

// Execute implements Simulator.
func (v *ValidationDemo) Execute(action string, params Params, now time.Time) (*Outcome, error) {
	logs := NewRecorder("request-validation", now)

	switch action {
	case "validate":
		form := params.Map("data")
		if form == nil {
			// The form may also arrive as the params object itself.
			form = map[string]interface{}(params)
		}
		logs.Info(fmt.Sprintf("Validating %d submitted fields", len(form)))

		violations := v.Validate(form)
		for _, fe := range violations {
			logs.Warn(fmt.Sprintf("Validation failed at %s: %s", fe.Path, fe.Message))
		}
		valid := len(violations) == 0
		if valid {
			logs.Info("All validation rules passed")
		}

		if violations == nil {
			violations = []FieldError{}
		}
		result := map[string]interface{}{
			"valid":  valid,
			"errors": violations,
			"data":   redactForm(form),
		}
		viz := map[string]interface{}{
			"rules": []string{
				"name: required, min length 2",
				"email: required, address shape",
				"password: required, min length 8",
				"age: optional integer, 13-120",
			},
			"violations": violations,
		}
		return &Outcome{Result: result, Logs: logs.Entries(), Visualization: viz}, nil

	default:
		return &Outcome{Logs: logs.Entries()}, errors.ErrUnknownAction(action)
	}
}
