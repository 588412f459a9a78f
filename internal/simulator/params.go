package simulator

import (
	"fmt"

	"github.com/patternlab/patternlab/internal/errors"
)

// Params carries the raw action parameters from the dispatch request.
// Simulators decode it into concrete per-action structs through the
// checked accessors below instead of coercing values ad hoc.
type Params map[string]interface{}

// String returns a required string parameter.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", errors.ErrMissingParam(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.ErrInvalidParam(key, fmt.Sprintf("expected string, got %T", v))
	}
	if s == "" {
		return "", errors.ErrMissingParam(key)
	}
	return s, nil
}

// StringOr returns an optional string parameter with a default.
func (p Params) StringOr(key, def string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// Int returns a required integer parameter. JSON numbers arrive as
// float64, so both representations are accepted.
func (p Params) Int(key string) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, errors.ErrMissingParam(key)
	}
	return coerceInt(key, v)
}

// IntOr returns an optional integer parameter with a default.
func (p Params) IntOr(key string, def int) int {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	n, err := coerceInt(key, v)
	if err != nil {
		return def
	}
	return n
}

func coerceInt(key string, v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, errors.ErrInvalidParam(key, "expected integer, got fraction")
		}
		return int(n), nil
	default:
		return 0, errors.ErrInvalidParam(key, fmt.Sprintf("expected integer, got %T", v))
	}
}

// Value returns a raw parameter value.
func (p Params) Value(key string) (interface{}, bool) {
	v, ok := p[key]
	return v, ok
}

// Map returns an optional nested object parameter. Missing or
// mistyped values yield nil.
func (p Params) Map(key string) map[string]interface{} {
	if v, ok := p[key]; ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}
