package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternError_Error(t *testing.T) {
	t.Run("includes code and message", func(t *testing.T) {
		err := NewValidationError("ERR_TEST", "something went wrong")
		assert.Equal(t, "[ERR_TEST] something went wrong", err.Error())
	})

	t.Run("includes cause", func(t *testing.T) {
		cause := stderrors.New("boom")
		err := NewInternalError(ErrCodeInternal, "dispatch failed", cause)
		assert.Contains(t, err.Error(), "dispatch failed")
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestPatternError_Unwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := NewInternalError(ErrCodeInternal, "wrapped", cause)

	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.True(t, stderrors.Is(err, cause))
}

func TestPatternError_Is(t *testing.T) {
	a := ErrUnknownAction("frobnicate")
	b := ErrUnknownAction("defenestrate")
	c := ErrMissingParam("key")

	assert.True(t, stderrors.Is(a, b), "same type and code should match")
	assert.False(t, stderrors.Is(a, c), "different codes should not match")
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notFound   bool
		validation bool
		rateLimit  bool
	}{
		{"pattern not found", ErrPatternNotFound("caching", "nope"), true, false, false},
		{"missing fields", ErrMissingFields(), false, true, false},
		{"rate limit", NewRateLimitError("ERR_RL", "slow down"), false, false, true},
		{"plain error", stderrors.New("plain"), false, false, false},
		{"wrapped pattern error", fmt.Errorf("outer: %w", ErrMissingParam("k")), false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			assert.Equal(t, tt.rateLimit, IsRateLimit(tt.err))
		})
	}
}

func TestErrMessages(t *testing.T) {
	assert.Equal(t, "Missing required fields", ErrMissingFields().Message)
	assert.Equal(t, "Demo not found", ErrPatternNotFound("caching", "x").Message)
	assert.Equal(t, "Unknown action: spin", ErrUnknownAction("spin").Message)
}

func TestWithContext(t *testing.T) {
	err := ErrPatternNotFound("caching", "unknown-slug")
	assert.Equal(t, "caching", err.Context["category"])
	assert.Equal(t, "unknown-slug", err.Context["slug"])
}
