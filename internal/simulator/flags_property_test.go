package simulator

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFlagSet_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("rollout hash is stable and within [0,100)", prop.ForAll(
		func(userID, flagKey string) bool {
			first := rolloutHash(userID, flagKey)
			if first < 0 || first >= 100 {
				return false
			}
			for i := 0; i < 5; i++ {
				if rolloutHash(userID, flagKey) != first {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("evaluation is deterministic per user and flag", prop.ForAll(
		func(userID string, rollout int) bool {
			fs := NewFlagSet()
			fs.SetRollout("new-dashboard", rollout)
			first := fs.CheckFlag("new-dashboard", userID)
			for i := 0; i < 5; i++ {
				if fs.CheckFlag("new-dashboard", userID).Enabled != first.Enabled {
					return false
				}
			}
			return true
		},
		gen.Identifier(),
		gen.IntRange(0, 100),
	))

	properties.Property("raising rollout never disables an enabled user", prop.ForAll(
		func(userID string, low, bump int) bool {
			high := low + bump
			if high > 100 {
				high = 100
			}
			fs := NewFlagSet()
			fs.SetRollout("new-dashboard", low)
			before := fs.CheckFlag("new-dashboard", userID).Enabled
			fs.SetRollout("new-dashboard", high)
			after := fs.CheckFlag("new-dashboard", userID).Enabled
			return !before || after
		},
		gen.Identifier(),
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
