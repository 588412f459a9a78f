package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorDemo_Trigger(t *testing.T) {
	demo := &ErrorDemo{}

	t.Run("known scenarios resolve to their canonical shape", func(t *testing.T) {
		tests := []struct {
			scenario string
			status   int
			code     string
			handled  bool
		}{
			{"not-found", 404, "RESOURCE_NOT_FOUND", true},
			{"unauthorized", 401, "UNAUTHORIZED", true},
			{"forbidden", 403, "FORBIDDEN", true},
			{"bad-request", 400, "INVALID_REQUEST", true},
			{"server-error", 500, "INTERNAL_ERROR", false},
			{"graceful", 200, "RECOVERED", true},
		}
		for _, tt := range tests {
			t.Run(tt.scenario, func(t *testing.T) {
				out, err := demo.Execute("trigger", Params{"scenario": tt.scenario}, t0)
				require.NoError(t, err, "triggering a demo error never fails the action")
				scenario := out.Result.(ErrorScenario)
				assert.Equal(t, tt.status, scenario.StatusCode)
				assert.Equal(t, tt.code, scenario.Code)
				assert.Equal(t, tt.handled, scenario.Handled)
			})
		}
	})

	t.Run("unknown scenario lists the available ones", func(t *testing.T) {
		out, err := demo.Execute("trigger", Params{"scenario": "teapot"}, t0)
		require.NoError(t, err)
		result := out.Result.(map[string]interface{})
		assert.Equal(t, false, result["found"])
		assert.ElementsMatch(t,
			[]string{"bad-request", "forbidden", "graceful", "not-found", "server-error", "unauthorized"},
			result["scenarios"].([]string))
	})

	t.Run("server-error logs at error level", func(t *testing.T) {
		out, err := demo.Execute("trigger", Params{"scenario": "server-error"}, t0)
		require.NoError(t, err)
		require.NotEmpty(t, out.Logs)
		assert.Equal(t, "error", out.Logs[0].Level)
	})

	t.Run("scenario param is required", func(t *testing.T) {
		_, err := demo.Execute("trigger", Params{}, t0)
		assert.Error(t, err)
	})
}

func TestErrorDemo_Scenarios(t *testing.T) {
	demo := &ErrorDemo{}

	t.Run("names are sorted and stable", func(t *testing.T) {
		names := demo.Scenarios()
		assert.Equal(t, []string{"bad-request", "forbidden", "graceful", "not-found", "server-error", "unauthorized"}, names)
		assert.Equal(t, names, demo.Scenarios())
	})

	t.Run("scenarios action returns the list", func(t *testing.T) {
		out, err := demo.Execute("scenarios", Params{}, t0)
		require.NoError(t, err)
		assert.Len(t, out.Result.([]string), 6)
	})
}
