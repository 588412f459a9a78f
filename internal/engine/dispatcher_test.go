package engine

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patternlab/patternlab/internal/logging"
	"github.com/patternlab/patternlab/internal/registry"
	"github.com/patternlab/patternlab/internal/session"
	"github.com/patternlab/patternlab/internal/simulator"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *clock) {
	t.Helper()
	clk := newClock()
	store := session.NewStore(logging.NopLogger{}, session.WithClock(clk.Now))
	t.Cleanup(store.Stop)
	opts = append([]Option{WithClock(clk.Now)}, opts...)
	return NewDispatcher(registry.NewPatternRegistry(), store, logging.NopLogger{}, opts...), clk
}

func TestDispatcher_Validation(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	t.Run("missing fields fail before any dispatch", func(t *testing.T) {
		tests := []Request{
			{Slug: "lru-cache", Action: "get", SessionID: "s1"},
			{Category: "caching", Action: "get", SessionID: "s1"},
			{Category: "caching", Slug: "lru-cache", SessionID: "s1"},
			{Category: "caching", Slug: "lru-cache", Action: "get"},
		}
		for i, req := range tests {
			resp := d.Execute(ctx, req)
			assert.False(t, resp.Success, "case %d", i)
			assert.Equal(t, "Missing required fields", resp.Error, "case %d", i)
			assert.Equal(t, http.StatusBadRequest, resp.Status, "case %d", i)
			assert.NotNil(t, resp.Logs, "case %d", i)
		}
	})

	t.Run("unknown pattern", func(t *testing.T) {
		resp := d.Execute(ctx, Request{
			Category: "caching", Slug: "bloom-filter", Action: "get", SessionID: "s1",
		})
		assert.False(t, resp.Success)
		assert.Equal(t, "Demo not found", resp.Error)
		assert.Equal(t, http.StatusNotFound, resp.Status)
	})

	t.Run("unknown action within a known pattern", func(t *testing.T) {
		resp := d.Execute(ctx, Request{
			Category: "caching", Slug: "lru-cache", Action: "defrost", SessionID: "s1",
		})
		assert.False(t, resp.Success)
		assert.Equal(t, "Unknown action: defrost", resp.Error)
		assert.Equal(t, http.StatusBadRequest, resp.Status)
	})

	t.Run("nil params are tolerated", func(t *testing.T) {
		resp := d.Execute(ctx, Request{
			Category: "resilience", Slug: "rate-limiter", Action: "check", SessionID: "s1",
		})
		assert.True(t, resp.Success)
	})
}

func TestDispatcher_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("cache set then get through the full path", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		resp := d.Execute(ctx, Request{
			Category: "caching", Slug: "lru-cache", Action: "set",
			Params:    simulator.Params{"key": "greeting", "value": "hello"},
			SessionID: "visitor-1",
		})
		require.True(t, resp.Success)
		assert.Equal(t, http.StatusOK, resp.Status)

		resp = d.Execute(ctx, Request{
			Category: "caching", Slug: "lru-cache", Action: "get",
			Params:    simulator.Params{"key": "greeting"},
			SessionID: "visitor-1",
		})
		require.True(t, resp.Success)
		result := resp.Result.(map[string]interface{})
		assert.Equal(t, true, result["hit"])
		assert.Equal(t, "hello", result["value"])
		require.NotEmpty(t, resp.Logs)
		assert.Contains(t, resp.Logs[0].Message, "Cache HIT for key: greeting")
		assert.NotNil(t, resp.Visualization)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		d.Execute(ctx, Request{
			Category: "caching", Slug: "lru-cache", Action: "set",
			Params:    simulator.Params{"key": "k", "value": "v"},
			SessionID: "alice",
		})
		resp := d.Execute(ctx, Request{
			Category: "caching", Slug: "lru-cache", Action: "get",
			Params:    simulator.Params{"key": "k"},
			SessionID: "bob",
		})
		result := resp.Result.(map[string]interface{})
		assert.Equal(t, false, result["hit"])
	})

	t.Run("steps annotate per action", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		resp := d.Execute(ctx, Request{
			Category: "caching", Slug: "lru-cache", Action: "get",
			Params:    simulator.Params{"key": "k"},
			SessionID: "s1",
		})
		require.True(t, resp.Success)
		require.Len(t, resp.Steps, 4)
		assert.Equal(t, registry.StepCompleted, resp.Steps[0].Status)
		assert.Equal(t, registry.StepCompleted, resp.Steps[2].Status)
		assert.Equal(t, registry.StepPending, resp.Steps[3].Status)
	})

	t.Run("failed action returns pending steps and logs", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		resp := d.Execute(ctx, Request{
			Category: "caching", Slug: "lru-cache", Action: "get",
			SessionID: "s1",
		})
		assert.False(t, resp.Success)
		assert.Equal(t, http.StatusBadRequest, resp.Status)
		require.Len(t, resp.Steps, 4)
		for _, s := range resp.Steps {
			assert.Equal(t, registry.StepPending, s.Status)
		}
		assert.NotNil(t, resp.Logs)
	})

	t.Run("duration reflects elapsed wall clock", func(t *testing.T) {
		clk := newClock()
		store := session.NewStore(logging.NopLogger{}, session.WithClock(clk.Now))
		defer store.Stop()

		d := NewDispatcher(registry.NewPatternRegistry(), store, logging.NopLogger{},
			WithClock(func() time.Time {
				now := clk.Now()
				clk.Advance(3 * time.Millisecond)
				return now
			}))

		resp := d.Execute(ctx, Request{
			Category: "resilience", Slug: "rate-limiter", Action: "status", SessionID: "s1",
		})
		assert.Equal(t, int64(3), resp.Duration)
	})

	t.Run("rate limiter denial is a successful dispatch", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		for i := 0; i < simulator.DefaultRateLimit; i++ {
			resp := d.Execute(ctx, Request{
				Category: "resilience", Slug: "rate-limiter", Action: "check", SessionID: "s1",
			})
			require.True(t, resp.Success)
		}
		resp := d.Execute(ctx, Request{
			Category: "resilience", Slug: "rate-limiter", Action: "check", SessionID: "s1",
		})
		require.True(t, resp.Success, "denial travels in the result, not the error")
		res := resp.Result.(simulator.RateCheckResult)
		assert.False(t, res.Allowed)
		assert.Zero(t, res.Remaining)
	})
}

func TestDispatcher_EndToEnd(t *testing.T) {
	ctx := context.Background()

	t.Run("filling past capacity evicts exactly twice", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		evictions := 0
		for i := 1; i <= 12; i++ {
			resp := d.Execute(ctx, Request{
				Category: "caching", Slug: "lru-cache", Action: "set",
				Params:    simulator.Params{"key": fmt.Sprintf("key-%d", i), "value": i},
				SessionID: "s1",
			})
			require.True(t, resp.Success)
			if _, ok := resp.Result.(map[string]interface{})["evicted"]; ok {
				evictions++
			}
		}
		assert.Equal(t, 2, evictions)
	})

	t.Run("flag check is deterministic across repeated dispatches", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		req := Request{
			Category: "delivery", Slug: "feature-flags", Action: "check",
			Params:    simulator.Params{"key": "new-dashboard", "userId": "user-42"},
			SessionID: "s1",
		}
		first := d.Execute(ctx, req)
		require.True(t, first.Success)
		want := first.Result.(simulator.FlagDecision).Enabled
		for i := 0; i < 10; i++ {
			resp := d.Execute(ctx, req)
			assert.Equal(t, want, resp.Result.(simulator.FlagDecision).Enabled)
		}
	})
}

func TestDispatcher_UnknownSimulatorKind(t *testing.T) {
	clk := newClock()
	store := session.NewStore(logging.NopLogger{}, session.WithClock(clk.Now))
	defer store.Stop()

	reg := registry.NewPatternRegistry()
	reg.Register(&registry.PatternInfo{
		Category: "broken",
		Slug:     "panics",
		Title:    "Broken",
		Kind:     simulator.Kind("no-such-kind"),
	})

	d := NewDispatcher(reg, store, logging.NopLogger{}, WithClock(clk.Now))
	resp := d.Execute(context.Background(), Request{
		Category: "broken", Slug: "panics", Action: "anything", SessionID: "s1",
	})
	assert.False(t, resp.Success)
	assert.Equal(t, "Internal server error", resp.Error)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.NotNil(t, resp.Logs)
	assert.NotNil(t, resp.Steps)
}

func TestDispatcher_Observer(t *testing.T) {
	var mu sync.Mutex
	var events []Event

	d, _ := newTestDispatcher(t, WithObserver(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}))

	d.Execute(context.Background(), Request{
		Category: "errors", Slug: "error-handling", Action: "scenarios", SessionID: "s1",
	})
	d.Execute(context.Background(), Request{
		Category: "errors", Slug: "error-handling", Action: "nope", SessionID: "s1",
	})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.True(t, events[0].Success)
	assert.Equal(t, "scenarios", events[0].Action)
	assert.False(t, events[1].Success)
}
