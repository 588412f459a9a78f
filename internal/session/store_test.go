package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patternlab/patternlab/internal/logging"
	"github.com/patternlab/patternlab/internal/simulator"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(clock *fakeClock) *Store {
	return NewStore(logging.NopLogger{}, WithClock(clock.Now))
}

func TestStore_Touch(t *testing.T) {
	t.Run("creates on first use and reuses after", func(t *testing.T) {
		store := newTestStore(newFakeClock())
		defer store.Stop()

		first := store.Touch("visitor-1")
		require.NotNil(t, first)
		assert.Equal(t, "visitor-1", first.ID)

		second := store.Touch("visitor-1")
		assert.Same(t, first, second)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("distinct visitors get distinct sessions", func(t *testing.T) {
		store := newTestStore(newFakeClock())
		defer store.Stop()

		a := store.Touch("visitor-a")
		b := store.Touch("visitor-b")
		assert.NotSame(t, a, b)
		assert.Equal(t, 2, store.Len())
	})

	t.Run("touch refreshes last active", func(t *testing.T) {
		clock := newFakeClock()
		store := newTestStore(clock)
		defer store.Stop()

		store.Touch("v")
		clock.Advance(10 * time.Minute)
		session := store.Touch("v")
		assert.Equal(t, clock.Now(), session.LastActive)
	})
}

func TestSession_Simulators(t *testing.T) {
	t.Run("lazy creation per kind", func(t *testing.T) {
		store := newTestStore(newFakeClock())
		defer store.Stop()

		session := store.Touch("v")
		assert.Equal(t, 0, session.SimulatorCount())

		cache := session.Simulator(simulator.KindCache)
		require.NotNil(t, cache)
		assert.Equal(t, 1, session.SimulatorCount())

		assert.Same(t, cache, session.Simulator(simulator.KindCache))
		assert.Equal(t, 1, session.SimulatorCount())
	})

	t.Run("state is isolated between sessions", func(t *testing.T) {
		clock := newFakeClock()
		store := newTestStore(clock)
		defer store.Stop()

		a := store.Touch("a")
		b := store.Touch("b")

		_, err := a.Exec(simulator.KindCache, "set", simulator.Params{"key": "k", "value": "v"}, clock.Now())
		require.NoError(t, err)

		out, err := b.Exec(simulator.KindCache, "get", simulator.Params{"key": "k"}, clock.Now())
		require.NoError(t, err)
		result := out.Result.(map[string]interface{})
		assert.Equal(t, false, result["hit"], "b must not see a's cache entries")
	})

	t.Run("unknown kind yields nil", func(t *testing.T) {
		store := newTestStore(newFakeClock())
		defer store.Stop()
		assert.Nil(t, store.Touch("v").Simulator(simulator.Kind("nope")))
	})
}

func TestStore_Sweep(t *testing.T) {
	t.Run("drops sessions idle past the ttl", func(t *testing.T) {
		clock := newFakeClock()
		store := NewStore(logging.NopLogger{}, WithClock(clock.Now), WithIdleTTL(30*time.Minute))
		defer store.Stop()

		store.Touch("stale")
		clock.Advance(20 * time.Minute)
		store.Touch("fresh")
		clock.Advance(11 * time.Minute)

		removed := store.Sweep()
		assert.Equal(t, 1, removed)
		_, ok := store.Get("stale")
		assert.False(t, ok)
		_, ok = store.Get("fresh")
		assert.True(t, ok)
	})

	t.Run("touch resurrects a swept visitor with fresh state", func(t *testing.T) {
		clock := newFakeClock()
		store := NewStore(logging.NopLogger{}, WithClock(clock.Now), WithIdleTTL(30*time.Minute))
		defer store.Stop()

		session := store.Touch("v")
		session.Simulator(simulator.KindCache)
		clock.Advance(31 * time.Minute)
		store.Sweep()

		fresh := store.Touch("v")
		assert.NotSame(t, session, fresh)
		assert.Equal(t, 0, fresh.SimulatorCount())
	})

	t.Run("sweep count accumulates in stats", func(t *testing.T) {
		clock := newFakeClock()
		store := NewStore(logging.NopLogger{}, WithClock(clock.Now), WithIdleTTL(time.Minute))
		defer store.Stop()

		store.Touch("a")
		store.Touch("b")
		clock.Advance(2 * time.Minute)
		store.Sweep()

		stats := store.Stats()
		assert.Equal(t, int64(2), stats.Swept)
		assert.Equal(t, 0, stats.Sessions)
	})
}

func TestStore_Stats(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)
	defer store.Stop()

	a := store.Touch("a")
	a.Simulator(simulator.KindCache)
	a.Simulator(simulator.KindRateLimiter)
	clock.Advance(time.Minute)
	store.Touch("b")

	stats := store.Stats()
	assert.Equal(t, 2, stats.Sessions)
	assert.Equal(t, 2, stats.Simulators)
	assert.Equal(t, a.CreatedAt, stats.OldestSeen)
}

func TestStore_StartStop(t *testing.T) {
	t.Run("stop is idempotent without start", func(t *testing.T) {
		store := newTestStore(newFakeClock())
		store.Stop()
		store.Stop()
	})

	t.Run("sweep loop runs until stopped", func(t *testing.T) {
		clock := newFakeClock()
		store := NewStore(logging.NopLogger{}, WithClock(clock.Now), WithIdleTTL(time.Minute))
		store.Touch("v")
		clock.Advance(2 * time.Minute)

		store.Start(5 * time.Millisecond)
		assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
		store.Stop()
	})

	t.Run("stop drains the sweep loop", func(t *testing.T) {
		clock := newFakeClock()
		store := NewStore(logging.NopLogger{}, WithClock(clock.Now), WithIdleTTL(time.Minute))
		store.Start(time.Millisecond)
		store.Stop()

		// The loop has exited, so an idle session is never swept.
		store.Touch("v")
		clock.Advance(2 * time.Minute)
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, 1, store.Len())
	})
}

func TestSession_ConcurrentExec(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)
	defer store.Stop()

	session := store.Touch("v")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := session.Exec(simulator.KindRateLimiter, "check", simulator.Params{}, clock.Now())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	out, err := session.Exec(simulator.KindRateLimiter, "status", simulator.Params{}, clock.Now())
	require.NoError(t, err)
	res := out.Result.(simulator.RateCheckResult)
	assert.Equal(t, 0, res.Remaining, "20 concurrent checks exhaust a 5-slot window")
}
