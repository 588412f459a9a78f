package simulator

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestCache_SetGet(t *testing.T) {
	cache := NewCache(10)

	t.Run("set then get returns value", func(t *testing.T) {
		cache.Set("a", 1, 0, t0)
		value, hit := cache.Get("a", t0)
		assert.True(t, hit)
		assert.Equal(t, 1, value)
	})

	t.Run("missing key is a miss", func(t *testing.T) {
		_, hit := cache.Get("missing", t0)
		assert.False(t, hit)
	})

	t.Run("updating existing key keeps size and does not evict", func(t *testing.T) {
		cache := NewCache(2)
		cache.Set("x", 1, 0, t0)
		cache.Set("y", 2, 0, t0)
		evicted, didEvict := cache.Set("x", 10, 0, t0)
		assert.False(t, didEvict)
		assert.Empty(t, evicted)
		assert.Equal(t, 2, cache.Len())

		value, hit := cache.Get("x", t0)
		assert.True(t, hit)
		assert.Equal(t, 10, value)
	})
}

func TestCache_LRUEviction(t *testing.T) {
	t.Run("evicts oldest-accessed key at capacity", func(t *testing.T) {
		cache := NewCache(3)
		cache.Set("a", 1, 0, t0)
		cache.Set("b", 2, 0, t0)
		cache.Set("c", 3, 0, t0)

		evicted, didEvict := cache.Set("d", 4, 0, t0)
		assert.True(t, didEvict)
		assert.Equal(t, "a", evicted)
		assert.Equal(t, 3, cache.Len())
	})

	t.Run("get promotes entry out of eviction position", func(t *testing.T) {
		cache := NewCache(3)
		cache.Set("a", 1, 0, t0)
		cache.Set("b", 2, 0, t0)
		cache.Set("c", 3, 0, t0)

		// a is oldest; reading it makes b the eviction candidate.
		cache.Get("a", t0)

		evicted, didEvict := cache.Set("d", 4, 0, t0)
		assert.True(t, didEvict)
		assert.Equal(t, "b", evicted)

		_, hit := cache.Get("a", t0)
		assert.True(t, hit, "a should survive after being accessed")
	})

	t.Run("12 distinct keys into capacity 10 evicts the 2 oldest", func(t *testing.T) {
		cache := NewCache(10)
		evictions := 0
		for i := 1; i <= 12; i++ {
			if _, didEvict := cache.Set(fmt.Sprintf("item-%d", i), i, 0, t0); didEvict {
				evictions++
			}
		}
		assert.Equal(t, 2, evictions)
		assert.Equal(t, 10, cache.Len())

		for _, gone := range []string{"item-1", "item-2"} {
			_, hit := cache.Get(gone, t0)
			assert.False(t, hit, "%s should have been evicted", gone)
		}
		entries := cache.Entries(t0)
		assert.Len(t, entries, 10)
		assert.Equal(t, "item-3", entries[0].Key, "oldest surviving key comes first")
	})
}

func TestCache_TTL(t *testing.T) {
	ttl := 500 * time.Millisecond

	t.Run("hit just before expiry", func(t *testing.T) {
		cache := NewCache(10)
		cache.Set("k", "v", ttl, t0)
		_, hit := cache.Get("k", t0.Add(ttl-time.Millisecond))
		assert.True(t, hit)
	})

	t.Run("miss just after expiry and entry removed", func(t *testing.T) {
		cache := NewCache(10)
		cache.Set("k", "v", ttl, t0)
		_, hit := cache.Get("k", t0.Add(ttl+time.Millisecond))
		assert.False(t, hit)
		assert.Equal(t, 0, cache.Len(), "expired entry is removed on read")
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		cache := NewCache(10)
		cache.Set("k", "v", 0, t0)
		_, hit := cache.Get("k", t0.Add(240*time.Hour))
		assert.True(t, hit)
	})
}

func TestCache_DeleteClearStats(t *testing.T) {
	t.Run("delete reports removal once", func(t *testing.T) {
		cache := NewCache(10)
		cache.Set("a", 1, 0, t0)
		assert.True(t, cache.Delete("a"))
		assert.False(t, cache.Delete("a"))
	})

	t.Run("clear returns exact count", func(t *testing.T) {
		cache := NewCache(10)
		cache.Set("a", 1, 0, t0)
		cache.Set("b", 2, 0, t0)
		cache.Set("c", 3, 0, t0)
		assert.Equal(t, 3, cache.Clear())
		assert.Equal(t, 0, cache.Clear())
	})

	t.Run("hit rate accounting", func(t *testing.T) {
		cache := NewCache(10)
		stats := cache.Stats()
		assert.Zero(t, stats.HitRate, "no accesses yet")

		cache.Set("a", 1, 0, t0)
		cache.Get("a", t0)
		cache.Get("a", t0)
		cache.Get("nope", t0)

		stats = cache.Stats()
		assert.Equal(t, int64(2), stats.Hits)
		assert.Equal(t, int64(1), stats.Misses)
		assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
	})
}

func TestCache_Execute(t *testing.T) {
	t.Run("set and get round trip", func(t *testing.T) {
		cache := NewCache(10)
		out, err := cache.Execute("set", Params{"key": "a", "value": float64(1)}, t0)
		require.NoError(t, err)
		result := out.Result.(map[string]interface{})
		assert.Equal(t, true, result["stored"])

		out, err = cache.Execute("get", Params{"key": "a"}, t0)
		require.NoError(t, err)
		result = out.Result.(map[string]interface{})
		assert.Equal(t, true, result["hit"])
		assert.Equal(t, float64(1), result["value"])
		require.NotEmpty(t, out.Logs)
		assert.Contains(t, out.Logs[0].Message, "Cache HIT for key: a")
	})

	t.Run("fill demonstrates eviction deterministically", func(t *testing.T) {
		cache := NewCache(10)
		out, err := cache.Execute("fill", Params{"count": float64(12)}, t0)
		require.NoError(t, err)
		result := out.Result.(map[string]interface{})
		assert.Equal(t, 2, result["evictions"])
		assert.Equal(t, 10, cache.Len())
	})

	t.Run("set reports evicted key", func(t *testing.T) {
		cache := NewCache(1)
		_, err := cache.Execute("set", Params{"key": "a", "value": "x"}, t0)
		require.NoError(t, err)
		out, err := cache.Execute("set", Params{"key": "b", "value": "y"}, t0)
		require.NoError(t, err)
		result := out.Result.(map[string]interface{})
		assert.Equal(t, "a", result["evicted"])
	})

	t.Run("missing key param", func(t *testing.T) {
		cache := NewCache(10)
		_, err := cache.Execute("get", Params{}, t0)
		assert.Error(t, err)
	})

	t.Run("unknown action", func(t *testing.T) {
		cache := NewCache(10)
		_, err := cache.Execute("defrost", Params{}, t0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unknown action: defrost")
	})
}

func TestCache_AccessOrderMaintenance(t *testing.T) {
	keys := func(cache *Cache) []string {
		var out []string
		for _, entry := range cache.Entries(t0) {
			out = append(out, entry.Key)
		}
		return out
	}

	cache := NewCache(5)
	cache.Set("a", 1, 0, t0)
	cache.Set("b", 2, 0, t0)
	cache.Set("c", 3, 0, t0)
	require.Equal(t, []string{"a", "b", "c"}, keys(cache))

	// Reads and updates both move the entry to the recent end.
	cache.Get("a", t0)
	require.Equal(t, []string{"b", "c", "a"}, keys(cache))
	cache.Set("b", 20, 0, t0)
	require.Equal(t, []string{"c", "a", "b"}, keys(cache))

	// Removing from the middle keeps the remaining entries linked.
	cache.Delete("a")
	require.Equal(t, []string{"c", "b"}, keys(cache))

	cache.Set("d", 4, 0, t0)
	require.Equal(t, []string{"c", "b", "d"}, keys(cache))
}
