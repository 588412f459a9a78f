package simulator

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCache_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("size never exceeds capacity", prop.ForAll(
		func(keys []string, capacity int) bool {
			cache := NewCache(capacity)
			now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
			for _, key := range keys {
				cache.Set(key, key, 0, now)
				if cache.Len() > capacity {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
		gen.IntRange(1, 20),
	))

	properties.Property("eviction victim is the least recently used key", prop.ForAll(
		func(seed []int) bool {
			const capacity = 5
			cache := NewCache(capacity)
			now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
			var order []string // access order, oldest first

			touch := func(key string) {
				for i, k := range order {
					if k == key {
						order = append(order[:i], order[i+1:]...)
						break
					}
				}
				order = append(order, key)
			}

			for _, n := range seed {
				key := string(rune('a' + (n%7+7)%7))
				if _, hit := cache.Get(key, now); hit {
					touch(key)
					continue
				}
				evicted, didEvict := cache.Set(key, n, 0, now)
				if didEvict {
					if len(order) == 0 || evicted != order[0] {
						return false
					}
					order = order[1:]
				}
				touch(key)
			}
			return cache.Len() == len(order)
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.Property("get after set without expiry always hits", prop.ForAll(
		func(key string, value int) bool {
			cache := NewCache(10)
			now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
			cache.Set(key, value, 0, now)
			got, hit := cache.Get(key, now.Add(time.Hour))
			return hit && got == value
		},
		gen.AlphaString(),
		gen.Int(),
	))

	properties.TestingRun(t)
}
