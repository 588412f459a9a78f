package simulator

import (
	"fmt"
	"time"

	"github.com/patternlab/patternlab/internal/errors"
)

// DefaultCacheCapacity bounds each visitor's simulated cache.
const DefaultCacheCapacity = 10

// Cache is the LRU cache simulator: capacity-bound, access-ordered,
// with optional per-entry TTL checked lazily on read.
type Cache struct {
	capacity int
	entries  map[string]*cacheEntry
	// Doubly-linked list with dummy head and tail; head.next is the
	// most recently used entry, tail.prev the eviction candidate.
	head   *cacheEntry
	tail   *cacheEntry
	hits   int64
	misses int64
}

type cacheEntry struct {
	key       string
	value     interface{}
	createdAt time.Time
	ttl       time.Duration // 0 = no expiry
	prev      *cacheEntry
	next      *cacheEntry
}

// CacheEntryView is the JSON shape of one entry, ordered oldest-accessed
// first so the UI shows the next eviction candidate at the top.
type CacheEntryView struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	CreatedAt time.Time   `json:"createdAt"`
	TTLMillis int64       `json:"ttl,omitempty"`
	Expired   bool        `json:"expired"`
}

// CacheStats reports cache occupancy and accuracy counters.
type CacheStats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"maxSize"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// NewCache creates an empty cache with the given capacity.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	c := &Cache{
		capacity: capacity,
		entries:  make(map[string]*cacheEntry),
		head:     &cacheEntry{},
		tail:     &cacheEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Kind implements Simulator.
func (c *Cache) Kind() Kind { return KindCache }

// Actions implements Simulator.
func (c *Cache) Actions() []string {
	return []string{"set", "get", "delete", "clear", "fill", "stats"}
}

// Set inserts or updates a key. Returns the evicted key, if inserting a
// new key forced the least-recently-used entry out.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration, now time.Time) (string, bool) {
	if entry, exists := c.entries[key]; exists {
		// Updating an existing key never triggers eviction.
		entry.value = value
		entry.createdAt = now
		entry.ttl = ttl
		c.moveToFront(entry)
		return "", false
	}

	var evicted string
	var didEvict bool
	if len(c.entries) >= c.capacity {
		lru := c.tail.prev
		c.removeFromList(lru)
		delete(c.entries, lru.key)
		evicted = lru.key
		didEvict = true
	}

	entry := &cacheEntry{
		key:       key,
		value:     value,
		createdAt: now,
		ttl:       ttl,
	}
	c.entries[key] = entry
	c.addToFront(entry)
	return evicted, didEvict
}

// Get looks a key up, expiring it lazily when its TTL has passed.
// A successful read promotes the entry to most-recently-used.
func (c *Cache) Get(key string, now time.Time) (interface{}, bool) {
	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false
	}
	if entry.ttl > 0 && now.Sub(entry.createdAt) > entry.ttl {
		c.removeFromList(entry)
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	c.moveToFront(entry)
	c.hits++
	return entry.value, true
}

// Delete removes a key, reporting whether anything was removed.
func (c *Cache) Delete(key string) bool {
	entry, exists := c.entries[key]
	if !exists {
		return false
	}
	c.removeFromList(entry)
	delete(c.entries, key)
	return true
}

// Clear empties the cache and returns the number of removed entries.
// Hit/miss counters survive a clear.
func (c *Cache) Clear() int {
	count := len(c.entries)
	c.entries = make(map[string]*cacheEntry)
	c.head.next = c.tail
	c.tail.prev = c.head
	return count
}

// Entries returns the cache contents ordered oldest-accessed first.
func (c *Cache) Entries(now time.Time) []CacheEntryView {
	views := make([]CacheEntryView, 0, len(c.entries))
	for e := c.tail.prev; e != c.head; e = e.prev {
		view := CacheEntryView{
			Key:       e.key,
			Value:     e.value,
			CreatedAt: e.createdAt,
			Expired:   e.ttl > 0 && now.Sub(e.createdAt) > e.ttl,
		}
		if e.ttl > 0 {
			view.TTLMillis = e.ttl.Milliseconds()
		}
		views = append(views, view)
	}
	return views
}

// Stats reports occupancy and hit rate. Hit rate is 0 before any access.
func (c *Cache) Stats() CacheStats {
	stats := CacheStats{
		Size:    len(c.entries),
		MaxSize: c.capacity,
		Hits:    c.hits,
		Misses:  c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}

// Len returns the current entry count.
func (c *Cache) Len() int { return len(c.entries) }

func (c *Cache) addToFront(entry *cacheEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *Cache) removeFromList(entry *cacheEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	entry.prev = nil
	entry.next = nil
}

func (c *Cache) moveToFront(entry *cacheEntry) {
	c.removeFromList(entry)
	c.addToFront(entry)
}

type cacheSetParams struct {
	Key       string
	Value     interface{}
	TTLMillis int
}

func decodeCacheSetParams(p Params) (cacheSetParams, error) {
	key, err := p.String("key")
	if err != nil {
		return cacheSetParams{}, err
	}
	value, ok := p.Value("value")
	if !ok {
		return cacheSetParams{}, errors.ErrMissingParam("value")
	}
	ttl := p.IntOr("ttl", 0)
	if ttl < 0 {
		return cacheSetParams{}, errors.ErrInvalidParam("ttl", "must not be negative")
	}
	return cacheSetParams{Key: key, Value: value, TTLMillis: ttl}, nil
}

// Execute implements Simulator.
func (c *Cache) Execute(action string, params Params, now time.Time) (*Outcome, error) {
	logs := NewRecorder("lru-cache", now)

	switch action {
	case "set":
		req, err := decodeCacheSetParams(params)
		if err != nil {
			return &Outcome{Logs: logs.Entries()}, err
		}
		ttl := time.Duration(req.TTLMillis) * time.Millisecond
		evicted, didEvict := c.Set(req.Key, req.Value, ttl, now)
		if didEvict {
			logs.Warn(fmt.Sprintf("Cache full, evicting least recently used key: %s", evicted))
		}
		logs.Info(fmt.Sprintf("Cache SET for key: %s", req.Key))
		result := map[string]interface{}{"key": req.Key, "stored": true}
		if didEvict {
			result["evicted"] = evicted
		}
		return c.outcome(result, logs, now), nil

	case "get":
		key, err := params.String("key")
		if err != nil {
			return &Outcome{Logs: logs.Entries()}, err
		}
		value, hit := c.Get(key, now)
		if hit {
			logs.Info(fmt.Sprintf("Cache HIT for key: %s", key))
		} else {
			logs.Warn(fmt.Sprintf("Cache MISS for key: %s", key))
		}
		result := map[string]interface{}{"key": key, "hit": hit}
		if hit {
			result["value"] = value
		}
		return c.outcome(result, logs, now), nil

	case "delete":
		key, err := params.String("key")
		if err != nil {
			return &Outcome{Logs: logs.Entries()}, err
		}
		deleted := c.Delete(key)
		if deleted {
			logs.Info(fmt.Sprintf("Cache DELETE for key: %s", key))
		} else {
			logs.Warn(fmt.Sprintf("Cache DELETE for missing key: %s", key))
		}
		return c.outcome(map[string]interface{}{"key": key, "deleted": deleted}, logs, now), nil

	case "clear":
		count := c.Clear()
		logs.Info(fmt.Sprintf("Cache cleared, %d entries removed", count))
		return c.outcome(map[string]interface{}{"cleared": count}, logs, now), nil

	case "fill":
		count := params.IntOr("count", 12)
		if count < 1 || count > 100 {
			return &Outcome{Logs: logs.Entries()}, errors.ErrInvalidParam("count", "must be between 1 and 100")
		}
		evictions := 0
		for i := 1; i <= count; i++ {
			key := fmt.Sprintf("item-%d", i)
			if _, didEvict := c.Set(key, fmt.Sprintf("value-%d", i), 0, now); didEvict {
				evictions++
			}
			logs.Info(fmt.Sprintf("Cache SET for key: %s", key))
		}
		if evictions > 0 {
			logs.Warn(fmt.Sprintf("Fill caused %d evictions", evictions))
		}
		return c.outcome(map[string]interface{}{"filled": count, "evictions": evictions}, logs, now), nil

	case "stats":
		logs.Debug("Reading cache statistics")
		return c.outcome(c.Stats(), logs, now), nil

	default:
		return &Outcome{Logs: logs.Entries()}, errors.ErrUnknownAction(action)
	}
}

func (c *Cache) outcome(result interface{}, logs *Recorder, now time.Time) *Outcome {
	return &Outcome{
		Result: result,
		Logs:   logs.Entries(),
		Visualization: map[string]interface{}{
			"entries": c.Entries(now),
			"stats":   c.Stats(),
		},
	}
}
