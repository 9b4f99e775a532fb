// Package cache remembers raw model responses keyed by a fingerprint of
// the request, so an identical prompt within the TTL costs no API call.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

// DefaultTTL is how long a cached response stays valid.
const DefaultTTL = 24 * time.Hour

// flushEvery batches persistence: Store reports a flush is due only on
// every Nth newly stored fingerprint.
const flushEvery = 10

// Entry is one cached response. Timestamp is unix milliseconds.
type Entry struct {
	Response  string `json:"response"`
	Timestamp int64  `json:"timestamp"`
}

// Cache is a TTL-bounded response store. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]Entry
	stores  int

	now func() time.Time
}

// New returns an empty cache. A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: map[string]Entry{},
		now:     time.Now,
	}
}

// Fingerprint derives the cache key for a request. The sampling
// parameters are part of the key: the same prompt at a different
// temperature is a different request.
func Fingerprint(prompt string, temperature float64, maxTokens int) string {
	key := prompt + "|" + strconv.FormatFloat(temperature, 'g', -1, 64) + "|" + strconv.Itoa(maxTokens)
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached response for a fingerprint. Expired entries
// are evicted on the way out and report a miss.
func (c *Cache) Lookup(fingerprint string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fingerprint]
	if !ok {
		return "", false
	}
	if c.expired(e) {
		delete(c.entries, fingerprint)
		return "", false
	}
	return e.Response, true
}

// Store records a response, overwriting any previous entry. The boolean
// asks the caller to persist: it is true on every tenth store.
func (c *Cache) Store(fingerprint, response string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[fingerprint] = Entry{
		Response:  response,
		Timestamp: c.now().UnixMilli(),
	}
	c.stores++
	return c.stores%flushEvery == 0
}

// Len reports the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot serializes the live (non-expired) entries as JSON.
func (c *Cache) Snapshot() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := make(map[string]Entry, len(c.entries))
	for fp, e := range c.entries {
		if !c.expired(e) {
			live[fp] = e
		}
	}
	return json.Marshal(live)
}

// Load replaces the cache contents from a Snapshot. Entries that expired
// while on disk are dropped here rather than at lookup time.
func (c *Cache) Load(data []byte) error {
	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = map[string]Entry{}
	for fp, e := range entries {
		if !c.expired(e) {
			c.entries[fp] = e
		}
	}
	return nil
}

// expired reports whether an entry's age reached the TTL.
// Callers hold c.mu.
func (c *Cache) expired(e Entry) bool {
	age := c.now().UnixMilli() - e.Timestamp
	return age >= c.ttl.Milliseconds()
}
