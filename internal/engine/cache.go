package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
)

// cacheable lists the primitives whose execute is referentially
// transparent under a fixed session context: store and link mutate the
// store, so they are never cached regardless of configuration.
var cacheable = map[PrimitiveKind]bool{
	KindRetrieve:  true,
	KindSearch:    true,
	KindTransform: true,
}

// resultCache is the engine's optional fingerprint -> prior-result cache.
// Off by default; bounded by maxSize with simple FIFO eviction, which is
// adequate since the cache is an optimization, not a correctness
// mechanism.
type resultCache struct {
	mu      sync.Mutex
	enabled bool
	maxSize int
	order   []string
	entries map[string]Value
}

func newResultCache(enabled bool, maxSize int) *resultCache {
	return &resultCache{
		enabled: enabled,
		maxSize: maxSize,
		entries: make(map[string]Value),
	}
}

// fingerprint builds the cache key (primitive_name, canonical(params),
// agent_id) by marshaling params with sorted keys.
func fingerprint(kind PrimitiveKind, p Params, agentID string) string {
	canon := canonicalize(p)
	h := sha256.New()
	h.Write([]byte(kind.String()))
	h.Write([]byte{0})
	h.Write([]byte(agentID))
	h.Write([]byte{0})
	h.Write(canon)
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalize produces a deterministic JSON encoding of p regardless of
// Go map iteration order.
func canonicalize(p Params) []byte {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		ordered = append(ordered, k, p[k])
	}
	b, _ := json.Marshal(ordered)
	return b
}

func (c *resultCache) get(key string) (Value, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *resultCache) put(key string, v Value) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = v

	for c.maxSize > 0 && len(c.entries) > c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
