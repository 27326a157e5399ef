// Package cache implements the bounded, concurrent, content-addressed
// embedding cache sitting between the chunker/renderer and any external
// embedding provider.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/aicontext-go/core/embedding"
)

// Vector is a dense embedding. Immutable once stored. Alias of
// embedding.Vector so cache, embedding, and chunker share one concrete
// vector type with no conversions at package boundaries.
type Vector = embedding.Vector

// EmbeddingCache is the C4 contract: TryGet/Store/Clear/Count/MaxSize.
// Invalid inputs (empty/whitespace text, nil vector) are silently ignored;
// there is no error channel.
type EmbeddingCache interface {
	TryGet(text string) (Vector, bool)
	Store(text string, v Vector)
	Clear()
	Count() int
	MaxSize() int
}

type entry struct {
	key string
	val Vector
}

// Cache is a FIFO-eviction, SHA-256-content-addressed embedding cache.
// Eviction is strictly insertion-ordered: a Get/TryGet never perturbs
// ordering, unlike an LRU. Re-storing an existing key is a no-op
// (first-writer wins).
type Cache struct {
	mu      sync.RWMutex
	maxSize int
	order   *list.List // front = oldest
	byKey   map[string]*list.Element
	logger  *zap.Logger
}

// New creates a Cache bounded at maxSize entries. maxSize <= 0 is
// normalized to 1 (a cache that can hold nothing is not a useful
// construction-time failure mode under this contract — there is no error
// channel for this component). A nil logger defaults to zap.NewNop().
func New(maxSize int, logger *zap.Logger) *Cache {
	if maxSize <= 0 {
		maxSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		maxSize: maxSize,
		order:   list.New(),
		byKey:   make(map[string]*list.Element, maxSize),
		logger:  logger,
	}
}

func digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// TryGet looks up the cached vector for text. Reading never affects
// eviction order.
func (c *Cache) TryGet(text string) (Vector, bool) {
	if strings.TrimSpace(text) == "" {
		c.logger.Debug("ignoring empty cache key on lookup")
		return nil, false
	}
	key := digest(text)
	c.mu.RLock()
	defer c.mu.RUnlock()
	el, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*entry).val, true
}

// Store inserts text's vector, evicting oldest entries first if the cache
// is full. Re-storing an existing key is a no-op. nil vectors and
// empty/whitespace texts are silently ignored.
func (c *Cache) Store(text string, v Vector) {
	if strings.TrimSpace(text) == "" || v == nil {
		c.logger.Debug("ignoring invalid cache store", zap.Bool("empty_text", strings.TrimSpace(text) == ""), zap.Bool("nil_vector", v == nil))
		return
	}
	key := digest(text)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byKey[key]; exists {
		return
	}
	for c.order.Len() >= c.maxSize {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		evicted := oldest.Value.(*entry)
		delete(c.byKey, evicted.key)
		c.logger.Debug("evicted oldest cache entry", zap.String("key", evicted.key))
	}
	el := c.order.PushBack(&entry{key: key, val: v})
	c.byKey[key] = el
}

// Clear empties the cache. It may race with concurrent stores; after any
// completed Store, Count() <= MaxSize() still holds regardless of
// interleaving with Clear.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.byKey = make(map[string]*list.Element, c.maxSize)
}

// Count returns the current number of entries.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}

// MaxSize returns the configured bound.
func (c *Cache) MaxSize() int { return c.maxSize }
