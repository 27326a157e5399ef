// Package contextstore implements C8 (an append-only context item store)
// and C9 (a freshness-boosted MMR renderer with a token-budget filter).
package contextstore

import (
	"sync"
	"time"

	"github.com/aicontext-go/core/clock"
	"github.com/aicontext-go/core/embedding"
)

// ContextItem is one entry in the store: content, its embedding, token
// count, and insertion timestamp. Immutable once added.
type ContextItem struct {
	Content    string
	Embedding  embedding.Vector
	TokenCount int
	Timestamp  time.Time
}

// Store is an append-only, insertion-ordered list of ContextItems. Safe for
// concurrent use; does not deduplicate.
type Store struct {
	mu    sync.RWMutex
	clock clock.Clock
	items []ContextItem
}

// New constructs a Store. A nil clock defaults to clock.Default.
func New(c clock.Clock) *Store {
	if c == nil {
		c = clock.Default
	}
	return &Store{clock: c}
}

// Add appends a new item, stamping it with the store's clock unless an
// explicit timestamp is supplied via AddAt.
func (s *Store) Add(content string, vec embedding.Vector, tokenCount int) {
	s.AddAt(content, vec, tokenCount, s.clock.Now())
}

// AddAt appends a new item with an explicit timestamp, for deterministic
// tests that don't want to depend on a fake clock's tick order.
func (s *Store) AddAt(content string, vec embedding.Vector, tokenCount int, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, ContextItem{Content: content, Embedding: vec, TokenCount: tokenCount, Timestamp: ts})
}

// Clear removes every item.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Items returns a read-only snapshot in insertion order.
func (s *Store) Items() []ContextItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ContextItem, len(s.items))
	copy(out, s.items)
	return out
}
