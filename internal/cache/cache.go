// Package cache holds the last known good quote for each symbol.
//
// The cache is the only state shared between refresh cycles and readers.
// Keys are spread over independently locked shards so a write to one
// symbol never blocks reads of another, and every mutation is a single
// per-key upsert or delete.
package cache

import (
	"cmp"
	"hash/fnv"
	"slices"
	"sync"

	"github.com/rickgao/quotewatch/internal/model"
)

// DefaultShards is the shard count used by New.
const DefaultShards = 16

// Entry is one symbol and its latest quote.
type Entry struct {
	Symbol string
	Quote  model.Quote
}

// Cache maps symbols to their latest quote.
type Cache struct {
	shards []*shard
}

type shard struct {
	mu     sync.RWMutex
	quotes map[string]model.Quote
}

// New creates a cache with DefaultShards shards.
func New() *Cache {
	return NewSharded(DefaultShards)
}

// NewSharded creates a cache with n shards.
func NewSharded(n int) *Cache {
	if n <= 0 {
		n = 1
	}
	c := &Cache{shards: make([]*shard, n)}
	for i := range c.shards {
		c.shards[i] = &shard{quotes: make(map[string]model.Quote)}
	}
	return c
}

func (c *Cache) shardFor(symbol string) *shard {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

// Put stores q under symbol, replacing any previous quote.
func (c *Cache) Put(symbol string, q model.Quote) {
	s := c.shardFor(symbol)
	s.mu.Lock()
	s.quotes[symbol] = q
	s.mu.Unlock()
}

// Get returns the quote for symbol.
func (c *Cache) Get(symbol string) (model.Quote, bool) {
	s := c.shardFor(symbol)
	s.mu.RLock()
	q, ok := s.quotes[symbol]
	s.mu.RUnlock()
	return q, ok
}

// Remove deletes symbol and reports whether it was present.
func (c *Cache) Remove(symbol string) bool {
	s := c.shardFor(symbol)
	s.mu.Lock()
	_, ok := s.quotes[symbol]
	delete(s.quotes, symbol)
	s.mu.Unlock()
	return ok
}

// Len returns the number of cached symbols.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.quotes)
		s.mu.RUnlock()
	}
	return n
}

// Snapshot returns every entry ordered by symbol. Each shard is copied
// under its own read lock, so the result is consistent per symbol but may
// interleave with concurrent writes to other shards.
func (c *Cache) Snapshot() []Entry {
	entries := make([]Entry, 0, c.Len())
	for _, s := range c.shards {
		s.mu.RLock()
		for sym, q := range s.quotes {
			entries = append(entries, Entry{Symbol: sym, Quote: q})
		}
		s.mu.RUnlock()
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.Symbol, b.Symbol)
	})
	return entries
}

// Seed stores quotes in bulk, typically from persisted state at startup.
func (c *Cache) Seed(quotes []model.Quote) {
	for _, q := range quotes {
		c.Put(q.Symbol, q)
	}
}
