// Package cache holds the advisory in-process projection of interview results.
// Entries live for the process lifetime and can always be rebuilt from the durable store.
package cache

import (
	"sync"

	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/repository"
)

var _ repository.ResultCache = (*MemoryCache)(nil)

// MemoryCache is a most-recent-write-wins map with no eviction.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*domain.InterviewResult
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*domain.InterviewResult)}
}

// Get returns a copy of the cached projection.
func (c *MemoryCache) Get(id string) (*domain.InterviewResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// Put stores a copy of result, replacing any previous entry.
func (c *MemoryCache) Put(result *domain.InterviewResult) {
	if result == nil {
		return
	}
	c.mu.Lock()
	c.entries[result.InterviewID] = result.Clone()
	c.mu.Unlock()
}

// Refresh is Put for read-backs. A terminal entry is never downgraded to processing,
// since it may carry an outcome the durable store failed to record.
func (c *MemoryCache) Refresh(result *domain.InterviewResult) *domain.InterviewResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[result.InterviewID]; ok && cur.Status.IsTerminal() && !result.Status.IsTerminal() {
		return cur.Clone()
	}
	c.entries[result.InterviewID] = result.Clone()
	return result.Clone()
}

// Len returns the number of cached interviews.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
