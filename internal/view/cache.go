package view

import (
	"slices"
	"sync"

	"github.com/sakif/jobtrack/internal/model"
)

// Cache memoizes Derive per FilterState for one version of a collection.
// The owner bumps the version on every mutation; a lookup with a new
// version drops everything cached for the old one.
//
// Memoization is purely an optimization: Get always returns exactly what
// Derive would.
type Cache struct {
	mu      sync.Mutex
	version uint64
	entries map[FilterState][]model.Application
}

// Get returns the derived view of records under f, computing it on a miss.
// records must be the collection as of version.
func (c *Cache) Get(version uint64, records []model.Application, f FilterState) []model.Application {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries == nil || c.version != version {
		c.entries = make(map[FilterState][]model.Application)
		c.version = version
	}

	derived, ok := c.entries[f]
	if !ok {
		derived = Derive(records, f)
		c.entries[f] = derived
	}
	// Callers may reorder what they get back; the cached slice stays intact.
	return slices.Clone(derived)
}

// Len returns the number of memoized views for the current version.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
