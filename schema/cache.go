package schema

import (
	"sync"
	"sync/atomic"

	"github.com/badgerrow/rowindex/rowerrors"
)

type cacheEntry struct {
	info atomic.Pointer[RowInfo]
	err  error
	done chan struct{}
}

// Cache builds and caches RowInfo per row type name, publishing each
// with a release fence (atomic.Pointer.Store/Load) so a reader that
// observes a finished entry sees a fully initialized RowInfo without
// further synchronization. The mutex only guards the map of in-flight
// and published entries; a concurrent Get for a name already being
// built waits on that build's completion channel rather than
// reattempting it.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Get returns the cached RowInfo for name, building it via build on
// first use. build returns the row type's spec plus the names of any
// row types it joins to (if none, pass nil). stack is the explicit
// "examining" path of row-type names currently being resolved by the
// caller's own call chain — pass nil from a top-level Get and pass the
// path extended with name when resolving join columns recursively, so a
// row type that refers back to itself, directly or transitively, is
// rejected with RecursiveJoin instead of deadlocking.
func (c *Cache) Get(name string, stack []string, build func() (RowTypeSpec, []string)) (*RowInfo, error) {
	for _, s := range stack {
		if s == name {
			return nil, newRecursiveJoin(name)
		}
	}

	c.mu.Lock()
	if e, ok := c.entries[name]; ok {
		c.mu.Unlock()
		<-e.done
		if info := e.info.Load(); info != nil {
			return info, nil
		}
		return nil, e.err
	}
	entry := &cacheEntry{done: make(chan struct{})}
	c.entries[name] = entry
	c.mu.Unlock()

	spec, joins := build()
	childStack := append(append([]string{}, stack...), name)
	var err error
	for _, j := range joins {
		for _, s := range childStack {
			if j == s {
				err = newRecursiveJoin(name)
			}
		}
	}
	var info *RowInfo
	if err == nil {
		info, err = Find(spec)
	}

	if err != nil {
		c.mu.Lock()
		delete(c.entries, name)
		c.mu.Unlock()
		entry.err = err
		close(entry.done)
		return nil, err
	}
	entry.info.Store(info)
	close(entry.done)
	return info, nil
}

// Evict drops a cached RowInfo, used by type-unload events (spec's
// design notes: the cache is a process-wide singleton that must be
// teardown-able for tests).
func (c *Cache) Evict(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}

func newRecursiveJoin(name string) error {
	return rowerrors.NewMalformedRowType(name, []string{"row type refers to itself through a join column (RecursiveJoin)"})
}
