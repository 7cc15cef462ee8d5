package encoding

import (
	"sync"

	"github.com/badgerrow/rowindex/rowerrors"
	"github.com/badgerrow/rowindex/schema"
)

// SchemaRegistry maps a row type's successive RowInfo value-column
// layouts to the schema versions that prefix encoded values (spec
// §4.4/§4.9/§6.4). Key schema does not evolve: only a row type's
// value-column layout is versioned.
type SchemaRegistry interface {
	// VersionFor returns the version assigned to ri, registering it as
	// a new version for rowTypeName if it has not been seen before.
	VersionFor(rowTypeName string, ri *schema.RowInfo) (uint32, error)

	// Lookup returns the RowInfo registered as rowTypeName's version v.
	Lookup(rowTypeName string, v uint32) (*schema.RowInfo, bool)

	Close()
}

// MemoryRegistry is an in-memory SchemaRegistry: a mutex-guarded map
// from row type name to its ordered list of registered RowInfo
// versions (index 0 of the slice is version 1, since version 0 is
// reserved for "no columns encoded" and is never itself registered).
type MemoryRegistry struct {
	mu     sync.RWMutex
	closed bool
	byName map[string][]*schema.RowInfo
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{byName: make(map[string][]*schema.RowInfo)}
}

func (r *MemoryRegistry) VersionFor(rowTypeName string, ri *schema.RowInfo) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, rowerrors.NewDatabaseClosed()
	}
	versions := r.byName[rowTypeName]
	for i, existing := range versions {
		if existing == ri {
			return uint32(i + 1), nil
		}
	}
	versions = append(versions, ri)
	r.byName[rowTypeName] = versions
	return uint32(len(versions)), nil
}

func (r *MemoryRegistry) Lookup(rowTypeName string, v uint32) (*schema.RowInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed || v == 0 {
		return nil, false
	}
	versions := r.byName[rowTypeName]
	if int(v) > len(versions) {
		return nil, false
	}
	return versions[v-1], true
}

func (r *MemoryRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}
