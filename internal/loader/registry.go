package loader

import (
	"sort"
	"sync/atomic"
)

// Registry holds the compiled definitions for the process. Reads are
// lock-free; hot reload builds a complete new set and swaps it atomically,
// so in-flight requests never observe a half-updated definition.
type Registry struct {
	defs atomic.Pointer[map[string]*Definition]
}

// NewRegistry creates a Registry serving the given definitions.
func NewRegistry(defs []*Definition) *Registry {
	r := &Registry{}
	r.Replace(defs)
	return r
}

// Get returns the definition for an interview id.
func (r *Registry) Get(id string) (*Definition, bool) {
	m := *r.defs.Load()
	def, ok := m[id]
	return def, ok
}

// IDs returns the served interview ids, sorted.
func (r *Registry) IDs() []string {
	m := *r.defs.Load()
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Replace atomically swaps in a fully built definition set.
func (r *Registry) Replace(defs []*Definition) {
	m := make(map[string]*Definition, len(defs))
	for _, def := range defs {
		m[def.ID] = def
	}
	r.defs.Store(&m)
}
