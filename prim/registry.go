package prim

import "fmt"

// Sharing defines how graph nodes referencing equal descriptors map to
// processors.
type Sharing uint8

const (
	// ExclusivePerNode gives every graph node its own processor, so
	// two oscillators with equal descriptors run independent phases.
	ExclusivePerNode Sharing = iota
	// ShareByDescriptor makes all nodes with equal descriptors share a
	// single processor and its state.
	ShareByDescriptor
)

// ParseSharing parses sharing policy name: "node" or "descriptor".
func ParseSharing(s string) (Sharing, error) {
	switch s {
	case "node", "":
		return ExclusivePerNode, nil
	case "descriptor":
		return ShareByDescriptor, nil
	}
	return 0, fmt.Errorf("unknown sharing policy %q", s)
}

func (s Sharing) String() string {
	if s == ShareByDescriptor {
		return "descriptor"
	}
	return "node"
}

// Owner identifies a graph node owning a processor. Zero value is used
// for shared processors.
type Owner struct {
	Flow uint64
	Node uint32
}

// Key identifies processor within registry.
type Key struct {
	Element
	Owner Owner
}

// Key returns registry key of the element used by owner node.
func (s Sharing) Key(e Element, owner Owner) Key {
	if s == ShareByDescriptor {
		return Key{Element: e}
	}
	return Key{Element: e, Owner: owner}
}

type entry struct {
	refs      int
	processor Processor
}

// Registry is a reference-counted pool of processors. Exactly one
// processor exists per key while it's referenced.
type Registry struct {
	entries map[Key]*entry
}

// NewRegistry returns empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[Key]*entry),
	}
}

// Use increments reference count of the key. Processor is created on the
// first use.
func (r *Registry) Use(k Key) Processor {
	if e, ok := r.entries[k]; ok {
		e.refs++
		return e.processor
	}
	e := &entry{refs: 1, processor: New(k.Element)}
	r.entries[k] = e
	return e.processor
}

// Free decrements reference count of the key and destroys the processor
// when it reaches zero. True is returned if processor was destroyed.
// Panics if key is not in use.
func (r *Registry) Free(k Key) bool {
	e, ok := r.entries[k]
	if !ok {
		panic(fmt.Sprintf("free unused primitive %v", k.Element))
	}
	e.refs--
	if e.refs > 0 {
		return false
	}
	delete(r.entries, k)
	return true
}

// Processor returns processor of the key. Panics if key is not in use.
func (r *Registry) Processor(k Key) Processor {
	e, ok := r.entries[k]
	if !ok {
		panic(fmt.Sprintf("primitive %v is not in use", k.Element))
	}
	return e.processor
}

// Refs returns reference count of the key.
func (r *Registry) Refs(k Key) int {
	if e, ok := r.entries[k]; ok {
		return e.refs
	}
	return 0
}

// Len returns number of live processors.
func (r *Registry) Len() int {
	return len(r.entries)
}
