// Package mutable allows to change the state of running components.
//
// A component that accepts mutations owns a Context. Mutations are
// closures bound to that context. They are created by any goroutine, but
// applied only by the goroutine that owns the component, between blocks.
package mutable

import (
	"github.com/rs/xid"
)

type (
	// Context identifies a component that accepts mutations. It's meant
	// to be embedded. The zero Context accepts none.
	Context xid.ID

	// MutatorFunc changes the component. Returned error is reported by
	// the component owner.
	MutatorFunc func() error

	// Mutation is a mutator bound to a context.
	Mutation struct {
		Context
		fn MutatorFunc
	}

	// Mutations groups mutators by context in the order they were put.
	Mutations map[Context][]MutatorFunc
)

// Mutable returns new unique context.
func Mutable() Context {
	return Context(xid.New())
}

// Mutate binds fn to the context. Panics if context is zero.
func (c Context) Mutate(fn MutatorFunc) Mutation {
	if c.IsZero() {
		panic("mutate immutable")
	}
	return Mutation{Context: c, fn: fn}
}

// IsZero reports whether context accepts no mutations.
func (c Context) IsZero() bool {
	return c == Context{}
}

func (c Context) String() string {
	return xid.ID(c).String()
}

// Apply calls the mutator.
func (m Mutation) Apply() error {
	return m.fn()
}

// Put adds mutation to the set. Mutations of zero context are ignored.
func (ms Mutations) Put(m Mutation) Mutations {
	if m.IsZero() {
		return ms
	}
	if ms == nil {
		ms = make(Mutations)
	}
	ms[m.Context] = append(ms[m.Context], m.fn)
	return ms
}

// ApplyTo removes mutators of the context from the set and calls them.
// The first error is returned and the remaining mutators are dropped.
func (ms Mutations) ApplyTo(c Context) error {
	fns, ok := ms[c]
	if !ok {
		return nil
	}
	delete(ms, c)
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
