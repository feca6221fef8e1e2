package mutable

import "context"

type (
	// Pusher allows to push mutations to mutable contexts.
	Pusher struct {
		destinations map[Context]Destination
		mutations    map[Destination]Mutations
	}

	// Destination is a channel that used as source of mutations.
	Destination chan Mutations
)

// NewPusher creates new pusher.
func NewPusher() Pusher {
	return Pusher{
		destinations: make(map[Context]Destination),
		mutations:    make(map[Destination]Mutations),
	}
}

// NewDestination returns buffered destination channel.
func NewDestination() Destination {
	return make(chan Mutations, 1)
}

// AddDestination adds new mapping of mutable context to destination.
func (p Pusher) AddDestination(ctx Context, d Destination) {
	p.destinations[ctx] = d
}

// Put mutations to the pusher. Function will panic if pusher contains
// unknown context.
func (p Pusher) Put(mutations ...Mutation) {
	for _, m := range mutations {
		d, ok := p.destinations[m.Context]
		if !ok {
			panic("unknown mutable context")
		}
		p.mutations[d] = p.mutations[d].Put(m)
	}
}

// Push mutations to the destinations. It blocks until every destination
// accepts its mutations or context is done.
func (p Pusher) Push(ctx context.Context) error {
	for d, m := range p.mutations {
		if m == nil {
			continue
		}
		select {
		case d <- m:
			p.mutations[d] = nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
