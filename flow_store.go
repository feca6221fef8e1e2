package modular

import "fmt"

// FlowID identifies a flow within the store. Zero is never used as id.
type FlowID uint64

// FlowStore is an arena of flows.
type FlowStore struct {
	flows    map[FlowID]*Flow
	latestID FlowID
}

func newFlowStore() *FlowStore {
	return &FlowStore{
		flows: make(map[FlowID]*Flow),
	}
}

// Get returns flow by id. False is returned if flow doesn't exist.
func (fs *FlowStore) Get(id FlowID) (*Flow, bool) {
	f, ok := fs.flows[id]
	return f, ok
}

// Len returns number of flows.
func (fs *FlowStore) Len() int {
	return len(fs.flows)
}

// IDs returns ids of all flows.
func (fs *FlowStore) IDs() []FlowID {
	ids := make([]FlowID, 0, len(fs.flows))
	for id := range fs.flows {
		ids = append(ids, id)
	}
	return ids
}

func (fs *FlowStore) mustGet(id FlowID) *Flow {
	f, ok := fs.flows[id]
	if !ok {
		panic(fmt.Sprintf("flow %d doesn't exist", id))
	}
	return f
}

func (fs *FlowStore) add(f *Flow) FlowID {
	id := fs.nextID()
	fs.flows[id] = f
	return id
}

func (fs *FlowStore) remove(id FlowID) {
	delete(fs.flows, id)
}

// nextID generates id with wraparound skipping ids in use.
func (fs *FlowStore) nextID() FlowID {
	for {
		fs.latestID++
		if fs.latestID == 0 {
			continue
		}
		if _, ok := fs.flows[fs.latestID]; !ok {
			return fs.latestID
		}
	}
}

// embeds returns true if outer flow contains target flow at any depth.
func (fs *FlowStore) embeds(outer, target FlowID) bool {
	f := fs.mustGet(outer)
	for _, ix := range f.visitOrder {
		n := f.graph.Node(ix)
		if n.Kind != NodeElement {
			continue
		}
		if nested, ok := n.Element.Flow(); ok {
			if nested == target || fs.embeds(nested, target) {
				return true
			}
		}
	}
	return false
}
