package modular

import "errors"

var (
	// ErrTypeMismatch is returned when edge endpoints declare different
	// types for connected slots.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrWouldCycle is returned when edge would close a cycle.
	ErrWouldCycle = errors.New("edge would cycle")
	// ErrUnknownSlot is returned when edge references slot which is not
	// declared by the node.
	ErrUnknownSlot = errors.New("unknown slot")
	// ErrRecursiveFlow is returned when flow would contain itself.
	ErrRecursiveFlow = errors.New("recursive flow")
	// ErrFlowInUse is returned when removed flow is still nested into
	// other flows.
	ErrFlowInUse = errors.New("flow in use")
)
