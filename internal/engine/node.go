// Package engine implements a compiled, directed workflow graph: named
// steps connected by unconditional and conditional edges, executed over a
// state value that threads from step to step until the terminal marker.
package engine

import "context"

// Cloneable is the constraint for state types threaded through a graph.
// Clone must return an independent copy so that each step operates on an
// isolated value and no step can observe a later step's mutations.
type Cloneable[S any] interface {
	Clone() S
}

// Node is a single step in a workflow graph. Run receives the current state
// and returns the augmented state. An error return (or a panic) is treated
// as an engine fault by the executor: the run stops and the fault is
// reported with the node's name. Expected collaborator failures belong in
// the state, not in the error return.
type Node[S Cloneable[S]] interface {
	Run(ctx context.Context, state S) (S, error)
}

// NodeFunc adapts a plain function to the Node interface.
type NodeFunc[S Cloneable[S]] func(ctx context.Context, state S) (S, error)

// Run implements Node.
func (f NodeFunc[S]) Run(ctx context.Context, state S) (S, error) {
	return f(ctx, state)
}

// Route is an enumerated outcome returned by a routing function. Each
// conditional edge declares the full set of routes it accepts; a router
// returning an undeclared route faults the run.
type Route string

// Router inspects the state produced by a node and picks the route to
// follow. Routers must be pure: no side effects, no state mutation.
type Router[S Cloneable[S]] func(state S) Route
