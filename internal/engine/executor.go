package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Executor walks a compiled graph for one run at a time per call. It is
// immutable after Compile and safe for concurrent Run calls; every run owns
// its own state value and nothing else is shared.
type Executor[S Cloneable[S]] struct {
	name      string
	entry     string
	nodes     map[string]Node[S]
	edges     map[string]edgeSpec[S]
	order     []string
	maxSteps  int
	observers []Observer
}

// Name returns the graph name given at build time.
func (e *Executor[S]) Name() string { return e.name }

// Run executes the graph from the entry node until the terminal marker is
// reached, the iteration cap trips, the context is cancelled, or a node
// faults. The state accumulated so far is returned in every case so callers
// can inspect how far the run got.
//
// Node faults (error returns, panics, undeclared routes) surface as a
// *NodeFaultError naming the offending node. Cancellation is cooperative
// and only takes effect between nodes.
func (e *Executor[S]) Run(ctx context.Context, initial S) (S, error) {
	runID := uuid.NewString()
	state := initial.Clone()
	current := e.entry

	for step := 0; ; step++ {
		if step >= e.maxSteps {
			return state, &ExecutionLimitError{Graph: e.name, Limit: e.maxSteps}
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		started := time.Now()
		next := ""
		out, err := e.invoke(ctx, current, state)
		if err == nil {
			state = out
			next, err = e.route(current, state)
		}
		e.emit(Transition{
			RunID:    runID,
			Graph:    e.name,
			Node:     current,
			Next:     next,
			Step:     step,
			Duration: time.Since(started),
			Err:      err,
		})
		if err != nil {
			return state, &NodeFaultError{Node: current, Cause: err}
		}
		if next == End {
			return state, nil
		}
		current = next
	}
}

// invoke runs one node against a private copy of the state, converting
// panics into errors so a misbehaving node cannot take the caller down.
func (e *Executor[S]) invoke(ctx context.Context, name string, state S) (out S, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.nodes[name].Run(ctx, state.Clone())
}

func (e *Executor[S]) route(current string, state S) (string, error) {
	spec := e.edges[current]
	if !spec.conditional() {
		return spec.to, nil
	}
	route := spec.router(state)
	to, ok := spec.targets[route]
	if !ok {
		return "", fmt.Errorf("router returned undeclared route %q", route)
	}
	return to, nil
}

func (e *Executor[S]) emit(t Transition) {
	for _, o := range e.observers {
		o.ObserveTransition(t)
	}
}
