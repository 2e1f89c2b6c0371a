package engine

import "fmt"

// InvalidGraphError reports a topology problem detected while compiling a
// graph definition. It is never produced at run time.
type InvalidGraphError struct {
	Graph  string
	Reason string
}

func (e *InvalidGraphError) Error() string {
	return fmt.Sprintf("invalid graph %q: %s", e.Graph, e.Reason)
}

// ExecutionLimitError reports that a run exceeded the executor's iteration
// cap. The graphs built here are acyclic, so hitting the cap means a wiring
// bug reintroduced a cycle.
type ExecutionLimitError struct {
	Graph string
	Limit int
}

func (e *ExecutionLimitError) Error() string {
	return fmt.Sprintf("graph %q exceeded execution limit of %d steps", e.Graph, e.Limit)
}

// NodeFaultError reports that a node failed outright: it returned an error,
// panicked, or routed to an undeclared label. The run stops at the faulting
// node; there is no retry and no fallback routing.
type NodeFaultError struct {
	Node  string
	Cause error
}

func (e *NodeFaultError) Error() string {
	return fmt.Sprintf("node %q faulted: %v", e.Node, e.Cause)
}

func (e *NodeFaultError) Unwrap() error {
	return e.Cause
}
