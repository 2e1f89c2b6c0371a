package engine

import (
	"fmt"
	"sort"
)

// End is the implicit terminal marker. An edge targeting End marks its
// source node as terminal; reaching End ends the run.
const End = "__end__"

// DefaultMaxSteps bounds a single run. The pipelines built on this engine
// are short and acyclic, so the default leaves generous headroom.
const DefaultMaxSteps = 64

// edgeSpec is the single outgoing edge of a node: either an unconditional
// target, or a router with its declared route set.
type edgeSpec[S Cloneable[S]] struct {
	to      string
	router  Router[S]
	targets map[Route]string
}

func (e edgeSpec[S]) conditional() bool { return e.router != nil }

// Builder accumulates a graph definition. Topology problems are collected
// as they are declared and reported together by Compile, so wiring code can
// chain declarations without checking each call.
type Builder[S Cloneable[S]] struct {
	name      string
	nodes     map[string]Node[S]
	order     []string
	entry     string
	edges     map[string]edgeSpec[S]
	maxSteps  int
	observers []Observer
	problems  []string
}

// NewBuilder starts an empty graph definition with the given name.
func NewBuilder[S Cloneable[S]](name string) *Builder[S] {
	return &Builder[S]{
		name:     name,
		nodes:    make(map[string]Node[S]),
		edges:    make(map[string]edgeSpec[S]),
		maxSteps: DefaultMaxSteps,
	}
}

// AddNode registers a named node.
func (b *Builder[S]) AddNode(name string, node Node[S]) *Builder[S] {
	switch {
	case name == "" || name == End:
		b.problem(fmt.Sprintf("node name %q is reserved", name))
	case node == nil:
		b.problem(fmt.Sprintf("node %q is nil", name))
	default:
		if _, dup := b.nodes[name]; dup {
			b.problem(fmt.Sprintf("duplicate node %q", name))
			return b
		}
		b.nodes[name] = node
		b.order = append(b.order, name)
	}
	return b
}

// SetEntry declares the node execution starts at. Exactly one entry is
// required.
func (b *Builder[S]) SetEntry(name string) *Builder[S] {
	if b.entry != "" {
		b.problem(fmt.Sprintf("entry already set to %q", b.entry))
		return b
	}
	b.entry = name
	return b
}

// AddEdge declares an unconditional edge from one node to another, or to
// End to mark the source terminal.
func (b *Builder[S]) AddEdge(from, to string) *Builder[S] {
	if _, dup := b.edges[from]; dup {
		b.problem(fmt.Sprintf("node %q already has an outgoing edge", from))
		return b
	}
	b.edges[from] = edgeSpec[S]{to: to}
	return b
}

// AddConditionalEdge declares that after from runs, router picks one of the
// declared routes and execution moves to the mapped target. The router's
// result set must stay within the declared route set; anything else faults
// the run.
func (b *Builder[S]) AddConditionalEdge(from string, router Router[S], targets map[Route]string) *Builder[S] {
	if _, dup := b.edges[from]; dup {
		b.problem(fmt.Sprintf("node %q already has an outgoing edge", from))
		return b
	}
	if router == nil {
		b.problem(fmt.Sprintf("conditional edge from %q has a nil router", from))
		return b
	}
	if len(targets) == 0 {
		b.problem(fmt.Sprintf("conditional edge from %q declares no routes", from))
		return b
	}
	copied := make(map[Route]string, len(targets))
	for route, to := range targets {
		copied[route] = to
	}
	b.edges[from] = edgeSpec[S]{router: router, targets: copied}
	return b
}

// WithMaxSteps overrides the run iteration cap.
func (b *Builder[S]) WithMaxSteps(n int) *Builder[S] {
	if n > 0 {
		b.maxSteps = n
	}
	return b
}

// WithObserver attaches an observer that receives one transition record per
// node execution. Observers must be safe for concurrent use; one compiled
// graph may back many simultaneous runs.
func (b *Builder[S]) WithObserver(o Observer) *Builder[S] {
	if o != nil {
		b.observers = append(b.observers, o)
	}
	return b
}

func (b *Builder[S]) problem(msg string) {
	b.problems = append(b.problems, msg)
}

// Compile validates the accumulated definition and freezes it into an
// Executor. Compiled graphs hold no per-run data and may serve concurrent
// runs. All topology violations surface here as an InvalidGraphError.
func (b *Builder[S]) Compile() (*Executor[S], error) {
	problems := append([]string(nil), b.problems...)

	if b.entry == "" {
		problems = append(problems, "no entry node declared")
	} else if _, ok := b.nodes[b.entry]; !ok {
		problems = append(problems, fmt.Sprintf("entry node %q is not registered", b.entry))
	}

	for from, spec := range b.edges {
		if _, ok := b.nodes[from]; !ok {
			problems = append(problems, fmt.Sprintf("edge from unknown node %q", from))
		}
		if spec.conditional() {
			for route, to := range spec.targets {
				if !b.validTarget(to) {
					problems = append(problems, fmt.Sprintf("route %q from %q targets unknown node %q", route, from, to))
				}
			}
		} else if !b.validTarget(spec.to) {
			problems = append(problems, fmt.Sprintf("edge from %q targets unknown node %q", from, spec.to))
		}
	}

	reachable := b.reach()
	for _, name := range b.order {
		if !reachable[name] {
			problems = append(problems, fmt.Sprintf("node %q is unreachable from entry %q", name, b.entry))
			continue
		}
		if _, ok := b.edges[name]; !ok {
			problems = append(problems, fmt.Sprintf("node %q has no outgoing edge and is not marked terminal", name))
		}
	}
	for _, name := range b.order {
		if reachable[name] && !b.terminates(name) {
			problems = append(problems, fmt.Sprintf("no terminal path from node %q", name))
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, &InvalidGraphError{Graph: b.name, Reason: problems[0]}
	}

	nodes := make(map[string]Node[S], len(b.nodes))
	for name, node := range b.nodes {
		nodes[name] = node
	}
	edges := make(map[string]edgeSpec[S], len(b.edges))
	for from, spec := range b.edges {
		edges[from] = spec
	}
	return &Executor[S]{
		name:      b.name,
		entry:     b.entry,
		nodes:     nodes,
		edges:     edges,
		order:     append([]string(nil), b.order...),
		maxSteps:  b.maxSteps,
		observers: append([]Observer(nil), b.observers...),
	}, nil
}

func (b *Builder[S]) validTarget(to string) bool {
	if to == End {
		return true
	}
	_, ok := b.nodes[to]
	return ok
}

// reach walks the declared edges from the entry node.
func (b *Builder[S]) reach() map[string]bool {
	seen := make(map[string]bool, len(b.nodes))
	if _, ok := b.nodes[b.entry]; !ok {
		return seen
	}
	frontier := []string{b.entry}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		if seen[current] {
			continue
		}
		seen[current] = true
		spec, ok := b.edges[current]
		if !ok {
			continue
		}
		for _, next := range b.successors(spec) {
			if next != End && !seen[next] {
				frontier = append(frontier, next)
			}
		}
	}
	return seen
}

// terminates reports whether End is reachable from the given node.
func (b *Builder[S]) terminates(start string) bool {
	seen := map[string]bool{}
	frontier := []string{start}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		if current == End {
			return true
		}
		if seen[current] {
			continue
		}
		seen[current] = true
		spec, ok := b.edges[current]
		if !ok {
			continue
		}
		frontier = append(frontier, b.successors(spec)...)
	}
	return false
}

func (b *Builder[S]) successors(spec edgeSpec[S]) []string {
	if !spec.conditional() {
		return []string{spec.to}
	}
	out := make([]string, 0, len(spec.targets))
	for _, to := range spec.targets {
		out = append(out, to)
	}
	sort.Strings(out)
	return out
}
