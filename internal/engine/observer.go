package engine

import "time"

// Transition is the structured record emitted after each node execution.
type Transition struct {
	RunID    string
	Graph    string
	Node     string
	Next     string
	Step     int
	Duration time.Duration
	Err      error
}

// Observer consumes transition records. Implementations are shared across
// concurrent runs and must synchronize internally.
type Observer interface {
	ObserveTransition(t Transition)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(t Transition)

// ObserveTransition implements Observer.
func (f ObserverFunc) ObserveTransition(t Transition) { f(t) }
