// Package actors provides the example workload: a counter, a supervisor that
// waits for the counter to reach a threshold, and a stimulus that drives the
// counter on a timer.
//
// Each variant is a pure Mealy transition function wrapped by Node, which
// dispatches on the closed Kind enum. Build turns a compiled model
// definition into a model.Model wired with these actors and the predicate
// vocabulary in predicates.go.
package actors
