package checker

import (
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/mealy/internal/ir"
	"github.com/roach88/mealy/internal/model"
)

// Classification distinguishes discoveries that refute a property from
// those that confirm one.
type Classification string

const (
	Example        Classification = "example"
	Counterexample Classification = "counterexample"
)

func classify(exp model.Expectation) Classification {
	if exp == model.Always {
		return Counterexample
	}
	return Example
}

// Discovery is the first state found that decides a property, with the
// path that reaches it from an initial state.
type Discovery struct {
	Property       string
	Expectation    model.Expectation
	Classification Classification
	Path           []model.Action
	States         []model.State // States[0] is initial; len(States) == len(Path)+1
}

// State returns the discovered state.
func (d *Discovery) State() model.State {
	return d.States[len(d.States)-1]
}

// Render describes the discovery for humans: the path, one action per
// line, and the final local states.
func (d *Discovery) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s for %q (%s) after %d steps\n", d.Classification, d.Property, d.Expectation, len(d.Path))
	b.WriteString(RenderPath(d.Path))
	b.WriteString("final state:\n")
	s := d.State()
	for _, r := range s.Actors() {
		fmt.Fprintf(&b, "  actor %d %s %s\n", r.Addr, r.Kind, ir.MustMarshalCanonical(r.State.Canonical()))
	}
	for _, e := range s.Network() {
		fmt.Fprintf(&b, "  in flight {%s} x%d\n", e.Env, e.Count)
	}
	for _, h := range s.Timers() {
		fmt.Fprintf(&b, "  timer {%s}\n", h)
	}
	return b.String()
}

// RenderPath lists actions one per line, numbered from 1.
func RenderPath(path []model.Action) string {
	if len(path) == 0 {
		return "  (initial state)\n"
	}
	var b strings.Builder
	for i, a := range path {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, a)
	}
	return b.String()
}

// discoveries records the first deciding node per property. First wins:
// later candidates from other workers are ignored.
type discoveries struct {
	mu        sync.Mutex
	props     []model.Property
	found     map[string]nodeID
	violation bool
}

func newDiscoveries(props []model.Property) *discoveries {
	return &discoveries{props: props, found: make(map[string]nodeID)}
}

func (d *discoveries) has(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.found[name]
	return ok
}

// record stores id for p if p has no discovery yet and reports whether it
// did.
func (d *discoveries) record(p model.Property, id nodeID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.found[p.Name]; ok {
		return false
	}
	d.found[p.Name] = id
	if p.Expectation == model.Always {
		d.violation = true
	}
	return true
}

// decided reports whether exploration can stop: an invariant is violated,
// or every property has a discovery.
func (d *discoveries) decided() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.violation {
		return true
	}
	return len(d.props) > 0 && len(d.found) == len(d.props)
}

func (d *discoveries) get(name string) (nodeID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.found[name]
	return id, ok
}
