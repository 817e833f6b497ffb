package checker

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/roach88/mealy/internal/model"
)

// Outcome is how a run terminated.
type Outcome int

const (
	// Exhausted means every reachable state was expanded.
	Exhausted Outcome = iota + 1
	// DepthBounded means some state at the depth limit was not expanded.
	DepthBounded
	// PropertyDecided means exploration stopped early because an invariant
	// was violated or every property had a discovery.
	PropertyDecided
	// Cancelled means the context ended the run.
	Cancelled
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Exhausted:
		return "exhausted"
	case DepthBounded:
		return "depth_bounded"
	case PropertyDecided:
		return "property_decided"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Disposition is the verdict for one property.
type Disposition int

const (
	// Holds: an Always property with no counterexample after exhaustive
	// exploration.
	Holds Disposition = iota + 1
	// Violated: an Always property with a counterexample.
	Violated
	// Witnessed: a Sometimes or Eventually property with an example.
	Witnessed
	// Unwitnessed: a Sometimes or Eventually property with no example
	// after exhaustive exploration.
	Unwitnessed
	// Inconclusive: exploration stopped before the property was decided.
	Inconclusive
)

var dispositionNames = map[Disposition]string{
	Holds:        "holds",
	Violated:     "violated",
	Witnessed:    "witnessed",
	Unwitnessed:  "unwitnessed",
	Inconclusive: "inconclusive",
}

// String returns the disposition name.
func (d Disposition) String() string {
	if name, ok := dispositionNames[d]; ok {
		return name
	}
	return "unknown"
}

// ParseDisposition parses a disposition name.
func ParseDisposition(s string) (Disposition, error) {
	for d, name := range dispositionNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown disposition %q", s)
}

func disposition(exp model.Expectation, found bool, outcome Outcome) Disposition {
	switch {
	case exp == model.Always && found:
		return Violated
	case found:
		return Witnessed
	case outcome != Exhausted:
		return Inconclusive
	case exp == model.Always:
		return Holds
	default:
		return Unwitnessed
	}
}

// PropertyResult is the verdict and discovery (if any) for one property.
type PropertyResult struct {
	Name        string
	Expectation model.Expectation
	Disposition Disposition
	Discovery   *Discovery
}

// Result summarises a run.
type Result struct {
	RunID        string
	Outcome      Outcome
	UniqueStates int
	Transitions  int64
	MaxDepth     int
	Properties   []PropertyResult
	Duration     time.Duration
}

// Property returns the result for the named property.
func (r *Result) Property(name string) (PropertyResult, bool) {
	return lo.Find(r.Properties, func(p PropertyResult) bool {
		return p.Name == name
	})
}

// Discoveries returns every discovery in property order.
func (r *Result) Discoveries() []*Discovery {
	return lo.FilterMap(r.Properties, func(p PropertyResult, _ int) (*Discovery, bool) {
		return p.Discovery, p.Discovery != nil
	})
}

// AssertProperties checks that every property reached its expected
// disposition: Always properties must not be violated, Sometimes and
// Eventually properties must be witnessed. All failures are reported.
func (r *Result) AssertProperties() error {
	var errs error
	for _, p := range r.Properties {
		switch {
		case p.Expectation == model.Always && p.Disposition == Violated:
			errs = multierr.Append(errs, fmt.Errorf("property %q violated:\n%s", p.Name, p.Discovery.Render()))
		case p.Expectation != model.Always && p.Disposition != Witnessed:
			errs = multierr.Append(errs, fmt.Errorf("property %q is %s: no example found (%s)", p.Name, p.Disposition, r.Outcome))
		}
	}
	return errs
}

// AssertDiscovery checks that the named property was discovered along
// exactly the given path.
func (r *Result) AssertDiscovery(name string, path []model.Action) error {
	p, ok := r.Property(name)
	if !ok {
		return fmt.Errorf("unknown property %q", name)
	}
	if p.Discovery == nil {
		return fmt.Errorf("property %q has no discovery (%s)\nexpected path:\n%s", name, p.Disposition, RenderPath(path))
	}
	if !slices.Equal(p.Discovery.Path, path) {
		return fmt.Errorf("discovery path mismatch for %q\nexpected:\n%sactual:\n%s",
			name, RenderPath(path), RenderPath(p.Discovery.Path))
	}
	return nil
}

// Report renders a summary for terminal output.
func (r *Result) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %s, %d states, %d transitions, max depth %d\n",
		r.RunID, r.Outcome, r.UniqueStates, r.Transitions, r.MaxDepth)
	for _, p := range r.Properties {
		fmt.Fprintf(&b, "  %-12s %-24s %s\n", p.Expectation, p.Name, p.Disposition)
	}
	for _, d := range r.Discoveries() {
		b.WriteString("\n")
		b.WriteString(d.Render())
	}
	return b.String()
}
