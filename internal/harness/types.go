package harness

// PropertyOutcome is the verdict for one property.
type PropertyOutcome struct {
	Name        string `json:"name"`
	Expectation string `json:"expectation"`
	Disposition string `json:"disposition"`
}

// DiscoverySnapshot is a replayed discovery with its path rendered one
// action per entry.
type DiscoverySnapshot struct {
	Property       string   `json:"property"`
	Classification string   `json:"classification"`
	Path           []string `json:"path"`
	Render         string   `json:"-"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation matched.
	Pass bool `json:"pass"`

	RunID        string              `json:"run_id"`
	Outcome      string              `json:"outcome"`
	UniqueStates int                 `json:"unique_states"`
	Transitions  int64               `json:"transitions"`
	Properties   []PropertyOutcome   `json:"properties"`
	Discoveries  []DiscoverySnapshot `json:"discoveries"`

	// Errors contains failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Properties:  []PropertyOutcome{},
		Discoveries: []DiscoverySnapshot{},
		Errors:      []string{},
	}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Property returns the outcome for the named property.
func (r *Result) Property(name string) (PropertyOutcome, bool) {
	for _, p := range r.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyOutcome{}, false
}

// Discovery returns the discovery for the named property.
func (r *Result) Discovery(property string) (DiscoverySnapshot, bool) {
	for _, d := range r.Discoveries {
		if d.Property == property {
			return d, true
		}
	}
	return DiscoverySnapshot{}, false
}
