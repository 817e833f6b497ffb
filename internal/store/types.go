package store

import (
	"github.com/roach88/mealy/internal/checker"
	"github.com/roach88/mealy/internal/ir"
)

// Run is the stored summary of one checker run.
type Run struct {
	ID            string           `json:"id"`
	Seq           int64            `json:"seq"`
	ModelName     string           `json:"model_name"`
	Fingerprint   string           `json:"model_fingerprint"`
	Outcome       string           `json:"outcome"`
	UniqueStates  int              `json:"unique_states"`
	Transitions   int64            `json:"transitions"`
	MaxDepth      int              `json:"max_depth"`
	Workers       int              `json:"workers"`
	DepthLimit    int              `json:"depth_limit"` // 0 means unbounded
	Properties    []PropertyRecord `json:"properties"`
	EngineVersion string           `json:"engine_version"`
	IRVersion     string           `json:"ir_version"`
}

// PropertyRecord is the verdict for one property of a stored run.
type PropertyRecord struct {
	Name        string `json:"name"`
	Expectation string `json:"expectation"`
	Disposition string `json:"disposition"`
}

// StateRecord is one stored state.
type StateRecord struct {
	Hash  string
	Depth int
	State []byte // canonical JSON
}

// DiscoveryRecord is a stored discovery. Path holds canonical action
// objects; StateHashes has one more entry than Path.
type DiscoveryRecord struct {
	RunID          string
	Property       string
	Expectation    string
	Classification string
	Path           []ir.IRObject
	StateHashes    []string
}

// NewRun builds the stored summary of res. Seq is assigned by WriteRun.
func NewRun(spec *ir.ModelSpec, res *checker.Result, workers, depthLimit int) (Run, error) {
	fp, err := ir.ModelFingerprint(spec)
	if err != nil {
		return Run{}, err
	}
	run := Run{
		ID:            res.RunID,
		ModelName:     spec.Name,
		Fingerprint:   fp,
		Outcome:       res.Outcome.String(),
		UniqueStates:  res.UniqueStates,
		Transitions:   res.Transitions,
		MaxDepth:      res.MaxDepth,
		Workers:       workers,
		DepthLimit:    depthLimit,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
	for _, p := range res.Properties {
		run.Properties = append(run.Properties, PropertyRecord{
			Name:        p.Name,
			Expectation: p.Expectation.String(),
			Disposition: p.Disposition.String(),
		})
	}
	return run, nil
}

// StatesFromGraph converts an explored graph to state records.
func StatesFromGraph(g *checker.Graph) []StateRecord {
	out := make([]StateRecord, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = StateRecord{Hash: n.Hash, Depth: n.Depth, State: n.State}
	}
	return out
}
