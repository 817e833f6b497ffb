package ir

// ModelSpec represents a compiled model definition.
type ModelSpec struct {
	Name       string         `json:"name"`
	Actors     []ActorSpec    `json:"actors"`
	Network    NetworkSpec    `json:"network"`
	Properties []PropertySpec `json:"properties"`
	Boundary   *ConditionSpec `json:"boundary,omitempty"` // Optional; states outside are pruned
}

// ActorSpec configures one actor. Its index in ModelSpec.Actors is its address.
type ActorSpec struct {
	Kind   string   `json:"kind"`   // "counter", "supervisor", "stimulus"
	Params IRObject `json:"params"` // kind-specific settings, e.g. threshold
}

// NetworkSpec selects fault actions and initial network contents.
type NetworkSpec struct {
	Lossy       bool             `json:"lossy"`
	Duplicating bool             `json:"duplicating"`
	Init        [][]EnvelopeSpec `json:"init,omitempty"` // one entry per initial configuration
}

// EnvelopeSpec is an in-flight message in an initial configuration.
type EnvelopeSpec struct {
	Src int      `json:"src"`
	Dst int      `json:"dst"`
	Msg IRObject `json:"msg"` // carries "tag" plus message fields
}

// PropertySpec names a condition and the expectation placed on it.
type PropertySpec struct {
	Name        string        `json:"name"`
	Expectation string        `json:"expectation"` // "always", "sometimes", "eventually"
	Condition   ConditionSpec `json:"condition"`
}

// ConditionSpec references a predicate from the workload vocabulary.
type ConditionSpec struct {
	Kind   string   `json:"kind"`
	Params IRObject `json:"params"`
}

// ValidExpectations defines allowed property expectations.
var ValidExpectations = map[string]bool{
	"always":     true,
	"sometimes":  true,
	"eventually": true,
}

// Canonical returns the IR form of the model definition used for fingerprinting.
// Empty params are encoded as empty objects so a nil map and an empty map
// fingerprint the same.
func (s *ModelSpec) Canonical() IRObject {
	actors := make(IRArray, len(s.Actors))
	for i, a := range s.Actors {
		actors[i] = IRObject{
			"kind":   IRString(a.Kind),
			"params": orEmpty(a.Params),
		}
	}

	init := make(IRArray, len(s.Network.Init))
	for i, variant := range s.Network.Init {
		envs := make(IRArray, len(variant))
		for j, e := range variant {
			envs[j] = IRObject{
				"src": IRInt(e.Src),
				"dst": IRInt(e.Dst),
				"msg": orEmpty(e.Msg),
			}
		}
		init[i] = envs
	}

	props := make(IRArray, len(s.Properties))
	for i, p := range s.Properties {
		props[i] = IRObject{
			"name":        IRString(p.Name),
			"expectation": IRString(p.Expectation),
			"condition":   p.Condition.canonical(),
		}
	}

	out := IRObject{
		"name":   IRString(s.Name),
		"actors": actors,
		"network": IRObject{
			"lossy":       IRBool(s.Network.Lossy),
			"duplicating": IRBool(s.Network.Duplicating),
			"init":        init,
		},
		"properties": props,
	}
	if s.Boundary != nil {
		out["boundary"] = s.Boundary.canonical()
	}
	return out
}

func (c ConditionSpec) canonical() IRObject {
	return IRObject{
		"kind":   IRString(c.Kind),
		"params": orEmpty(c.Params),
	}
}

func orEmpty(obj IRObject) IRObject {
	if obj == nil {
		return IRObject{}
	}
	return obj
}
