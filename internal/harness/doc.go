// Package harness runs checker scenarios and compares their outcomes with
// expectations and golden files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: threshold_met
//	description: "The supervisor sees a count that meets its threshold"
//	model: ../models/counter_supervisor.cue   # relative to the scenario file
//	model_name: threshold_met                 # optional if the file has one model
//	checker:
//	  workers: 1
//	  max_depth: 0                            # 0 means unbounded
//	expect:
//	  - property: success
//	    disposition: witnessed
//	    path:
//	      - "Deliver{src: 0, dst: 1, msg: IncrementRequest(3)}"
//	unique_states: 8                          # optional
//	outcome: exhausted                        # optional
//
// Each scenario runs in a fresh in-memory store. Discoveries are written to
// the store and read back through ReplayDiscovery, so every reported path
// has been re-executed against the model.
//
// Discovery paths depend on exploration order, so path expectations and
// golden files are only meaningful for single-worker scenarios.
package harness
