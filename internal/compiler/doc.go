// Package compiler turns CUE model definitions into ir.ModelSpec values and
// validates them against the workload vocabulary.
//
// A model file declares one or more models under the top-level "model"
// field:
//
//	model: pair: {
//		actors: [
//			{kind: "supervisor", threshold: 3},
//			{kind: "counter"},
//		]
//		network: init: [[
//			{src: 0, dst: 1, msg: {tag: "increment_request", n: 3}},
//			{src: 0, dst: 1, msg: {tag: "report_request"}},
//		]]
//		properties: [
//			{name: "success", expectation: "sometimes", condition: {kind: "supervisor_success", actor: 0}},
//		]
//	}
//
// CompileModel reports structural problems as *CompileError with a source
// position. Validate reports semantic problems (unknown kinds, addresses
// out of range) as coded ValidationErrors, all at once.
package compiler
