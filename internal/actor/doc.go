// Package actor defines the contract between workload actors and the model
// that explores them.
//
// An actor is a Mealy machine: a pure function from (state, input) to
// (next state, outputs). Actors never perform I/O. Sends and timer changes
// are recorded on an Out collector and applied by the model when it builds
// the successor GlobalState.
//
// Invariants:
//   - Transition functions are total. Unknown inputs leave the state
//     unchanged and produce no outputs.
//   - Transition functions are deterministic. Equal inputs produce equal
//     outputs in equal order.
//   - Messages and states are comparable value types, so envelopes can be
//     compared with == and used as map keys.
package actor
