package testutil

import "github.com/roach88/mealy/internal/ir"

// Increment is an initial IncrementRequest(n) from the supervisor at 0 to
// the counter at 1.
func Increment(n int64) ir.EnvelopeSpec {
	return ir.EnvelopeSpec{
		Src: 0, Dst: 1,
		Msg: ir.IRObject{"tag": ir.IRString("increment_request"), "n": ir.IRInt(n)},
	}
}

// Report is an initial ReportRequest from the supervisor at 0 to the
// counter at 1.
func Report() ir.EnvelopeSpec {
	return ir.EnvelopeSpec{
		Src: 0, Dst: 1,
		Msg: ir.IRObject{"tag": ir.IRString("report_request")},
	}
}

// Success is the property "success": sometimes the supervisor at 0
// succeeds.
func Success() ir.PropertySpec {
	return ir.PropertySpec{
		Name:        "success",
		Expectation: "sometimes",
		Condition:   ir.ConditionSpec{Kind: "supervisor_success", Params: ir.IRObject{"actor": ir.IRInt(0)}},
	}
}

// CounterBelow is an always-property bounding the counter at 1.
func CounterBelow(name string, value int64) ir.PropertySpec {
	return ir.PropertySpec{
		Name:        name,
		Expectation: "always",
		Condition: ir.ConditionSpec{
			Kind:   "counter_below",
			Params: ir.IRObject{"actor": ir.IRInt(1), "value": ir.IRInt(value)},
		},
	}
}

// PairSpec is a supervisor at 0 with threshold 3 and a counter at 1, with
// Increment(n) and Report in flight and the Success property.
func PairSpec(n int64) *ir.ModelSpec {
	return &ir.ModelSpec{
		Name: "pair",
		Actors: []ir.ActorSpec{
			{Kind: "supervisor", Params: ir.IRObject{"threshold": ir.IRInt(3)}},
			{Kind: "counter", Params: ir.IRObject{}},
		},
		Network:    ir.NetworkSpec{Init: [][]ir.EnvelopeSpec{{Increment(n), Report()}}},
		Properties: []ir.PropertySpec{Success()},
	}
}

// PollingSpec is a polling supervisor at 0, a counter at 1 and a stimulus
// at 2 that sends a single IncrementRequest(3), with an eventually-success
// property and nothing in flight.
func PollingSpec() *ir.ModelSpec {
	success := Success()
	success.Expectation = "eventually"
	return &ir.ModelSpec{
		Name: "polling",
		Actors: []ir.ActorSpec{
			{Kind: "supervisor", Params: ir.IRObject{"threshold": ir.IRInt(3), "poll": ir.IRBool(true)}},
			{Kind: "counter", Params: ir.IRObject{}},
			{Kind: "stimulus", Params: ir.IRObject{"target": ir.IRInt(1), "step": ir.IRInt(3), "limit": ir.IRInt(1)}},
		},
		Properties: []ir.PropertySpec{success},
	}
}
