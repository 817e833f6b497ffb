package actors

import (
	"fmt"

	"github.com/roach88/mealy/internal/actor"
	"github.com/roach88/mealy/internal/ir"
)

// Supervisor defaults.
const (
	DefaultThreshold      int64         = 5
	DefaultCounterAddress actor.Address = 1
)

// TimerPoll is armed by a polling supervisor.
const TimerPoll actor.TimerKind = "poll"

// Comparison decides when a reported count meets the threshold.
type Comparison string

const (
	// AtLeast succeeds when count >= threshold.
	AtLeast Comparison = "gte"
	// GreaterThan succeeds when count > threshold.
	GreaterThan Comparison = "gt"
)

// Meets reports whether n satisfies the threshold under c.
func (c Comparison) Meets(n, threshold int64) bool {
	if c == GreaterThan {
		return n > threshold
	}
	return n >= threshold
}

// ParseComparison parses a comparison name. The empty string is AtLeast.
func ParseComparison(s string) (Comparison, error) {
	switch Comparison(s) {
	case "", AtLeast:
		return AtLeast, nil
	case GreaterThan:
		return GreaterThan, nil
	default:
		return "", fmt.Errorf("unknown comparison %q (want gte or gt)", s)
	}
}

// SupervisorState is the local state of a supervisor.
type SupervisorState struct {
	Threshold  int64
	Counter    actor.Address
	Comparison Comparison
	Success    bool
}

func (s SupervisorState) Canonical() ir.IRObject {
	return ir.IRObject{
		"threshold":  ir.IRInt(s.Threshold),
		"counter":    ir.IRInt(s.Counter),
		"comparison": ir.IRString(s.Comparison),
		"success":    ir.IRBool(s.Success),
	}
}

// RespondSupervisor records success once a reported count meets the
// threshold. Success is never reset.
func RespondSupervisor(_ actor.Address, s SupervisorState, _ actor.Address, msg actor.Message) (SupervisorState, []actor.Output) {
	if m, ok := msg.(ReplyCount); ok && s.Comparison.Meets(m.N, s.Threshold) {
		s.Success = true
	}
	return s, nil
}

// ExpireSupervisor polls the counter when the poll timer fires.
func ExpireSupervisor(_ actor.Address, s SupervisorState, timer actor.TimerKind, out *actor.Out) SupervisorState {
	if timer == TimerPoll && !s.Success {
		out.Send(s.Counter, ReportRequest{})
	}
	return s
}

func decodeSupervisorState(f ir.IRObject) (actor.State, error) {
	threshold, ok := f.Int("threshold")
	if !ok {
		return nil, fmt.Errorf("missing integer field threshold")
	}
	counter, ok := f.Int("counter")
	if !ok {
		return nil, fmt.Errorf("missing integer field counter")
	}
	cmp, _ := f.String("comparison")
	comparison, err := ParseComparison(cmp)
	if err != nil {
		return nil, err
	}
	success, _ := f.Bool("success")
	return SupervisorState{
		Threshold:  threshold,
		Counter:    actor.Address(counter),
		Comparison: comparison,
		Success:    success,
	}, nil
}
