package actors

import (
	"fmt"
	"math"

	"github.com/roach88/mealy/internal/actor"
	"github.com/roach88/mealy/internal/ir"
)

// CounterState is the local state of a counter.
type CounterState struct {
	Count int64
}

func (s CounterState) Canonical() ir.IRObject {
	return ir.IRObject{"count": ir.IRInt(s.Count)}
}

// RespondCounter adds increments and answers report requests. The count
// saturates at the int64 bounds instead of wrapping.
func RespondCounter(_ actor.Address, s CounterState, src actor.Address, msg actor.Message) (CounterState, []actor.Output) {
	switch m := msg.(type) {
	case IncrementRequest:
		return CounterState{Count: saturatingAdd(s.Count, m.N)}, nil
	case ReportRequest:
		return s, []actor.Output{{Dst: src, Msg: ReplyCount{N: s.Count}}}
	default:
		return s, nil
	}
}

func saturatingAdd(a, b int64) int64 {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64
	}
	return a + b
}

func decodeCounterState(f ir.IRObject) (actor.State, error) {
	n, ok := f.Int("count")
	if !ok {
		return nil, fmt.Errorf("missing integer field count")
	}
	return CounterState{Count: n}, nil
}
