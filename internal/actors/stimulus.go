package actors

import (
	"fmt"

	"github.com/roach88/mealy/internal/actor"
	"github.com/roach88/mealy/internal/ir"
)

// TimerTick is armed by a stimulus while it has increments left to send.
const TimerTick actor.TimerKind = "tick"

// StimulusConfig sets where a stimulus sends increments and how many.
type StimulusConfig struct {
	Target actor.Address
	Step   int64
	Limit  int64
}

// StimulusState is the local state of a stimulus.
type StimulusState struct {
	Sent int64
}

func (s StimulusState) Canonical() ir.IRObject {
	return ir.IRObject{"sent": ir.IRInt(s.Sent)}
}

// expire returns the tick handler for the configuration.
func (c StimulusConfig) expire() actor.Expire[StimulusState] {
	return func(_ actor.Address, s StimulusState, timer actor.TimerKind, out *actor.Out) StimulusState {
		if timer != TimerTick || s.Sent >= c.Limit {
			return s
		}
		out.Send(c.Target, IncrementRequest{N: c.Step})
		s.Sent++
		if s.Sent < c.Limit {
			out.SetTimer(TimerTick, actor.Soon)
		}
		return s
	}
}

func decodeStimulusState(f ir.IRObject) (actor.State, error) {
	n, ok := f.Int("sent")
	if !ok {
		return nil, fmt.Errorf("missing integer field sent")
	}
	return StimulusState{Sent: n}, nil
}
