package actors

import (
	"fmt"

	"github.com/roach88/mealy/internal/actor"
)

// Kind enumerates the workload actor variants.
type Kind int

const (
	KindCounter Kind = iota + 1
	KindSupervisor
	KindStimulus
)

// String returns the kind name used in model files and encoded states.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindSupervisor:
		return "supervisor"
	case KindStimulus:
		return "stimulus"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "counter":
		return KindCounter, nil
	case "supervisor":
		return KindSupervisor, nil
	case "stimulus":
		return KindStimulus, nil
	default:
		return 0, fmt.Errorf("unknown actor kind %q", s)
	}
}

// SupervisorConfig configures a supervisor. With Poll set the supervisor
// arms the poll timer on start and re-arms it after every reply that falls
// short of the threshold.
type SupervisorConfig struct {
	Threshold  int64
	Counter    actor.Address
	Comparison Comparison
	Poll       bool
}

// DefaultSupervisorConfig returns threshold 5, counter at address 1 and
// the at-least comparison.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		Threshold:  DefaultThreshold,
		Counter:    DefaultCounterAddress,
		Comparison: AtLeast,
	}
}

// Node is a workload actor. Only the config matching Variant is used.
type Node struct {
	Variant      Kind
	InitialCount int64
	Supervisor   SupervisorConfig
	Stimulus     StimulusConfig
}

// NewCounter returns a counter starting at initial.
func NewCounter(initial int64) Node {
	return Node{Variant: KindCounter, InitialCount: initial}
}

// NewSupervisor returns a supervisor with the given configuration.
func NewSupervisor(cfg SupervisorConfig) Node {
	return Node{Variant: KindSupervisor, Supervisor: cfg}
}

// NewStimulus returns a stimulus with the given configuration.
func NewStimulus(cfg StimulusConfig) Node {
	return Node{Variant: KindStimulus, Stimulus: cfg}
}

var _ actor.Actor = Node{}

func (n Node) Kind() string {
	return n.Variant.String()
}

func (n Node) OnStart(_ actor.Address, out *actor.Out) actor.State {
	switch n.Variant {
	case KindCounter:
		return CounterState{Count: n.InitialCount}
	case KindSupervisor:
		if n.Supervisor.Poll {
			out.SetTimer(TimerPoll, actor.Soon)
		}
		return SupervisorState{
			Threshold:  n.Supervisor.Threshold,
			Counter:    n.Supervisor.Counter,
			Comparison: n.Supervisor.Comparison,
		}
	case KindStimulus:
		if n.Stimulus.Limit > 0 {
			out.SetTimer(TimerTick, actor.Soon)
		}
		return StimulusState{}
	default:
		panic(fmt.Sprintf("actors: unknown kind %d", int(n.Variant)))
	}
}

func (n Node) OnMsg(self actor.Address, state actor.State, src actor.Address, msg actor.Message, out *actor.Out) actor.State {
	switch n.Variant {
	case KindCounter:
		return actor.Deliver(RespondCounter, self, state, src, msg, out)
	case KindSupervisor:
		next := actor.Deliver(RespondSupervisor, self, state, src, msg, out)
		if _, isReply := msg.(ReplyCount); isReply && n.Supervisor.Poll {
			if s, ok := next.(SupervisorState); ok && !s.Success {
				out.SetTimer(TimerPoll, actor.Soon)
			}
		}
		return next
	default:
		return state
	}
}

func (n Node) OnTimeout(self actor.Address, state actor.State, timer actor.TimerKind, out *actor.Out) actor.State {
	switch n.Variant {
	case KindSupervisor:
		return actor.Timeout(ExpireSupervisor, self, state, timer, out)
	case KindStimulus:
		return actor.Timeout(n.Stimulus.expire(), self, state, timer, out)
	default:
		return state
	}
}

// NewCodec returns a codec that knows every workload message and state.
func NewCodec() *actor.Codec {
	c := actor.NewCodec()
	registerMessages(c)
	c.RegisterState(KindCounter.String(), decodeCounterState)
	c.RegisterState(KindSupervisor.String(), decodeSupervisorState)
	c.RegisterState(KindStimulus.String(), decodeStimulusState)
	return c
}
