package actor

import (
	"fmt"
	"time"

	"github.com/roach88/mealy/internal/ir"
)

// Address identifies an actor within a model. Addresses are assigned in
// the order actors are added, starting at 0.
type Address int

// String renders the address as its integer value.
func (a Address) String() string {
	return fmt.Sprintf("%d", int(a))
}

// Message is an input or output of a transition function.
type Message interface {
	// Tag names the message variant. It is stable across runs and is the
	// key the Codec decodes by.
	Tag() string

	// Canonical returns the message fields without the tag.
	Canonical() ir.IRObject

	// String renders the message for traces, e.g. "IncrementRequest(3)".
	String() string
}

// State is the local state of one actor.
type State interface {
	Canonical() ir.IRObject
}

// Envelope is a message in flight from Src to Dst.
type Envelope struct {
	Src Address
	Dst Address
	Msg Message
}

// String renders the envelope fields in trace order.
func (e Envelope) String() string {
	return fmt.Sprintf("src: %d, dst: %d, msg: %s", e.Src, e.Dst, e.Msg)
}

// TimerKind names a timer an actor may arm, e.g. "poll".
type TimerKind string

// TimerHandle identifies a pending timer. An actor has at most one pending
// timer per kind.
type TimerHandle struct {
	Owner Address
	Kind  TimerKind
}

// String renders the handle in trace order.
func (h TimerHandle) String() string {
	return fmt.Sprintf("owner: %d, timer: %s", h.Owner, h.Kind)
}

// Delay is the delay class recorded when a timer is set. Exploration treats
// every pending timer as able to fire next, so the range is informational.
type Delay struct {
	Min time.Duration
	Max time.Duration
}

// Soon is the delay used when an actor does not care about the range.
var Soon = Delay{}

// Output is a send produced by a pure transition function.
type Output struct {
	Dst Address
	Msg Message
}

// Actor is the runtime contract the model drives. Implementations must be
// safe for concurrent use by parallel explorer workers, which in practice
// means they carry only immutable configuration.
type Actor interface {
	// Kind names the actor variant. The Codec decodes states by kind.
	Kind() string

	// OnStart returns the initial state and records startup effects.
	OnStart(self Address, out *Out) State

	// OnMsg handles delivery of msg from src.
	OnMsg(self Address, state State, src Address, msg Message, out *Out) State

	// OnTimeout handles a fired timer. The timer is no longer pending when
	// this is called, so re-arming it takes effect.
	OnTimeout(self Address, state State, timer TimerKind, out *Out) State
}
