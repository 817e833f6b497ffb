package actor

// Respond is a pure Mealy transition function for actors whose state type
// is S. It returns the next state and the messages to send.
type Respond[S State] func(self Address, state S, src Address, msg Message) (S, []Output)

// Expire is the timer counterpart of Respond.
type Expire[S State] func(self Address, state S, timer TimerKind, out *Out) S

// Deliver adapts a pure transition function to the Actor contract. If state
// does not hold an S the input is ignored: the state is returned unchanged
// and no effects are recorded.
func Deliver[S State](respond Respond[S], self Address, state State, src Address, msg Message, out *Out) State {
	s, ok := state.(S)
	if !ok {
		return state
	}
	next, outputs := respond(self, s, src, msg)
	for _, o := range outputs {
		out.Send(o.Dst, o.Msg)
	}
	return next
}

// Timeout adapts a timer handler the same way Deliver adapts a transition
// function.
func Timeout[S State](expire Expire[S], self Address, state State, timer TimerKind, out *Out) State {
	s, ok := state.(S)
	if !ok {
		return state
	}
	return expire(self, s, timer, out)
}
