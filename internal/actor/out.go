package actor

// EffectKind distinguishes the effects an actor can request.
type EffectKind int

const (
	// EffectSend adds an envelope to the network.
	EffectSend EffectKind = iota + 1
	// EffectSetTimer arms a timer owned by the acting actor.
	EffectSetTimer
	// EffectCancelTimer disarms a timer owned by the acting actor.
	EffectCancelTimer
)

// String returns the effect kind name.
func (k EffectKind) String() string {
	switch k {
	case EffectSend:
		return "send"
	case EffectSetTimer:
		return "set_timer"
	case EffectCancelTimer:
		return "cancel_timer"
	default:
		return "unknown"
	}
}

// Effect is one recorded side effect. Only the fields relevant to Kind are
// set.
type Effect struct {
	Kind  EffectKind
	Dst   Address
	Msg   Message
	Timer TimerKind
	Delay Delay
}

// Out collects the effects of one handler invocation in call order.
// The zero value is ready to use.
type Out struct {
	effects []Effect
}

// Send records a message to dst.
func (o *Out) Send(dst Address, msg Message) {
	o.effects = append(o.effects, Effect{Kind: EffectSend, Dst: dst, Msg: msg})
}

// Broadcast records one send per destination, in the given order.
func (o *Out) Broadcast(dsts []Address, msg Message) {
	for _, dst := range dsts {
		o.Send(dst, msg)
	}
}

// SetTimer arms the named timer. Arming a timer that is already pending is
// a no-op.
func (o *Out) SetTimer(kind TimerKind, delay Delay) {
	o.effects = append(o.effects, Effect{Kind: EffectSetTimer, Timer: kind, Delay: delay})
}

// CancelTimer disarms the named timer if it is pending.
func (o *Out) CancelTimer(kind TimerKind) {
	o.effects = append(o.effects, Effect{Kind: EffectCancelTimer, Timer: kind})
}

// Effects returns the recorded effects in call order.
func (o *Out) Effects() []Effect {
	return o.effects
}

// Sends returns only the send effects as outputs.
func (o *Out) Sends() []Output {
	var outputs []Output
	for _, e := range o.effects {
		if e.Kind == EffectSend {
			outputs = append(outputs, Output{Dst: e.Dst, Msg: e.Msg})
		}
	}
	return outputs
}
