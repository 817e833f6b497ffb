package model

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/immutable"

	"github.com/roach88/mealy/internal/actor"
	"github.com/roach88/mealy/internal/ir"
)

// Record is the local state of one actor inside a GlobalState.
type Record struct {
	Addr  actor.Address
	Kind  string
	State actor.State
}

// NetworkEntry is a distinct in-flight envelope and its multiplicity.
type NetworkEntry struct {
	Env   actor.Envelope
	Count int
}

// State is an immutable global state: every actor's local state, the
// network multiset and the pending timers.
//
// Successors share structure with their parent through persistent
// collections. The hash is computed once when the state is sealed, so a
// State must only be built by the model.
type State struct {
	actors  *immutable.List[Record]
	network *immutable.SortedMap[string, NetworkEntry]
	timers  *immutable.SortedMap[string, actor.TimerHandle]
	hash    string
}

// keyComparer orders collection keys bytewise. Keys are built from
// zero-padded addresses so bytewise order matches numeric order.
type keyComparer struct{}

func (keyComparer) Compare(a, b string) int {
	return strings.Compare(a, b)
}

func emptyState() State {
	return State{
		actors:  immutable.NewList[Record](),
		network: immutable.NewSortedMap[string, NetworkEntry](keyComparer{}),
		timers:  immutable.NewSortedMap[string, actor.TimerHandle](keyComparer{}),
	}
}

// envelopeKey orders the network by (src, dst, canonical message).
func envelopeKey(env actor.Envelope) (string, error) {
	msg, err := ir.MarshalCanonical(actor.EncodeMessage(env.Msg))
	if err != nil {
		return "", fmt.Errorf("encode message %s: %w", env.Msg, err)
	}
	return fmt.Sprintf("%010d/%010d/%s", env.Src, env.Dst, msg), nil
}

func timerKey(h actor.TimerHandle) string {
	return fmt.Sprintf("%010d/%s", h.Owner, h.Kind)
}

// Hash returns the structural identity of the state.
func (s State) Hash() string {
	return s.hash
}

// Equal reports whether two states are structurally equal.
func (s State) Equal(other State) bool {
	return s.hash == other.hash
}

// Actors returns every actor record in address order.
func (s State) Actors() []Record {
	out := make([]Record, 0, s.actors.Len())
	for i := 0; i < s.actors.Len(); i++ {
		out = append(out, s.actors.Get(i))
	}
	return out
}

// ActorState returns the local state of the actor at addr.
func (s State) ActorState(addr actor.Address) (actor.State, bool) {
	if int(addr) < 0 || int(addr) >= s.actors.Len() {
		return nil, false
	}
	return s.actors.Get(int(addr)).State, true
}

// Network returns the distinct in-flight envelopes in deterministic order.
func (s State) Network() []NetworkEntry {
	out := make([]NetworkEntry, 0, s.network.Len())
	itr := s.network.Iterator()
	for !itr.Done() {
		_, entry, _ := itr.Next()
		out = append(out, entry)
	}
	return out
}

// NetworkCount returns the multiplicity of env in the network.
func (s State) NetworkCount(env actor.Envelope) int {
	key, err := envelopeKey(env)
	if err != nil {
		return 0
	}
	entry, ok := s.network.Get(key)
	if !ok {
		return 0
	}
	return entry.Count
}

// NetworkLen returns the total number of in-flight envelopes, counting
// duplicates.
func (s State) NetworkLen() int {
	n := 0
	for _, e := range s.Network() {
		n += e.Count
	}
	return n
}

// Timers returns the pending timers in (owner, kind) order.
func (s State) Timers() []actor.TimerHandle {
	out := make([]actor.TimerHandle, 0, s.timers.Len())
	itr := s.timers.Iterator()
	for !itr.Done() {
		_, h, _ := itr.Next()
		out = append(out, h)
	}
	return out
}

// TimerPending reports whether h is pending.
func (s State) TimerPending(h actor.TimerHandle) bool {
	_, ok := s.timers.Get(timerKey(h))
	return ok
}

// Canonical returns the IR form of the state. Its canonical JSON is what
// Hash digests and what Encode writes.
func (s State) Canonical() ir.IRObject {
	actors := make(ir.IRArray, 0, s.actors.Len())
	for _, r := range s.Actors() {
		actors = append(actors, ir.IRObject{
			"addr":  ir.IRInt(r.Addr),
			"kind":  ir.IRString(r.Kind),
			"state": r.State.Canonical(),
		})
	}

	network := make(ir.IRArray, 0, s.network.Len())
	for _, e := range s.Network() {
		network = append(network, ir.IRObject{
			"src":   ir.IRInt(e.Env.Src),
			"dst":   ir.IRInt(e.Env.Dst),
			"msg":   actor.EncodeMessage(e.Env.Msg),
			"count": ir.IRInt(e.Count),
		})
	}

	timers := make(ir.IRArray, 0, s.timers.Len())
	for _, h := range s.Timers() {
		timers = append(timers, ir.IRObject{
			"owner": ir.IRInt(h.Owner),
			"kind":  ir.IRString(h.Kind),
		})
	}

	return ir.IRObject{
		"actors":  actors,
		"network": network,
		"timers":  timers,
	}
}

// String renders the state for traces and failure messages.
func (s State) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "state %s\n", shortHash(s.hash))
	for _, r := range s.Actors() {
		fmt.Fprintf(&b, "  actor %d %s %s\n", r.Addr, r.Kind, ir.MustMarshalCanonical(r.State.Canonical()))
	}
	for _, e := range s.Network() {
		fmt.Fprintf(&b, "  in flight {%s} x%d\n", e.Env, e.Count)
	}
	for _, h := range s.Timers() {
		fmt.Fprintf(&b, "  timer {%s}\n", h)
	}
	return b.String()
}

// withActor replaces the local state of the actor at addr.
func (s State) withActor(addr actor.Address, st actor.State) State {
	r := s.actors.Get(int(addr))
	r.State = st
	s.actors = s.actors.Set(int(addr), r)
	return s
}

// withSend adds one copy of env to the network.
func (s State) withSend(env actor.Envelope) (State, error) {
	key, err := envelopeKey(env)
	if err != nil {
		return s, err
	}
	entry, ok := s.network.Get(key)
	if !ok {
		entry = NetworkEntry{Env: env}
	}
	entry.Count++
	s.network = s.network.Set(key, entry)
	return s, nil
}

// withoutOne removes one copy of env. The boolean is false if env is not
// in flight.
func (s State) withoutOne(env actor.Envelope) (State, bool) {
	key, err := envelopeKey(env)
	if err != nil {
		return s, false
	}
	entry, ok := s.network.Get(key)
	if !ok {
		return s, false
	}
	if entry.Count <= 1 {
		s.network = s.network.Delete(key)
	} else {
		entry.Count--
		s.network = s.network.Set(key, entry)
	}
	return s, true
}

// withTimer arms h. Arming a pending timer leaves the state unchanged.
func (s State) withTimer(h actor.TimerHandle) State {
	key := timerKey(h)
	if _, ok := s.timers.Get(key); ok {
		return s
	}
	s.timers = s.timers.Set(key, h)
	return s
}

// withoutTimer disarms h. The boolean is false if h was not pending.
func (s State) withoutTimer(h actor.TimerHandle) (State, bool) {
	key := timerKey(h)
	if _, ok := s.timers.Get(key); !ok {
		return s, false
	}
	s.timers = s.timers.Delete(key)
	return s, true
}

// seal computes the hash. Every state handed out by the model is sealed.
func (s State) seal() (State, error) {
	h, err := ir.StateHash(s.Canonical())
	if err != nil {
		return s, err
	}
	s.hash = h
	return s, nil
}
