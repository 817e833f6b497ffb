package model

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/mealy/internal/actor"
	"github.com/roach88/mealy/internal/ir"
)

// Encode returns the canonical JSON form of s.
func (m *Model) Encode(s State) ([]byte, error) {
	data, err := ir.MarshalCanonical(s.Canonical())
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// Decode rebuilds a state from Encode output. The decoded state hashes
// equal to the encoded one. Actor kinds must match the model's actors, and
// every envelope and timer must name a configured actor.
func (m *Model) Decode(data []byte) (State, error) {
	var obj ir.IRObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return State{}, decodeError(err)
	}
	s, err := m.decodeState(obj)
	if err != nil {
		return State{}, decodeError(err)
	}
	return s.seal()
}

func (m *Model) decodeState(obj ir.IRObject) (State, error) {
	s := emptyState()

	actors, ok := obj.Array("actors")
	if !ok {
		return s, fmt.Errorf("state has no actors")
	}
	if len(actors) != len(m.actors) {
		return s, fmt.Errorf("state has %d actors, model has %d", len(actors), len(m.actors))
	}
	for i, v := range actors {
		rec, ok := v.(ir.IRObject)
		if !ok {
			return s, fmt.Errorf("actors[%d]: not an object", i)
		}
		kind, _ := rec.String("kind")
		if want := m.actors[i].Kind(); kind != want {
			return s, fmt.Errorf("actors[%d]: kind %q, model has %q", i, kind, want)
		}
		fields, ok := rec.Object("state")
		if !ok {
			return s, fmt.Errorf("actors[%d]: no state", i)
		}
		st, err := m.codec.DecodeState(kind, fields)
		if err != nil {
			return s, fmt.Errorf("actors[%d]: %w", i, err)
		}
		s.actors = s.actors.Append(Record{Addr: actor.Address(i), Kind: kind, State: st})
	}

	network, _ := obj.Array("network")
	for i, v := range network {
		entry, ok := v.(ir.IRObject)
		if !ok {
			return s, fmt.Errorf("network[%d]: not an object", i)
		}
		env, err := m.decodeEnvelope(entry)
		if err != nil {
			return s, fmt.Errorf("network[%d]: %w", i, err)
		}
		count, ok := entry.Int("count")
		if !ok || count < 1 {
			return s, fmt.Errorf("network[%d]: invalid count", i)
		}
		for n := int64(0); n < count; n++ {
			if s, err = s.withSend(env); err != nil {
				return s, err
			}
		}
	}

	timers, _ := obj.Array("timers")
	for i, v := range timers {
		t, ok := v.(ir.IRObject)
		if !ok {
			return s, fmt.Errorf("timers[%d]: not an object", i)
		}
		owner, ok := t.Int("owner")
		if !ok {
			return s, fmt.Errorf("timers[%d]: no owner", i)
		}
		kind, ok := t.String("kind")
		if !ok {
			return s, fmt.Errorf("timers[%d]: no kind", i)
		}
		if err := m.checkAddress(actor.Address(owner)); err != nil {
			return s, fmt.Errorf("timers[%d]: owner: %w", i, err)
		}
		s = s.withTimer(actor.TimerHandle{Owner: actor.Address(owner), Kind: actor.TimerKind(kind)})
	}

	return s, nil
}
