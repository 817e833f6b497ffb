package actor

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/roach88/mealy/internal/ir"
)

// MessageDecoder builds a message from its canonical fields.
type MessageDecoder func(fields ir.IRObject) (Message, error)

// StateDecoder builds an actor state from its canonical fields.
type StateDecoder func(fields ir.IRObject) (State, error)

// Codec decodes messages by tag and states by actor kind. Register all
// variants before the codec is shared; lookups are not synchronized
// against registration.
type Codec struct {
	messages map[string]MessageDecoder
	states   map[string]StateDecoder
}

// NewCodec creates an empty codec.
func NewCodec() *Codec {
	return &Codec{
		messages: make(map[string]MessageDecoder),
		states:   make(map[string]StateDecoder),
	}
}

// RegisterMessage adds a decoder for the message tag.
// Panics if the tag is already registered.
func (c *Codec) RegisterMessage(tag string, dec MessageDecoder) {
	if _, dup := c.messages[tag]; dup {
		panic(fmt.Sprintf("actor: duplicate message tag %q", tag))
	}
	c.messages[tag] = dec
}

// RegisterState adds a decoder for the actor kind.
// Panics if the kind is already registered.
func (c *Codec) RegisterState(kind string, dec StateDecoder) {
	if _, dup := c.states[kind]; dup {
		panic(fmt.Sprintf("actor: duplicate state kind %q", kind))
	}
	c.states[kind] = dec
}

// Tags returns the registered message tags in sorted order.
func (c *Codec) Tags() []string {
	tags := lo.Keys(c.messages)
	slices.Sort(tags)
	return tags
}

// EncodeMessage returns the canonical fields of msg plus its "tag".
func EncodeMessage(msg Message) ir.IRObject {
	obj := msg.Canonical().Clone()
	obj["tag"] = ir.IRString(msg.Tag())
	return obj
}

// DecodeMessage decodes an object produced by EncodeMessage.
func (c *Codec) DecodeMessage(obj ir.IRObject) (Message, error) {
	tag, ok := obj.String("tag")
	if !ok {
		return nil, fmt.Errorf("message has no tag")
	}
	dec, ok := c.messages[tag]
	if !ok {
		return nil, fmt.Errorf("unknown message tag %q", tag)
	}

	fields := obj.Clone()
	delete(fields, "tag")
	msg, err := dec(fields)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", tag, err)
	}
	return msg, nil
}

// DecodeState decodes the canonical state of an actor of the given kind.
func (c *Codec) DecodeState(kind string, fields ir.IRObject) (State, error) {
	dec, ok := c.states[kind]
	if !ok {
		return nil, fmt.Errorf("unknown actor kind %q", kind)
	}
	s, err := dec(fields)
	if err != nil {
		return nil, fmt.Errorf("decode %s state: %w", kind, err)
	}
	return s, nil
}
