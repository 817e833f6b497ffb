// Package model holds the explorable system: actors, the network multiset,
// the timer set and the immutable GlobalState built from them.
//
// A Model is configured once (actors, properties, fault options) and then
// used read-only. Its transition relation is Actions plus Next:
//
//	Deliver{env}    remove one copy of env, run the destination's OnMsg
//	Redeliver{env}  run OnMsg and keep env in flight (duplicating network)
//	Drop{env}       remove one copy of env (lossy network)
//	FireTimer{h}    remove h, run the owner's OnTimeout
//
// Effects recorded by a handler are applied in call order after the
// handler's new local state is installed. Sends to an address that was
// never added fail with ErrCodeUnknownAddress.
//
// States are values. Two states with the same actors, network multiset and
// timers have the same Hash no matter how they were reached.
package model
