package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainState  = "mealy/state/v1"
	DomainAction = "mealy/action/v1"
	DomainModel  = "mealy/model/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HashCanonical hashes already-canonical bytes under the given domain.
// Callers that need both the encoding and the hash use this to avoid
// marshaling twice.
func HashCanonical(domain string, canonical []byte) string {
	return hashWithDomain(domain, canonical)
}

// StateHash computes the structural identity of a global state.
// Two states with equal canonical encodings always hash equal, regardless
// of the order in which their components were built.
func StateHash(state IRObject) (string, error) {
	canonical, err := MarshalCanonical(state)
	if err != nil {
		return "", fmt.Errorf("StateHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// ActionID computes a stable identifier for a scheduling action.
func ActionID(action IRObject) (string, error) {
	canonical, err := MarshalCanonical(action)
	if err != nil {
		return "", fmt.Errorf("ActionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainAction, canonical), nil
}

// ModelFingerprint identifies a compiled model definition. Stored runs carry
// it so a trace is only replayed against the model that produced it.
func ModelFingerprint(spec *ModelSpec) (string, error) {
	canonical, err := MarshalCanonical(spec.Canonical())
	if err != nil {
		return "", fmt.Errorf("ModelFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainModel, canonical), nil
}

// MustStateHash is like StateHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustStateHash(state IRObject) string {
	h, err := StateHash(state)
	if err != nil {
		panic(err)
	}
	return h
}
