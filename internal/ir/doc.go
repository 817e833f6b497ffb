// Package ir provides the canonical value representation shared by every
// other package in mealy.
//
// Actor states, messages, actions and whole global states are lowered to
// IRValue trees before they are hashed, stored or compared. The package
// imports nothing internal, so it stays the foundational layer.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers
//   - Object keys are emitted in RFC 8785 order (UTF-16 code units)
//   - Identities are SHA-256 over canonical JSON with a versioned domain prefix
//   - Compiled model definitions (ModelSpec) are plain data, no behaviour
package ir
