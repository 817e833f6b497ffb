package ir

// Version constants for the canonical encoding and the checker.
const (
	// IRVersion is the canonical encoding version. Bump it together with the
	// hash domains when the encoding of states or actions changes.
	IRVersion = "1"

	// EngineVersion is the mealy checker version.
	EngineVersion = "0.1.0"
)
