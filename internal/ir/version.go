package ir

// Version constants for the group description schema and engine.
const (
	// SchemaVersion is the group description schema version.
	SchemaVersion = "1"

	// EngineVersion is the MHEG engine version.
	EngineVersion = "0.1.0"
)
