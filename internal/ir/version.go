package ir

// Version constants for the IR schema and the compiler.
const (
	// IRVersion is the resolved-IR schema version.
	IRVersion = "1"

	// CompilerVersion is the structcc version.
	CompilerVersion = "0.1.0"
)
