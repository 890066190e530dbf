package model

// MapEntry is one row of the mapping a Mapping Source hands to the
// Cartographer: a source signal id paired with the cloud-side target
// metadata and the emission policy to apply to it.
type MapEntry struct {
	// Source is the source-signal id, used to look it up via the
	// Digital Twin Adapter.
	Source string
	// Target is arbitrary cloud-side metadata identifying the mapped
	// signal, forwarded verbatim in every CloudMessage.
	Target map[string]string
	// IntervalMs is the minimum time between successive emissions.
	IntervalMs uint64
	// EmitOnChange suppresses emission when the value hasn't changed
	// since the last successful emission.
	EmitOnChange bool
	// Conversion is applied to numeric values at emission time.
	Conversion Conversion
}

// Mapping is the interchange format returned by a Mapping Source's
// GetMapping call: source signal id to its MapEntry.
type Mapping map[string]MapEntry
