package model

// EmissionPolicy is the Cartographer-owned portion of a signal's emission
// behavior.
type EmissionPolicy struct {
	IntervalMs        uint64
	EmitOnlyIfChanged bool
	Conversion        Conversion
}

// Emission is the Emitter-owned portion of a signal's record, plus the
// policy the Cartographer computed for it.
type Emission struct {
	Policy EmissionPolicy

	// NextEmissionMs counts down to the next emission opportunity.
	// Initialized to 0 so a freshly-mapped signal emits as soon as it
	// has a value.
	NextEmissionMs uint64

	// LastEmittedValue holds the raw (pre-conversion) value of the most
	// recent successful emission, used for change detection.
	LastEmittedValue *string
}

// Signal is the core pipeline record. Every field has exactly one owner:
// Cartographer owns Id (at creation only), Source, Target and
// Emission.Policy; data-adapter callbacks through the Store own Value;
// the Emitter owns Emission.NextEmissionMs and Emission.LastEmittedValue.
// See the Signal Store for the enforcement of this split.
type Signal struct {
	Id     string
	Source Entity
	Target map[string]string
	Value  *string

	Emission Emission
}

// Patch is what the Cartographer produces per mapped entry and hands to
// the Store's Sync call. It carries only the fields the Cartographer is
// allowed to write.
type Patch struct {
	Id     string
	Source Entity
	Target map[string]string
	Policy EmissionPolicy
}
