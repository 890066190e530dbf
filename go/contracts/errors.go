package contracts

import "errors"

// The sentinel errors below are the taxonomy every adapter contract is
// expected to report through. Callers use errors.Is to classify a
// failure; wrap these with fmt.Errorf("...: %w", ErrCommunication) to
// preserve the underlying cause while still being classifiable.
var (
	// ErrEntityNotFound is returned when a twin or data lookup misses
	// an id. Callers treat this as a per-signal skip.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrOperationNotSupported means no factory matched an entity, or
	// no endpoint on the entity advertised a supported operation.
	ErrOperationNotSupported = errors.New("operation not supported")

	// ErrCommunication is an I/O failure talking to a collaborator.
	// Adapters retry these internally with a bounded policy; the core
	// treats them as a per-signal or per-iteration skip.
	ErrCommunication = errors.New("communication failure")

	// ErrParse indicates a value could not be parsed at a boundary.
	ErrParse = errors.New("parse failure")

	// ErrSerialize indicates an outbound payload could not be encoded.
	ErrSerialize = errors.New("serialize failure")

	// ErrDeserialize indicates an inbound payload could not be decoded.
	ErrDeserialize = errors.New("deserialize failure")

	// ErrSignalValueEmpty is the Emitter's precondition check: a signal
	// was due for emission but has no cached value yet.
	ErrSignalValueEmpty = errors.New("signal value empty")
)
