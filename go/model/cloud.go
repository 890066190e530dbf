package model

import "time"

// CloudMessage is the canonical envelope the Emitter hands to a Cloud
// Sink for one emission.
type CloudMessage struct {
	// Metadata is copied verbatim from the signal's Target map.
	Metadata map[string]string
	// SignalValue is the post-conversion string value.
	SignalValue string
	// SignalTimestamp is the UTC instant the value was emitted.
	SignalTimestamp time.Time
}

// CloudResponse is the (currently empty) acknowledgement of a successful
// CloudMessage delivery.
type CloudResponse struct{}
