package model

// Entity is the identity of a twin node as resolved by a Digital Twin
// Adapter. It carries enough information for the Adapter Selector to pick
// a compatible Data Adapter without needing to know the protocol itself.
type Entity struct {
	// Id uniquely identifies this entity to its source twin.
	Id string
	// Name is an optional human-readable label.
	Name *string
	// Description is optional free-form text.
	Description *string
	// Endpoints is the ordered list of ways this entity can be reached.
	// Order matters: it is the order in which the Adapter Selector tries
	// to find a compatible factory or existing adapter.
	Endpoints []Endpoint
}

// Endpoint is one (protocol, operations, uri, context) tuple on an Entity.
type Endpoint struct {
	// Protocol is a case-sensitive tag such as "grpc", "mqtt", "http", or
	// "in-memory". It is opaque to the core pipeline; only Data Adapter
	// Factories interpret it.
	Protocol string
	// Operations is the set of operations this endpoint supports, e.g.
	// "Get", "Subscribe", "ManagedSubscribe".
	Operations []string
	// Uri addresses the provider backing this endpoint. It is also the
	// key the Adapter Selector uses to reuse an already-running adapter.
	Uri string
	// Context is opaque, protocol-specific data, e.g. an MQTT topic
	// produced by a managed-subscribe loopback.
	Context string
}

// HasOperation reports whether the endpoint advertises the named operation.
func (e Endpoint) HasOperation(op string) bool {
	for _, candidate := range e.Operations {
		if candidate == op {
			return true
		}
	}
	return false
}

const (
	OperationGet              = "Get"
	OperationSubscribe        = "Subscribe"
	OperationManagedSubscribe = "ManagedSubscribe"
)
