// Package contracts defines the abstract collaborator interfaces the
// pipeline core dispatches against. Concrete implementations (gRPC, MQTT,
// HTTP, in-memory) live outside this module; only the shapes they must
// satisfy live here, mirroring how Flow's capture/materialize packages
// define driver interfaces independent of any one connector.
package contracts

import (
	"context"

	"github.com/freyja-edge/freyja/go/model"
)

// DigitalTwinAdapter resolves a source-signal id to the Entity that
// describes how to reach it.
type DigitalTwinAdapter interface {
	// FindById returns ErrEntityNotFound if no such entity exists, or a
	// wrapped ErrCommunication on I/O failure.
	FindById(ctx context.Context, id string) (model.Entity, error)
}

// EntityRegistration is the result of asking a DataAdapter to take
// ownership of an entity.
type EntityRegistration struct {
	// Registered is true when the adapter accepted the entity outright.
	Registered bool
	// Loopback holds the replacement entity the selector must resolve
	// instead, when Registered is false. A nil Loopback with
	// Registered false is a caller error.
	Loopback *model.Entity
}

// Registered constructs a successful EntityRegistration.
func Registered() EntityRegistration { return EntityRegistration{Registered: true} }

// Loopback constructs an EntityRegistration asking the selector to
// re-resolve against a substitute entity, e.g. translating a
// ManagedSubscribe gRPC endpoint into a concrete MQTT Subscribe
// endpoint.
func Loopback(e model.Entity) EntityRegistration {
	return EntityRegistration{Registered: false, Loopback: &e}
}

// DataAdapter is created per-provider-URI and owns delivering values for
// every entity registered with it into the Signal Store.
type DataAdapter interface {
	// Start is idempotent and must return without blocking; any
	// long-running listener must be spawned as its own goroutine.
	Start(ctx context.Context) error

	// RegisterEntity asks the adapter to take ownership of entity id
	// via endpoint. Returns ErrOperationNotSupported if the endpoint's
	// operation isn't one this adapter implements.
	RegisterEntity(ctx context.Context, id string, endpoint model.Endpoint) (EntityRegistration, error)

	// SendRequestToProvider causes a fresh value to be posted into the
	// store before the next emission tick. It is a no-op for adapters
	// that operate purely by subscription push.
	SendRequestToProvider(ctx context.Context, id string) error
}

// DataAdapterFactory builds DataAdapters and knows which entities it can
// serve.
type DataAdapterFactory interface {
	// IsSupported returns the first endpoint on entity this factory
	// knows how to handle, or nil if none match.
	IsSupported(entity model.Entity) *model.Endpoint

	// CreateAdapter builds a new adapter bound to providerUri. signals
	// is the shared store the adapter will post values into.
	CreateAdapter(providerUri string, signals SignalWriter) (DataAdapter, error)
}

// SignalWriter is the narrow slice of the Signal Store a DataAdapter
// needs: the ability to post a freshly observed value. ok is false when
// no signal with id exists in the store; prior is the value that was
// overwritten (nil if the signal existed but had no value yet).
type SignalWriter interface {
	SetValue(id string, value string) (prior *string, ok bool)
}

// CloudSink is the downstream receiver of emitted signal values.
type CloudSink interface {
	SendToCloud(ctx context.Context, msg model.CloudMessage) (model.CloudResponse, error)
}

// MappingSource is the authoritative source of the source-to-target
// signal mapping the Cartographer reconciles into the Signal Store.
type MappingSource interface {
	// CheckForWork reports whether a new mapping is available. When it
	// is false, the Cartographer skips GetMapping for this iteration.
	CheckForWork(ctx context.Context) (hasWork bool, err error)

	GetMapping(ctx context.Context) (model.Mapping, error)
}

// ServiceDiscoveryAdapter resolves a logical service id to a URI.
type ServiceDiscoveryAdapter interface {
	// Name identifies the adapter for diagnostic logging.
	Name() string
	GetServiceUri(ctx context.Context, id string) (string, error)
}
