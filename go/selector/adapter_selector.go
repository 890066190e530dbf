// Package selector implements the Adapter Selector and the Service
// Discovery Selector: the two "pick a compatible collaborator and keep
// using it" components of the pipeline.
package selector

import (
	"context"
	"fmt"
	"sync"

	"github.com/freyja-edge/freyja/go/contracts"
	"github.com/freyja-edge/freyja/go/metrics"
	"github.com/freyja-edge/freyja/go/model"
	"github.com/freyja-edge/freyja/go/ops"
)

// LoopbackMax bounds how many times create_or_update_adapter will follow
// a Loopback response before giving up (P6).
const LoopbackMax = 10

var log = ops.ForComponent("selector")

// AdapterSelector routes an entity to a compatible DataAdapter, creating
// one via a registered factory if none exists yet, and drives the
// loopback re-resolution protocol described in the spec's design notes.
//
// Its internal maps are guarded by their own mutex, separate from the
// Signal Store's lease, and that mutex is always released before calling
// into an adapter or a factory's CreateAdapter -- those calls may
// themselves trigger a loopback that needs to re-enter this selector.
// Only the factories' IsSupported checks run with the mutex held.
type AdapterSelector struct {
	signals contracts.SignalWriter

	mu        sync.Mutex
	factories []contracts.DataAdapterFactory
	adapters  map[string]contracts.DataAdapter // provider URI -> adapter
	entityMap map[string]string                // entity id -> provider URI
}

// NewAdapterSelector builds a selector with no registered factories.
// Register factories with RegisterFactory before calling
// CreateOrUpdateAdapter.
func NewAdapterSelector(signals contracts.SignalWriter) *AdapterSelector {
	return &AdapterSelector{
		signals:   signals,
		adapters:  make(map[string]contracts.DataAdapter),
		entityMap: make(map[string]string),
	}
}

// RegisterFactory adds factory to the set this selector considers when
// no existing adapter can serve an entity. When more than one factory
// matches the same entity, the last one registered that matches wins --
// this is deliberately unchanged from the observed source's
// order-dependent behavior.
func (s *AdapterSelector) RegisterFactory(factory contracts.DataAdapterFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories = append(s.factories, factory)
}

// CreateOrUpdateAdapter resolves entity to a registered DataAdapter,
// creating one through a compatible factory if no existing adapter
// claims one of its endpoints. If the adapter responds with a Loopback,
// the selector re-resolves against the substitute entity, up to
// LoopbackMax times.
func (s *AdapterSelector) CreateOrUpdateAdapter(ctx context.Context, entity model.Entity) error {
	current := entity

	for attempt := 0; attempt < LoopbackMax; attempt++ {
		nextCurrent, done, err := s.resolveOnce(ctx, current)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		metrics.SelectorLoopbacksTotal.Inc()
		log.WithFields(map[string]interface{}{
			"fromEntity": current.Id,
			"toEntity":   nextCurrent.Id,
			"attempt":    attempt + 1,
		}).Debug("adapter requested loopback resolution")
		current = nextCurrent
	}

	return fmt.Errorf("unable to select adapter for %q: reached max loopback attempts of %d", entity.Id, LoopbackMax)
}

// resolveOnce performs one pass of the selection algorithm: try existing
// adapters bound to one of current's endpoints, and if none claims it,
// create one via the last-matching factory. done is true once the
// entity has been successfully registered; otherwise next is the
// loopback substitute to retry with.
func (s *AdapterSelector) resolveOnce(ctx context.Context, current model.Entity) (next model.Entity, done bool, err error) {
	s.mu.Lock()
	for _, endpoint := range current.Endpoints {
		adapter, ok := s.adapters[endpoint.Uri]
		if !ok {
			continue
		}
		s.mu.Unlock()

		reg, regErr := adapter.RegisterEntity(ctx, current.Id, endpoint)
		if regErr != nil {
			return model.Entity{}, false, fmt.Errorf("registering %q with existing adapter %q: %w", current.Id, endpoint.Uri, regErr)
		}
		if reg.Registered {
			s.mu.Lock()
			s.entityMap[current.Id] = endpoint.Uri
			s.mu.Unlock()
			return model.Entity{}, true, nil
		}
		return *reg.Loopback, false, nil
	}

	factory, endpoint, found := s.pickFactory(current)
	if !found {
		s.mu.Unlock()
		return model.Entity{}, false, fmt.Errorf("no factory supports entity %q: %w", current.Id, contracts.ErrOperationNotSupported)
	}
	s.mu.Unlock()

	adapter, err := factory.CreateAdapter(endpoint.Uri, s.signals)
	if err != nil {
		return model.Entity{}, false, fmt.Errorf("creating adapter for %q: %w", endpoint.Uri, err)
	}
	if err := adapter.Start(ctx); err != nil {
		return model.Entity{}, false, fmt.Errorf("starting adapter for %q: %w", endpoint.Uri, err)
	}

	reg, regErr := adapter.RegisterEntity(ctx, current.Id, endpoint)

	// The adapter is kept registered even if RegisterEntity failed: the
	// spec treats a post-creation registration error as a soft failure
	// that the caller (Cartographer) skips for this signal, while the
	// adapter itself remains available for future entities.
	s.mu.Lock()
	s.adapters[endpoint.Uri] = adapter
	metrics.SelectorAdaptersActive.Set(float64(len(s.adapters)))
	s.mu.Unlock()

	if regErr != nil {
		return model.Entity{}, false, fmt.Errorf("registering %q with new adapter %q: %w", current.Id, endpoint.Uri, regErr)
	}
	if reg.Registered {
		s.mu.Lock()
		s.entityMap[current.Id] = endpoint.Uri
		s.mu.Unlock()
		return model.Entity{}, true, nil
	}
	return *reg.Loopback, false, nil
}

// pickFactory returns the factory and endpoint to use for current. Must
// be called with s.mu held. When multiple factories match, the last
// match wins, matching the observed source's order-dependent behavior.
func (s *AdapterSelector) pickFactory(current model.Entity) (contracts.DataAdapterFactory, model.Endpoint, bool) {
	var (
		chosenFactory  contracts.DataAdapterFactory
		chosenEndpoint model.Endpoint
		found          bool
	)
	for _, factory := range s.factories {
		if ep := factory.IsSupported(current); ep != nil {
			chosenFactory = factory
			chosenEndpoint = *ep
			found = true
		}
	}
	return chosenFactory, chosenEndpoint, found
}

// RequestEntityValue asks the adapter currently responsible for entityId
// to push a fresh value into the store. Returns a wrapped
// ErrEntityNotFound if entityId isn't registered with any adapter.
func (s *AdapterSelector) RequestEntityValue(ctx context.Context, entityId string) error {
	s.mu.Lock()
	providerUri, ok := s.entityMap[entityId]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("no provider registered for %q: %w", entityId, contracts.ErrEntityNotFound)
	}

	adapter, ok := s.adapters[providerUri]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no adapter registered for provider %q: %w", providerUri, contracts.ErrEntityNotFound)
	}

	return adapter.SendRequestToProvider(ctx, entityId)
}
