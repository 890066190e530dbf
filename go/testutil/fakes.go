// Package testutil provides hand-rolled test doubles for the adapter
// contracts, playing the role that the freyja_test_common mocks crate
// plays for the original implementation: enough scriptable behavior to
// drive the Cartographer, Emitter and selectors through their branches
// without a real provider, twin, or cloud connector.
package testutil

import (
	"context"
	"sync"

	"github.com/freyja-edge/freyja/go/contracts"
	"github.com/freyja-edge/freyja/go/model"
)

// FakeTwinAdapter resolves ids to Entities from a static map, or to
// ErrEntityNotFound if missing.
type FakeTwinAdapter struct {
	mu       sync.Mutex
	Entities map[string]model.Entity
	// FindErr, if set, is returned verbatim instead of consulting
	// Entities, for injecting communication failures.
	FindErr error
}

func NewFakeTwinAdapter() *FakeTwinAdapter {
	return &FakeTwinAdapter{Entities: make(map[string]model.Entity)}
}

func (f *FakeTwinAdapter) FindById(_ context.Context, id string) (model.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FindErr != nil {
		return model.Entity{}, f.FindErr
	}
	e, ok := f.Entities[id]
	if !ok {
		return model.Entity{}, contracts.ErrEntityNotFound
	}
	return e, nil
}

// FakeMappingSource returns a scripted mapping and has-work flag, and
// counts calls so tests can assert polling behavior.
type FakeMappingSource struct {
	mu              sync.Mutex
	HasWork         bool
	Mapping         model.Mapping
	CheckForWorkErr error
	GetMappingErr   error
	CheckCalls      int
	GetCalls        int
}

func (f *FakeMappingSource) CheckForWork(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CheckCalls++
	if f.CheckForWorkErr != nil {
		return false, f.CheckForWorkErr
	}
	return f.HasWork, nil
}

func (f *FakeMappingSource) GetMapping(_ context.Context) (model.Mapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCalls++
	if f.GetMappingErr != nil {
		return nil, f.GetMappingErr
	}
	return f.Mapping, nil
}

// FakeCloudSink records every message it receives, optionally failing
// according to SendErr.
type FakeCloudSink struct {
	mu       sync.Mutex
	Sent     []model.CloudMessage
	SendErr  error
	SendFunc func(model.CloudMessage) error
}

func (f *FakeCloudSink) SendToCloud(_ context.Context, msg model.CloudMessage) (model.CloudResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SendFunc != nil {
		if err := f.SendFunc(msg); err != nil {
			return model.CloudResponse{}, err
		}
	} else if f.SendErr != nil {
		return model.CloudResponse{}, f.SendErr
	}

	f.Sent = append(f.Sent, msg)
	return model.CloudResponse{}, nil
}

func (f *FakeCloudSink) Messages() []model.CloudMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.CloudMessage, len(f.Sent))
	copy(out, f.Sent)
	return out
}

// FakeDiscoveryAdapter resolves ids from a static map under a fixed
// name, used to exercise the Service Discovery Selector's first-hit
// chain.
type FakeDiscoveryAdapter struct {
	AdapterName string
	Uris        map[string]string
}

func (f *FakeDiscoveryAdapter) Name() string { return f.AdapterName }

func (f *FakeDiscoveryAdapter) GetServiceUri(_ context.Context, id string) (string, error) {
	uri, ok := f.Uris[id]
	if !ok {
		return "", contracts.ErrEntityNotFound
	}
	return uri, nil
}

// FakeDataAdapter is a scriptable DataAdapter: RegisterEntity responds
// according to LoopbackFor, or succeeds otherwise. Every call is
// recorded for assertions.
type FakeDataAdapter struct {
	mu sync.Mutex

	ProviderUri string
	Signals     contracts.SignalWriter

	// LoopbackFor maps an entity id to the substitute entity that
	// RegisterEntity should respond with instead of accepting it.
	LoopbackFor map[string]model.Entity
	// RegisterErr, if set, is returned by every RegisterEntity call.
	RegisterErr error

	Started            bool
	RegisteredEntities  []string
	RequestedEntityIds  []string
}

func NewFakeDataAdapter(providerUri string, signals contracts.SignalWriter) *FakeDataAdapter {
	return &FakeDataAdapter{
		ProviderUri: providerUri,
		Signals:     signals,
		LoopbackFor: make(map[string]model.Entity),
	}
}

func (f *FakeDataAdapter) Start(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Started = true
	return nil
}

func (f *FakeDataAdapter) RegisterEntity(_ context.Context, id string, _ model.Endpoint) (contracts.EntityRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.RegisteredEntities = append(f.RegisteredEntities, id)
	if f.RegisterErr != nil {
		return contracts.EntityRegistration{}, f.RegisterErr
	}
	if substitute, ok := f.LoopbackFor[id]; ok {
		return contracts.Loopback(substitute), nil
	}
	return contracts.Registered(), nil
}

func (f *FakeDataAdapter) SendRequestToProvider(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RequestedEntityIds = append(f.RequestedEntityIds, id)
	return nil
}

// FakeDataAdapterFactory matches an entity by its first endpoint whose
// protocol is in SupportedProtocols, and builds FakeDataAdapters.
type FakeDataAdapterFactory struct {
	mu                 sync.Mutex
	SupportedProtocols map[string]bool
	CreatedAdapters    []*FakeDataAdapter
	CreateErr          error
	// PresetAdapter, if set, is returned by CreateAdapter instead of a
	// freshly built FakeDataAdapter, for tests that need to script an
	// adapter's RegisterEntity behavior before CreateAdapter is called.
	PresetAdapter contracts.DataAdapter
}

func NewFakeDataAdapterFactory(protocols ...string) *FakeDataAdapterFactory {
	set := make(map[string]bool, len(protocols))
	for _, p := range protocols {
		set[p] = true
	}
	return &FakeDataAdapterFactory{SupportedProtocols: set}
}

func (f *FakeDataAdapterFactory) IsSupported(entity model.Entity) *model.Endpoint {
	for i := range entity.Endpoints {
		if f.SupportedProtocols[entity.Endpoints[i].Protocol] {
			ep := entity.Endpoints[i]
			return &ep
		}
	}
	return nil
}

func (f *FakeDataAdapterFactory) CreateAdapter(providerUri string, signals contracts.SignalWriter) (contracts.DataAdapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if f.PresetAdapter != nil {
		return f.PresetAdapter, nil
	}
	adapter := NewFakeDataAdapter(providerUri, signals)
	f.CreatedAdapters = append(f.CreatedAdapters, adapter)
	return adapter, nil
}
