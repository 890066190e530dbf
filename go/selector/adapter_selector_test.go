package selector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freyja-edge/freyja/go/contracts"
	"github.com/freyja-edge/freyja/go/model"
	"github.com/freyja-edge/freyja/go/testutil"
)

func grpcEntity(id, uri string) model.Entity {
	return model.Entity{
		Id: id,
		Endpoints: []model.Endpoint{
			{Protocol: "grpc", Operations: []string{model.OperationManagedSubscribe}, Uri: uri},
		},
	}
}

func mqttEntity(id, uri, topic string) model.Entity {
	return model.Entity{
		Id: id,
		Endpoints: []model.Endpoint{
			{Protocol: "mqtt", Operations: []string{model.OperationSubscribe}, Uri: uri, Context: topic},
		},
	}
}

func TestCreateOrUpdateAdapterCreatesAndRegistersDirectly(t *testing.T) {
	signals := &fakeSignalWriter{}
	sel := NewAdapterSelector(signals)
	factory := testutil.NewFakeDataAdapterFactory("mqtt")
	sel.RegisterFactory(factory)

	entity := mqttEntity("thermostat/temp", "mqtt://broker:1883", "v1/temp")
	err := sel.CreateOrUpdateAdapter(context.Background(), entity)
	require.NoError(t, err)

	require.Len(t, factory.CreatedAdapters, 1)
	adapter := factory.CreatedAdapters[0]
	require.True(t, adapter.Started)
	require.Equal(t, []string{"thermostat/temp"}, adapter.RegisteredEntities)
}

func TestCreateOrUpdateAdapterReusesExistingAdapterForSameUri(t *testing.T) {
	signals := &fakeSignalWriter{}
	sel := NewAdapterSelector(signals)
	factory := testutil.NewFakeDataAdapterFactory("mqtt")
	sel.RegisterFactory(factory)

	uri := "mqtt://broker:1883"
	require.NoError(t, sel.CreateOrUpdateAdapter(context.Background(), mqttEntity("a", uri, "t/a")))
	require.NoError(t, sel.CreateOrUpdateAdapter(context.Background(), mqttEntity("b", uri, "t/b")))

	require.Len(t, factory.CreatedAdapters, 1, "second entity on the same uri must reuse the existing adapter")
	adapter := factory.CreatedAdapters[0]
	require.ElementsMatch(t, []string{"a", "b"}, adapter.RegisteredEntities)
}

// Covers S6: a ManagedSubscribe entity loops back to a concrete
// Subscribe entity, and the selector follows the loopback to
// completion rather than treating it as an error.
func TestCreateOrUpdateAdapterFollowsLoopback(t *testing.T) {
	signals := &fakeSignalWriter{}
	sel := NewAdapterSelector(signals)

	grpcFactory := testutil.NewFakeDataAdapterFactory("grpc")
	mqttFactory := testutil.NewFakeDataAdapterFactory("mqtt")
	sel.RegisterFactory(grpcFactory)
	sel.RegisterFactory(mqttFactory)

	managed := grpcEntity("thermostat/temp", "grpc://twin:50051")
	substitute := mqttEntity("thermostat/temp", "mqtt://broker:1883", "v1/thermostat/temp")

	// The grpc factory's first adapter always translates this id's
	// ManagedSubscribe endpoint into the concrete mqtt substitute,
	// mirroring a real managed-subscribe-to-topic translation.
	loopOnce := &loopbackOnceAdapter{substitute: substitute}
	grpcFactory.PresetAdapter = loopOnce

	err := sel.CreateOrUpdateAdapter(context.Background(), managed)
	require.NoError(t, err)

	require.True(t, loopOnce.called, "the grpc adapter must have been asked to register the managed entity")
	require.Len(t, mqttFactory.CreatedAdapters, 1, "loopback substitute must be resolved via the mqtt factory")
	require.Equal(t, []string{managed.Id}, mqttFactory.CreatedAdapters[0].RegisteredEntities)
}

func TestCreateOrUpdateAdapterGivesUpAfterLoopbackMax(t *testing.T) {
	signals := &fakeSignalWriter{}
	sel := NewAdapterSelector(signals)

	loopingFactory := &alwaysLoopsFactory{protocol: "grpc"}
	sel.RegisterFactory(loopingFactory)

	entity := grpcEntity("never/resolves", "grpc://twin:50051")
	err := sel.CreateOrUpdateAdapter(context.Background(), entity)
	require.Error(t, err)
	require.Contains(t, err.Error(), "max loopback attempts")
}

func TestCreateOrUpdateAdapterNoFactorySupportsEntity(t *testing.T) {
	signals := &fakeSignalWriter{}
	sel := NewAdapterSelector(signals)
	sel.RegisterFactory(testutil.NewFakeDataAdapterFactory("mqtt"))

	err := sel.CreateOrUpdateAdapter(context.Background(), grpcEntity("a", "grpc://twin:50051"))
	require.Error(t, err)
	require.ErrorIs(t, err, contracts.ErrOperationNotSupported)
}

// Covers the "last factory match wins" design note.
func TestPickFactoryLastMatchWins(t *testing.T) {
	signals := &fakeSignalWriter{}
	sel := NewAdapterSelector(signals)
	first := testutil.NewFakeDataAdapterFactory("mqtt")
	second := testutil.NewFakeDataAdapterFactory("mqtt")
	sel.RegisterFactory(first)
	sel.RegisterFactory(second)

	require.NoError(t, sel.CreateOrUpdateAdapter(context.Background(), mqttEntity("a", "mqtt://broker:1883", "t/a")))

	require.Empty(t, first.CreatedAdapters, "earlier matching factory must be skipped in favor of the later registration")
	require.Len(t, second.CreatedAdapters, 1)
}

func TestRequestEntityValueNotFound(t *testing.T) {
	signals := &fakeSignalWriter{}
	sel := NewAdapterSelector(signals)

	err := sel.RequestEntityValue(context.Background(), "unknown")
	require.Error(t, err)
	require.ErrorIs(t, err, contracts.ErrEntityNotFound)
}

func TestRequestEntityValueDelegatesToAdapter(t *testing.T) {
	signals := &fakeSignalWriter{}
	sel := NewAdapterSelector(signals)
	factory := testutil.NewFakeDataAdapterFactory("mqtt")
	sel.RegisterFactory(factory)

	entity := mqttEntity("a", "mqtt://broker:1883", "t/a")
	require.NoError(t, sel.CreateOrUpdateAdapter(context.Background(), entity))

	require.NoError(t, sel.RequestEntityValue(context.Background(), "a"))
	require.Equal(t, []string{"a"}, factory.CreatedAdapters[0].RequestedEntityIds)
}

// alwaysLoopsFactory creates an adapter that loops back to itself
// forever, to exercise the LoopbackMax bound.
type alwaysLoopsFactory struct {
	protocol string
}

func (f *alwaysLoopsFactory) IsSupported(entity model.Entity) *model.Endpoint {
	for i := range entity.Endpoints {
		if entity.Endpoints[i].Protocol == f.protocol {
			return &entity.Endpoints[i]
		}
	}
	return nil
}

func (f *alwaysLoopsFactory) CreateAdapter(providerUri string, signals contracts.SignalWriter) (contracts.DataAdapter, error) {
	return &loopingAdapter{}, nil
}

type loopingAdapter struct{}

func (a *loopingAdapter) Start(context.Context) error { return nil }

func (a *loopingAdapter) RegisterEntity(_ context.Context, id string, ep model.Endpoint) (contracts.EntityRegistration, error) {
	// Always bounce back to a distinct-URI entity so the selector keeps
	// re-resolving (and creating new adapters) instead of reusing one.
	return contracts.Loopback(model.Entity{
		Id: id,
		Endpoints: []model.Endpoint{
			{Protocol: "grpc", Operations: ep.Operations, Uri: ep.Uri + "/next"},
		},
	}), nil
}

func (a *loopingAdapter) SendRequestToProvider(context.Context, string) error { return nil }

// loopbackOnceAdapter always responds to RegisterEntity with the same
// scripted substitute entity, letting
// TestCreateOrUpdateAdapterFollowsLoopback assert the loopback was
// actually requested before the substitute resolves elsewhere.
type loopbackOnceAdapter struct {
	substitute model.Entity
	called     bool
}

func (a *loopbackOnceAdapter) Start(context.Context) error { return nil }

func (a *loopbackOnceAdapter) RegisterEntity(_ context.Context, id string, _ model.Endpoint) (contracts.EntityRegistration, error) {
	a.called = true
	return contracts.Loopback(a.substitute), nil
}

func (a *loopbackOnceAdapter) SendRequestToProvider(context.Context, string) error { return nil }

// fakeSignalWriter is a minimal contracts.SignalWriter for tests that
// don't need a real Store.
type fakeSignalWriter struct{}

func (fakeSignalWriter) SetValue(id string, value string) (*string, bool) { return nil, true }
