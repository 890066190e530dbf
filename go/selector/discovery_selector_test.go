package selector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freyja-edge/freyja/go/contracts"
	"github.com/freyja-edge/freyja/go/testutil"
)

func TestGetServiceUriFirstHitWins(t *testing.T) {
	sel := NewDiscoverySelector()
	sel.Register(&testutil.FakeDiscoveryAdapter{AdapterName: "dns", Uris: map[string]string{}})
	sel.Register(&testutil.FakeDiscoveryAdapter{AdapterName: "static", Uris: map[string]string{
		"mapping-service": "http://mapping:8080",
	}})

	uri, err := sel.GetServiceUri(context.Background(), "mapping-service")
	require.NoError(t, err)
	require.Equal(t, "http://mapping:8080", uri)
}

func TestGetServiceUriAllMiss(t *testing.T) {
	sel := NewDiscoverySelector()
	sel.Register(&testutil.FakeDiscoveryAdapter{AdapterName: "dns", Uris: map[string]string{}})
	sel.Register(&testutil.FakeDiscoveryAdapter{AdapterName: "static", Uris: map[string]string{}})

	_, err := sel.GetServiceUri(context.Background(), "unknown")
	require.Error(t, err)
	require.ErrorIs(t, err, contracts.ErrEntityNotFound)
}

func TestGetServiceUriCachesResolvedValues(t *testing.T) {
	sel := NewDiscoverySelector()
	adapter := &countingDiscoveryAdapter{
		FakeDiscoveryAdapter: testutil.FakeDiscoveryAdapter{
			AdapterName: "static",
			Uris:        map[string]string{"cloud": "grpc://cloud:443"},
		},
	}
	sel.Register(adapter)

	for i := 0; i < 3; i++ {
		uri, err := sel.GetServiceUri(context.Background(), "cloud")
		require.NoError(t, err)
		require.Equal(t, "grpc://cloud:443", uri)
	}

	require.Equal(t, 1, adapter.calls, "subsequent lookups must be served from cache")
}

func TestNamesReflectsRegistrationOrder(t *testing.T) {
	sel := NewDiscoverySelector()
	sel.Register(&testutil.FakeDiscoveryAdapter{AdapterName: "dns"})
	sel.Register(&testutil.FakeDiscoveryAdapter{AdapterName: "static"})

	require.Equal(t, []string{"dns", "static"}, sel.Names())
}

type countingDiscoveryAdapter struct {
	testutil.FakeDiscoveryAdapter
	calls int
}

func (c *countingDiscoveryAdapter) GetServiceUri(ctx context.Context, id string) (string, error) {
	c.calls++
	return c.FakeDiscoveryAdapter.GetServiceUri(ctx, id)
}
