package selector

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/freyja-edge/freyja/go/contracts"
	"github.com/freyja-edge/freyja/go/metrics"
)

const discoveryCacheSize = 256

// DiscoverySelector maintains an ordered chain of ServiceDiscoveryAdapter
// implementations. GetServiceUri tries each in registration order and
// returns the first success, swallowing intermediate errors so a single
// misbehaving discovery backend doesn't block the others.
//
// Resolved URIs are cached in an LRU (discovery results for twin, cloud
// and mapping services change rarely) and concurrent lookups for the
// same id are collapsed with a singleflight.Group, mirroring the caching
// pattern used for connector routing in Flow's network frontend.
type DiscoverySelector struct {
	adapters []contracts.ServiceDiscoveryAdapter
	cache    *lru.Cache[string, string]
	group    singleflight.Group
}

// NewDiscoverySelector builds a selector with no registered adapters.
func NewDiscoverySelector() *DiscoverySelector {
	cache, err := lru.New[string, string](discoveryCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which is a
		// compile-time constant here.
		panic(err)
	}
	return &DiscoverySelector{cache: cache}
}

// Register appends adapter to the end of the resolution chain.
func (s *DiscoverySelector) Register(adapter contracts.ServiceDiscoveryAdapter) {
	s.adapters = append(s.adapters, adapter)
}

// Names returns the registered adapters' diagnostic identities in
// resolution order, for startup logging.
func (s *DiscoverySelector) Names() []string {
	names := make([]string, len(s.adapters))
	for i, adapter := range s.adapters {
		names[i] = adapter.Name()
	}
	return names
}

// GetServiceUri resolves id to a URI using the first adapter in the
// chain that succeeds. Returns a wrapped ErrEntityNotFound-shaped error
// (service discovery's NotFound) if every adapter fails.
func (s *DiscoverySelector) GetServiceUri(ctx context.Context, id string) (string, error) {
	if uri, ok := s.cache.Get(id); ok {
		metrics.ServiceDiscoveryLookups.WithLabelValues("cached").Inc()
		return uri, nil
	}

	result, err, _ := s.group.Do(id, func() (interface{}, error) {
		for _, adapter := range s.adapters {
			uri, err := adapter.GetServiceUri(ctx, id)
			if err != nil {
				log.WithFields(map[string]interface{}{
					"adapter": adapter.Name(),
					"id":      id,
					"error":   err,
				}).Debug("service discovery adapter failed, trying next")
				continue
			}
			return uri, nil
		}
		return "", fmt.Errorf("no service discovery adapter resolved %q: %w", id, contracts.ErrEntityNotFound)
	})
	if err != nil {
		metrics.ServiceDiscoveryLookups.WithLabelValues("miss").Inc()
		return "", err
	}

	uri := result.(string)
	s.cache.Add(id, uri)
	metrics.ServiceDiscoveryLookups.WithLabelValues("hit").Inc()
	return uri, nil
}
