// Package metrics exposes the pipeline's Prometheus instrumentation,
// following the package-level promauto.New* convention used throughout
// Flow's runtime package rather than threading a registry through every
// constructor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CartographerSyncTotal counts Cartographer iterations that synced
	// the store or failed at the mapping source, labeled by outcome.
	CartographerSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freyja_cartographer_sync_total",
		Help: "count of cartographer reconciliation iterations",
	}, []string{"outcome"})

	// CartographerSignalsSkipped counts per-signal skips during a
	// reconciliation iteration, labeled by reason.
	CartographerSignalsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freyja_cartographer_signals_skipped_total",
		Help: "count of signals skipped during reconciliation",
	}, []string{"reason"})

	// CartographerMappingSize observes the number of entries in the
	// most recently fetched mapping.
	CartographerMappingSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "freyja_cartographer_mapping_size",
		Help: "number of entries in the most recently fetched mapping",
	})

	// EmitterEmissionsTotal counts emission attempts for due signals,
	// labeled by outcome, including skipped and failed ones.
	EmitterEmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freyja_emitter_emissions_total",
		Help: "count of emission attempts",
	}, []string{"outcome"})

	// EmitterSleepIntervalMs observes the sleep interval chosen at the
	// end of each emitter iteration.
	EmitterSleepIntervalMs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "freyja_emitter_sleep_interval_ms",
		Help: "sleep interval chosen for the next emitter iteration",
	})

	// SelectorLoopbacksTotal counts loopback hops the Adapter Selector
	// has taken while resolving an entity.
	SelectorLoopbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freyja_selector_loopbacks_total",
		Help: "count of loopback resolutions performed by the adapter selector",
	})

	// SelectorAdaptersActive gauges the number of distinct provider
	// adapters currently registered with the selector.
	SelectorAdaptersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "freyja_selector_adapters_active",
		Help: "number of distinct data adapters currently registered",
	})

	// ServiceDiscoveryLookups counts discovery resolutions, labeled by
	// outcome (hit, miss, cached).
	ServiceDiscoveryLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freyja_service_discovery_lookups_total",
		Help: "count of service discovery resolutions",
	}, []string{"outcome"})
)
