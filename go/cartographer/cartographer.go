// Package cartographer implements the Cartographer: the component that
// periodically reconciles a Mapping Source's view of the world into the
// Signal Store, resolving each mapped signal through the Digital Twin
// Adapter and the Adapter Selector along the way.
package cartographer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/freyja-edge/freyja/go/contracts"
	"github.com/freyja-edge/freyja/go/metrics"
	"github.com/freyja-edge/freyja/go/model"
	"github.com/freyja-edge/freyja/go/ops"
)

var log = ops.ForComponent("cartographer")

// DefaultPollInterval is used when Config.PollInterval is zero.
const DefaultPollInterval = 5 * time.Second

// Store is the slice of the Signal Store the Cartographer needs.
type Store interface {
	Sync(patches []model.Patch)
}

// Selector is the slice of the Adapter Selector the Cartographer needs.
type Selector interface {
	CreateOrUpdateAdapter(ctx context.Context, entity model.Entity) error
}

// Config configures a Cartographer.
type Config struct {
	// PollInterval is how long to sleep between check_for_work polls.
	// Defaults to DefaultPollInterval.
	PollInterval time.Duration
}

// Cartographer owns the reconciliation loop described in the spec's
// component design: poll for new mapping work, resolve each entry
// through the twin and selector, and sync the result into the store.
type Cartographer struct {
	mapping  contracts.MappingSource
	twin     contracts.DigitalTwinAdapter
	selector Selector
	store    Store
	interval time.Duration
}

// New builds a Cartographer. If cfg.PollInterval is zero,
// DefaultPollInterval is used.
func New(mapping contracts.MappingSource, twin contracts.DigitalTwinAdapter, selector Selector, store Store, cfg Config) *Cartographer {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Cartographer{
		mapping:  mapping,
		twin:     twin,
		selector: selector,
		store:    store,
		interval: interval,
	}
}

// Run drives the reconciliation loop until ctx is canceled, at which
// point it returns ctx.Err(). Each iteration's own errors (mapping
// source failures) are logged and do not stop the loop -- the pipeline
// is expected to keep serving the last-known-good mapping rather than
// exit on a transient mapping-service outage.
func (c *Cartographer) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if err := c.tick(ctx); err != nil {
			log.WithError(err).Warn("cartographer iteration failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// tick performs exactly one reconciliation iteration.
func (c *Cartographer) tick(ctx context.Context) error {
	tickId := uuid.NewString()
	tickLog := log.WithField("tickId", tickId)

	hasWork, err := c.mapping.CheckForWork(ctx)
	if err != nil {
		metrics.CartographerSyncTotal.WithLabelValues("check_failed").Inc()
		return err
	}
	if !hasWork {
		return nil
	}

	mapping, err := c.mapping.GetMapping(ctx)
	if err != nil {
		metrics.CartographerSyncTotal.WithLabelValues("get_mapping_failed").Inc()
		return err
	}
	metrics.CartographerMappingSize.Set(float64(len(mapping)))
	tickLog.WithField("mappingSize", len(mapping)).Debug("reconciling mapping")

	patches := make([]model.Patch, 0, len(mapping))
	for sourceId, entry := range mapping {
		entity, err := c.twin.FindById(ctx, sourceId)
		if err != nil {
			tickLog.WithError(err).WithField("sourceId", sourceId).Warn("digital twin lookup failed, skipping signal")
			metrics.CartographerSignalsSkipped.WithLabelValues("twin_not_found").Inc()
			continue
		}

		if err := c.selector.CreateOrUpdateAdapter(ctx, entity); err != nil {
			tickLog.WithError(err).WithField("sourceId", sourceId).Warn("adapter selection failed, skipping signal")
			metrics.CartographerSignalsSkipped.WithLabelValues("adapter_selection_failed").Inc()
			continue
		}

		patches = append(patches, model.Patch{
			Id:     sourceId,
			Source: entity,
			Target: entry.Target,
			Policy: model.EmissionPolicy{
				IntervalMs:        entry.IntervalMs,
				EmitOnlyIfChanged: entry.EmitOnChange,
				Conversion:        entry.Conversion,
			},
		})
	}

	c.store.Sync(patches)
	metrics.CartographerSyncTotal.WithLabelValues("ok").Inc()
	return nil
}
