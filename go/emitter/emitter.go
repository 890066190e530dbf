// Package emitter implements the Emitter: the per-signal interval
// scheduler that decides when a signal is due, requests a fresh value,
// applies change detection and conversion, and forwards the result to
// the Cloud Sink.
package emitter

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/freyja-edge/freyja/go/contracts"
	"github.com/freyja-edge/freyja/go/metrics"
	"github.com/freyja-edge/freyja/go/model"
	"github.com/freyja-edge/freyja/go/ops"
)

var log = ops.ForComponent("emitter")

// DefaultSleepMs is the interval the Emitter sleeps for when the store
// holds no signals at all.
const DefaultSleepMs = 1000

// Store is the slice of the Signal Store the Emitter needs.
type Store interface {
	UpdateEmissionTimesAndGetAll(elapsedMs uint64) []model.Signal
	MarkEmitted(id string, rawValue string, intervalMs uint64) (ok bool)
}

// Selector is the slice of the Adapter Selector the Emitter needs.
type Selector interface {
	RequestEntityValue(ctx context.Context, entityId string) error
}

// Clock is the time source the Emitter stamps CloudMessages with; New
// uses time.Now.
type Clock func() time.Time

// Emitter owns the per-signal emission loop described in the spec's
// component design.
type Emitter struct {
	store    Store
	selector Selector
	cloud    contracts.CloudSink
	now      Clock
}

// New builds an Emitter.
func New(store Store, selector Selector, cloud contracts.CloudSink) *Emitter {
	return &Emitter{store: store, selector: selector, cloud: cloud, now: time.Now}
}

// Run drives the emission loop until ctx is canceled, at which point it
// returns ctx.Err(). The first iteration uses an elapsed time of
// math.MaxUint64 to saturate every signal's countdown to zero, which is
// harmless because the store is empty before the Cartographer's first
// sync completes.
func (e *Emitter) Run(ctx context.Context) error {
	elapsed := uint64(math.MaxUint64)

	for {
		nextSleepMs := e.tick(ctx, elapsed)
		metrics.EmitterSleepIntervalMs.Set(float64(nextSleepMs))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(nextSleepMs) * time.Millisecond):
		}
		elapsed = nextSleepMs
	}
}

// tick performs exactly one emission iteration and returns the sleep
// interval to use before the next one.
func (e *Emitter) tick(ctx context.Context, elapsedMs uint64) uint64 {
	signals := e.store.UpdateEmissionTimesAndGetAll(elapsedMs)
	if len(signals) == 0 {
		return DefaultSleepMs
	}

	nextSleepMs := uint64(math.MaxUint64)
	for _, s := range signals {
		if s.Emission.NextEmissionMs > 0 {
			nextSleepMs = min(nextSleepMs, s.Emission.NextEmissionMs)
			continue
		}
		nextSleepMs = min(nextSleepMs, s.Emission.Policy.IntervalMs)

		if err := e.selector.RequestEntityValue(ctx, s.Id); err != nil {
			log.WithError(err).WithField("signalId", s.Id).Warn("requesting fresh value failed")
		}

		e.emit(ctx, s)
	}
	return nextSleepMs
}

// emit evaluates and, if due, delivers a single signal's current value.
func (e *Emitter) emit(ctx context.Context, s model.Signal) {
	if s.Value == nil {
		log.WithField("signalId", s.Id).Debug("no value yet, skipping emission")
		metrics.EmitterEmissionsTotal.WithLabelValues("no_value").Inc()
		return
	}
	raw := *s.Value

	if s.Emission.Policy.EmitOnlyIfChanged && s.Emission.LastEmittedValue != nil && *s.Emission.LastEmittedValue == raw {
		metrics.EmitterEmissionsTotal.WithLabelValues("unchanged").Inc()
		return
	}

	converted := raw
	if parsed, err := strconv.ParseFloat(raw, 32); err == nil {
		converted = strconv.FormatFloat(float64(s.Emission.Policy.Conversion.Apply(float32(parsed))), 'f', -1, 32)
	}

	msg := model.CloudMessage{
		Metadata:        s.Target,
		SignalValue:     converted,
		SignalTimestamp: e.now().UTC(),
	}

	if _, err := e.cloud.SendToCloud(ctx, msg); err != nil {
		log.WithError(err).WithField("signalId", s.Id).Warn("cloud delivery failed")
		metrics.EmitterEmissionsTotal.WithLabelValues("cloud_error").Inc()
		return
	}

	e.store.MarkEmitted(s.Id, raw, s.Emission.Policy.IntervalMs)
	metrics.EmitterEmissionsTotal.WithLabelValues("ok").Inc()
}
