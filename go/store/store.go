// Package store implements the Signal Store: a thread-safe map of signal
// records with strict field-ownership invariants between the Cartographer
// and the Emitter.
//
// Its concurrency shape mirrors SignalStore in the original freyja: a
// single RWMutex guarding a map, with read operations taking a read
// lease and Sync taking the lone write lease. No method here ever awaits
// I/O while holding the lease, so a cooperative scheduler never stalls
// other readers behind a blocked writer.
package store

import (
	"sync"

	"github.com/freyja-edge/freyja/go/model"
)

// Store is a concurrency-safe collection of Signals. The zero value is
// not usable; construct with New.
type Store struct {
	mu      sync.RWMutex
	signals map[string]model.Signal
}

// New returns an empty Store.
func New() *Store {
	return &Store{signals: make(map[string]model.Signal)}
}

// Get returns a copy of the signal with id, or ok=false if it doesn't
// exist. Acquires a read lease.
func (s *Store) Get(id string) (signal model.Signal, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	signal, ok = s.signals[id]
	return signal, ok
}

// GetAll returns a snapshot copy of every signal currently in the store.
// Acquires a read lease.
func (s *Store) GetAll() []model.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Signal, 0, len(s.signals))
	for _, sig := range s.signals {
		out = append(out, sig)
	}
	return out
}

// Sync atomically reconciles the store against patches: for every patch,
// an existing signal has only its Source, Target and Emission.Policy
// updated (I3 — value, next-emission and last-emitted-value are left
// untouched); a new id gets a freshly-initialized Signal. Once every
// patch has been applied, any signal whose id did not appear in patches
// is deleted (I2). patches is consumed exactly once and need not be
// restartable. Acquires the write lease for the whole operation.
func (s *Store) Sync(patches []model.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(patches))
	for _, p := range patches {
		seen[p.Id] = struct{}{}

		existing, ok := s.signals[p.Id]
		if ok {
			existing.Source = p.Source
			existing.Target = p.Target
			existing.Emission.Policy = p.Policy
			s.signals[p.Id] = existing
			continue
		}

		s.signals[p.Id] = model.Signal{
			Id:     p.Id,
			Source: p.Source,
			Target: p.Target,
			Value:  nil,
			Emission: model.Emission{
				Policy:           p.Policy,
				NextEmissionMs:   0,
				LastEmittedValue: nil,
			},
		}
	}

	for id := range s.signals {
		if _, ok := seen[id]; !ok {
			delete(s.signals, id)
		}
	}
}

// SetValue overwrites the value of signal id. It never creates entries:
// ok is false and nothing is modified if id is absent. prior is the
// value that was overwritten (nil if the signal had none yet).
func (s *Store) SetValue(id string, value string) (prior *string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, exists := s.signals[id]
	if !exists {
		return nil, false
	}

	prior = sig.Value
	v := value
	sig.Value = &v
	s.signals[id] = sig
	return prior, true
}

// SetLastEmittedValue writes only Emission.LastEmittedValue, mirroring
// SetValue's ownership discipline in the other direction. ok is false if
// id is absent.
func (s *Store) SetLastEmittedValue(id string, value string) (prior *string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, exists := s.signals[id]
	if !exists {
		return nil, false
	}

	prior = sig.Emission.LastEmittedValue
	v := value
	sig.Emission.LastEmittedValue = &v
	s.signals[id] = sig
	return prior, true
}

// MarkEmitted folds the Emitter's successful-emission write into a
// single atomic store operation, as the spec's design notes permit:
// LastEmittedValue is set to rawValue and NextEmissionMs is re-armed to
// intervalMs in the same write lease. ok is false if id is absent.
func (s *Store) MarkEmitted(id string, rawValue string, intervalMs uint64) (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, exists := s.signals[id]
	if !exists {
		return false
	}

	v := rawValue
	sig.Emission.LastEmittedValue = &v
	sig.Emission.NextEmissionMs = intervalMs
	s.signals[id] = sig
	return true
}

// UpdateEmissionTimesAndGetAll decrements every signal's
// Emission.NextEmissionMs by elapsedMs (saturating at zero) and then
// returns a snapshot of the whole store, as a single atomic operation
// under the write lease. This keeps the decrement and the snapshot
// consistent with each other even if a Sync or value write is racing
// against this call from another goroutine.
func (s *Store) UpdateEmissionTimesAndGetAll(elapsedMs uint64) []model.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Signal, 0, len(s.signals))
	for id, sig := range s.signals {
		if elapsedMs >= sig.Emission.NextEmissionMs {
			sig.Emission.NextEmissionMs = 0
		} else {
			sig.Emission.NextEmissionMs -= elapsedMs
		}
		s.signals[id] = sig
		out = append(out, sig)
	}
	return out
}
