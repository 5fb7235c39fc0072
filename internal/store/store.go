package store

import (
	"sync"
	"time"

	"thermostat_savings/internal/model"
)

// Store holds imported thermostats in memory, preserving input order so a
// fleet run over the store is reproducible.
type Store struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*model.Thermostat
}

func New() *Store {
	return &Store{byID: make(map[string]*model.Thermostat)}
}

// Add registers a thermostat. Re-adding an ID replaces its telemetry but
// keeps its original position.
func (s *Store) Add(t *model.Thermostat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.byID[t.ID] = t
}

// Thermostats returns all thermostats in input order.
func (s *Store) Thermostats() []*model.Thermostat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Thermostat, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// ByID returns the thermostat with the given ID.
func (s *Store) ByID(id string) (*model.Thermostat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[id]
	return t, ok
}

// Len returns the number of stored thermostats.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// GlobalTimeRange returns the union of all thermostats' observation windows.
func (s *Store) GlobalTimeRange() (start, end time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		w := s.byID[id].ObservationWindow()
		if w.IsEmpty() {
			continue
		}
		if !ok || w.Start.Before(start) {
			start = w.Start
		}
		if !ok || w.End().After(end) {
			end = w.End()
		}
		ok = true
	}
	return start, end, ok
}
