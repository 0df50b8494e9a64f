package filter

import (
	"math"
	"sync"

	"quake-observer/src/helpers"
	"quake-observer/src/models"
)

// Listener receives the new snapshot after every effective update.
// Listeners run synchronously inside Update and must not call Update themselves.
type Listener func(models.MFilterSnapshot)

// -----------------------------------------------------------------------------
// State
// -----------------------------------------------------------------------------

// State is the single source of truth for the dashboard filters.
type State struct {
	updateMu sync.Mutex // serializes Update including notification

	mu        sync.RWMutex
	snapshot  models.MFilterSnapshot
	listeners []subscription
	nextID    int
}

type subscription struct {
	id int
	fn Listener
}

// NewState creates a State holding initial. Non-finite initial values are rejected.
func NewState(initial models.MFilterSnapshot) (*State, error) {
	if err := validate(initial); err != nil {
		return nil, err
	}
	return &State{snapshot: initial}, nil
}

// -----------------------------------------------------------------------------

// Get returns the current snapshot.
func (s *State) Get() models.MFilterSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// -----------------------------------------------------------------------------

// Subscribe registers fn and returns a function removing it.
func (s *State) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------

// Update merges patch into the current snapshot. When the result differs, the new
// snapshot is stored and every listener is called once with it. Returns the
// resulting snapshot and whether it changed.
func (s *State) Update(patch models.MFilterPatch) (models.MFilterSnapshot, bool, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	s.mu.Lock()
	current := s.snapshot
	next := current.Apply(patch)
	if err := validate(next); err != nil {
		s.mu.Unlock()
		return current, false, err
	}
	if next == current {
		s.mu.Unlock()
		return current, false, nil
	}
	s.snapshot = next
	listeners := make([]Listener, len(s.listeners))
	for i, l := range s.listeners {
		listeners[i] = l.fn
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next, true, nil
}

// -----------------------------------------------------------------------------

// Replay calls fn with the current snapshot while holding the update lock, so
// no Update can complete between reading the snapshot and fn returning. fn
// must not call Update.
func (s *State) Replay(fn Listener) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()
	fn(s.Get())
}

// -----------------------------------------------------------------------------

func validate(s models.MFilterSnapshot) error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{models.ParamMinMagnitude, s.MinMagnitude},
		{models.ParamMaxDepth, s.MaxDepth},
		{models.ParamTimeRangeHours, s.TimeRangeHours},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return helpers.NewInvalidFilterValueError(f.name, f.value)
		}
	}
	return nil
}
