package datasource

import (
	"sync/atomic"

	"quake-observer/src/models"
)

// Sequencer hands out strictly increasing request numbers per endpoint.
// Counters start at zero (nothing issued) and are never reset.
type Sequencer struct {
	counters map[models.Endpoint]*atomic.Uint64
}

// -----------------------------------------------------------------------------

func NewSequencer() *Sequencer {
	s := &Sequencer{counters: make(map[models.Endpoint]*atomic.Uint64, len(models.AllEndpoints))}
	for _, e := range models.AllEndpoints {
		s.counters[e] = new(atomic.Uint64)
	}
	return s
}

// -----------------------------------------------------------------------------

// Next allocates the next sequence number for e.
func (s *Sequencer) Next(e models.Endpoint) uint64 {
	return s.counter(e).Add(1)
}

// Latest returns the most recently allocated number for e, or 0.
func (s *Sequencer) Latest(e models.Endpoint) uint64 {
	return s.counter(e).Load()
}

// -----------------------------------------------------------------------------

func (s *Sequencer) counter(e models.Endpoint) *atomic.Uint64 {
	c, ok := s.counters[e]
	if !ok {
		panic("datasource: unknown endpoint " + string(e))
	}
	return c
}
