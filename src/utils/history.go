package utils

import (
	"sync"

	"quake-observer/src/models"
)

// -----------------------------------------------------------------------------
// OutcomeHistory keeps the most recent fetch outcomes of each endpoint.
// -----------------------------------------------------------------------------

type OutcomeHistory struct {
	streams  map[models.Endpoint]*RingBuffer[models.MFetchOutcome]
	capacity int
	mu       sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewOutcomeHistory(capacity int) *OutcomeHistory {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &OutcomeHistory{
		streams:  make(map[models.Endpoint]*RingBuffer[models.MFetchOutcome]),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Add appends outcome to the buffer of its endpoint.
func (h *OutcomeHistory) Add(outcome models.MFetchOutcome) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rb, ok := h.streams[outcome.Endpoint]
	if !ok {
		rb = NewRingBuffer[models.MFetchOutcome](h.capacity)
		h.streams[outcome.Endpoint] = rb
	}
	rb.Append(outcome)
}

// -----------------------------------------------------------------------------

// Recent returns up to n outcomes of endpoint, oldest first.
func (h *OutcomeHistory) Recent(endpoint models.Endpoint, n int) []models.MFetchOutcome {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rb, ok := h.streams[endpoint]
	if !ok {
		return []models.MFetchOutcome{}
	}
	return rb.GetLatest(n)
}

// -----------------------------------------------------------------------------

// All returns every retained outcome of endpoint, oldest first.
func (h *OutcomeHistory) All(endpoint models.Endpoint) []models.MFetchOutcome {
	return h.Recent(endpoint, h.capacity)
}
