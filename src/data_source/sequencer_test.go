package datasource

import (
	"sync"
	"testing"

	"quake-observer/src/models"

	"github.com/stretchr/testify/assert"
)

func TestSequencer_PerEndpointMonotonic(t *testing.T) {
	s := NewSequencer()
	for _, e := range models.AllEndpoints {
		assert.Equal(t, uint64(0), s.Latest(e))
	}

	assert.Equal(t, uint64(1), s.Next(models.EndpointMap))
	assert.Equal(t, uint64(2), s.Next(models.EndpointMap))
	assert.Equal(t, uint64(1), s.Next(models.EndpointCharts))

	assert.Equal(t, uint64(2), s.Latest(models.EndpointMap))
	assert.Equal(t, uint64(0), s.Latest(models.EndpointSummary))
}

func TestSequencer_ConcurrentNextIsUnique(t *testing.T) {
	s := NewSequencer()
	const n = 200

	var mu sync.Mutex
	seen := make(map[uint64]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := s.Next(models.EndpointTable)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	assert.Equal(t, uint64(n), s.Latest(models.EndpointTable))
}

func TestSequencer_UnknownEndpointPanics(t *testing.T) {
	assert.Panics(t, func() { NewSequencer().Next(models.Endpoint("nope")) })
}
