package utils

import (
	"testing"

	"quake-observer/src/models"

	"github.com/stretchr/testify/assert"
)

func TestRingBuffer_OverwritesOldest(t *testing.T) {
	rb := NewRingBuffer[int](3)
	assert.Equal(t, []int{}, rb.GetAll())

	for i := 1; i <= 5; i++ {
		rb.Append(i)
	}

	assert.True(t, rb.IsFull())
	assert.Equal(t, 3, rb.Size())
	assert.Equal(t, []int{3, 4, 5}, rb.GetAll())
	assert.Equal(t, []int{4, 5}, rb.GetLatest(2))
	assert.Equal(t, []int{3, 4, 5}, rb.GetLatest(10))

	rb.Clear()
	assert.Equal(t, 0, rb.Size())
	assert.Equal(t, []int{}, rb.GetLatest(1))
}

func TestRingBuffer_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultHistorySize, NewRingBuffer[string](0).Capacity())
}

func TestOutcomeHistory_PerEndpoint(t *testing.T) {
	h := NewOutcomeHistory(2)
	for seq := uint64(1); seq <= 3; seq++ {
		h.Add(models.MFetchOutcome{Endpoint: models.EndpointMap, Sequence: seq})
	}
	h.Add(models.MFetchOutcome{Endpoint: models.EndpointCharts, Sequence: 9})

	mapOutcomes := h.All(models.EndpointMap)
	assert.Len(t, mapOutcomes, 2)
	assert.Equal(t, uint64(2), mapOutcomes[0].Sequence)
	assert.Equal(t, uint64(3), mapOutcomes[1].Sequence)

	assert.Len(t, h.Recent(models.EndpointCharts, 5), 1)
	assert.Empty(t, h.All(models.EndpointSummary))
}
