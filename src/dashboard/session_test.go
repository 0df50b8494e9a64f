package dashboard

import (
	"context"
	"errors"
	"math"
	"testing"

	"quake-observer/src/interfaces"
	"quake-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func autoRespond(tk models.MRequestTicket) (interface{}, error) {
	switch tk.Endpoint {
	case models.EndpointSummary:
		return okSummary(2), nil
	case models.EndpointCharts:
		return okCharts(), nil
	default:
		return []models.MEarthquakeRecord{quake("Gisborne", 3.2, 12)}, nil
	}
}

func testConfig() *models.MConfig {
	return &models.MConfig{
		Dashboard: models.MDashboardConfig{
			Defaults:         models.MFilterSnapshot{MinMagnitude: 1, MaxDepth: 40, TimeRangeHours: 24},
			RetriesPerMinute: 1,
			HistorySize:      8,
		},
	}
}

func newTestSession(t *testing.T) (*Session, *recordingSink, *recordingReporter) {
	t.Helper()
	sink := &recordingSink{}
	reporter := newRecordingReporter()
	s, err := NewSession(context.Background(), testConfig(), "s1", newFakeFetcher(autoRespond), sink, reporter, quietLogger())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, sink, reporter
}

func TestSession_StartRunsInitialCycleWithDefaults(t *testing.T) {
	s, sink, _ := newTestSession(t)
	s.Start()
	s.Controller.Wait()

	status := s.Status()
	assert.Equal(t, 1, status.Cycles)
	assert.Equal(t, "min_magnitude=1&max_depth=40&time_range_hours=24", status.Query)

	filters := sink.ofType(models.UpdateTypeFilter)
	require.Len(t, filters, 1)
	assert.Equal(t, testConfig().Dashboard.Defaults, filters[0].Payload)

	summary, ok := s.Summary.State()
	require.True(t, ok)
	assert.Equal(t, "2", summary.Total)
}

func TestSession_FilterChangeDispatchesOneCycle(t *testing.T) {
	s, sink, reporter := newTestSession(t)
	s.Start()
	s.Controller.Wait()

	snap, err := s.UpdateFilter(models.MFilterPatch{MinMagnitude: fp(4), MaxDepth: fp(50)})
	require.NoError(t, err)
	s.Controller.Wait()

	assert.Equal(t, models.MFilterSnapshot{MinMagnitude: 4, MaxDepth: 50, TimeRangeHours: 24}, snap)
	status := s.Status()
	assert.Equal(t, 2, status.Cycles)
	assert.Equal(t, "min_magnitude=4&max_depth=50&time_range_hours=24", status.Query)

	reporter.mu.Lock()
	require.Len(t, reporter.changes, 1)
	assert.Equal(t, "s1", reporter.changes[0].SessionID)
	assert.Equal(t, status.Query, reporter.changes[0].Query)
	reporter.mu.Unlock()

	assert.Len(t, sink.ofType(models.UpdateTypeFilter), 2)
}

func TestSession_NoOpUpdateDispatchesNothing(t *testing.T) {
	s, _, reporter := newTestSession(t)
	s.Start()
	s.Controller.Wait()

	_, err := s.UpdateFilter(models.MFilterPatch{MaxDepth: fp(40)})
	require.NoError(t, err)
	s.Controller.Wait()

	assert.Equal(t, 1, s.Status().Cycles)
	reporter.mu.Lock()
	assert.Empty(t, reporter.changes)
	reporter.mu.Unlock()
}

func TestSession_InvalidFilterRejected(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Start()
	s.Controller.Wait()

	_, err := s.UpdateFilter(models.MFilterPatch{TimeRangeHours: fp(math.NaN())})
	assert.Error(t, err)
	assert.Equal(t, 1, s.Status().Cycles)
	assert.Equal(t, 24.0, s.Filter.Get().TimeRangeHours)
}

func TestSession_RetryIsRateLimited(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Start()
	s.Controller.Wait()

	require.NoError(t, s.Retry())
	s.Controller.Wait()
	err := s.Retry()
	assert.True(t, errors.Is(err, ErrRetryRateLimited))
	assert.Equal(t, 2, s.Status().Cycles)
}

func TestSession_CloseDetachesListeners(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Start()
	s.Controller.Wait()
	s.Close()

	_, err := s.UpdateFilter(models.MFilterPatch{MinMagnitude: fp(6)})
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Equal(t, 1, s.Status().Cycles)
}

func TestSession_RetryAfterCloseIsRejected(t *testing.T) {
	s, _, reporter := newTestSession(t)
	s.Start()
	s.Controller.Wait()
	for range models.AllEndpoints {
		reporter.next()
	}
	s.Close()

	assert.ErrorIs(t, s.Retry(), ErrSessionClosed)
	s.Controller.Wait()
	assert.Equal(t, 1, s.Status().Cycles)
	assert.Empty(t, reporter.outcomes)
}

// -----------------------------------------------------------------------------

func TestRegistry_Lifecycle(t *testing.T) {
	cfg := testConfig()
	r := NewRegistry(cfg, func(string) interfaces.IDataFetcher { return newFakeFetcher(autoRespond) }, nil, quietLogger())

	s, err := r.Open(context.Background(), &recordingSink{})
	require.NoError(t, err)
	s.Controller.Wait()
	assert.Equal(t, 1, r.Count())

	snap, err := r.UpdateFilter(s.ID, models.MFilterPatch{TimeRangeHours: fp(6)})
	require.NoError(t, err)
	assert.Equal(t, 6.0, snap.TimeRangeHours)
	s.Controller.Wait()

	status, err := r.Status(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, status.Cycles)

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, s.ID, list[0].SessionID)

	_, err = r.Status("missing")
	assert.ErrorIs(t, err, ErrUnknownSession)
	assert.ErrorIs(t, r.Retry("missing"), ErrUnknownSession)

	r.Close(s.ID)
	assert.Equal(t, 0, r.Count())
	r.Close(s.ID)
}
