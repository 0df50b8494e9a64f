package dashboard

import (
	"context"
	"io"
	"sync"
	"time"

	datasource "quake-observer/src/data_source"
	"quake-observer/src/logger"
	"quake-observer/src/models"
)

type result struct {
	data interface{}
	err  error
}

type gateKey struct {
	endpoint models.Endpoint
	sequence uint64
}

// fakeFetcher answers either through respond or through gates released by the test.
type fakeFetcher struct {
	seq     *datasource.Sequencer
	respond func(models.MRequestTicket) (interface{}, error)

	mu    sync.Mutex
	gates map[gateKey]chan result
}

func newFakeFetcher(respond func(models.MRequestTicket) (interface{}, error)) *fakeFetcher {
	return &fakeFetcher{
		seq:     datasource.NewSequencer(),
		respond: respond,
		gates:   make(map[gateKey]chan result),
	}
}

func (f *fakeFetcher) Issue(e models.Endpoint, d models.MQueryDescriptor) models.MRequestTicket {
	return models.MRequestTicket{Endpoint: e, Sequence: f.seq.Next(e), Descriptor: d, IssuedAt: time.Now()}
}

func (f *fakeFetcher) IsLatest(t models.MRequestTicket) bool {
	return f.seq.Latest(t.Endpoint) == t.Sequence
}

func (f *fakeFetcher) Fetch(ctx context.Context, t models.MRequestTicket) (interface{}, error) {
	if f.respond != nil {
		return f.respond(t)
	}
	select {
	case r := <-f.gate(t.Endpoint, t.Sequence):
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeFetcher) gate(e models.Endpoint, seq uint64) chan result {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := gateKey{e, seq}
	ch, ok := f.gates[k]
	if !ok {
		ch = make(chan result, 1)
		f.gates[k] = ch
	}
	return ch
}

func (f *fakeFetcher) release(e models.Endpoint, seq uint64, data interface{}, err error) {
	f.gate(e, seq) <- result{data, err}
}

// -----------------------------------------------------------------------------

type recordingSink struct {
	mu      sync.Mutex
	updates []models.MViewUpdate
}

func (s *recordingSink) Publish(u models.MViewUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, u)
}

func (s *recordingSink) ofType(typ string) []models.MViewUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MViewUpdate
	for _, u := range s.updates {
		if u.Type == typ {
			out = append(out, u)
		}
	}
	return out
}

// -----------------------------------------------------------------------------

type recordingReporter struct {
	outcomes chan models.MFetchOutcome
	mu       sync.Mutex
	changes  []models.MFilterChange
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{outcomes: make(chan models.MFetchOutcome, 256)}
}

func (r *recordingReporter) RecordOutcome(o models.MFetchOutcome) {
	r.outcomes <- o
}

func (r *recordingReporter) RecordFilterChange(c models.MFilterChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recordingReporter) next() models.MFetchOutcome {
	select {
	case o := <-r.outcomes:
		return o
	case <-time.After(5 * time.Second):
		panic("timed out waiting for a fetch outcome")
	}
}

// -----------------------------------------------------------------------------

func quietLogger() *logger.Logger {
	return logger.NewLoggerWithWriter(nil, "Test", io.Discard)
}

func quake(locality string, mag, depth float64) models.MEarthquakeRecord {
	return models.MEarthquakeRecord{Lat: -41, Lon: 174, Magnitude: mag, Depth: depth, Locality: locality, Time: "t"}
}

func fp(v float64) *float64 { return &v }

func okSummary(total int) models.MSummaryStats {
	return models.MSummaryStats{Total: total}
}

func okCharts() models.MChartDataset {
	return models.MChartDataset{MagnitudeCounts: []int{1, 0, 0, 0, 0}}
}
