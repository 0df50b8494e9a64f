package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"quake-observer/src/interfaces"
	"quake-observer/src/logger"
	"quake-observer/src/models"
	"quake-observer/src/utils"
)

// entry carries exactly one of its fields.
type entry struct {
	outcome *models.MFetchOutcome
	change  *models.MFilterChange
}

// -----------------------------------------------------------------------------
// Recorder
// -----------------------------------------------------------------------------

// Recorder journals session diagnostics without ever blocking a session: records
// are queued and written in batches by a single goroutine. When the queue is
// full the record is dropped and counted.
type Recorder struct {
	DB              interfaces.IDatabase
	Logger          *logger.Logger
	BatchSize       int
	FlushInterval   time.Duration
	CleanupInterval time.Duration

	queue   chan entry
	dropped atomic.Int64
	wg      sync.WaitGroup
	once    sync.Once
	cancel  context.CancelFunc
}

// -----------------------------------------------------------------------------

func NewRecorder(db interfaces.IDatabase, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.NewLogger(nil, "Recorder")
	}
	return &Recorder{
		DB:              db,
		Logger:          log,
		BatchSize:       utils.RecorderBatchSize,
		FlushInterval:   utils.RecorderFlushInterval,
		CleanupInterval: time.Hour,
		queue:           make(chan entry, utils.RecorderQueueSize),
	}
}

// -----------------------------------------------------------------------------

// RecordOutcome implements interfaces.IOutcomeReporter.
func (r *Recorder) RecordOutcome(outcome models.MFetchOutcome) {
	r.enqueue(entry{outcome: &outcome})
}

// RecordFilterChange implements interfaces.IOutcomeReporter.
func (r *Recorder) RecordFilterChange(change models.MFilterChange) {
	r.enqueue(entry{change: &change})
}

func (r *Recorder) enqueue(e entry) {
	select {
	case r.queue <- e:
	default:
		if n := r.dropped.Add(1); n%100 == 1 {
			r.Logger.Warning("Journal queue full, %d records dropped so far", n)
		}
	}
}

// Dropped returns how many records were discarded because the queue was full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// -----------------------------------------------------------------------------

// Start runs the writer until ctx is cancelled or Stop is called.
func (r *Recorder) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop flushes what is queued and waits for the writer to exit.
func (r *Recorder) Stop() {
	r.once.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		r.wg.Wait()
	})
}

// -----------------------------------------------------------------------------

func (r *Recorder) loop(ctx context.Context) {
	defer r.wg.Done()

	flush := time.NewTicker(r.FlushInterval)
	defer flush.Stop()
	cleanup := time.NewTicker(r.CleanupInterval)
	defer cleanup.Stop()

	var outcomes []models.MFetchOutcome
	var changes []models.MFilterChange

	write := func() {
		if len(changes) > 0 {
			if err := r.DB.SaveFilterChanges(changes); err != nil {
				r.Logger.Error("Saving %d filter changes: %v", len(changes), err)
			}
			changes = changes[:0]
		}
		if len(outcomes) > 0 {
			if err := r.DB.SaveFetchOutcomes(outcomes); err != nil {
				r.Logger.Error("Saving %d fetch outcomes: %v", len(outcomes), err)
			}
			outcomes = outcomes[:0]
		}
	}

	add := func(e entry) {
		if e.outcome != nil {
			outcomes = append(outcomes, *e.outcome)
		}
		if e.change != nil {
			changes = append(changes, *e.change)
		}
		if len(outcomes)+len(changes) >= r.BatchSize {
			write()
		}
	}

	for {
		select {
		case e := <-r.queue:
			add(e)
		case <-flush.C:
			write()
		case <-cleanup.C:
			write()
			if err := r.DB.CleanupOldData(); err != nil {
				r.Logger.Warning("Journal cleanup: %v", err)
			}
		case <-ctx.Done():
			// drain what is already queued
			for {
				select {
				case e := <-r.queue:
					add(e)
				default:
					write()
					return
				}
			}
		}
	}
}
