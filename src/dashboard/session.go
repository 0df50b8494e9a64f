package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"quake-observer/src/filter"
	"quake-observer/src/interfaces"
	"quake-observer/src/logger"
	"quake-observer/src/models"
	"quake-observer/src/query"
	"quake-observer/src/views"

	"golang.org/x/time/rate"
)

// ErrRetryRateLimited is returned when a session asks for manual retries too often.
var ErrRetryRateLimited = errors.New("retry rate limit exceeded")

// ErrSessionClosed is returned by operations on a session after Close.
var ErrSessionClosed = errors.New("session closed")

// -----------------------------------------------------------------------------
// Session
// -----------------------------------------------------------------------------

// Session is one live dashboard: its own filter state, views, controller and
// sequence counters. Nothing is shared between sessions except the backend
// client and the journal.
type Session struct {
	ID         string
	Filter     *filter.State
	Controller *Controller
	Map        *views.MapView
	Summary    *views.SummaryView
	Table      *views.TableView
	Charts     *views.ChartView
	Sink       interfaces.IViewSink
	Reporter   interfaces.IOutcomeReporter
	Logger     *logger.Logger
	CreatedAt  time.Time

	refreshInterval time.Duration
	retryLimiter    *rate.Limiter
	ctx             context.Context
	cancel          context.CancelFunc
	unsubscribe     []func()
	wg              sync.WaitGroup
	closeOnce       sync.Once
}

// -----------------------------------------------------------------------------

func NewSession(
	parent context.Context,
	cfg *models.MConfig,
	id string,
	fetcher interfaces.IDataFetcher,
	sink interfaces.IViewSink,
	reporter interfaces.IOutcomeReporter,
	log *logger.Logger,
) (*Session, error) {
	if log == nil {
		log = logger.NewLogger(cfg, "Session-"+id)
	}

	state, err := filter.NewState(cfg.Dashboard.Defaults)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:              id,
		Filter:          state,
		Map:             views.NewMapView(sink),
		Summary:         views.NewSummaryView(sink),
		Table:           views.NewTableView(sink),
		Charts:          views.NewChartView(sink),
		Sink:            sink,
		Reporter:        reporter,
		Logger:          log,
		CreatedAt:       time.Now(),
		refreshInterval: time.Duration(cfg.Dashboard.RefreshIntervalSeconds) * time.Second,
		retryLimiter:    newRetryLimiter(cfg.Dashboard.RetriesPerMinute),
		ctx:             ctx,
		cancel:          cancel,
	}

	adapters := map[models.Endpoint]interfaces.IViewAdapter{
		models.EndpointMap:     s.Map,
		models.EndpointSummary: s.Summary,
		models.EndpointTable:   s.Table,
		models.EndpointCharts:  s.Charts,
	}
	s.Controller = NewController(ctx, id, fetcher, adapters, sink, reporter, cfg.Dashboard.HistorySize, log.Named("Controller-"+id))
	s.Controller.Filter = state

	// Order matters: the cycle is dispatched before analytics and the echo run.
	s.unsubscribe = append(s.unsubscribe,
		state.Subscribe(s.Controller.Refresh),
		state.Subscribe(s.recordFilterChange),
		state.Subscribe(s.publishFilter),
	)
	return s, nil
}

func newRetryLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// -----------------------------------------------------------------------------

// Start publishes the initial filter, runs the first cycle and starts auto refresh.
func (s *Session) Start() {
	snapshot := s.Filter.Get()
	s.publishFilter(snapshot)
	s.Controller.Refresh(snapshot)

	if s.refreshInterval <= 0 {
		return
	}
	s.wg.Add(1)
	go s.autoRefresh()
}

// -----------------------------------------------------------------------------

func (s *Session) autoRefresh() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Logger.Debug("Auto refresh")
			s.Filter.Replay(s.Controller.Refresh)
		}
	}
}

// -----------------------------------------------------------------------------

// UpdateFilter applies patch. A changed filter starts a new cycle synchronously.
func (s *Session) UpdateFilter(patch models.MFilterPatch) (models.MFilterSnapshot, error) {
	if s.ctx.Err() != nil {
		return s.Filter.Get(), ErrSessionClosed
	}
	snapshot, changed, err := s.Filter.Update(patch)
	if err != nil {
		s.Logger.Warning("Rejected filter update: %v", err)
		return snapshot, err
	}
	if !changed {
		s.Logger.Debug("Filter unchanged, no cycle")
	}
	return snapshot, nil
}

// -----------------------------------------------------------------------------

// Retry re-runs the current cycle, subject to the per-session retry budget.
func (s *Session) Retry() error {
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	if !s.retryLimiter.Allow() {
		return ErrRetryRateLimited
	}
	s.Controller.Retry()
	return nil
}

// -----------------------------------------------------------------------------

func (s *Session) Status() models.MSessionStatus {
	return s.Controller.Status()
}

// -----------------------------------------------------------------------------

// Close stops auto refresh, detaches listeners and waits for in-flight fetches.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		for _, unsubscribe := range s.unsubscribe {
			unsubscribe()
		}
		s.wg.Wait()
		s.Controller.Close()
		s.Logger.Info("Session closed")
	})
}

// -----------------------------------------------------------------------------
// Listeners
// -----------------------------------------------------------------------------

func (s *Session) recordFilterChange(snapshot models.MFilterSnapshot) {
	if s.Reporter == nil {
		return
	}
	descriptor, err := query.Build(snapshot)
	if err != nil {
		return
	}
	s.Reporter.RecordFilterChange(models.MFilterChange{
		SessionID: s.ID,
		Filter:    snapshot,
		Query:     descriptor.Encode(),
		ChangedAt: time.Now(),
	})
}

func (s *Session) publishFilter(snapshot models.MFilterSnapshot) {
	if s.Sink == nil {
		return
	}
	s.Sink.Publish(models.MViewUpdate{
		Type:      models.UpdateTypeFilter,
		Payload:   snapshot,
		Timestamp: time.Now().UnixMilli(),
	})
}
