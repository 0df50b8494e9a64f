package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"quake-observer/src/analysis/core"
	"quake-observer/src/filter"
	"quake-observer/src/helpers"
	"quake-observer/src/interfaces"
	"quake-observer/src/logger"
	"quake-observer/src/models"
	"quake-observer/src/query"
	"quake-observer/src/utils"
)

// pipeline is the state machine of one endpoint.
type pipeline struct {
	state      models.EndpointState
	latest     uint64
	rendered   bool
	lastError  string
	applied    int
	superseded int
	failed     int
}

// -----------------------------------------------------------------------------
// Controller
// -----------------------------------------------------------------------------

// Controller runs one refresh cycle per filter change: a single query for all
// endpoints, concurrent fetches, and last-request-wins rendering per endpoint.
// Every state transition and every render happens under mu, so views observe
// completions one at a time.
type Controller struct {
	SessionID string
	Fetcher   interfaces.IDataFetcher
	Adapters  map[models.Endpoint]interfaces.IViewAdapter
	Sink      interfaces.IViewSink
	Reporter  interfaces.IOutcomeReporter
	History   *utils.OutcomeHistory
	Errors    *helpers.ErrorHandler
	Logger    *logger.Logger

	// Filter, when set, is the snapshot source for Retry.
	Filter *filter.State

	ctx         context.Context
	mu          sync.Mutex
	pipelines   map[models.Endpoint]*pipeline
	current     models.MFilterSnapshot
	query       string
	cycles      int
	lastRefresh time.Time
	closed      bool
	inflight    sync.WaitGroup
	now         func() time.Time
}

// -----------------------------------------------------------------------------

func NewController(
	ctx context.Context,
	sessionID string,
	fetcher interfaces.IDataFetcher,
	adapters map[models.Endpoint]interfaces.IViewAdapter,
	sink interfaces.IViewSink,
	reporter interfaces.IOutcomeReporter,
	historySize int,
	log *logger.Logger,
) *Controller {
	if log == nil {
		log = logger.NewLogger(nil, "Controller-"+sessionID)
	}
	c := &Controller{
		SessionID: sessionID,
		Fetcher:   fetcher,
		Adapters:  adapters,
		Sink:      sink,
		Reporter:  reporter,
		History:   utils.NewOutcomeHistory(historySize),
		Errors:    helpers.NewErrorHandler(log),
		Logger:    log,
		ctx:       ctx,
		pipelines: make(map[models.Endpoint]*pipeline, len(models.AllEndpoints)),
		now:       time.Now,
	}
	for _, e := range models.AllEndpoints {
		c.pipelines[e] = &pipeline{state: models.StateIdle}
	}
	return c
}

// -----------------------------------------------------------------------------

// Refresh starts a cycle for snapshot. It is the FilterState listener: it
// returns once every ticket is issued, without waiting for any response.
func (c *Controller) Refresh(snapshot models.MFilterSnapshot) {
	descriptor, err := query.Build(snapshot)
	if err != nil {
		c.Logger.Error("Refusing to refresh with invalid filter %+v: %v", snapshot, err)
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.Logger.Debug("Controller closed, ignoring refresh")
		return
	}
	c.current = snapshot
	c.query = descriptor.Encode()
	c.cycles++
	c.lastRefresh = c.now()

	tickets := make([]models.MRequestTicket, 0, len(models.AllEndpoints))
	for _, e := range models.AllEndpoints {
		ticket := c.Fetcher.Issue(e, descriptor)
		p := c.pipelines[e]
		p.state = models.StatePending
		p.latest = ticket.Sequence
		tickets = append(tickets, ticket)
		c.publishStatus(e, p)
	}
	c.inflight.Add(len(tickets))
	cycle := c.cycles
	c.mu.Unlock()

	c.Logger.Debug("Cycle %d dispatched: %s", cycle, descriptor.Encode())

	for _, t := range tickets {
		go c.run(t)
	}
}

// -----------------------------------------------------------------------------

// Retry re-runs a cycle with the current filter. With a FilterState the
// snapshot is read and the tickets issued without any Update in between;
// without one the last dispatched snapshot is reused.
func (c *Controller) Retry() {
	c.Logger.Info("Manual retry requested")
	if c.Filter != nil {
		c.Filter.Replay(c.Refresh)
		return
	}

	c.mu.Lock()
	snapshot := c.current
	c.mu.Unlock()
	c.Refresh(snapshot)
}

// -----------------------------------------------------------------------------

// Close stops accepting cycles and waits for in-flight fetches.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.inflight.Wait()
}

// -----------------------------------------------------------------------------

// Wait blocks until every fetch dispatched so far has completed.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// -----------------------------------------------------------------------------

func (c *Controller) run(ticket models.MRequestTicket) {
	defer c.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Error("Fetch %s #%d panicked: %v", ticket.Endpoint, ticket.Sequence, r)
		}
	}()

	start := c.now()
	data, err := c.Fetcher.Fetch(c.ctx, ticket)
	c.complete(ticket, data, err, c.now().Sub(start))
}

// -----------------------------------------------------------------------------

// complete applies, discards or records the failure of one response.
func (c *Controller) complete(ticket models.MRequestTicket, data interface{}, fetchErr error, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := ticket.Endpoint
	p := c.pipelines[e]
	outcome := models.MFetchOutcome{
		SessionID:  c.SessionID,
		Endpoint:   e,
		Sequence:   ticket.Sequence,
		Query:      ticket.Descriptor.Encode(),
		Duration:   elapsed,
		FinishedAt: c.now(),
	}

	switch {
	case fetchErr != nil && c.ctx.Err() != nil && errors.Is(fetchErr, context.Canceled):
		// Shutdown, not a backend failure: nothing is rendered, counted or journaled.
		c.Logger.Debug("%s #%d cancelled", e, ticket.Sequence)
		return

	case !c.Fetcher.IsLatest(ticket):
		// A newer request owns the view; this one is ignored whatever its result.
		p.superseded++
		outcome.State = models.StateSuperseded
		outcome.ErrorKind = helpers.KindStale
		outcome.Error = helpers.ErrStaleResponseDiscarded.Error()
		c.Logger.Debug("%s #%d superseded by #%d", e, ticket.Sequence, p.latest)

	case fetchErr != nil:
		p.failed++
		p.state = models.StateFailed
		p.lastError = fetchErr.Error()
		outcome.State = models.StateFailed
		outcome.ErrorKind = helpers.ErrorKind(fetchErr)
		outcome.HTTPStatus = helpers.HTTPStatus(fetchErr)
		outcome.Error = fetchErr.Error()
		c.Errors.Handle(fetchErr, "fetch "+string(e))

		if !p.rendered {
			if adapter, ok := c.Adapters[e]; ok {
				adapter.RenderEmpty()
			}
		}
		c.publishStatus(e, p)

	default:
		p.applied++
		p.state = models.StateApplied
		p.lastError = ""
		outcome.State = models.StateApplied
		c.Errors.Recover("fetch " + string(e))

		if adapter, ok := c.Adapters[e]; ok {
			if err := adapter.RenderPayload(data); err != nil {
				c.Logger.Warning("Rendering %s #%d: %v", e, ticket.Sequence, err)
			}
			p.rendered = true
		}
		c.publishStatus(e, p)
	}

	c.History.Add(outcome)
	if c.Reporter != nil {
		c.Reporter.RecordOutcome(outcome)
	}
}

// -----------------------------------------------------------------------------

func (c *Controller) publishStatus(e models.Endpoint, p *pipeline) {
	if c.Sink == nil {
		return
	}
	c.Sink.Publish(models.MViewUpdate{
		Type: models.UpdateTypeStatus,
		View: string(e),
		Payload: models.MEndpointStatus{
			Endpoint: e,
			State:    p.state,
			Sequence: p.latest,
			Error:    p.lastError,
		},
		Timestamp: c.now().UnixMilli(),
	})
}

// -----------------------------------------------------------------------------

// EndpointState returns the current state of e.
func (c *Controller) EndpointState(e models.Endpoint) models.EndpointState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pipelines[e]; ok {
		return p.state
	}
	return models.StateIdle
}

// -----------------------------------------------------------------------------

// Status reports every pipeline along with recent outcomes and latency.
func (c *Controller) Status() models.MSessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := models.MSessionStatus{
		SessionID:   c.SessionID,
		Filter:      c.current,
		Query:       c.query,
		Cycles:      c.cycles,
		LastRefresh: c.lastRefresh,
		Endpoints:   make([]models.MEndpointReport, 0, len(models.AllEndpoints)),
	}

	for _, e := range models.AllEndpoints {
		p := c.pipelines[e]
		recent := c.History.All(e)

		var durations []time.Duration
		for _, o := range recent {
			if o.State != models.StateSuperseded {
				durations = append(durations, o.Duration)
			}
		}
		mean, std := core.LatencyStatsMs(durations)

		status.Endpoints = append(status.Endpoints, models.MEndpointReport{
			Endpoint:       e,
			State:          p.state,
			LatestSequence: p.latest,
			Rendered:       p.rendered,
			LastError:      p.lastError,
			Applied:        p.applied,
			Superseded:     p.superseded,
			Failed:         p.failed,
			LatencyMeanMs:  mean,
			LatencyStdMs:   std,
			Recent:         recent,
		})
	}
	return status
}
