package dashboard

import (
	"context"
	"errors"
	"sort"
	"sync"

	"quake-observer/src/interfaces"
	"quake-observer/src/logger"
	"quake-observer/src/models"

	"github.com/google/uuid"
)

// ErrUnknownSession is returned for ids the registry does not hold.
var ErrUnknownSession = errors.New("unknown session")

// FetcherFactory builds the fetcher of a new session. Every session needs its
// own sequence counters.
type FetcherFactory func(sessionID string) interfaces.IDataFetcher

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// Registry owns every live session.
type Registry struct {
	Config     *models.MConfig
	NewFetcher FetcherFactory
	Reporter   interfaces.IOutcomeReporter
	Logger     *logger.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// -----------------------------------------------------------------------------

func NewRegistry(cfg *models.MConfig, newFetcher FetcherFactory, reporter interfaces.IOutcomeReporter, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewLogger(cfg, "Sessions")
	}
	return &Registry{
		Config:     cfg,
		NewFetcher: newFetcher,
		Reporter:   reporter,
		Logger:     log,
		sessions:   make(map[string]*Session),
	}
}

// -----------------------------------------------------------------------------

// Open creates, registers and starts a session publishing to sink.
func (r *Registry) Open(ctx context.Context, sink interfaces.IViewSink) (*Session, error) {
	id := uuid.NewString()
	session, err := NewSession(ctx, r.Config, id, r.NewFetcher(id), sink, r.Reporter, r.Logger.Named("Session-"+id))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[id] = session
	count := len(r.sessions)
	r.mu.Unlock()

	r.Logger.Info("Session %s opened (%d live)", id, count)
	session.Start()
	return session, nil
}

// -----------------------------------------------------------------------------

// Close removes and closes the session. Unknown ids are ignored.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		session.Close()
	}
}

// -----------------------------------------------------------------------------

// CloseAll closes every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// -----------------------------------------------------------------------------

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// -----------------------------------------------------------------------------

// List returns the status of every session, oldest first.
func (r *Registry) List() []models.MSessionStatus {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	out := make([]models.MSessionStatus, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Status())
	}
	return out
}

// -----------------------------------------------------------------------------

func (r *Registry) Status(id string) (models.MSessionStatus, error) {
	s, ok := r.Get(id)
	if !ok {
		return models.MSessionStatus{}, ErrUnknownSession
	}
	return s.Status(), nil
}

func (r *Registry) UpdateFilter(id string, patch models.MFilterPatch) (models.MFilterSnapshot, error) {
	s, ok := r.Get(id)
	if !ok {
		return models.MFilterSnapshot{}, ErrUnknownSession
	}
	return s.UpdateFilter(patch)
}

func (r *Registry) Retry(id string) error {
	s, ok := r.Get(id)
	if !ok {
		return ErrUnknownSession
	}
	return s.Retry()
}
