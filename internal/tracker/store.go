// Package tracker owns the client's copy of the application collection.
//
// The persistence API is the source of truth. The Store holds one local
// copy and exposes it read-only (Snapshot, View, Board, Analytics). The
// only way to change it is through the mutation methods, and each of those
// calls the API first. The local copy changes only after the API confirms:
// an append for create, a replace-in-place by id for update, a removal by id
// for delete. A failed call leaves the collection exactly as it was.
//
// Overlapping mutations are not queued. Each one reconciles the collection
// when its own response arrives, so for two edits of the same record the
// last response wins.
package tracker

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/sakif/jobtrack/internal/analytics"
	"github.com/sakif/jobtrack/internal/kanban"
	"github.com/sakif/jobtrack/internal/model"
	"github.com/sakif/jobtrack/internal/view"
)

// Persistence is the remote collaborator that stores applications.
// apiclient.Client is the production implementation.
type Persistence interface {
	ListApplications(ctx context.Context) ([]model.Application, error)
	CreateApplication(ctx context.Context, in model.ApplicationInput) (*model.Application, error)
	UpdateApplication(ctx context.Context, id int64, patch model.ApplicationPatch) (*model.Application, error)
	DeleteApplication(ctx context.Context, id int64) error
}

// compile-time check that the store can drive kanban drops
var _ kanban.StatusChanger = (*Store)(nil)

// Store is the explicitly owned state container for the collection.
type Store struct {
	api    Persistence
	notify Notifier
	logger *slog.Logger

	mu      sync.RWMutex
	records []model.Application
	version uint64

	views view.Cache

	analyticsMu      sync.Mutex
	analyticsVersion uint64
	analytics        *analytics.Snapshot
}

// New creates an empty store. A nil notifier or logger discards events and
// log lines respectively.
func New(api Persistence, notify Notifier, logger *slog.Logger) *Store {
	if notify == nil {
		notify = NopNotifier{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		api:    api,
		notify: notify,
		logger: logger,
	}
}

// Version increases by one on every successful change to the collection.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a copy of the collection in server order.
func (s *Store) Snapshot() []model.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

// Get returns the record with id.
func (s *Store) Get(id int64) (model.Application, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return model.Application{}, false
	}
	return s.records[i], true
}

// View returns the filtered, sorted subset for f. Results are memoized per
// collection version.
func (s *Store) View(f view.FilterState) []model.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.views.Get(s.version, s.records, f)
}

// Board groups the view for f into kanban columns.
func (s *Store) Board(f view.FilterState) kanban.Board {
	return kanban.Group(s.View(f))
}

// Analytics aggregates the full, unfiltered collection. The result is
// recomputed only when the collection version changes.
func (s *Store) Analytics() analytics.Snapshot {
	s.analyticsMu.Lock()
	defer s.analyticsMu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.analytics == nil || s.analyticsVersion != s.version {
		snap := analytics.Compute(s.records)
		s.analytics = &snap
		s.analyticsVersion = s.version
	}
	return *s.analytics
}

// DragSession starts a kanban drag session bound to this store.
func (s *Store) DragSession() *kanban.Session {
	return kanban.NewSession(s.Get, s)
}

// Load replaces the collection with the server's list. On failure the
// previous collection is kept and a LoadError is returned.
func (s *Store) Load(ctx context.Context) error {
	records, err := s.api.ListApplications(ctx)
	if err != nil {
		lerr := &LoadError{Err: err}
		s.logger.Error("failed to load applications", slog.String("error", err.Error()))
		s.notify.Notify(Event{Op: OpLoad, Err: lerr})
		return lerr
	}

	s.mu.Lock()
	s.records = slices.Clone(records)
	s.version++
	s.mu.Unlock()

	s.logger.Debug("applications loaded", slog.Int("count", len(records)))
	s.notify.Notify(Event{Op: OpLoad})
	return nil
}

// Create validates in locally, then asks the API to create the record and
// appends the confirmed record. Validation failures make no API call.
func (s *Store) Create(ctx context.Context, in model.ApplicationInput) (*model.Application, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	created, err := s.api.CreateApplication(ctx, in)
	if err != nil {
		return nil, s.fail(OpCreate, 0, err)
	}

	s.mu.Lock()
	s.records = append(s.records, *created)
	s.version++
	s.mu.Unlock()

	s.notify.Notify(Event{Op: OpCreate, ID: created.ID})
	return created, nil
}

// Update validates patch locally, sends it, and replaces the record in
// place once the API returns the updated version.
func (s *Store) Update(ctx context.Context, id int64, patch model.ApplicationPatch) (*model.Application, error) {
	if err := patch.Normalize(); err != nil {
		return nil, err
	}
	return s.update(ctx, OpUpdate, id, patch)
}

// ChangeStatus moves a record to status. It is the operation a kanban drop
// triggers.
func (s *Store) ChangeStatus(ctx context.Context, id int64, status model.Status) (*model.Application, error) {
	patch := model.StatusPatch(status)
	if err := patch.Normalize(); err != nil {
		return nil, err
	}
	return s.update(ctx, OpStatusChange, id, patch)
}

func (s *Store) update(ctx context.Context, op Op, id int64, patch model.ApplicationPatch) (*model.Application, error) {
	updated, err := s.api.UpdateApplication(ctx, id, patch)
	if err != nil {
		return nil, s.fail(op, id, err)
	}

	s.mu.Lock()
	if i := s.indexOf(updated.ID); i >= 0 {
		s.records[i] = *updated
	} else {
		// Deleted locally while the request was in flight; the server
		// still has it, so keep the server's answer.
		s.records = append(s.records, *updated)
	}
	s.version++
	s.mu.Unlock()

	s.notify.Notify(Event{Op: op, ID: id})
	return updated, nil
}

// Delete removes the record on the server, then locally.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.api.DeleteApplication(ctx, id); err != nil {
		return s.fail(OpDelete, id, err)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.records = slices.Delete(s.records, i, i+1)
		s.version++
	}
	s.mu.Unlock()

	s.notify.Notify(Event{Op: OpDelete, ID: id})
	return nil
}

// fail wraps a rejected mutation, logs it and raises the failure event.
func (s *Store) fail(op Op, id int64, err error) error {
	merr := &MutationError{Op: op, ID: id, Err: err}
	s.logger.Warn("mutation rejected",
		slog.String("op", string(op)),
		slog.Int64("id", id),
		slog.String("error", err.Error()),
	)
	s.notify.Notify(Event{Op: op, ID: id, Err: merr})
	return merr
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.records, func(a model.Application) bool { return a.ID == id })
}
