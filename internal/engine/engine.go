// Package engine coordinates table operations for one scope: it owns
// the record store mirror, filter and selection state, and bridges user
// gestures to the remote task service with the store's optimistic or
// confirm-first semantics.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ohsdesk/mesa/internal/domain"
	"github.com/ohsdesk/mesa/internal/notify"
	"github.com/ohsdesk/mesa/internal/remote"
	"github.com/ohsdesk/mesa/internal/tablesession"
)

// Engine is the per-scope table coordinator. State access is serialized
// by a mutex; remote calls run outside the lock so the table stays
// responsive while operations are in flight.
type Engine struct {
	scope    string
	svc      remote.TaskService
	notifier notify.Sink
	events   Publisher // nil disables event fan-out
	log      zerolog.Logger

	mu        sync.Mutex
	store     *tablesession.Store
	filters   tablesession.Filters
	domains   tablesession.Domains
	selection tablesession.Selection
	users     []domain.User
	sectors   []domain.Sector
	loaded    bool
}

// New creates an Engine for the given scope. Records are loaded from
// the task service on first use.
func New(scope string, svc remote.TaskService, notifier notify.Sink, events Publisher, log zerolog.Logger) *Engine {
	return &Engine{
		scope:     scope,
		svc:       svc,
		notifier:  notifier,
		events:    events,
		log:       log.With().Str("scope", scope).Logger(),
		store:     tablesession.NewStore(),
		filters:   tablesession.NewFilters(),
		selection: tablesession.NewSelection(),
	}
}

// Scope returns the engine's scope id.
func (e *Engine) Scope() string {
	return e.scope
}

// RowView is one visible table row with its viewer-specific action set.
type RowView struct {
	Task     domain.TaskRecord
	Selected bool
	Actions  domain.Actions
}

// TableView is the full view state returned to a table client.
type TableView struct {
	Rows        []RowView
	Filters     tablesession.Filters
	Domains     tablesession.Domains
	SelectedIDs []int64
}

// View returns the visible rows, domains, filters, and selection for
// the viewer, loading from the task service on first touch.
func (e *Engine) View(ctx context.Context, viewer domain.Viewer) (*TableView, error) {
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	visible := e.filters.Visible(e.store.Snapshot())
	rows := make([]RowView, 0, len(visible))
	for _, t := range visible {
		rows = append(rows, RowView{
			Task:     t,
			Selected: e.selection.Has(t.ID),
			Actions:  domain.PermittedActionsFor(viewer, &t),
		})
	}

	return &TableView{
		Rows:        rows,
		Filters:     e.filters,
		Domains:     e.domains,
		SelectedIDs: e.selection.IDs(),
	}, nil
}

// Refresh re-fetches the scope's records and replaces the store. On
// failure the store keeps its last-known-good contents and the error is
// returned for the caller's retry policy; no notification is raised.
func (e *Engine) Refresh(ctx context.Context) error {
	records, err := e.svc.FetchTasks(ctx, e.scope)
	if err != nil {
		return fmt.Errorf("engine.Engine.Refresh: %w", err)
	}

	e.mu.Lock()
	e.store.ReplaceAll(records)
	e.loaded = true
	e.recompute()
	e.mu.Unlock()

	e.publish(ctx, TableEvent{Type: EventRowsReplaced, Scope: e.scope})
	return nil
}

// SetFilters replaces the filter state. Domains are recomputed, stale
// selections reset to their sentinel, and the row selection pruned to
// the new visible set. Returns the effective (post-invalidation)
// filters.
func (e *Engine) SetFilters(ctx context.Context, f tablesession.Filters) (tablesession.Filters, error) {
	if err := e.ensureLoaded(ctx); err != nil {
		return tablesession.Filters{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.filters = f
	e.recompute()
	return e.filters, nil
}

// SelectRows marks the given visible ids as selected, replacing the
// current selection. Ids outside the visible set are dropped.
func (e *Engine) SelectRows(ctx context.Context, ids []int64) error {
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection.Clear()
	for _, id := range ids {
		e.selection.Add(id)
	}
	e.selection.Prune(e.filters.VisibleIDs(e.store.Snapshot()))
	return nil
}

// ToggleRow flips one row's selection state.
func (e *Engine) ToggleRow(ctx context.Context, id int64) error {
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection.Toggle(id)
	e.selection.Prune(e.filters.VisibleIDs(e.store.Snapshot()))
	return nil
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection.Clear()
}

// Users returns the scope's assignment candidates, fetched once and
// cached for the engine's lifetime.
func (e *Engine) Users(ctx context.Context) ([]domain.User, error) {
	e.mu.Lock()
	if e.users != nil {
		users := e.users
		e.mu.Unlock()
		return users, nil
	}
	e.mu.Unlock()

	users, err := e.svc.FetchUsersForUnit(ctx, e.scope)
	if err != nil {
		return nil, fmt.Errorf("engine.Engine.Users: %w", err)
	}

	e.mu.Lock()
	e.users = users
	e.mu.Unlock()
	return users, nil
}

// Sectors returns the transfer-target sectors, fetched once and cached.
func (e *Engine) Sectors(ctx context.Context) ([]domain.Sector, error) {
	e.mu.Lock()
	if e.sectors != nil {
		sectors := e.sectors
		e.mu.Unlock()
		return sectors, nil
	}
	e.mu.Unlock()

	sectors, err := e.svc.FetchSectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine.Engine.Sectors: %w", err)
	}

	e.mu.Lock()
	e.sectors = sectors
	e.mu.Unlock()
	return sectors, nil
}

// ensureLoaded loads the scope's records on first touch. Concurrent
// first touches may both fetch; last write wins, which is the same
// guarantee a refresh racing a mutation gets.
func (e *Engine) ensureLoaded(ctx context.Context) error {
	e.mu.Lock()
	loaded := e.loaded
	e.mu.Unlock()
	if loaded {
		return nil
	}
	return e.Refresh(ctx)
}

// recompute re-derives the filter domains, applies the invalidation
// rule, and prunes the selection. Runs after every store or filter
// change, never only on mount: a bulk action or refresh can remove the
// last record matching a selected filter value. Caller must hold mu.
func (e *Engine) recompute() {
	snapshot := e.store.Snapshot()
	e.domains = tablesession.ComputeDomains(snapshot, e.filters)
	// Invalidation only widens a dimension back to its sentinel, so a
	// single re-derivation against the effective filters reaches the
	// fixpoint. Without it the served domains would still carry the
	// stale value's narrowing.
	if effective := e.filters.Invalidate(e.domains); effective != e.filters {
		e.filters = effective
		e.domains = tablesession.ComputeDomains(snapshot, e.filters)
	}
	e.selection.Prune(e.filters.VisibleIDs(snapshot))
}

// visibleIDs returns the ids of the currently visible set.
func (e *Engine) visibleIDs() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filters.VisibleIDs(e.store.Snapshot())
}
