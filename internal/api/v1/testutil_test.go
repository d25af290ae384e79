package v1_test

import (
	"context"

	v1 "github.com/ohsdesk/mesa/internal/api/v1"
	"github.com/ohsdesk/mesa/internal/domain"
	"github.com/ohsdesk/mesa/internal/engine"
	"github.com/ohsdesk/mesa/internal/server/middleware"
	"github.com/ohsdesk/mesa/internal/tablesession"
)

// ---------------------------------------------------------------------------
// Context helpers: inject the viewer into context for DoCtx
// ---------------------------------------------------------------------------

var testViewer = domain.Viewer{
	UserID:      7,
	DisplayName: "Ana Souza",
	Email:       "ana@example.com",
	RoleID:      domain.RoleConsultant,
}

func viewerCtx() context.Context {
	return middleware.WithViewer(context.Background(), testViewer)
}

// ---------------------------------------------------------------------------
// Stub TableEngine: func fields, nil means "not expected to be called"
// except viewFunc, which falls back to an empty view.
// ---------------------------------------------------------------------------

type stubEngine struct {
	viewFunc          func(ctx context.Context, viewer domain.Viewer) (*engine.TableView, error)
	refreshFunc       func(ctx context.Context) error
	setFiltersFunc    func(ctx context.Context, f tablesession.Filters) (tablesession.Filters, error)
	selectRowsFunc    func(ctx context.Context, ids []int64) error
	toggleRowFunc     func(ctx context.Context, id int64) error
	reorderFunc       func(ctx context.Context, fromID, toID int64) error
	bulkDesignateFunc func(ctx context.Context) error
	assignFunc        func(ctx context.Context, taskID, userID int64) error
	startFunc         func(ctx context.Context, viewer domain.Viewer, taskID int64) error
	completeFunc      func(ctx context.Context, viewer domain.Viewer, taskID int64) error
	archiveFunc       func(ctx context.Context, viewer domain.Viewer, taskID int64) error
	transferFunc      func(ctx context.Context, viewer domain.Viewer, taskID, sectorID int64) error
	deleteFunc        func(ctx context.Context, viewer domain.Viewer, taskID int64, confirmed bool) error
	usersFunc         func(ctx context.Context) ([]domain.User, error)

	clearCalled bool
}

var _ v1.TableEngine = (*stubEngine)(nil)

func (s *stubEngine) View(ctx context.Context, viewer domain.Viewer) (*engine.TableView, error) {
	if s.viewFunc != nil {
		return s.viewFunc(ctx, viewer)
	}
	return &engine.TableView{
		Filters:     tablesession.NewFilters(),
		SelectedIDs: []int64{},
	}, nil
}

func (s *stubEngine) Refresh(ctx context.Context) error {
	return s.refreshFunc(ctx)
}

func (s *stubEngine) SetFilters(ctx context.Context, f tablesession.Filters) (tablesession.Filters, error) {
	return s.setFiltersFunc(ctx, f)
}

func (s *stubEngine) SelectRows(ctx context.Context, ids []int64) error {
	return s.selectRowsFunc(ctx, ids)
}

func (s *stubEngine) ToggleRow(ctx context.Context, id int64) error {
	return s.toggleRowFunc(ctx, id)
}

func (s *stubEngine) ClearSelection() {
	s.clearCalled = true
}

func (s *stubEngine) Reorder(ctx context.Context, fromID, toID int64) error {
	return s.reorderFunc(ctx, fromID, toID)
}

func (s *stubEngine) BulkDesignate(ctx context.Context) error {
	return s.bulkDesignateFunc(ctx)
}

func (s *stubEngine) Assign(ctx context.Context, taskID, userID int64) error {
	return s.assignFunc(ctx, taskID, userID)
}

func (s *stubEngine) Start(ctx context.Context, viewer domain.Viewer, taskID int64) error {
	return s.startFunc(ctx, viewer, taskID)
}

func (s *stubEngine) Complete(ctx context.Context, viewer domain.Viewer, taskID int64) error {
	return s.completeFunc(ctx, viewer, taskID)
}

func (s *stubEngine) Archive(ctx context.Context, viewer domain.Viewer, taskID int64) error {
	return s.archiveFunc(ctx, viewer, taskID)
}

func (s *stubEngine) Transfer(ctx context.Context, viewer domain.Viewer, taskID, sectorID int64) error {
	return s.transferFunc(ctx, viewer, taskID, sectorID)
}

func (s *stubEngine) Delete(ctx context.Context, viewer domain.Viewer, taskID int64, confirmed bool) error {
	return s.deleteFunc(ctx, viewer, taskID, confirmed)
}

func (s *stubEngine) Users(ctx context.Context) ([]domain.User, error) {
	return s.usersFunc(ctx)
}

// ---------------------------------------------------------------------------
// Stub EngineProvider
// ---------------------------------------------------------------------------

type stubProvider struct {
	eng    *stubEngine
	scopes []string
}

func (p *stubProvider) Engine(scope string) v1.TableEngine {
	p.scopes = append(p.scopes, scope)
	return p.eng
}

// ---------------------------------------------------------------------------
// Stub SectorDirectory
// ---------------------------------------------------------------------------

type stubSectors struct {
	fetchFunc func(ctx context.Context) ([]domain.Sector, error)
}

func (s *stubSectors) FetchSectors(ctx context.Context) ([]domain.Sector, error) {
	return s.fetchFunc(ctx)
}
