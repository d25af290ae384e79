package v1

import (
	"context"

	"github.com/ohsdesk/mesa/internal/domain"
	"github.com/ohsdesk/mesa/internal/engine"
	"github.com/ohsdesk/mesa/internal/tablesession"
)

// TableEngine abstracts the per-scope engine for handler testing.
// *engine.Engine satisfies this interface.
type TableEngine interface {
	View(ctx context.Context, viewer domain.Viewer) (*engine.TableView, error)
	Refresh(ctx context.Context) error
	SetFilters(ctx context.Context, f tablesession.Filters) (tablesession.Filters, error)
	SelectRows(ctx context.Context, ids []int64) error
	ToggleRow(ctx context.Context, id int64) error
	ClearSelection()
	Reorder(ctx context.Context, fromID, toID int64) error
	BulkDesignate(ctx context.Context) error
	Assign(ctx context.Context, taskID, userID int64) error
	Start(ctx context.Context, viewer domain.Viewer, taskID int64) error
	Complete(ctx context.Context, viewer domain.Viewer, taskID int64) error
	Archive(ctx context.Context, viewer domain.Viewer, taskID int64) error
	Transfer(ctx context.Context, viewer domain.Viewer, taskID, sectorID int64) error
	Delete(ctx context.Context, viewer domain.Viewer, taskID int64, confirmed bool) error
	Users(ctx context.Context) ([]domain.User, error)
}

var _ TableEngine = (*engine.Engine)(nil)

// EngineProvider hands out the engine for a scope, creating it on
// first use. The server adapts *engine.Manager to this interface.
type EngineProvider interface {
	Engine(scope string) TableEngine
}

// SectorDirectory serves the scope-independent sector list.
// Both remote.TaskService implementations satisfy this interface.
type SectorDirectory interface {
	FetchSectors(ctx context.Context) ([]domain.Sector, error)
}
