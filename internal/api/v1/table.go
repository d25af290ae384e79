package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ohsdesk/mesa/internal/domain"
	"github.com/ohsdesk/mesa/internal/engine"
	"github.com/ohsdesk/mesa/internal/server/middleware"
	"github.com/ohsdesk/mesa/internal/tablesession"
)

type taskBody struct {
	ID              int64      `json:"id" doc:"Task ID"`
	Company         string     `json:"company,omitempty" doc:"Client company name"`
	Unit            string     `json:"unit,omitempty" doc:"Client unit name"`
	Purpose         string     `json:"purpose" doc:"Normalized service purpose"`
	Sector          string     `json:"sector,omitempty" doc:"Responsible sector name"`
	SectorID        *int64     `json:"sector_id,omitempty" doc:"Responsible sector ID"`
	Status          string     `json:"status" doc:"Raw status label"`
	Priority        string     `json:"priority,omitempty" doc:"Priority label"`
	ResponsibleID   *int64     `json:"responsible_id,omitempty" doc:"Responsible user ID"`
	ResponsibleName string     `json:"responsible_name,omitempty" doc:"Responsible display name"`
	DueDate         *time.Time `json:"due_date,omitempty" doc:"Due date"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty" doc:"Last modification time"`
}

type actionsBody struct {
	CanStart    bool `json:"can_start" doc:"Viewer may start this task"`
	CanComplete bool `json:"can_complete" doc:"Viewer may complete this task"`
	CanTransfer bool `json:"can_transfer" doc:"Viewer may transfer this task"`
	CanArchive  bool `json:"can_archive" doc:"Viewer may archive this task"`
}

type rowBody struct {
	Task     taskBody    `json:"task"`
	Selected bool        `json:"selected" doc:"Row is in the bulk selection"`
	Actions  actionsBody `json:"actions"`
}

type filtersBody struct {
	Purpose string `json:"purpose" doc:"Purpose filter, 'all' for unrestricted"`
	Status  string `json:"status" doc:"Status filter, 'all' for unrestricted"`
	Company string `json:"company,omitempty" doc:"Company substring filter, empty for unrestricted"`
}

type domainsBody struct {
	Purposes  []string `json:"purposes" doc:"Offered purpose filter values"`
	Statuses  []string `json:"statuses" doc:"Offered status filter values"`
	Companies []string `json:"companies" doc:"Companies present in the narrowed set"`
}

type tableViewBody struct {
	Rows        []rowBody   `json:"rows"`
	Filters     filtersBody `json:"filters"`
	Domains     domainsBody `json:"domains"`
	SelectedIDs []int64     `json:"selected_ids"`
}

func newTaskBody(t domain.TaskRecord) taskBody {
	return taskBody{
		ID:              t.ID,
		Company:         t.Company,
		Unit:            t.Unit,
		Purpose:         domain.NormalizePurpose(t.Purpose),
		Sector:          t.Sector,
		SectorID:        t.SectorID,
		Status:          t.Status,
		Priority:        t.Priority,
		ResponsibleID:   t.ResponsibleID,
		ResponsibleName: t.ResponsibleName,
		DueDate:         t.DueDate,
		UpdatedAt:       t.UpdatedAt,
	}
}

func newTableViewBody(v *engine.TableView) tableViewBody {
	rows := make([]rowBody, 0, len(v.Rows))
	for _, r := range v.Rows {
		rows = append(rows, rowBody{
			Task:     newTaskBody(r.Task),
			Selected: r.Selected,
			Actions: actionsBody{
				CanStart:    r.Actions.CanStart,
				CanComplete: r.Actions.CanComplete,
				CanTransfer: r.Actions.CanTransfer,
				CanArchive:  r.Actions.CanArchive,
			},
		})
	}
	return tableViewBody{
		Rows:        rows,
		Filters:     filtersBody(v.Filters),
		Domains: domainsBody{
			Purposes:  v.Domains.Purposes,
			Statuses:  v.Domains.Statuses,
			Companies: v.Domains.Companies,
		},
		SelectedIDs: v.SelectedIDs,
	}
}

type TableInput struct {
	Scope string `path:"scope" maxLength:"64" doc:"Unit scope ID"`
}

type TableOutput struct {
	Body tableViewBody
}

type SetFiltersInput struct {
	Scope string `path:"scope" maxLength:"64" doc:"Unit scope ID"`
	Body  filtersBody
}

type SelectionInput struct {
	Scope string `path:"scope" maxLength:"64" doc:"Unit scope ID"`
	Body  struct {
		Action string  `json:"action" enum:"set,toggle,clear" doc:"Selection operation"`
		IDs    []int64 `json:"ids,omitempty" doc:"Row IDs for 'set'"`
		ID     int64   `json:"id,omitempty" doc:"Row ID for 'toggle'"`
	}
}

type ReorderInput struct {
	Scope string `path:"scope" maxLength:"64" doc:"Unit scope ID"`
	Body  struct {
		FromID int64 `json:"from_id" doc:"Dragged row ID"`
		ToID   int64 `json:"to_id" doc:"Row ID at the drop position"`
	}
}

type AssignInput struct {
	Scope string `path:"scope" maxLength:"64" doc:"Unit scope ID"`
	Body  struct {
		TaskID int64 `json:"task_id" doc:"Task ID"`
		UserID int64 `json:"user_id" doc:"Assignee user ID, 0 for none"`
	}
}

type TaskActionInput struct {
	Scope string `path:"scope" maxLength:"64" doc:"Unit scope ID"`
	ID    int64  `path:"id" doc:"Task ID"`
}

type TransferInput struct {
	Scope string `path:"scope" maxLength:"64" doc:"Unit scope ID"`
	ID    int64  `path:"id" doc:"Task ID"`
	Body  struct {
		SectorID int64 `json:"sector_id" doc:"Destination sector ID"`
	}
}

type DeleteTaskInput struct {
	Scope   string `path:"scope" maxLength:"64" doc:"Unit scope ID"`
	ID      int64  `path:"id" doc:"Task ID"`
	Confirm bool   `query:"confirm" doc:"Explicit deletion confirmation"`
}

type userBody struct {
	ID          int64  `json:"id" doc:"User ID"`
	DisplayName string `json:"display_name" doc:"Display name"`
	Email       string `json:"email,omitempty" doc:"Email address"`
}

type ListUsersOutput struct {
	Body []userBody
}

type sectorBody struct {
	ID   int64  `json:"id" doc:"Sector ID"`
	Name string `json:"name" doc:"Sector name"`
}

type ListSectorsOutput struct {
	Body []sectorBody
}

func viewerFrom(ctx context.Context) (domain.Viewer, error) {
	viewer, ok := middleware.ViewerFromContext(ctx)
	if !ok {
		return domain.Viewer{}, huma.Error401Unauthorized("missing viewer context")
	}
	return viewer, nil
}

// viewOf builds the response body after a mutation so the client
// always receives the post-operation table state.
func viewOf(ctx context.Context, eng TableEngine, viewer domain.Viewer) (*TableOutput, error) {
	view, err := eng.View(ctx, viewer)
	if err != nil {
		return nil, huma.Error502BadGateway("failed to load tasks", err)
	}
	return &TableOutput{Body: newTableViewBody(view)}, nil
}

func mapActionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("task not found")
	case errors.Is(err, domain.ErrActionNotAllowed):
		return huma.Error409Conflict("action not available for this task")
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden("elevated role required")
	case errors.Is(err, domain.ErrConfirmationRequired):
		return huma.Error400BadRequest("confirmation required")
	default:
		return huma.Error502BadGateway("operation failed", err)
	}
}

func RegisterTableRoutes(api huma.API, provider EngineProvider) {
	huma.Register(api, huma.Operation{
		OperationID: "get-table",
		Method:      http.MethodGet,
		Path:        "/table/{scope}",
		Summary:     "Get the table view for a scope",
		Tags:        []string{"Table"},
	}, func(ctx context.Context, input *TableInput) (*TableOutput, error) {
		viewer, err := viewerFrom(ctx)
		if err != nil {
			return nil, err
		}
		return viewOf(ctx, provider.Engine(input.Scope), viewer)
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-table",
		Method:      http.MethodPost,
		Path:        "/table/{scope}/refresh",
		Summary:     "Re-fetch the scope's tasks",
		Tags:        []string{"Table"},
	}, func(ctx context.Context, input *TableInput) (*TableOutput, error) {
		viewer, err := viewerFrom(ctx)
		if err != nil {
			return nil, err
		}
		eng := provider.Engine(input.Scope)
		if err := eng.Refresh(ctx); err != nil {
			return nil, huma.Error502BadGateway("failed to refresh tasks", err)
		}
		return viewOf(ctx, eng, viewer)
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-filters",
		Method:      http.MethodPut,
		Path:        "/table/{scope}/filters",
		Summary:     "Set the table filters",
		Tags:        []string{"Table"},
	}, func(ctx context.Context, input *SetFiltersInput) (*TableOutput, error) {
		viewer, err := viewerFrom(ctx)
		if err != nil {
			return nil, err
		}
		eng := provider.Engine(input.Scope)
		if _, err := eng.SetFilters(ctx, tablesession.Filters(input.Body)); err != nil {
			return nil, huma.Error502BadGateway("failed to load tasks", err)
		}
		return viewOf(ctx, eng, viewer)
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-selection",
		Method:      http.MethodPut,
		Path:        "/table/{scope}/selection",
		Summary:     "Modify the bulk row selection",
		Tags:        []string{"Table"},
	}, func(ctx context.Context, input *SelectionInput) (*TableOutput, error) {
		viewer, err := viewerFrom(ctx)
		if err != nil {
			return nil, err
		}
		eng := provider.Engine(input.Scope)
		switch input.Body.Action {
		case "set":
			err = eng.SelectRows(ctx, input.Body.IDs)
		case "toggle":
			err = eng.ToggleRow(ctx, input.Body.ID)
		case "clear":
			eng.ClearSelection()
		}
		if err != nil {
			return nil, huma.Error502BadGateway("failed to load tasks", err)
		}
		return viewOf(ctx, eng, viewer)
	})

	huma.Register(api, huma.Operation{
		OperationID: "reorder-table",
		Method:      http.MethodPost,
		Path:        "/table/{scope}/reorder",
		Summary:     "Move a row to another row's position",
		Tags:        []string{"Table"},
	}, func(ctx context.Context, input *ReorderInput) (*TableOutput, error) {
		viewer, err := viewerFrom(ctx)
		if err != nil {
			return nil, err
		}
		eng := provider.Engine(input.Scope)
		if err := eng.Reorder(ctx, input.Body.FromID, input.Body.ToID); err != nil {
			return nil, huma.Error502BadGateway("failed to reorder", err)
		}
		return viewOf(ctx, eng, viewer)
	})

	huma.Register(api, huma.Operation{
		OperationID: "bulk-designate",
		Method:      http.MethodPost,
		Path:        "/table/{scope}/bulk-designate",
		Summary:     "Mark the selected automatic tasks as pending",
		Tags:        []string{"Table"},
	}, func(ctx context.Context, input *TableInput) (*TableOutput, error) {
		viewer, err := viewerFrom(ctx)
		if err != nil {
			return nil, err
		}
		eng := provider.Engine(input.Scope)
		if err := eng.BulkDesignate(ctx); err != nil {
			return nil, huma.Error502BadGateway("bulk designation failed", err)
		}
		return viewOf(ctx, eng, viewer)
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-task",
		Method:      http.MethodPost,
		Path:        "/table/{scope}/assign",
		Summary:     "Assign a responsible party to a task",
		Tags:        []string{"Table"},
	}, func(ctx context.Context, input *AssignInput) (*TableOutput, error) {
		viewer, err := viewerFrom(ctx)
		if err != nil {
			return nil, err
		}
		eng := provider.Engine(input.Scope)
		if err := eng.Assign(ctx, input.Body.TaskID, input.Body.UserID); err != nil {
			return nil, huma.Error502BadGateway("assignment failed", err)
		}
		return viewOf(ctx, eng, viewer)
	})

	registerTaskAction(api, provider, "start-task", "start", "Start a pending task",
		func(ctx context.Context, eng TableEngine, viewer domain.Viewer, id int64) error {
			return eng.Start(ctx, viewer, id)
		})
	registerTaskAction(api, provider, "complete-task", "complete", "Complete an in-progress task",
		func(ctx context.Context, eng TableEngine, viewer domain.Viewer, id int64) error {
			return eng.Complete(ctx, viewer, id)
		})
	registerTaskAction(api, provider, "archive-task", "archive", "Archive an in-progress task",
		func(ctx context.Context, eng TableEngine, viewer domain.Viewer, id int64) error {
			return eng.Archive(ctx, viewer, id)
		})

	huma.Register(api, huma.Operation{
		OperationID: "transfer-task",
		Method:      http.MethodPost,
		Path:        "/table/{scope}/tasks/{id}/transfer",
		Summary:     "Transfer a task to another sector",
		Tags:        []string{"Table"},
	}, func(ctx context.Context, input *TransferInput) (*TableOutput, error) {
		viewer, err := viewerFrom(ctx)
		if err != nil {
			return nil, err
		}
		eng := provider.Engine(input.Scope)
		if err := eng.Transfer(ctx, viewer, input.ID, input.Body.SectorID); err != nil {
			return nil, mapActionError(err)
		}
		return viewOf(ctx, eng, viewer)
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/table/{scope}/tasks/{id}",
		Summary:     "Permanently delete a task",
		Tags:        []string{"Table"},
	}, func(ctx context.Context, input *DeleteTaskInput) (*TableOutput, error) {
		viewer, err := viewerFrom(ctx)
		if err != nil {
			return nil, err
		}
		eng := provider.Engine(input.Scope)
		if err := eng.Delete(ctx, viewer, input.ID, input.Confirm); err != nil {
			return nil, mapActionError(err)
		}
		return viewOf(ctx, eng, viewer)
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/table/{scope}/users",
		Summary:     "List assignment candidates for a scope",
		Tags:        []string{"Table"},
	}, func(ctx context.Context, input *TableInput) (*ListUsersOutput, error) {
		if _, err := viewerFrom(ctx); err != nil {
			return nil, err
		}
		users, err := provider.Engine(input.Scope).Users(ctx)
		if err != nil {
			return nil, huma.Error502BadGateway("failed to list users", err)
		}
		body := make([]userBody, 0, len(users))
		for _, u := range users {
			body = append(body, userBody{ID: u.ID, DisplayName: u.DisplayName, Email: u.Email})
		}
		return &ListUsersOutput{Body: body}, nil
	})
}

func registerTaskAction(api huma.API, provider EngineProvider, operationID, action, summary string, call func(context.Context, TableEngine, domain.Viewer, int64) error) {
	huma.Register(api, huma.Operation{
		OperationID: operationID,
		Method:      http.MethodPost,
		Path:        "/table/{scope}/tasks/{id}/" + action,
		Summary:     summary,
		Tags:        []string{"Table"},
	}, func(ctx context.Context, input *TaskActionInput) (*TableOutput, error) {
		viewer, err := viewerFrom(ctx)
		if err != nil {
			return nil, err
		}
		eng := provider.Engine(input.Scope)
		if err := call(ctx, eng, viewer, input.ID); err != nil {
			return nil, mapActionError(err)
		}
		return viewOf(ctx, eng, viewer)
	})
}

func RegisterSectorRoutes(api huma.API, sectors SectorDirectory) {
	huma.Register(api, huma.Operation{
		OperationID: "list-sectors",
		Method:      http.MethodGet,
		Path:        "/sectors",
		Summary:     "List transfer target sectors",
		Tags:        []string{"Sectors"},
	}, func(ctx context.Context, _ *struct{}) (*ListSectorsOutput, error) {
		if _, err := viewerFrom(ctx); err != nil {
			return nil, err
		}
		list, err := sectors.FetchSectors(ctx)
		if err != nil {
			return nil, huma.Error502BadGateway("failed to list sectors", err)
		}
		body := make([]sectorBody, 0, len(list))
		for _, s := range list {
			body = append(body, sectorBody{ID: s.ID, Name: s.Name})
		}
		return &ListSectorsOutput{Body: body}, nil
	})
}
