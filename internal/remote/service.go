// Package remote defines the upstream operations the table engine
// consumes. Persistence and business rules (pricing, periodicity-based
// task generation) live behind these interfaces and are never
// reimplemented client-side.
package remote

import (
	"context"

	"github.com/ohsdesk/mesa/internal/domain"
)

// TaskService is the remote source of truth for task records.
type TaskService interface {
	// FetchTasks bulk-loads the ordered task list for a scope (an
	// organizational unit or company id).
	FetchTasks(ctx context.Context, scope string) ([]domain.TaskRecord, error)

	// SetTaskFields applies a partial update to one task and returns
	// the updated record as the server sees it.
	SetTaskFields(ctx context.Context, id int64, patch domain.FieldPatch) (*domain.TaskRecord, error)

	// DeleteTask permanently removes a task.
	DeleteTask(ctx context.Context, id int64) error

	// PersistOrder stores a new manual total order for the scope's
	// visible task ids.
	PersistOrder(ctx context.Context, scope string, ids []int64) error

	// FetchUsersForUnit lists assignment candidates for a scope.
	FetchUsersForUnit(ctx context.Context, scope string) ([]domain.User, error)

	// FetchSectors lists transfer-target sectors.
	FetchSectors(ctx context.Context) ([]domain.Sector, error)
}
