package engine

import (
	"context"

	"github.com/ohsdesk/mesa/internal/domain"
)

// Assign sets a task's responsible party. One user gesture, up to two
// field changes: assigning onto an automatic task also moves it to
// pending, carried in the same remote request so the transition is
// atomic from the table's perspective.
//
// The mutation is confirm-first: the store is only touched after the
// server accepts, and then in a single patch covering both fields, so the
// table never shows the assignee without the implied status, or a
// responsible name that contradicts the id. Assigning the "none"
// placeholder or an unknown user is a non-event, not an error.
func (e *Engine) Assign(ctx context.Context, taskID, userID int64) error {
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}
	if userID <= 0 {
		return nil
	}

	users, err := e.Users(ctx)
	if err != nil {
		return err
	}
	var assignee *domain.User
	for i := range users {
		if users[i].ID == userID {
			assignee = &users[i]
			break
		}
	}
	if assignee == nil {
		return nil
	}

	rec, ok := e.store.Get(taskID)
	if !ok {
		return nil
	}

	impliesPending := rec.StatusCategory() == domain.StatusAutomatic

	wire := domain.FieldPatch{ResponsibleID: &assignee.ID}
	if impliesPending {
		pending := domain.StatusPending.Label()
		wire.Status = &pending
	}

	if _, err := e.svc.SetTaskFields(ctx, taskID, wire); err != nil {
		e.log.Error().Err(err).Int64("task_id", taskID).Int64("user_id", userID).Msg("assignment failed")
		e.notifyError(ctx, "The responsible party could not be assigned.")
		return nil
	}

	local := domain.FieldPatch{
		ResponsibleID:   &assignee.ID,
		ResponsibleName: &assignee.DisplayName,
	}
	if impliesPending {
		pending := domain.StatusPending.Label()
		local.Status = &pending
	}
	if e.store.PatchOne(taskID, local) {
		e.publish(ctx, TableEvent{Type: EventRowPatched, Scope: e.scope, TaskID: taskID})
	}

	e.mu.Lock()
	e.recompute()
	e.mu.Unlock()

	return nil
}
