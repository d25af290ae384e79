package engine

import (
	"context"
	"fmt"

	"github.com/ohsdesk/mesa/internal/domain"
)

// Single-row status actions. All of them are confirm-first: the remote
// call settles before the store is touched, and a failure leaves the
// row exactly as it was, reported through the error notice channel.

// Start moves a pending task to in-progress. Offered only to the
// task's responsible party.
func (e *Engine) Start(ctx context.Context, viewer domain.Viewer, taskID int64) error {
	return e.transition(ctx, viewer, taskID, domain.StatusInProgress,
		func(a domain.Actions) bool { return a.CanStart })
}

// Complete moves an in-progress task to completed.
func (e *Engine) Complete(ctx context.Context, viewer domain.Viewer, taskID int64) error {
	return e.transition(ctx, viewer, taskID, domain.StatusCompleted,
		func(a domain.Actions) bool { return a.CanComplete })
}

// Archive moves an in-progress task to archived.
func (e *Engine) Archive(ctx context.Context, viewer domain.Viewer, taskID int64) error {
	return e.transition(ctx, viewer, taskID, domain.StatusArchived,
		func(a domain.Actions) bool { return a.CanArchive })
}

func (e *Engine) transition(ctx context.Context, viewer domain.Viewer, taskID int64, target domain.StatusCategory, allowed func(domain.Actions) bool) error {
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}

	rec, ok := e.store.Get(taskID)
	if !ok {
		return fmt.Errorf("engine.Engine.transition: task %d: %w", taskID, domain.ErrNotFound)
	}
	if !allowed(domain.PermittedActionsFor(viewer, &rec)) {
		return fmt.Errorf("engine.Engine.transition: task %d to %s: %w", taskID, target, domain.ErrActionNotAllowed)
	}

	label := target.Label()
	if _, err := e.svc.SetTaskFields(ctx, taskID, domain.FieldPatch{Status: &label}); err != nil {
		e.log.Error().Err(err).Int64("task_id", taskID).Str("target", label).Msg("status transition failed")
		e.notifyError(ctx, "The task status could not be updated.")
		return nil
	}

	if e.store.PatchOne(taskID, domain.FieldPatch{Status: &label}) {
		e.publish(ctx, TableEvent{Type: EventRowPatched, Scope: e.scope, TaskID: taskID})
	}

	e.mu.Lock()
	e.recompute()
	e.mu.Unlock()
	return nil
}

// Transfer moves an in-progress task to another sector. Transfer
// changes the assignee's sector, never the status.
func (e *Engine) Transfer(ctx context.Context, viewer domain.Viewer, taskID, sectorID int64) error {
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}

	rec, ok := e.store.Get(taskID)
	if !ok {
		return fmt.Errorf("engine.Engine.Transfer: task %d: %w", taskID, domain.ErrNotFound)
	}
	if !domain.PermittedActionsFor(viewer, &rec).CanTransfer {
		return fmt.Errorf("engine.Engine.Transfer: task %d: %w", taskID, domain.ErrActionNotAllowed)
	}

	sectors, err := e.Sectors(ctx)
	if err != nil {
		return err
	}
	var target *domain.Sector
	for i := range sectors {
		if sectors[i].ID == sectorID {
			target = &sectors[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("engine.Engine.Transfer: sector %d: %w", sectorID, domain.ErrNotFound)
	}

	if _, err := e.svc.SetTaskFields(ctx, taskID, domain.FieldPatch{SectorID: &target.ID}); err != nil {
		e.log.Error().Err(err).Int64("task_id", taskID).Int64("sector_id", sectorID).Msg("transfer failed")
		e.notifyError(ctx, "The task could not be transferred.")
		return nil
	}

	if e.store.PatchOne(taskID, domain.FieldPatch{SectorID: &target.ID, SectorName: &target.Name}) {
		e.publish(ctx, TableEvent{Type: EventRowPatched, Scope: e.scope, TaskID: taskID})
	}

	e.mu.Lock()
	e.recompute()
	e.mu.Unlock()

	e.notifySuccess(ctx, fmt.Sprintf("Task transferred to %s.", target.Name))
	return nil
}

// Delete permanently removes a task. Restricted to elevated roles and
// gated on an explicit confirmation from the caller; the UI presents a
// blocking prompt before setting the flag.
func (e *Engine) Delete(ctx context.Context, viewer domain.Viewer, taskID int64, confirmed bool) error {
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}

	if !domain.HasElevatedRole(viewer.RoleID) {
		return fmt.Errorf("engine.Engine.Delete: task %d: %w", taskID, domain.ErrForbidden)
	}
	if !confirmed {
		return fmt.Errorf("engine.Engine.Delete: task %d: %w", taskID, domain.ErrConfirmationRequired)
	}

	if _, ok := e.store.Get(taskID); !ok {
		return fmt.Errorf("engine.Engine.Delete: task %d: %w", taskID, domain.ErrNotFound)
	}

	if err := e.svc.DeleteTask(ctx, taskID); err != nil {
		e.log.Error().Err(err).Int64("task_id", taskID).Msg("delete failed")
		e.notifyError(ctx, "The task could not be deleted.")
		return nil
	}

	if e.store.Remove(taskID) {
		e.publish(ctx, TableEvent{Type: EventRowRemoved, Scope: e.scope, TaskID: taskID})
	}

	e.mu.Lock()
	e.recompute()
	e.mu.Unlock()

	e.notifySuccess(ctx, "Task deleted.")
	return nil
}
