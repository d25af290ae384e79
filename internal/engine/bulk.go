package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/ohsdesk/mesa/internal/domain"
)

// BulkDesignate marks the selected automatic tasks as pending, one
// independent remote call per row.
//
// The batch is all-settled: every eligible row's call runs to
// completion regardless of its siblings, and only the rows whose call
// succeeded are patched locally. A single backend error for one row
// must never prevent the other rows in the batch from being applied.
// The outcome is reported once, as an aggregate; per-row causes go to
// the log only. The selection is cleared after the batch regardless of
// how many calls failed; failed rows stay individually actionable.
func (e *Engine) BulkDesignate(ctx context.Context) error {
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	selected := e.selection.IDs()
	e.mu.Unlock()

	if len(selected) == 0 {
		return nil
	}

	// Partition the selection: rows that are not automatic are never
	// eligible; automatic rows without a responsible party are warned
	// about and excluded, not retried.
	var ready, missingResponsible []int64
	for _, id := range selected {
		rec, ok := e.store.Get(id)
		if !ok {
			continue
		}
		if rec.StatusCategory() != domain.StatusAutomatic {
			continue
		}
		if rec.ResponsibleID == nil && rec.ResponsibleName == "" {
			missingResponsible = append(missingResponsible, id)
			continue
		}
		ready = append(ready, id)
	}

	if len(ready) == 0 && len(missingResponsible) == 0 {
		e.notifyWarning(ctx, "None of the selected tasks are automatic; nothing to designate.")
		return nil
	}

	if len(missingResponsible) > 0 {
		e.notifyWarning(ctx, fmt.Sprintf(
			"%d selected task(s) have no responsible party and were skipped.",
			len(missingResponsible)))
	}

	pending := domain.StatusPending.Label()
	results := make([]error, len(ready))

	var wg sync.WaitGroup
	for i, id := range ready {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, err := e.svc.SetTaskFields(ctx, id, domain.FieldPatch{Status: &pending})
			results[i] = err
		}(i, id)
	}
	wg.Wait()

	var failed int
	for i, id := range ready {
		if results[i] != nil {
			failed++
			e.log.Error().Err(results[i]).Int64("task_id", id).Msg("bulk designate row failed")
			continue
		}
		if e.store.PatchOne(id, domain.FieldPatch{Status: &pending}) {
			e.publish(ctx, TableEvent{Type: EventRowPatched, Scope: e.scope, TaskID: id})
		}
	}

	e.mu.Lock()
	e.recompute()
	e.selection.Clear()
	e.mu.Unlock()

	switch {
	case len(ready) == 0:
		// Only missing-responsible rows were selected; already warned.
	case failed == 0:
		e.notifySuccess(ctx, fmt.Sprintf("%d task(s) marked as pending.", len(ready)))
	default:
		e.notifyError(ctx, fmt.Sprintf("%d of %d task update(s) failed.", failed, len(ready)))
	}

	return nil
}
