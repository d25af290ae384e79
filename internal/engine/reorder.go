package engine

import "context"

// Reorder moves the row with fromID to the position occupied by toID
// and persists the resulting visible order.
//
// The local move is optimistic: the table reflects the new order before
// the round trip. A persistence failure raises an error notice but the
// local order is intentionally kept as the user arranged it; reorder
// is low-stakes and easily redone, unlike field mutations, which wait
// for server confirmation.
//
// Both ids must belong to the currently visible set; a filtered-out row
// can never be a drag source or destination, so cross-filter reordering
// is impossible by construction.
func (e *Engine) Reorder(ctx context.Context, fromID, toID int64) error {
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}
	if fromID == toID {
		return nil
	}

	visible := e.visibleIDs()
	if !containsID(visible, fromID) || !containsID(visible, toID) {
		return nil
	}

	if !e.store.Reorder(fromID, toID) {
		return nil
	}

	order := e.visibleIDs()
	e.publish(ctx, TableEvent{Type: EventOrderChanged, Scope: e.scope, Order: order})

	if err := e.svc.PersistOrder(ctx, e.scope, order); err != nil {
		e.log.Warn().Err(err).Int64("from", fromID).Int64("to", toID).Msg("order persistence failed")
		e.notifyError(ctx, "The new task order could not be saved.")
	}
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
