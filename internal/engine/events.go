package engine

import (
	"context"
	"encoding/json"

	redisstore "github.com/ohsdesk/mesa/internal/store/redis"
)

// Table event types fanned out to connected views.
const (
	EventRowsReplaced = "rows_replaced"
	EventRowPatched   = "row_patched"
	EventRowRemoved   = "row_removed"
	EventOrderChanged = "order_changed"
)

// TableEvent is the wire form of a table change notification.
type TableEvent struct {
	Type   string  `json:"type"`
	Scope  string  `json:"scope"`
	TaskID int64   `json:"task_id,omitempty"`
	Order  []int64 `json:"order,omitempty"`
}

// Publisher is the subset of the Redis pub/sub layer the engine needs
// for event fan-out.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// publish fans a table event out to the scope's channel. Fan-out is
// best-effort; a publish failure is logged, never surfaced.
func (e *Engine) publish(ctx context.Context, evt TableEvent) {
	if e.events == nil {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		e.log.Error().Err(err).Msg("marshal table event")
		return
	}
	if err := e.events.Publish(ctx, redisstore.TableChannel(e.scope), payload); err != nil {
		e.log.Error().Err(err).Str("type", evt.Type).Msg("publish table event")
	}
}
