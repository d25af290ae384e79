package ws

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/ohsdesk/mesa/internal/server/middleware"
	redisstore "github.com/ohsdesk/mesa/internal/store/redis"
)

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	pubsub *redisstore.PubSub
}

// NewHub creates a new WebSocket hub.
func NewHub(pubsub *redisstore.PubSub) *Hub {
	return &Hub{pubsub: pubsub}
}

// ServeTable handles WebSocket connections for live table updates.
// Subscribes to the Redis channels "table:<scope>" and "notice:<scope>"
// and forwards table events and notices to the connected client.
func (h *Hub) ServeTable(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ViewerFromContext(r.Context()); !ok {
		http.Error(w, "missing viewer", http.StatusUnauthorized)
		return
	}

	scope := chi.URLParam(r, "scope")
	if scope == "" {
		http.Error(w, "missing scope", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	events, cleanupEvents, err := h.pubsub.Subscribe(ctx, redisstore.TableChannel(scope))
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanupEvents()

	notices, cleanupNotices, err := h.pubsub.Subscribe(ctx, redisstore.NoticeChannel(scope))
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanupNotices()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-events:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		case msg, msgOK := <-notices:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

// Publish sends an event payload to a Redis channel. This is a
// convenience wrapper for callers that hold the hub but not the
// underlying pub/sub.
func (h *Hub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := h.pubsub.Publish(ctx, channel, payload); err != nil {
		return fmt.Errorf("ws.Hub.Publish: %w", err)
	}
	return nil
}
