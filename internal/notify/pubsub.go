package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisstore "github.com/ohsdesk/mesa/internal/store/redis"
)

// Notice is the wire form of a notice pushed to connected table views.
type Notice struct {
	ID       uuid.UUID `json:"id"`
	Scope    string    `json:"scope"`
	Severity Severity  `json:"severity"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

// Publisher is the subset of the Redis pub/sub layer the sink needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// PubSubSink publishes notices to the scope's notice channel, from
// which the WebSocket hub streams them to connected views as toasts.
type PubSubSink struct {
	pub Publisher
	log zerolog.Logger
}

// NewPubSubSink creates a PubSubSink on the given publisher.
func NewPubSubSink(pub Publisher, log zerolog.Logger) *PubSubSink {
	return &PubSubSink{pub: pub, log: log}
}

func (s *PubSubSink) Notify(ctx context.Context, scope string, severity Severity, text string) {
	n := Notice{
		ID:       uuid.New(),
		Scope:    scope,
		Severity: severity,
		Text:     text,
		At:       time.Now(),
	}
	payload, err := json.Marshal(n)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal notice")
		return
	}
	if err := s.pub.Publish(ctx, redisstore.NoticeChannel(scope), payload); err != nil {
		s.log.Error().Err(err).Str("scope", scope).Msg("publish notice")
	}
}
