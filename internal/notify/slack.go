package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	slacklib "github.com/slack-go/slack"
)

// SlackAPI abstracts the subset of the Slack client used by SlackSink.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessage(channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// SlackSink mirrors warning and error notices into an ops channel so
// consultants see failed batch operations without watching the logs.
// Success notices are deliberately not forwarded.
type SlackSink struct {
	api       SlackAPI
	channelID string
	log       zerolog.Logger
}

var _ Sink = (*SlackSink)(nil) //nolint:gochecknoglobals // compile-time check

// NewSlackSink creates a SlackSink posting to the given channel.
func NewSlackSink(api SlackAPI, channelID string, log zerolog.Logger) *SlackSink {
	return &SlackSink{api: api, channelID: channelID, log: log}
}

func (s *SlackSink) Notify(_ context.Context, scope string, severity Severity, text string) {
	if severity == SeveritySuccess {
		return
	}

	icon := ":warning:"
	if severity == SeverityError {
		icon = ":x:"
	}
	msg := fmt.Sprintf("%s [%s] %s", icon, scope, text)

	if _, _, err := s.api.PostMessage(s.channelID, slacklib.MsgOptionText(msg, false)); err != nil {
		s.log.Error().Err(err).Str("scope", scope).Msg("slack notice delivery failed")
	}
}
