package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	slacklib "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohsdesk/mesa/internal/notify"
)

// ---------------------------------------------------------------------------
// Test doubles.
// ---------------------------------------------------------------------------

type recordedNotice struct {
	scope    string
	severity notify.Severity
	text     string
}

type recordingSink struct {
	notices []recordedNotice
}

func (r *recordingSink) Notify(_ context.Context, scope string, severity notify.Severity, text string) {
	r.notices = append(r.notices, recordedNotice{scope, severity, text})
}

type fakePublisher struct {
	channels []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, payload)
	return f.err
}

type fakeSlack struct {
	channels []string
	err      error
}

func (f *fakeSlack) PostMessage(channelID string, _ ...slacklib.MsgOption) (string, string, error) {
	f.channels = append(f.channels, channelID)
	return "", "", f.err
}

// ---------------------------------------------------------------------------
// Multi.
// ---------------------------------------------------------------------------

func TestMulti_FansOut(t *testing.T) {
	t.Parallel()

	a := &recordingSink{}
	b := &recordingSink{}
	m := notify.Multi{a, b}

	notify.Warning(context.Background(), m, "unit-1", "2 of 5 failed")

	require.Len(t, a.notices, 1)
	require.Len(t, b.notices, 1)
	assert.Equal(t, recordedNotice{"unit-1", notify.SeverityWarning, "2 of 5 failed"}, a.notices[0])
}

func TestSeverityHelpers(t *testing.T) {
	t.Parallel()

	s := &recordingSink{}
	ctx := context.Background()

	notify.Success(ctx, s, "u", "ok")
	notify.Warning(ctx, s, "u", "careful")
	notify.Error(ctx, s, "u", "boom")

	require.Len(t, s.notices, 3)
	assert.Equal(t, notify.SeveritySuccess, s.notices[0].severity)
	assert.Equal(t, notify.SeverityWarning, s.notices[1].severity)
	assert.Equal(t, notify.SeverityError, s.notices[2].severity)
}

// ---------------------------------------------------------------------------
// PubSubSink.
// ---------------------------------------------------------------------------

func TestPubSubSink_PublishesToNoticeChannel(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	sink := notify.NewPubSubSink(pub, zerolog.Nop())

	sink.Notify(context.Background(), "unit-7", notify.SeverityError, "assignment failed")

	require.Len(t, pub.channels, 1)
	assert.Equal(t, "notice:unit-7", pub.channels[0])

	var n notify.Notice
	require.NoError(t, json.Unmarshal(pub.payloads[0], &n))
	assert.Equal(t, "unit-7", n.Scope)
	assert.Equal(t, notify.SeverityError, n.Severity)
	assert.Equal(t, "assignment failed", n.Text)
	assert.False(t, n.At.IsZero())
}

func TestPubSubSink_PublishFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: errors.New("redis down")}
	sink := notify.NewPubSubSink(pub, zerolog.Nop())

	// Must not panic or propagate.
	sink.Notify(context.Background(), "unit-7", notify.SeveritySuccess, "done")
	assert.Len(t, pub.channels, 1)
}

// ---------------------------------------------------------------------------
// SlackSink.
// ---------------------------------------------------------------------------

func TestSlackSink(t *testing.T) {
	t.Parallel()

	t.Run("warnings and errors forwarded", func(t *testing.T) {
		t.Parallel()

		api := &fakeSlack{}
		sink := notify.NewSlackSink(api, "C123", zerolog.Nop())

		sink.Notify(context.Background(), "unit-1", notify.SeverityWarning, "3 rows skipped")
		sink.Notify(context.Background(), "unit-1", notify.SeverityError, "bulk failed")

		assert.Equal(t, []string{"C123", "C123"}, api.channels)
	})

	t.Run("success suppressed", func(t *testing.T) {
		t.Parallel()

		api := &fakeSlack{}
		sink := notify.NewSlackSink(api, "C123", zerolog.Nop())

		sink.Notify(context.Background(), "unit-1", notify.SeveritySuccess, "all good")
		assert.Empty(t, api.channels)
	})

	t.Run("post failure swallowed", func(t *testing.T) {
		t.Parallel()

		api := &fakeSlack{err: errors.New("slack down")}
		sink := notify.NewSlackSink(api, "C123", zerolog.Nop())

		sink.Notify(context.Background(), "unit-1", notify.SeverityError, "boom")
		assert.Len(t, api.channels, 1)
	})
}
