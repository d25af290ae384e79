// Package notify delivers user-facing notices produced by table
// operations. Delivery is fire-and-forget: a sink failure is logged and
// never fails the operation that raised the notice.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Severity of a notice.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Sink receives user-facing notices for a scope.
type Sink interface {
	Notify(ctx context.Context, scope string, severity Severity, text string)
}

// Multi fans one notice out to several sinks.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, scope string, severity Severity, text string) {
	for _, s := range m {
		s.Notify(ctx, scope, severity, text)
	}
}

// LogSink writes notices to the structured log.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a LogSink on the given logger.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Notify(_ context.Context, scope string, severity Severity, text string) {
	evt := s.log.Info()
	switch severity {
	case SeverityWarning:
		evt = s.log.Warn()
	case SeverityError:
		evt = s.log.Error()
	}
	evt.Str("scope", scope).Str("severity", string(severity)).Msg(text)
}

// Success raises a success notice on the sink.
func Success(ctx context.Context, sink Sink, scope, text string) {
	sink.Notify(ctx, scope, SeveritySuccess, text)
}

// Warning raises a warning notice on the sink.
func Warning(ctx context.Context, sink Sink, scope, text string) {
	sink.Notify(ctx, scope, SeverityWarning, text)
}

// Error raises an error notice on the sink.
func Error(ctx context.Context, sink Sink, scope, text string) {
	sink.Notify(ctx, scope, SeverityError, text)
}
