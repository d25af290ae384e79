package engine

import (
	"context"

	"github.com/ohsdesk/mesa/internal/notify"
)

func (e *Engine) notifySuccess(ctx context.Context, text string) {
	notify.Success(ctx, e.notifier, e.scope, text)
}

func (e *Engine) notifyWarning(ctx context.Context, text string) {
	notify.Warning(ctx, e.notifier, e.scope, text)
}

func (e *Engine) notifyError(ctx context.Context, text string) {
	notify.Error(ctx, e.notifier, e.scope, text)
}
