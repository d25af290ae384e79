package middleware

import (
	"context"

	"github.com/ohsdesk/mesa/internal/domain"
)

type contextKey string

const contextKeyViewer contextKey = "viewer"

// WithViewer returns a context carrying the authenticated viewer. Used
// by the auth middleware and by tests that bypass it.
func WithViewer(ctx context.Context, v domain.Viewer) context.Context {
	return context.WithValue(ctx, contextKeyViewer, v)
}

func ViewerFromContext(ctx context.Context) (domain.Viewer, bool) {
	v, ok := ctx.Value(contextKeyViewer).(domain.Viewer)
	return v, ok
}
