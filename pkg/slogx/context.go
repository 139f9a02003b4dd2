package slogx

import (
	"context"
	"log/slog"
	"sync"
)

type (
	ctxKey      struct{}
	annotateKey struct{}
)

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// annotations collects attributes added while a request is served. They are
// written on the request's access log line.
type annotations struct {
	mu    sync.Mutex
	attrs []any
}

func withAnnotations(ctx context.Context) (context.Context, *annotations) {
	a := &annotations{}
	return context.WithValue(ctx, annotateKey{}, a), a
}

// Annotate adds key/value pairs to the access log line of the request ctx
// belongs to. It is a no-op outside HTTPMiddleware.
func Annotate(ctx context.Context, args ...any) {
	a, ok := ctx.Value(annotateKey{}).(*annotations)
	if !ok {
		return
	}
	a.mu.Lock()
	a.attrs = append(a.attrs, args...)
	a.mu.Unlock()
}

func (a *annotations) list() []any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]any(nil), a.attrs...)
}
