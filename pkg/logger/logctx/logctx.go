// Package logctx logs through the root logger, appending the fields carried by ctx.
package logctx

import (
	"context"

	"github.com/nguyentranbao-ct/chat-engine/pkg/ctxval"
	"github.com/nguyentranbao-ct/chat-engine/pkg/logger"
	"go.uber.org/zap"
)

type fieldsKey struct{}

// WithFields attaches key/value pairs to every line logged with ctx.
// On a ctxval-wrapped context the fields are stored in place, so callers
// further down the chain see them without re-threading the context.
func WithFields(ctx context.Context, kv ...any) context.Context {
	merged := append(Fields(ctx), kv...)
	if ctxval.IsWrapped(ctx) {
		ctxval.Set(ctx, fieldsKey{}, merged)
		return ctx
	}
	return context.WithValue(ctx, fieldsKey{}, merged)
}

func Fields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	if kv, ok := ctxval.Get[fieldsKey, []any](ctx, fieldsKey{}); ok {
		return append([]any(nil), kv...)
	}
	if kv, ok := ctx.Value(fieldsKey{}).([]any); ok {
		return append([]any(nil), kv...)
	}
	return nil
}

func sugar(ctx context.Context) *zap.SugaredLogger {
	s := logger.Root().WithOptions(zap.AddCallerSkip(1)).Sugar()
	if kv := Fields(ctx); len(kv) > 0 {
		s = s.With(kv...)
	}
	return s
}

func Debugw(ctx context.Context, msg string, kv ...any) { sugar(ctx).Debugw(msg, kv...) }
func Infow(ctx context.Context, msg string, kv ...any)  { sugar(ctx).Infow(msg, kv...) }
func Warnw(ctx context.Context, msg string, kv ...any)  { sugar(ctx).Warnw(msg, kv...) }
func Errorw(ctx context.Context, msg string, kv ...any) { sugar(ctx).Errorw(msg, kv...) }

func Debugf(ctx context.Context, template string, args ...any) { sugar(ctx).Debugf(template, args...) }
func Infof(ctx context.Context, template string, args ...any)  { sugar(ctx).Infof(template, args...) }
func Warnf(ctx context.Context, template string, args ...any)  { sugar(ctx).Warnf(template, args...) }
func Errorf(ctx context.Context, template string, args ...any) { sugar(ctx).Errorf(template, args...) }

func Logw(ctx context.Context, level logger.Level, msg string, kv ...any) {
	s := sugar(ctx)
	switch level {
	case logger.DebugLevel:
		s.Debugw(msg, kv...)
	case logger.InfoLevel:
		s.Infow(msg, kv...)
	case logger.WarnLevel:
		s.Warnw(msg, kv...)
	default:
		s.Errorw(msg, kv...)
	}
}
