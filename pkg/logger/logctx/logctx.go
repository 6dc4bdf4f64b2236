// Package logctx logs through the root logger with fields carried by a context.
package logctx

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/product-hub/pkg/logger"
	"go.uber.org/zap"
)

type fieldsKey struct{}

// With returns a context whose log lines carry the given key/value pairs.
func With(ctx context.Context, keysAndValues ...any) context.Context {
	prev, _ := ctx.Value(fieldsKey{}).([]any)
	fields := make([]any, 0, len(prev)+len(keysAndValues))
	fields = append(fields, prev...)
	fields = append(fields, keysAndValues...)
	return context.WithValue(ctx, fieldsKey{}, fields)
}

// WithRequestID is a shorthand for With(ctx, "request_id", id).
func WithRequestID(ctx context.Context, id string) context.Context {
	return With(ctx, "request_id", id)
}

// Fields returns the key/value pairs stored in ctx.
func Fields(ctx context.Context) []any {
	fields, _ := ctx.Value(fieldsKey{}).([]any)
	return fields
}

// From returns the root logger decorated with the context fields.
func From(ctx context.Context) *zap.SugaredLogger {
	l := logger.Root().WithOptions(zap.AddCallerSkip(1))
	if fields := Fields(ctx); len(fields) > 0 {
		l = l.With(fields...)
	}
	return l
}

func Debugw(ctx context.Context, msg string, keysAndValues ...any) {
	From(ctx).Debugw(msg, keysAndValues...)
}

func Infow(ctx context.Context, msg string, keysAndValues ...any) {
	From(ctx).Infow(msg, keysAndValues...)
}

func Warnw(ctx context.Context, msg string, keysAndValues ...any) {
	From(ctx).Warnw(msg, keysAndValues...)
}

func Errorw(ctx context.Context, msg string, keysAndValues ...any) {
	From(ctx).Errorw(msg, keysAndValues...)
}

func Infof(ctx context.Context, template string, args ...any) {
	From(ctx).Info(fmt.Sprintf(template, args...))
}

func Warnf(ctx context.Context, template string, args ...any) {
	From(ctx).Warn(fmt.Sprintf(template, args...))
}

func Errorf(ctx context.Context, template string, args ...any) {
	From(ctx).Error(fmt.Sprintf(template, args...))
}

// Logw logs at a level chosen at runtime.
func Logw(ctx context.Context, level logger.Level, msg string, keysAndValues ...any) {
	l := From(ctx)
	switch level {
	case logger.DebugLevel:
		l.Debugw(msg, keysAndValues...)
	case logger.InfoLevel:
		l.Infow(msg, keysAndValues...)
	case logger.WarnLevel:
		l.Warnw(msg, keysAndValues...)
	default:
		l.Errorw(msg, keysAndValues...)
	}
}
