package log

import "context"

// loggerKey is the private context key for the bound logger.
type loggerKey struct{}

// ContextWithLogger binds logger into ctx so downstream calls share the
// same correlation fields.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger bound to ctx, or a no-op logger when
// none was bound. It never returns nil.
//
//nolint:ireturn
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey{}).(Logger); ok && logger != nil {
		return logger
	}

	return NewNop()
}
