package log

import (
	"context"

	"github.com/rs/zerolog"
)

// WithLogger stores a request-scoped logger in the context using zerolog's
// own context carrier.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// Ctx retrieves the request-scoped logger, falling back to the global logger
// when the context carries none. zerolog hands back a disabled logger for a
// bare context; callers always get something that writes.
func Ctx(ctx context.Context) zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return L()
	}
	return *l
}
