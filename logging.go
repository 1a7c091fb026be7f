package conf

import (
	"context"
	"log/slog"
	"time"
)

// ResolutionEvent describes a single key resolution for logging.
type ResolutionEvent struct {
	Key      string
	Found    bool
	Position int
	Meta     Meta
	Duration time.Duration
	Err      error
}

// ResolutionLogger records resolution events.
type ResolutionLogger interface {
	LogResolution(ResolutionEvent)
}

// ResolutionLoggerFunc adapts a function to ResolutionLogger.
type ResolutionLoggerFunc func(ResolutionEvent)

// LogResolution implements ResolutionLogger.
func (f ResolutionLoggerFunc) LogResolution(event ResolutionEvent) {
	if f != nil {
		f(event)
	}
}

type noopResolutionLogger struct{}

func (noopResolutionLogger) LogResolution(ResolutionEvent) {}

// SlogLogger writes resolution events to logger: misses and hits at debug
// level, provider failures at error level.
func SlogLogger(logger *slog.Logger) ResolutionLogger {
	if logger == nil {
		return noopResolutionLogger{}
	}
	return slogResolutionLogger{logger: logger}
}

type slogResolutionLogger struct {
	logger *slog.Logger
}

func (l slogResolutionLogger) LogResolution(event ResolutionEvent) {
	attrs := []slog.Attr{
		slog.String("key", event.Key),
		slog.Bool("found", event.Found),
		slog.Duration("duration", event.Duration),
	}
	if event.Found {
		attrs = append(attrs,
			slog.Int("position", event.Position),
			slog.String("provider", event.Meta.Provider),
			slog.String("source", event.Meta.Source),
		)
	}
	if event.Err != nil {
		attrs = append(attrs, slog.Any("error", event.Err))
		l.logger.LogAttrs(context.Background(), slog.LevelError, "conf: resolve failed", attrs...)
		return
	}
	l.logger.LogAttrs(context.Background(), slog.LevelDebug, "conf: resolve", attrs...)
}
