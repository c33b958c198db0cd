package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the common interface for logging in parley.
// Arguments after the message are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger
}

// ZeroLogger is a Logger implementation backed by zerolog.
type ZeroLogger struct {
	z     zerolog.Logger
	group string
}

// New wraps an already configured zerolog.Logger.
func New(z zerolog.Logger) Logger {
	return &ZeroLogger{z: z}
}

// Default creates a Logger with console output on stderr at info level.
func Default() Logger {
	return Pretty(os.Stderr, zerolog.InfoLevel)
}

// JSON creates a Logger writing one JSON object per line, for production use.
func JSON(w io.Writer, level zerolog.Level) Logger {
	return New(zerolog.New(w).Level(level).With().Timestamp().Logger())
}

// Pretty creates a Logger with human readable console output for CLI use.
func Pretty(w io.Writer, level zerolog.Level) Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return New(zerolog.New(out).Level(level).With().Timestamp().Logger())
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return New(zerolog.Nop())
}

// Setup builds a Logger from CLI-style level and format strings.
// Format is one of "pretty", "json" or "text"; text is an alias of pretty
// without colours.
func Setup(w io.Writer, level, format string) Logger {
	lvl := ParseLevel(level)
	switch strings.ToLower(format) {
	case "json":
		return JSON(w, lvl)
	case "text":
		out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
		return New(zerolog.New(out).Level(lvl).With().Timestamp().Logger())
	default:
		return Pretty(w, lvl)
	}
}

// FromContext retrieves a Logger from the context.
// If no logger is found, returns a default logger.
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return logger
	}
	return Default()
}

// WithContext adds the logger to the context.
func WithContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

type loggerKey struct{}

func (l *ZeroLogger) Debug(msg string, args ...any) {
	l.emit(l.z.Debug(), msg, args)
}

func (l *ZeroLogger) Info(msg string, args ...any) {
	l.emit(l.z.Info(), msg, args)
}

func (l *ZeroLogger) Warn(msg string, args ...any) {
	l.emit(l.z.Warn(), msg, args)
}

func (l *ZeroLogger) Error(msg string, args ...any) {
	l.emit(l.z.Error(), msg, args)
}

func (l *ZeroLogger) With(args ...any) Logger {
	zc := l.z.With()
	for i := 0; i+1 < len(args); i += 2 {
		zc = zc.Interface(l.key(args[i]), args[i+1])
	}
	return &ZeroLogger{z: zc.Logger(), group: l.group}
}

// WithGroup prefixes the keys of every later field with name and a dot.
func (l *ZeroLogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return &ZeroLogger{z: l.z, group: l.group + name + "."}
}

// emit adds variadic key-value pairs to the event and sends it.
// A trailing key without a value is dropped.
func (l *ZeroLogger) emit(e *zerolog.Event, msg string, args []any) {
	if e == nil {
		return
	}
	for i := 0; i+1 < len(args); i += 2 {
		if err, ok := args[i+1].(error); ok {
			e = e.AnErr(l.key(args[i]), err)
			continue
		}
		e = e.Interface(l.key(args[i]), args[i+1])
	}
	e.Msg(msg)
}

func (l *ZeroLogger) key(k any) string {
	s, ok := k.(string)
	if !ok {
		s = fmt.Sprintf("%v", k)
	}
	return l.group + s
}

// ParseLevel converts a string level to a zerolog level. Unknown values map
// to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
