// Package logging implements ariadne.Logger on zerolog
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
)

type Level uint

const (
	NONE Level = iota
	ERROR
	WARNING
	INFO
	DEBUG
	TRACE
)

// LevelFromString accepts the level names in any case. Unknown names are
// DEBUG.
func LevelFromString(s string) Level {
	switch strings.ToUpper(s) {
	case "NONE":
		return NONE
	case "ERROR":
		return ERROR
	case "WARNING", "WARN":
		return WARNING
	case "INFO":
		return INFO
	case "DEBUG":
		return DEBUG
	case "TRACE":
		return TRACE
	default:
		return DEBUG
	}
}

func toZeroLevel(lvl Level) zerolog.Level {
	switch lvl {
	case NONE:
		return zerolog.Disabled
	case TRACE:
		return zerolog.TraceLevel
	case DEBUG:
		return zerolog.DebugLevel
	case INFO:
		return zerolog.InfoLevel
	case WARNING:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Logger adapts a zerolog.Logger to ariadne.Logger
type Logger struct {
	zl zerolog.Logger
}

var _ ariadne.Logger = (*Logger)(nil)

// New logs to w at level. console selects the human readable output,
// otherwise every entry is a json object.
func New(w io.Writer, level Level, console bool) *Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zlevel := toZeroLevel(level)
	// the global level also filters, and only lowering it can enable trace
	if zlevel < zerolog.GlobalLevel() {
		zerolog.SetGlobalLevel(zlevel)
	}
	zl := zerolog.New(w).Level(zlevel).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// With returns a logger that adds ctx to every entry
func (l *Logger) With(ctx ...interface{}) *Logger {
	c := l.zl.With()
	for i := 0; i+1 < len(ctx); i += 2 {
		c = c.Interface(fmt.Sprint(ctx[i]), ctx[i+1])
	}
	return &Logger{zl: c.Logger()}
}

type lazy func() string

// LazyValue defers fn until an entry using it is actually written
func (l *Logger) LazyValue(fn func() string) interface{} {
	return lazy(fn)
}

func (l *Logger) Trace(msg string, ctx ...interface{}) { write(l.zl.Trace(), msg, ctx) }
func (l *Logger) Debug(msg string, ctx ...interface{}) { write(l.zl.Debug(), msg, ctx) }
func (l *Logger) Info(msg string, ctx ...interface{})  { write(l.zl.Info(), msg, ctx) }
func (l *Logger) Warn(msg string, ctx ...interface{})  { write(l.zl.Warn(), msg, ctx) }

// Crit logs at fatal level and exits the process
func (l *Logger) Crit(msg string, ctx ...interface{}) { write(l.zl.Fatal(), msg, ctx) }

func write(e *zerolog.Event, msg string, ctx []interface{}) {
	// nil when the level is disabled
	if e == nil {
		return
	}
	for i := 0; i < len(ctx); i += 2 {
		key := fmt.Sprint(ctx[i])
		if i+1 == len(ctx) {
			e.Str("LOG_ERROR", "odd number of context values")
			break
		}
		switch v := ctx[i+1].(type) {
		case lazy:
			e.Str(key, v())
		case string:
			e.Str(key, v)
		case error:
			e.AnErr(key, v)
		case fmt.Stringer:
			e.Stringer(key, v)
		default:
			e.Interface(key, v)
		}
	}
	e.Msg(msg)
}
