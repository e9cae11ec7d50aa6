package ariadne

// Logger is the go-ethereum compatible logging interface used in ariadne.
// ctx is a flat list of alternating keys and values.
type Logger interface {
	LazyValue(func() string) interface{}
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
}

// NoopLogger discards everything
type NoopLogger struct{}

func (NoopLogger) LazyValue(fn func() string) interface{} { return nil }
func (NoopLogger) Trace(msg string, ctx ...interface{})    {}
func (NoopLogger) Debug(msg string, ctx ...interface{})    {}
func (NoopLogger) Info(msg string, ctx ...interface{})     {}
func (NoopLogger) Warn(msg string, ctx ...interface{})     {}
func (NoopLogger) Crit(msg string, ctx ...interface{})     {}

func orNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}
