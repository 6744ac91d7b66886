package commbus

import "go.uber.org/zap"

// Logger is the structured logging surface used throughout the package.
// The signature mirrors slog/zap/logrus so any of them can back it.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

type zapLogger struct {
	l *zap.SugaredLogger
}

// NewZapLogger wraps a *zap.Logger as a Logger. A nil logger builds a
// production zap logger.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		var err error
		l, err = zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
	}
	return &zapLogger{l: l.Sugar()}
}

func (z *zapLogger) Info(msg string, args ...any)  { z.l.Infow(msg, args...) }
func (z *zapLogger) Warn(msg string, args ...any)  { z.l.Warnw(msg, args...) }
func (z *zapLogger) Error(msg string, args ...any) { z.l.Errorw(msg, args...) }
func (z *zapLogger) Debug(msg string, args ...any) { z.l.Debugw(msg, args...) }

type noopLogger struct{}

// NewNoopLogger returns a Logger that discards everything, used as the
// default when a caller does not inject one.
func NewNoopLogger() Logger { return noopLogger{} }

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
