package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// zerologLogger adapts zerolog.Logger to the Logger interface. The pattern
// (holding a configured zerolog.Logger value and deriving new instances via
// With()) follows SilvaMendes-go-rtpengine's Client, which keeps a
// zerolog.Logger field populated from log.Logger.With()....Logger().
type zerologLogger struct {
	z zerolog.Logger
}

// NewZerologLogger builds a Logger backed by zerolog, writing to w in
// console-friendly form when pretty is true, or newline-delimited JSON
// otherwise.
func NewZerologLogger(w io.Writer, level zerolog.Level, pretty bool) Logger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	z := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &zerologLogger{z: z}
}

func (l *zerologLogger) log(evt *zerolog.Event, msg string, args ...any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		evt = evt.Interface(key, args[i+1])
	}
	evt.Msg(msg)
}

func (l *zerologLogger) Debug(msg string, args ...any) { l.log(l.z.Debug(), msg, args...) }
func (l *zerologLogger) Info(msg string, args ...any)  { l.log(l.z.Info(), msg, args...) }
func (l *zerologLogger) Warn(msg string, args ...any)  { l.log(l.z.Warn(), msg, args...) }
func (l *zerologLogger) Error(msg string, args ...any) { l.log(l.z.Error(), msg, args...) }

func (l *zerologLogger) WithContext(ctx context.Context) Logger {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return &zerologLogger{z: l.z.With().Str("correlation_id", id).Logger()}
	}
	return l
}

// correlationIDKey is the context key under which a correlation id
// (typically a uuid minted per request by rpc.Server.handleOne) is stored.
type correlationIDKey struct{}

// WithCorrelationID attaches a correlation id to ctx for later retrieval
// by WithContext.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

func (l *zerologLogger) WithField(key string, value any) Logger {
	return &zerologLogger{z: l.z.With().Interface(key, value).Logger()}
}
