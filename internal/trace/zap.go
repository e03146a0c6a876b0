package trace

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapTracer forwards trace events to a zap.Logger at debug level.
type ZapTracer struct {
	log   *zap.Logger
	level Level
}

// NewZapTracer creates a tracer writing structured records to log.
func NewZapTracer(log *zap.Logger, level Level) *ZapTracer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapTracer{log: log.Named("trace"), level: level}
}

// Emit writes the event as a structured debug record.
func (t *ZapTracer) Emit(ev *Event) {
	if ev == nil || !t.level.ShouldEmit(ev.Scope) {
		return
	}
	ev.Seq = NextSeq()
	ce := t.log.Check(zapcore.DebugLevel, ev.Name)
	if ce == nil {
		return
	}
	fields := make([]zap.Field, 0, 6+len(ev.Extra))
	fields = append(fields,
		zap.Uint64("seq", ev.Seq),
		zap.Stringer("kind", ev.Kind),
		zap.Stringer("scope", ev.Scope),
	)
	if ev.SpanID != 0 {
		fields = append(fields, zap.Uint64("span", ev.SpanID))
	}
	if ev.ParentID != 0 {
		fields = append(fields, zap.Uint64("parent", ev.ParentID))
	}
	if ev.Detail != "" {
		fields = append(fields, zap.String("detail", ev.Detail))
	}
	for k, v := range ev.Extra {
		fields = append(fields, zap.String(k, v))
	}
	ce.Write(fields...)
}

func (t *ZapTracer) Flush() error {
	return t.log.Sync()
}

func (t *ZapTracer) Close() error {
	return t.Flush()
}

func (t *ZapTracer) Level() Level {
	return t.level
}

func (t *ZapTracer) Enabled() bool {
	return t.level > LevelOff
}
