package logging

import (
	"go.uber.org/zap/zapcore"
)

// Mandatory keys present on every record.
const (
	TimestampKey = "timestamp"
	LevelKey     = "level"
	MessageKey   = "message"
)

func isReservedKey(key string) bool {
	return key == TimestampKey || key == LevelKey || key == MessageKey
}

// reservedKeyCore drops caller fields that would shadow a mandatory key,
// so every line keeps a single timestamp, level and message.
type reservedKeyCore struct {
	zapcore.Core
}

func newReservedKeyCore(core zapcore.Core) zapcore.Core {
	return &reservedKeyCore{Core: core}
}

func (c *reservedKeyCore) With(fields []zapcore.Field) zapcore.Core {
	return &reservedKeyCore{Core: c.Core.With(dropReserved(fields))}
}

func (c *reservedKeyCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *reservedKeyCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, dropReserved(fields))
}

func dropReserved(fields []zapcore.Field) []zapcore.Field {
	n := 0
	for _, f := range fields {
		if isReservedKey(f.Key) {
			n++
		}
	}
	if n == 0 {
		return fields
	}
	kept := make([]zapcore.Field, 0, len(fields)-n)
	for _, f := range fields {
		if !isReservedKey(f.Key) {
			kept = append(kept, f)
		}
	}
	return kept
}
