package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Severities understood by the log shipper, lowest first.
const (
	DebugLevel    = zapcore.DebugLevel
	InfoLevel     = zapcore.InfoLevel
	WarningLevel  = zapcore.WarnLevel
	ErrorLevel    = zapcore.ErrorLevel
	CriticalLevel = zapcore.DPanicLevel
)

// LevelName returns the upper-case name written to the "level" key.
func LevelName(l zapcore.Level) string {
	switch {
	case l <= DebugLevel:
		return "DEBUG"
	case l == InfoLevel:
		return "INFO"
	case l == WarningLevel:
		return "WARNING"
	case l == ErrorLevel:
		return "ERROR"
	default:
		return "CRITICAL"
	}
}

// ParseLevel parses a severity name, case-insensitively.
// "warn" is accepted as an alias for "warning".
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarningLevel, nil
	case "error":
		return ErrorLevel, nil
	case "critical":
		return CriticalLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", level)
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(LevelName(l))
}
