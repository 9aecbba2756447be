package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// TraceLevel sits one step below Debug and carries per-section detail:
// scores, ranks and refined lengths for every written section.
const TraceLevel = zapcore.DebugLevel - 1

// Level is a configured log threshold. Unlike zapcore.Level it accepts
// "trace", so LOGGING_LEVEL=trace works from YAML and the environment.
type Level zapcore.Level

// Enabled implements zapcore.LevelEnabler.
func (l Level) Enabled(lvl zapcore.Level) bool {
	return zapcore.Level(l).Enabled(lvl)
}

// String returns the lowercase level name.
func (l Level) String() string {
	if zapcore.Level(l) == TraceLevel {
		return "trace"
	}
	return zapcore.Level(l).String()
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	if name == "trace" {
		*l = Level(TraceLevel)
		return nil
	}
	var zl zapcore.Level
	if err := zl.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("unknown log level %q: want trace, debug, info, warn or error", text)
	}
	*l = Level(zl)
	return nil
}

// encodeLevel names TraceLevel in output; zap would print "Level(-2)".
func encodeLevel(next zapcore.LevelEncoder, trace string) zapcore.LevelEncoder {
	return func(lvl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		if lvl == TraceLevel {
			enc.AppendString(trace)
			return
		}
		next(lvl, enc)
	}
}
