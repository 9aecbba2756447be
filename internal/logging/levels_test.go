package logging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestLevel_UnmarshalText(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"trace", TraceLevel},
		{" TRACE ", TraceLevel},
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var l Level
			require.NoError(t, l.UnmarshalText([]byte(tt.in)))
			assert.Equal(t, Level(tt.want), l)
		})
	}

	l := Level(zapcore.InfoLevel)
	err := l.UnmarshalText([]byte("loud"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log level")
	assert.Equal(t, Level(zapcore.InfoLevel), l, "failed parse keeps the previous level")
}

func TestLevel_MarshalText(t *testing.T) {
	text, err := Level(TraceLevel).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "trace", string(text))
	assert.Equal(t, "warn", Level(zapcore.WarnLevel).String())
}

func TestLevel_Enabled(t *testing.T) {
	assert.Less(t, int8(TraceLevel), int8(zapcore.DebugLevel))
	assert.True(t, Level(TraceLevel).Enabled(TraceLevel))
	assert.True(t, Level(TraceLevel).Enabled(zapcore.DebugLevel))
	assert.False(t, Level(zapcore.DebugLevel).Enabled(TraceLevel))
}

func TestLogger_TraceLevelOutput(t *testing.T) {
	buf := &zaptest.Buffer{}
	cfg := NewDefaultConfig()
	cfg.Level = Level(TraceLevel)
	logger := newLogger(cfg, buf)

	logger.Trace(context.Background(), "section refined")

	lines := buf.Lines()
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "trace", entry["level"])
}
